// Package stream writes the typed server-sent event protocol used by
// the search endpoints.
package stream

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"
)

// Event types on the wire.
const (
	TypeConnection = "connection"
	TypeStatus     = "status"
	TypeData       = "data"
	TypeComplete   = "complete"
	TypeError      = "error"
	TypeHeartbeat  = "heartbeat"
)

// SetHeaders writes the response headers every SSE endpoint needs.
func SetHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
}

// ErrStreamClosed is returned for any send after a terminal complete
// or error event.
var ErrStreamClosed = errors.New("stream already closed")

// Streamer serializes events onto one SSE connection. Writes are
// mutex-guarded so heartbeats and pipeline events can come from
// different goroutines. The first terminal event (complete or error)
// closes the stream; later sends are rejected.
type Streamer struct {
	mu      sync.Mutex
	writer  http.ResponseWriter
	flusher http.Flusher
	closed  bool
	now     func() time.Time
}

// NewStreamer wraps a response writer for SSE output.
func NewStreamer(writer http.ResponseWriter) (*Streamer, error) {
	flusher, ok := writer.(http.Flusher)
	if !ok {
		return nil, errors.New("response writer does not support streaming")
	}
	return &Streamer{writer: writer, flusher: flusher, now: time.Now}, nil
}

// SendConnection announces that the stream is open.
func (s *Streamer) SendConnection(message string) error {
	return s.send(map[string]string{
		"type":    TypeConnection,
		"status":  "connected",
		"message": message,
	})
}

// SendStatus reports pipeline progress.
func (s *Streamer) SendStatus(message string) error {
	return s.send(map[string]string{"type": TypeStatus, "message": message})
}

// SendData emits one enriched result payload.
func (s *Streamer) SendData(payload any) error {
	return s.send(map[string]any{"type": TypeData, "data": payload})
}

// SendComplete closes the logical stream.
func (s *Streamer) SendComplete(message string) error {
	return s.sendTerminal(map[string]string{"type": TypeComplete, "message": message})
}

// SendError reports a terminal failure and closes the stream.
func (s *Streamer) SendError(message string) error {
	return s.sendTerminal(map[string]string{"type": TypeError, "message": message})
}

// SendHeartbeat keeps idle connections alive through proxies.
func (s *Streamer) SendHeartbeat() error {
	return s.send(map[string]any{
		"type":      TypeHeartbeat,
		"timestamp": s.now().Unix(),
	})
}

func (s *Streamer) send(payload any) error {
	return s.write(payload, false)
}

func (s *Streamer) sendTerminal(payload any) error {
	return s.write(payload, true)
}

func (s *Streamer) write(payload any, terminal bool) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStreamClosed
	}
	if _, err := fmt.Fprintf(s.writer, "data: %s\n\n", data); err != nil {
		return err
	}
	s.flusher.Flush()
	if terminal {
		s.closed = true
	}
	streamEventsTotal.WithLabelValues(eventType(payload)).Inc()
	return nil
}

func eventType(payload any) string {
	switch p := payload.(type) {
	case map[string]string:
		return p["type"]
	case map[string]any:
		if t, ok := p["type"].(string); ok {
			return t
		}
	}
	return "unknown"
}

// Heartbeat sends heartbeat events every interval until stop is
// closed or a write fails. Run it in its own goroutine.
func (s *Streamer) Heartbeat(interval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := s.SendHeartbeat(); err != nil {
				return
			}
		case <-stop:
			return
		}
	}
}

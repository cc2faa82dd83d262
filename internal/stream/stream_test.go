package stream

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func decodeEvents(t *testing.T, body string) []map[string]any {
	t.Helper()
	var events []map[string]any
	for _, chunk := range strings.Split(body, "\n\n") {
		chunk = strings.TrimSpace(chunk)
		if chunk == "" {
			continue
		}
		if !strings.HasPrefix(chunk, "data: ") {
			t.Fatalf("malformed SSE chunk %q", chunk)
		}
		var event map[string]any
		if err := json.Unmarshal([]byte(strings.TrimPrefix(chunk, "data: ")), &event); err != nil {
			t.Fatalf("decode event %q: %v", chunk, err)
		}
		events = append(events, event)
	}
	return events
}

func TestStreamer_EventSequence(t *testing.T) {
	w := httptest.NewRecorder()
	s, err := NewStreamer(w)
	if err != nil {
		t.Fatalf("new streamer: %v", err)
	}

	if err := s.SendConnection("Search stream established"); err != nil {
		t.Fatalf("send connection: %v", err)
	}
	if err := s.SendStatus("Searching for: golang"); err != nil {
		t.Fatalf("send status: %v", err)
	}
	if err := s.SendData(map[string]string{"url": "https://example.com"}); err != nil {
		t.Fatalf("send data: %v", err)
	}
	if err := s.SendComplete("Search completed"); err != nil {
		t.Fatalf("send complete: %v", err)
	}

	events := decodeEvents(t, w.Body.String())
	if len(events) != 4 {
		t.Fatalf("expected 4 events, got %d", len(events))
	}

	wantTypes := []string{TypeConnection, TypeStatus, TypeData, TypeComplete}
	for i, want := range wantTypes {
		if got := events[i]["type"]; got != want {
			t.Fatalf("event %d has type %v, want %s", i, got, want)
		}
	}
	if events[0]["status"] != "connected" {
		t.Fatalf("connection event missing status, got %v", events[0])
	}
	data, ok := events[2]["data"].(map[string]any)
	if !ok {
		t.Fatalf("data event payload missing: %v", events[2])
	}
	if data["url"] != "https://example.com" {
		t.Fatalf("unexpected data payload %v", data)
	}
}

func TestStreamer_Error(t *testing.T) {
	w := httptest.NewRecorder()
	s, err := NewStreamer(w)
	if err != nil {
		t.Fatalf("new streamer: %v", err)
	}

	if err := s.SendError("all search providers failed"); err != nil {
		t.Fatalf("send error: %v", err)
	}

	events := decodeEvents(t, w.Body.String())
	if len(events) != 1 || events[0]["type"] != TypeError {
		t.Fatalf("expected one error event, got %v", events)
	}
	if events[0]["message"] != "all search providers failed" {
		t.Fatalf("unexpected message %v", events[0]["message"])
	}
}

func TestStreamer_TerminalEventClosesStream(t *testing.T) {
	w := httptest.NewRecorder()
	s, err := NewStreamer(w)
	if err != nil {
		t.Fatalf("new streamer: %v", err)
	}

	if err := s.SendComplete("Search completed"); err != nil {
		t.Fatalf("send complete: %v", err)
	}
	if err := s.SendStatus("late"); err != ErrStreamClosed {
		t.Fatalf("expected ErrStreamClosed after complete, got %v", err)
	}
	if err := s.SendError("late error"); err != ErrStreamClosed {
		t.Fatalf("expected ErrStreamClosed for second terminal, got %v", err)
	}

	events := decodeEvents(t, w.Body.String())
	if len(events) != 1 {
		t.Fatalf("expected only the complete event, got %d", len(events))
	}
}

func TestStreamer_HeartbeatTimestamp(t *testing.T) {
	w := httptest.NewRecorder()
	s, err := NewStreamer(w)
	if err != nil {
		t.Fatalf("new streamer: %v", err)
	}
	fixed := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	if err := s.SendHeartbeat(); err != nil {
		t.Fatalf("send heartbeat: %v", err)
	}

	events := decodeEvents(t, w.Body.String())
	if events[0]["type"] != TypeHeartbeat {
		t.Fatalf("expected heartbeat, got %v", events[0])
	}
	if ts, ok := events[0]["timestamp"].(float64); !ok || int64(ts) != fixed.Unix() {
		t.Fatalf("unexpected timestamp %v", events[0]["timestamp"])
	}
}

func TestStreamer_HeartbeatLoopStops(t *testing.T) {
	w := httptest.NewRecorder()
	s, err := NewStreamer(w)
	if err != nil {
		t.Fatalf("new streamer: %v", err)
	}

	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		s.Heartbeat(5*time.Millisecond, stop)
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	close(stop)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("heartbeat loop did not stop")
	}

	if !strings.Contains(w.Body.String(), `"type":"heartbeat"`) {
		t.Fatalf("expected at least one heartbeat event")
	}
}

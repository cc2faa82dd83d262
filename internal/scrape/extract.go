package scrape

import (
	"bytes"
	"net/url"
	"strings"

	readability "codeberg.org/readeck/go-readability/v2"
	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// boilerplateSelectors match navigation, ads, and other chrome that
// should never reach the markdown output.
var boilerplateSelectors = []string{
	"nav", "header", "footer", "aside",
	".nav", ".navigation", ".navbar", ".menu",
	".header", ".footer", ".sidebar",
	".ad", ".advertisement", ".social", ".share",
	".comments", ".cookie", ".popup",
	`[role="navigation"]`, `[role="banner"]`, `[role="complementary"]`,
	"script", "style", "iframe", "noscript",
}

// stripBoilerplate removes boilerplate elements from raw HTML. On any
// parse or render problem the input is returned unchanged so the
// readability pass still gets a chance.
func stripBoilerplate(data []byte) []byte {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return data
	}
	for _, selector := range boilerplateSelectors {
		doc.Find(selector).Remove()
	}
	cleaned, err := doc.Html()
	if err != nil || strings.TrimSpace(cleaned) == "" {
		return data
	}
	return []byte(cleaned)
}

const readabilityMinWords = 25

// extractArticle tries go-readability first (Mozilla's Readability
// algorithm), converts the article to markdown, and falls back to a
// custom DOM walker when readability produces too little text.
func extractArticle(data []byte, pageURL string) (title, markdown string) {
	parsedURL, _ := url.Parse(pageURL)
	article, err := readability.FromReader(bytes.NewReader(data), parsedURL)
	if err == nil && article.Node != nil {
		md, mdErr := htmltomarkdown.ConvertNode(article.Node)
		if mdErr == nil {
			text := normalizeContent(string(md))
			if len(strings.Fields(text)) >= readabilityMinWords {
				return article.Title(), text
			}
		}
		// Fall back to plain text if markdown conversion fails
		var buf bytes.Buffer
		_ = article.RenderText(&buf)
		text := normalizeContent(buf.String())
		if len(strings.Fields(text)) >= readabilityMinWords {
			return article.Title(), text
		}
	}

	node, parseErr := html.Parse(bytes.NewReader(data))
	if parseErr != nil {
		return "", ""
	}
	return extractTitle(node), extractReadableText(node)
}

func extractTitle(node *html.Node) string {
	var titleNode *html.Node
	var findTitle func(*html.Node)
	findTitle = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "title" {
			titleNode = n
			return
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			if titleNode != nil {
				return
			}
			findTitle(child)
		}
	}
	findTitle(node)
	if titleNode == nil {
		return ""
	}
	// Walk all text nodes inside <title> to handle <title>Part <span>Two</span></title>
	var buf strings.Builder
	var collectText func(*html.Node)
	collectText = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			collectText(child)
		}
	}
	collectText(titleNode)
	return strings.TrimSpace(buf.String())
}

func extractReadableText(node *html.Node) string {
	var builder strings.Builder

	var walker func(*html.Node)
	walker = func(n *html.Node) {
		if n.Type == html.ElementNode {
			tag := strings.ToLower(n.Data)
			switch tag {
			case "script", "style", "noscript", "nav", "footer", "header", "aside", "form", "template":
				return
			case "h1", "h2", "h3", "h4", "h5", "h6":
				builder.WriteString("\n\n")
				builder.WriteString(strings.Repeat("#", headingLevel(tag)))
				builder.WriteString(" ")
			case "p", "div", "section", "article", "li", "pre", "blockquote":
				builder.WriteString("\n\n")
			}
			// Skip hidden elements and aria-hidden="true"
			if hasAttr(n, "hidden") || attrVal(n, "aria-hidden") == "true" {
				return
			}
			role := attrVal(n, "role")
			if role == "complementary" || role == "banner" || role == "navigation" {
				return
			}
		}
		if n.Type == html.TextNode {
			text := strings.TrimSpace(n.Data)
			if text != "" {
				builder.WriteString(text)
				builder.WriteString(" ")
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walker(child)
		}
	}
	walker(node)

	return normalizeContent(builder.String())
}

func hasAttr(n *html.Node, key string) bool {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return true
		}
	}
	return false
}

func attrVal(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}

func headingLevel(tag string) int {
	switch tag {
	case "h1":
		return 1
	case "h2":
		return 2
	case "h3":
		return 3
	case "h4":
		return 4
	case "h5":
		return 5
	case "h6":
		return 6
	default:
		return 1
	}
}

// normalizeContent collapses runs of blank lines and trims whitespace
// from every line.
func normalizeContent(content string) string {
	lines := strings.Split(content, "\n")
	var cleaned []string
	blank := false
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			if !blank {
				cleaned = append(cleaned, "")
				blank = true
			}
			continue
		}
		blank = false
		cleaned = append(cleaned, trimmed)
	}
	return strings.TrimSpace(strings.Join(cleaned, "\n"))
}

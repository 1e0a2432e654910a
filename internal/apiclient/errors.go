package apiclient

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const maxMessageLen = 200

// errorMessage extracts a readable message from an error body: the JSON
// detail or error.message, the text of an HTML page, or the raw body.
func errorMessage(body []byte, contentType string) string {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return "empty response"
	}

	var payload map[string]any
	if json.Unmarshal(trimmed, &payload) == nil {
		if msg := jsonMessage(payload); msg != "" {
			return msg
		}
	}
	if looksLikeHTML(trimmed, contentType) {
		if text := htmlText(trimmed); text != "" {
			return text
		}
	}
	return truncate(string(trimmed))
}

func jsonMessage(payload map[string]any) string {
	if s, ok := payload["detail"].(string); ok && s != "" {
		return s
	}
	switch e := payload["error"].(type) {
	case string:
		return e
	case map[string]any:
		if s, ok := e["message"].(string); ok {
			return s
		}
	}
	if s, ok := payload["message"].(string); ok {
		return s
	}
	if d, ok := payload["detail"]; ok && d != nil {
		b, _ := json.Marshal(d)
		return truncate(string(b))
	}
	return ""
}

func looksLikeHTML(body []byte, contentType string) bool {
	if strings.Contains(strings.ToLower(contentType), "text/html") {
		return true
	}
	head := strings.ToLower(string(bytes.TrimSpace(body)))
	return strings.HasPrefix(head, "<!doctype html") || strings.HasPrefix(head, "<html")
}

// htmlText returns the page title, else the collapsed body text.
func htmlText(body []byte) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return truncate(string(body))
	}
	if title := strings.TrimSpace(doc.Find("title").First().Text()); title != "" {
		return truncate(title)
	}
	doc.Find("script, style").Remove()
	return truncate(strings.Join(strings.Fields(doc.Find("body").Text()), " "))
}

func truncate(s string) string {
	r := []rune(s)
	if len(r) <= maxMessageLen {
		return s
	}
	return string(r[:maxMessageLen]) + "..."
}

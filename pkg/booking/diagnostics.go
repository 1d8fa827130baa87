package booking

import (
	"bytes"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const maxTitleLen = 200

// pageTitle extracts the <title> of an HTML body so gateway and proxy error
// pages show up readably in failure logs. Non-HTML bodies yield "".
func pageTitle(body []byte, contentType string) string {
	if !looksLikeHTML(body, contentType) {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return ""
	}

	title := strings.Join(strings.Fields(doc.Find("title").First().Text()), " ")
	if title == "" {
		title = strings.Join(strings.Fields(doc.Find("h1").First().Text()), " ")
	}
	if len(title) > maxTitleLen {
		title = title[:maxTitleLen]
	}
	return title
}

func looksLikeHTML(body []byte, contentType string) bool {
	if strings.Contains(strings.ToLower(contentType), "html") {
		return true
	}
	head := bytes.ToLower(bytes.TrimSpace(body))
	if len(head) > 64 {
		head = head[:64]
	}
	return bytes.HasPrefix(head, []byte("<!doctype html")) || bytes.HasPrefix(head, []byte("<html"))
}

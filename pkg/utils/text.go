package utils

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// PlainText renders an HTML fragment as display text: markup is stripped and
// whitespace collapsed. It is lossy and is not applied to stored values.
func PlainText(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return collapseSpace(s)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return collapseSpace(s)
	}
	return collapseSpace(doc.Text())
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

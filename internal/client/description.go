package client

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// PlainText strips markup from a product description so free-text search only sees what a
// shopper reads. Input without tags is returned with whitespace collapsed.
func PlainText(description string) string {
	if !strings.Contains(description, "<") {
		return collapseSpaces(description)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(description))
	if err != nil {
		return collapseSpaces(description)
	}

	doc.Find("script, style").Remove()

	// Block elements would otherwise glue adjacent words together
	doc.Find("br, p, li, div, h1, h2, h3, h4, tr").Each(func(i int, s *goquery.Selection) {
		s.AppendHtml(" ")
	})

	return collapseSpaces(doc.Text())
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

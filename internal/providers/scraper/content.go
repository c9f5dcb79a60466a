package scraper

import (
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

const textSelector = "h1, h2, h3, h4, h5, h6, p, button, label"

// links emits the first MaxLinks anchors that have an href and visible text
func (e *Extractor) links(doc *goquery.Document, b *builder) int {
	n := 0
	doc.Find("a[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		href, _ := s.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" {
			return true
		}
		inner, err := s.Html()
		if err != nil {
			return true
		}
		text := stripTags(e.text, inner)
		if text == "" {
			return true
		}
		b.line(TagLink, text+" -> "+href)
		n++
		return n < MaxLinks
	})
	return n
}

// texts emits headings, paragraphs, buttons and labels in document order
func (e *Extractor) texts(doc *goquery.Document, b *builder) int {
	n := 0
	doc.Find(textSelector).Each(func(_ int, s *goquery.Selection) {
		inner, err := s.Html()
		if err != nil {
			return
		}
		text := stripTags(e.text, inner)
		if utf8.RuneCountInString(text) <= MinTextChars {
			return
		}
		b.line(strings.ToUpper(goquery.NodeName(s)), text)
		n++
	})
	return n
}

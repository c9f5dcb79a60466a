package scraper

import (
	"github.com/PuerkitoBio/goquery"
)

// metas emits every meta tag verbatim
func (e *Extractor) metas(doc *goquery.Document, b *builder) int {
	n := 0
	doc.Find("meta").Each(func(_ int, s *goquery.Selection) {
		markup, err := goquery.OuterHtml(s)
		if err != nil || markup == "" {
			return
		}
		b.line(TagMeta, markup)
		n++
	})
	return n
}

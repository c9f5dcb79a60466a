package scraper

import (
	"github.com/PuerkitoBio/goquery"
)

// forms emits each form's full markup
func (e *Extractor) forms(doc *goquery.Document, b *builder) int {
	n := 0
	doc.Find("form").Each(func(_ int, s *goquery.Selection) {
		markup, err := goquery.OuterHtml(s)
		if err != nil {
			return
		}
		b.block(TagForm, markup)
		n++
	})
	return n
}

// inputs emits each input tag, including those already inside a form block
func (e *Extractor) inputs(doc *goquery.Document, b *builder) int {
	n := 0
	doc.Find("input").Each(func(_ int, s *goquery.Selection) {
		markup, err := goquery.OuterHtml(s)
		if err != nil {
			return
		}
		b.line(TagInput, markup)
		n++
	})
	return n
}

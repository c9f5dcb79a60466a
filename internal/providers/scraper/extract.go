package scraper

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"

	"github.com/juan-materiarun/quartz-ai/internal/domain/audit"
	"github.com/juan-materiarun/quartz-ai/internal/shared/utils"
)

// Extractor turns raw HTML into audit-relevant tagged text.
// It holds no per-call state and is safe for concurrent use.
type Extractor struct {
	text *bluemonday.Policy
}

// NewExtractor creates an extractor
func NewExtractor() *Extractor {
	return &Extractor{text: bluemonday.StrictPolicy()}
}

// Extract runs the structured passes in order. When they yield fewer than
// MinStructuredChars characters the raw document is used instead.
func (e *Extractor) Extract(raw string) (Extraction, error) {
	doc, err := LoadHTML(raw)
	if err != nil {
		return Extraction{}, &audit.ExtractionError{Message: fmt.Sprintf("could not parse the page: %v", err)}
	}

	var (
		b     builder
		stats Stats
	)
	stats.Scripts = e.scripts(doc, &b)
	stats.Metas = e.metas(doc, &b)
	stats.Links = e.links(doc, &b)
	stats.Forms = e.forms(doc, &b)
	stats.Inputs = e.inputs(doc, &b)
	stats.Texts = e.texts(doc, &b)

	out := Extraction{Stats: stats}
	text := b.String()
	if b.chars < MinStructuredChars {
		text, out.Truncated, err = e.fallback(raw)
		if err != nil {
			return Extraction{}, &audit.ExtractionError{Message: fmt.Sprintf("could not parse the page: %v", err)}
		}
		out.Fallback = true
	}

	text, truncated := utils.TruncateRunes(text, MaxContentChars)
	out.Text = text
	if truncated {
		out.Truncated = true
	}
	return out, nil
}

// ExtractText is Extract reduced to its text, failing when nothing usable remains
func (e *Extractor) ExtractText(raw string) (string, bool, error) {
	out, err := e.Extract(raw)
	if err != nil {
		return "", false, err
	}
	if strings.TrimSpace(out.Text) == "" {
		return "", false, audit.ErrEmptyContent
	}
	return out.Text, out.Truncated, nil
}

// scripts emits inline bodies of the first MaxScripts script elements
func (e *Extractor) scripts(doc *goquery.Document, b *builder) int {
	n := 0
	found := doc.Find("script")
	if found.Length() > MaxScripts {
		found = found.Slice(0, MaxScripts)
	}
	found.Each(func(_ int, s *goquery.Selection) {
		body := strings.TrimSpace(s.Text())
		if body == "" || utf8.RuneCountInString(body) > MaxScriptChars {
			return
		}
		b.block(TagScript, body)
		n++
	})
	return n
}

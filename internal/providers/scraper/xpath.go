package scraper

import (
	"strings"

	"github.com/antchfx/htmlquery"

	"github.com/juan-materiarun/quartz-ai/internal/shared/utils"
)

const noiseXPath = "//script|//style|//comment()"

// fallback returns the document without scripts, styles and comments,
// wrapped as a single block. A document with no visible text yields "".
func (e *Extractor) fallback(raw string) (string, bool, error) {
	doc, err := htmlquery.Parse(strings.NewReader(raw))
	if err != nil {
		return "", false, err
	}

	nodes, err := htmlquery.QueryAll(doc, noiseXPath)
	if err != nil {
		return "", false, err
	}
	for _, n := range nodes {
		if n.Parent != nil {
			n.Parent.RemoveChild(n)
		}
	}

	markup := strings.TrimSpace(htmlquery.OutputHTML(doc, false))
	if stripTags(e.text, markup) == "" {
		return "", false, nil
	}

	cleaned, truncated := utils.TruncateRunes(markup, MaxFallbackChars)
	var b builder
	b.block(TagFallback, cleaned)
	return b.String(), truncated, nil
}

package scraper

import (
	"fmt"
	"html"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"

	"github.com/juan-materiarun/quartz-ai/internal/domain/audit"
	"github.com/juan-materiarun/quartz-ai/internal/shared/utils"
)

const (
	// MaxHTMLSize limits HTML input to 10MB to prevent memory exhaustion
	MaxHTMLSize = 10 * 1024 * 1024

	// MaxContentChars is the hard cap on extracted content
	MaxContentChars = audit.MaxContentChars

	// MaxFallbackChars caps the raw-markup fallback block
	MaxFallbackChars = 30_000

	// MinStructuredChars is the size below which structured passes are discarded
	MinStructuredChars = 500

	// MaxScripts is how many script elements are considered
	MaxScripts = 10

	// MaxScriptChars is the largest inline script body kept
	MaxScriptChars = 2000

	// MaxLinks is how many text links are emitted
	MaxLinks = 50

	// MinTextChars is the exclusive lower bound for text entries
	MinTextChars = 3
)

// Segment tags
const (
	TagScript   = "SCRIPT"
	TagMeta     = "META"
	TagLink     = "LINK"
	TagForm     = "FORM"
	TagInput    = "INPUT"
	TagFallback = "HTML CONTENT"
)

// Extraction is the bounded, tagged text handed to the prompt builder
type Extraction struct {
	Text      string
	Truncated bool
	Fallback  bool
	Stats     Stats
}

// Stats counts emitted segments per pass
type Stats struct {
	Scripts int `json:"scripts"`
	Metas   int `json:"metas"`
	Links   int `json:"links"`
	Forms   int `json:"forms"`
	Inputs  int `json:"inputs"`
	Texts   int `json:"texts"`
}

// ValidateHTML checks HTML size and returns error if too large
func ValidateHTML(doc string) error {
	if len(doc) > MaxHTMLSize {
		return fmt.Errorf("html exceeds maximum size of %d bytes", MaxHTMLSize)
	}
	return nil
}

// LoadHTML parses a UTF-8 document
func LoadHTML(doc string) (*goquery.Document, error) {
	if err := ValidateHTML(doc); err != nil {
		return nil, err
	}
	return goquery.NewDocumentFromReader(strings.NewReader(doc))
}

// builder accumulates tagged segments
type builder struct {
	sb    strings.Builder
	chars int
}

func (b *builder) line(tag, body string) {
	b.write("[" + tag + "] " + body)
}

func (b *builder) block(tag, body string) {
	b.write("[" + tag + "]\n" + body + "\n[/" + tag + "]")
}

func (b *builder) write(segment string) {
	if b.sb.Len() > 0 {
		b.sb.WriteByte('\n')
		b.chars++
	}
	b.sb.WriteString(segment)
	b.chars += utf8.RuneCountInString(segment)
}

func (b *builder) String() string {
	return b.sb.String()
}

// stripTags reduces markup to normalised visible text
func stripTags(policy *bluemonday.Policy, markup string) string {
	return utils.NormalizeWhitespace(html.UnescapeString(policy.Sanitize(markup)))
}

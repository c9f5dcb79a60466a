package inference

import (
	_ "embed"
	"fmt"
	"regexp"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/xeipuuv/gojsonschema"

	"github.com/juan-materiarun/quartz-ai/internal/domain/audit"
)

//go:embed result.schema.json
var resultSchema string

var (
	// trailingCommaPattern matches trailing commas before ] or }
	trailingCommaPattern = regexp.MustCompile(`,\s*([}\]])`)

	// maxSchemaErrors bounds how many violations are reported
	maxSchemaErrors = 5
)

// Parser recovers an AuditResult from free-form model output
type Parser struct {
	schema *gojsonschema.Schema
}

// NewParser compiles the embedded result schema
func NewParser() (*Parser, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(resultSchema))
	if err != nil {
		return nil, fmt.Errorf("compile result schema: %w", err)
	}
	return &Parser{schema: schema}, nil
}

// MustParser is NewParser for static initialisation
func MustParser() *Parser {
	p, err := NewParser()
	if err != nil {
		panic(err)
	}
	return p
}

// Parse extracts the first JSON object in text, validates it against the
// result schema and decodes it. Failures are *audit.MalformedResponseError.
func (p *Parser) Parse(text string) (*audit.Result, error) {
	raw, doc, ok := firstObject(text)
	if !ok {
		return nil, &audit.MalformedResponseError{Reason: "no JSON object found in model response"}
	}

	result, err := p.schema.Validate(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return nil, &audit.MalformedResponseError{Reason: "schema validation failed", Err: err}
	}
	if !result.Valid() {
		return nil, &audit.MalformedResponseError{Reason: "response does not match the audit schema: " + describe(result.Errors())}
	}

	var out audit.Result
	if err := sonic.UnmarshalString(raw, &out); err != nil {
		return nil, &audit.MalformedResponseError{Reason: "decode audit result", Err: err}
	}

	// Metadata is stamped by the pipeline, never taken from the model
	out.AuditID = ""
	out.Model = ""
	if out.Error != "" {
		out.PassedTests = nil
		out.Defects = nil
		out.TestScript = ""
		out.SeverityScore = nil
		out.BusinessImpact = ""
	}
	out.Normalize()
	return &out, nil
}

// firstObject returns the first balanced top-level object in text that
// decodes as JSON, falling back to a cleaned copy of each candidate
func firstObject(text string) (string, map[string]any, bool) {
	for _, candidate := range ScanObjects(text) {
		for _, raw := range []string{candidate, cleanJSON(candidate)} {
			var doc map[string]any
			if err := sonic.UnmarshalString(raw, &doc); err == nil {
				return raw, doc, true
			}
		}
	}
	return "", nil, false
}

// maxRescans bounds how many dangling braces ScanObjects skips, keeping
// the scan linear in the input size
const maxRescans = 32

// ScanObjects returns every balanced top-level {...} span in text, in order.
// Braces inside JSON strings are ignored. A stray unmatched brace is skipped
// and scanning resumes after it, at most maxRescans times.
func ScanObjects(text string) []string {
	var spans []string
	for rescans := 0; ; rescans++ {
		found, dangling := scanSpans(text)
		spans = append(spans, found...)
		if dangling < 0 || rescans == maxRescans {
			return spans
		}
		text = text[dangling+1:]
	}
}

// scanSpans makes one pass over text. It returns the balanced spans and the
// offset of a top-level brace that never closed, or -1.
func scanSpans(text string) ([]string, int) {
	var (
		spans    []string
		depth    int
		start    = -1
		inString bool
		escaped  bool
	)

	for i := 0; i < len(text); i++ {
		ch := text[i]

		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}

		switch ch {
		case '"':
			// Quotes only delimit strings inside an object; prose quotes are ignored
			if depth > 0 {
				inString = true
			}
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			if depth == 0 {
				continue
			}
			depth--
			if depth == 0 {
				spans = append(spans, text[start:i+1])
				start = -1
			}
		}
	}

	if depth > 0 && start >= 0 {
		return spans, start
	}
	return spans, -1
}

// cleanJSON removes line comments and trailing commas that models
// commonly emit
func cleanJSON(raw string) string {
	lines := strings.Split(raw, "\n")
	for i, line := range lines {
		lines[i] = stripLineComment(line)
	}
	return trailingCommaPattern.ReplaceAllString(strings.Join(lines, "\n"), "$1")
}

func stripLineComment(line string) string {
	if !strings.Contains(line, "//") {
		return line
	}
	inString, escaped := false, false
	for i := 0; i < len(line); i++ {
		ch := line[i]
		if escaped {
			escaped = false
			continue
		}
		if ch == '\\' && inString {
			escaped = true
			continue
		}
		if ch == '"' {
			inString = !inString
			continue
		}
		if !inString && ch == '/' && i+1 < len(line) && line[i+1] == '/' {
			return strings.TrimRight(line[:i], " \t")
		}
	}
	return line
}

func describe(errs []gojsonschema.ResultError) string {
	parts := make([]string, 0, len(errs))
	for i, e := range errs {
		if i == maxSchemaErrors {
			parts = append(parts, fmt.Sprintf("and %d more", len(errs)-i))
			break
		}
		parts = append(parts, e.String())
	}
	return strings.Join(parts, "; ")
}

// Package prompt renders the audit instruction sent to the inference backends.
//
// The finding taxonomy lives in taxonomy.yaml and the instruction layout in
// audit.tmpl; both are embedded at build time.
package prompt

import (
	_ "embed"
	"fmt"
	"strings"
	"text/template"

	"github.com/goccy/go-yaml"

	"github.com/juan-materiarun/quartz-ai/internal/domain/audit"
)

var (
	//go:embed taxonomy.yaml
	taxonomyYAML []byte

	//go:embed audit.tmpl
	auditTemplate string
)

// Category is one family of findings
type Category struct {
	ID         string   `yaml:"id"`
	Prefix     string   `yaml:"prefix"`
	Name       string   `yaml:"name"`
	Focus      string   `yaml:"focus"`
	Indicators []string `yaml:"indicators"`
}

// PriorityLevel describes one allowed priority
type PriorityLevel struct {
	Name    string `yaml:"name"`
	Meaning string `yaml:"meaning"`
}

// Taxonomy is the set of categories and priorities the model reports against
type Taxonomy struct {
	Categories []Category      `yaml:"categories"`
	Priorities []PriorityLevel `yaml:"priorities"`
}

// ParseTaxonomy decodes and validates a taxonomy document
func ParseTaxonomy(data []byte) (*Taxonomy, error) {
	var t Taxonomy
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parse taxonomy: %w", err)
	}
	if len(t.Categories) == 0 {
		return nil, fmt.Errorf("taxonomy has no categories")
	}
	for i, c := range t.Categories {
		if c.Prefix == "" || c.Name == "" {
			return nil, fmt.Errorf("taxonomy category %d is missing a name or prefix", i)
		}
	}

	allowed := make(map[string]bool, 3)
	for _, p := range audit.Priorities() {
		allowed[string(p)] = true
	}
	for _, p := range t.Priorities {
		if !allowed[p.Name] {
			return nil, fmt.Errorf("taxonomy priority %q is not one of %v", p.Name, audit.Priorities())
		}
	}
	return &t, nil
}

// Prefixes returns the defect id prefixes in category order
func (t *Taxonomy) Prefixes() []string {
	out := make([]string, len(t.Categories))
	for i, c := range t.Categories {
		out[i] = c.Prefix
	}
	return out
}

// Builder renders prompts. It is immutable and safe for concurrent use.
type Builder struct {
	taxonomy *Taxonomy
	tmpl     *template.Template
}

// NewBuilder creates a builder for the given taxonomy
func NewBuilder(t *Taxonomy) (*Builder, error) {
	tmpl, err := template.New("audit").Parse(auditTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse prompt template: %w", err)
	}
	return &Builder{taxonomy: t, tmpl: tmpl}, nil
}

var defaultBuilder = mustDefault()

func mustDefault() *Builder {
	t, err := ParseTaxonomy(taxonomyYAML)
	if err != nil {
		panic(err)
	}
	b, err := NewBuilder(t)
	if err != nil {
		panic(err)
	}
	return b
}

// Default returns the builder for the embedded taxonomy
func Default() *Builder {
	return defaultBuilder
}

// Taxonomy returns the taxonomy the builder renders
func (b *Builder) Taxonomy() *Taxonomy {
	return b.taxonomy
}

type templateData struct {
	Subject       string
	KindLabel     string
	Content       string
	Truncated     bool
	Taxonomy      *Taxonomy
	Prefixes      string
	FirstPrefix   string
	PriorityNames string
}

// Build renders the prompt for content of the given kind. truncated marks
// content that was cut upstream so the model does not speculate about the rest.
func (b *Builder) Build(kind audit.Kind, content string, truncated bool) string {
	prefixes := b.taxonomy.Prefixes()
	names := make([]string, 0, len(b.taxonomy.Priorities))
	for _, p := range b.taxonomy.Priorities {
		names = append(names, p.Name)
	}

	data := templateData{
		Subject:       "a website",
		KindLabel:     "extracted page structure",
		Content:       content,
		Truncated:     truncated,
		Taxonomy:      b.taxonomy,
		Prefixes:      strings.Join(prefixes, "|"),
		FirstPrefix:   prefixes[0],
		PriorityNames: strings.Join(names, "|"),
	}
	if kind == audit.KindCode {
		data.Subject = "a code snippet"
		data.KindLabel = "source code"
	}

	var sb strings.Builder
	if err := b.tmpl.Execute(&sb, data); err != nil {
		// The template and data are fixed at build time
		panic(fmt.Sprintf("render prompt: %v", err))
	}
	return sb.String()
}

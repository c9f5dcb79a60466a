package audit

import "strings"

// MaxContentChars is the most content, in characters, handed to the prompt
const MaxContentChars = 100_000

// Kind identifies what the user submitted for auditing
type Kind string

const (
	KindURL  Kind = "url"
	KindCode Kind = "code"
)

// Valid reports whether k is a supported input kind
func (k Kind) Valid() bool {
	return k == KindURL || k == KindCode
}

// Request is one audit submission. It is not modified after creation.
type Request struct {
	Kind    Kind   `json:"type"`
	Content string `json:"content"`
}

// Validate rejects requests that must not reach the inference service
func (r Request) Validate() error {
	if !r.Kind.Valid() {
		return &ValidationError{Field: "type", Message: `type must be "url" or "code"`}
	}
	if strings.TrimSpace(r.Content) == "" {
		if r.Kind == KindURL {
			return &ValidationError{Field: "content", Message: "please provide a website URL to audit"}
		}
		return &ValidationError{Field: "content", Message: "please provide a code snippet to audit"}
	}
	return nil
}

// Priority ranks a defect
type Priority string

const (
	PriorityCritical Priority = "Critical"
	PriorityMedium   Priority = "Medium"
	PriorityLow      Priority = "Low"
)

// Priorities lists the accepted priority values in descending order
func Priorities() []Priority {
	return []Priority{PriorityCritical, PriorityMedium, PriorityLow}
}

// Defect id prefixes by finding family
const (
	PrefixSecurity     = "SEC"
	PrefixConversion   = "CONV"
	PrefixArchitecture = "ARCH"
)

// Defect is one finding reported by the model
type Defect struct {
	ID                string   `json:"id"`
	Category          string   `json:"category"`
	Title             string   `json:"title"`
	Description       string   `json:"description"`
	Priority          Priority `json:"priority"`
	Location          string   `json:"location,omitempty"`
	ImpactTranslation string   `json:"impact_translation,omitempty"`
}

// TestResult is one check the audited content passed
type TestResult struct {
	Category string `json:"category"`
	Test     string `json:"test"`
	Status   string `json:"status"`
}

// StatusPassed is the only status a TestResult carries
const StatusPassed = "passed"

// Result is the outcome of one audit pipeline run.
//
// When Error is set the remaining fields carry no findings.
type Result struct {
	AuditID        string       `json:"audit_id,omitempty"`
	Model          string       `json:"model,omitempty"`
	BusinessImpact string       `json:"business_impact,omitempty"`
	SeverityScore  *float64     `json:"severity_score,omitempty"`
	PassedTests    []TestResult `json:"passedTests"`
	Defects        []Defect     `json:"defects"`
	TestScript     string       `json:"testScript"`
	Error          string       `json:"error,omitempty"`
}

// ErrorResult builds the body returned for a failed audit
func ErrorResult(message string) *Result {
	return &Result{
		PassedTests: []TestResult{},
		Defects:     []Defect{},
		Error:       message,
	}
}

// Normalize replaces nil slices so the result always serialises arrays
func (r *Result) Normalize() {
	if r.PassedTests == nil {
		r.PassedTests = []TestResult{}
	}
	if r.Defects == nil {
		r.Defects = []Defect{}
	}
}

// Failed reports whether the result carries an error instead of findings
func (r *Result) Failed() bool {
	return r.Error != ""
}

// CountByPriority tallies defects per priority
func (r *Result) CountByPriority() map[Priority]int {
	counts := make(map[Priority]int, 3)
	for _, d := range r.Defects {
		counts[d.Priority]++
	}
	return counts
}

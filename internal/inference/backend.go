package inference

import (
	"context"
	"strings"
	"unicode/utf8"
)

// Backend is one text-generation model
type Backend interface {
	// ID is the model identifier used in logs and failure reports
	ID() string
	// Generate returns the model's raw reply to prompt
	Generate(ctx context.Context, prompt string) (string, error)
}

// BackendFunc adapts a function to Backend
type BackendFunc struct {
	Model string
	Fn    func(ctx context.Context, prompt string) (string, error)
}

func (b BackendFunc) ID() string { return b.Model }

func (b BackendFunc) Generate(ctx context.Context, prompt string) (string, error) {
	return b.Fn(ctx, prompt)
}

// maxReasonChars keeps failure reasons short enough for logs and responses
const maxReasonChars = 300

// reason condenses an error into a single line
func reason(err error) string {
	msg := strings.Join(strings.Fields(err.Error()), " ")
	if utf8.RuneCountInString(msg) <= maxReasonChars {
		return msg
	}
	runes := []rune(msg)
	return string(runes[:maxReasonChars]) + "..."
}

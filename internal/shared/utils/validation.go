package utils

import (
	"fmt"
)

// MaxRequestBody bounds an audit submission. Code snippets and URLs are far
// smaller; the cap stops oversized uploads before they are decoded.
const MaxRequestBody = 2 * 1024 * 1024

// SizeValidator rejects payloads above a byte limit
type SizeValidator struct {
	maxSize int64
}

// NewSizeValidator creates a validator with the given limit
func NewSizeValidator(maxSize int64) *SizeValidator {
	return &SizeValidator{maxSize: maxSize}
}

// DefaultSizeValidator uses MaxRequestBody
func DefaultSizeValidator() *SizeValidator {
	return NewSizeValidator(MaxRequestBody)
}

// Max returns the configured limit
func (v *SizeValidator) Max() int64 {
	return v.maxSize
}

// ValidateSize checks n against the limit
func (v *SizeValidator) ValidateSize(n int64) error {
	if n > v.maxSize {
		return fmt.Errorf("request body of %d bytes exceeds the %d byte limit", n, v.maxSize)
	}
	return nil
}

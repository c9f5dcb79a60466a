package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTruncateRunes(t *testing.T) {
	tests := []struct {
		in        string
		max       int
		want      string
		truncated bool
	}{
		{"hello", 10, "hello", false},
		{"hello", 5, "hello", false},
		{"hello", 3, "hel", true},
		{"ñandú", 2, "ña", true},
		{"", 0, "", false},
		{"abc", -1, "", true},
	}
	for _, tt := range tests {
		got, truncated := TruncateRunes(tt.in, tt.max)
		assert.Equal(t, tt.want, got, tt.in)
		assert.Equal(t, tt.truncated, truncated, tt.in)
	}
}

func TestNormalizeWhitespace(t *testing.T) {
	assert.Equal(t, "a b c", NormalizeWhitespace("  a\n\tb   c "))
	assert.Equal(t, "", NormalizeWhitespace(" \n "))
}

func TestFingerprint(t *testing.T) {
	a := Fingerprint("<html></html>")
	assert.Len(t, a, 12)
	assert.Equal(t, a, Fingerprint("<html></html>"))
	assert.NotEqual(t, a, Fingerprint("<html> </html>"))
}

func TestSizeValidator(t *testing.T) {
	v := NewSizeValidator(10)
	assert.NoError(t, v.ValidateSize(10))
	assert.Error(t, v.ValidateSize(11))
	assert.Equal(t, int64(MaxRequestBody), DefaultSizeValidator().Max())
}

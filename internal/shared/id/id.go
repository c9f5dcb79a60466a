// Package id provides ULID identifiers for audits and requests.
//
// IDs are lexicographically sortable and carry a short type prefix so they
// read well in logs (aud_*, req_*).
package id

import (
	"crypto/rand"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// AuditID identifies one audit pipeline run
type AuditID string

// RequestID identifies an inbound API request
type RequestID string

const (
	AuditPrefix   = "aud"
	RequestPrefix = "req"
)

// Generator generates ULIDs with optional prefixes
type Generator struct {
	mu      sync.Mutex
	entropy io.Reader
}

var (
	defaultGenerator *Generator
	once             sync.Once
)

// Default returns the process-wide generator
func Default() *Generator {
	once.Do(func() {
		defaultGenerator = NewGenerator(rand.Reader)
	})
	return defaultGenerator
}

// NewGenerator creates a generator reading entropy from r.
// Tests can pass a deterministic reader.
func NewGenerator(r io.Reader) *Generator {
	return &Generator{entropy: r}
}

// Generate creates a new ULID
func (g *Generator) Generate() ulid.ULID {
	g.mu.Lock()
	defer g.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), g.entropy)
}

// WithPrefix creates a prefixed ULID string such as aud_01H...
func (g *Generator) WithPrefix(prefix string) string {
	return fmt.Sprintf("%s_%s", prefix, g.Generate().String())
}

// NewAuditID generates a new audit ID
func NewAuditID() AuditID {
	return AuditID(Default().WithPrefix(AuditPrefix))
}

// NewRequestID generates a new request ID
func NewRequestID() RequestID {
	return RequestID(Default().WithPrefix(RequestPrefix))
}

func (a AuditID) String() string   { return string(a) }
func (r RequestID) String() string { return string(r) }

// Valid reports whether s is a prefixed ULID produced by this package
func Valid(s string) bool {
	prefix, raw, ok := strings.Cut(s, "_")
	if !ok || prefix == "" {
		return false
	}
	_, err := ulid.Parse(raw)
	return err == nil
}

// Timestamp extracts the creation time embedded in a prefixed ID
func Timestamp(s string) (time.Time, error) {
	_, raw, ok := strings.Cut(s, "_")
	if !ok {
		raw = s
	}
	parsed, err := ulid.Parse(raw)
	if err != nil {
		return time.Time{}, err
	}
	return ulid.Time(parsed.Time()), nil
}

// Package middleware provides the gin middleware in front of the audit
// endpoints: CORS and per-IP rate limiting.
package middleware

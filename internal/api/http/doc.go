// Package http exposes the audit pipeline over HTTP: POST /audit plus the
// banner, health and metrics endpoints.
package http

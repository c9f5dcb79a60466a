// Package main is the entry point for the Quartz AI audit service.
//
// Usage:
//
//	# HTTP server (default)
//	quartz serve --port 8000
//
//	# One-off audits, result printed as JSON on stdout
//	quartz audit --url example.com
//	quartz audit --code-file checkout.html
//
// Configuration comes from the environment, optionally seeded from a
// dotenv file (--env-file). GEMINI_API_KEY enables inference and
// AUDIT_MODELS sets the fallback order.
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown
package main

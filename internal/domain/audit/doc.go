// Package audit defines the audit data model and the error taxonomy shared by
// every pipeline stage.
//
// Errors map to HTTP statuses through StatusCode:
//   - ConfigurationError: 500
//   - ValidationError, FetchError, ExtractionError: 400
//   - ExhaustionError: 429
//   - MalformedResponseError: 502
package audit

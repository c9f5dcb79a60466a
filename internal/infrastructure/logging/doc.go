// Package logging provides structured logging using uber/zap.
//
// Two modes are supported:
//   - Production: JSON output for machine parsing
//   - Development: colored console output
//
// Pipeline stages derive child loggers so every line of one audit carries
// the same audit_id field:
//
//	logger := logging.NewOrNop(logging.DefaultConfig())
//	log := logger.Named("pipeline").ForAudit(auditID, "url")
//	log.Info("content fetched", zap.Int("bytes", n))
package logging

// Package logging provides structured logging for graydeck.
//
// It wraps log/slog so every record carries the service name and build
// version. Domain packages never import this package directly; each declares
// a small Logger interface (Debug, Info, Warn, Error) that *Logger satisfies.
//
// # Configuration
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr
//
// # Usage
//
//	logger := logging.New(cfg.Logging, version)
//	logger.Info("deck opened", "model", "xl", "serial", serial)
//
// Handler scripts may carry credentials in their source text. Log handler
// names and slots, never the source.
package logging

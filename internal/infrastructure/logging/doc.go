// Package logging provides structured logging for the bridge daemon.
//
// This package wraps Go's standard log/slog package to provide
// consistent, structured logging across the entire daemon.
//
// # Features
//
//   - JSON output for production (machine-parsable)
//   - Text output for development (human-readable)
//   - Default fields (service, version) on all log entries
//   - Level-based filtering (debug, info, warn, error)
//   - File output with size-based rotation
//   - Thread-safe for concurrent use
//
// # Configuration
//
// Logging is configured via the LoggingConfig in the settings file:
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr, file
//	  file:
//	    path: "/var/log/gpiobridge.log"
//	    max_size: 10
//
// The command line's repeatable -V flag raises the effective level above the
// configured one; see LevelForVerbosity.
//
// # Usage
//
//	logger := logging.New(cfg.Logging, "1.0.0")
//	logger.Info("starting service", "broker", addr)
//	logger.Error("failed to connect", "error", err)
package logging

// Package logging provides a minimal logging interface and adapters for
// ChatRelay.
//
// The Logger interface defines the standard logging methods (Debug, Info,
// Warn, Error) that the gateway, builder and runner use for observability.
// This package includes:
//
//   - Logger interface for dependency injection
//   - SlogAdapter wrapping Go's structured logging
//   - NoOpLogger for silent operation (testing, minimal setups)
//
// Usage:
//
//	logger := logging.New(os.Stderr, "info", "json")
//	relay := chatrelay.New(cfg, func(o *chatrelay.Options) { o.Logger = logger })
//
// The design intentionally keeps the interface minimal to avoid vendor
// lock-in while supporting structured logging where available.
package logging

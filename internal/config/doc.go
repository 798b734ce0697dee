// Package config defines the configuration structure for taskengine.
//
// Configuration is organized into logical sections (Pool, Scheduler,
// Server, Store, Notifier, plus top-level logging fields). This package
// carries no //go:generate optgen directive: the With* functions below are
// hand-written in the shape optgen would otherwise produce (see
// DESIGN.md).
//
// # Configuration structure
//
//	Configuration
//	├── Pool      - worker pool sizing
//	├── Scheduler - deadline-loop tuning
//	├── Server    - HTTP server settings
//	├── Store     - execution ledger location
//	├── Notifier  - webhook delivery
//	├── LogLevel  - logging verbosity
//	└── LogFormat - "console" | "json"
//
// # Pool
//
//	┌─────────────┬─────────┬──────────────────────────────────┐
//	│ Field       │ Default │ Description                      │
//	├─────────────┼─────────┼──────────────────────────────────┤
//	│ NumWorkers  │ 4       │ Initial worker count               │
//	│ QueueHint   │ 256     │ Advisory queue depth for metrics    │
//	└─────────────┴─────────┴──────────────────────────────────┘
//
// # Loading
//
// Load builds a Configuration from defaults, then environment variables
// and flags bound through spf13/viper, the way cmd/taskengine wires its
// persistent flags.
package config

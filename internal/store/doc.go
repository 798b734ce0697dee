// Package store implements the execution ledger: a DuckDB-backed,
// historical record of resolved demo tasks (executed, failed or abandoned),
// written by cmd/taskengine's serve command from internal/demo's OnResult
// hook. It is observational record-keeping only — it is
// never read back into a live pool or scheduler, so it does not reintroduce
// the "persistence of pending work across restarts" the engines
// deliberately do not support.
//
// # Architecture
//
//	┌──────────────────────────────────────────────────┐
//	│                    Store (facade)                 │
//	├──────────────────────────────────────────────────┤
//	│                    executions                     │
//	│     id · kind · submitted_at · resolved_at ·      │
//	│            outcome · error                        │
//	├──────────────────────────────────────────────────┤
//	│                 schema_migrations                 │
//	└──────────────────────────────────────────────────┘
//
// Tables are created by internal/store/migrations, ordered, idempotent SQL
// files tracked by version in schema_migrations.
//
// Filtered listing (GET /tasks) is built with github.com/Masterminds/
// squirrel: each ListOption composes onto a shared sq.SelectBuilder so
// callers can combine outcome/kind filters and pagination freely.
package store

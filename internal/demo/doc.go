// Package demo builds synthetic task.Task implementations for exercising
// the pool and scheduler — from internal/server's POST /tasks endpoint, the
// CLI's submit command, and this package's own tests — behind one Builder
// with a single Build method dispatching on a work "kind".
//
// Three kinds: "sleep" (sleeps for a configured duration, respecting
// cancellation), "compute" (busy-loops for a duration, useful for
// exercising worker CPU time under clear()/resize races), and "fail"
// (always resolves with an error, exercising the ledger's failed-outcome
// path). Each resolves a caller-supplied *future.Promise so HTTP and CLI
// callers can optionally await completion.
package demo

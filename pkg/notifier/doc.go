// Package notifier implements the optional webhook sink cmd/taskengine's
// serve command fans demo task outcomes into, via internal/demo.Builder's
// OnResult hook. On every terminal task transition it POSTs a signed JSON
// event to a configured URL: signing uses a short-lived HS256 JWT over a
// hash of the event body, and delivery retries with
// github.com/cenkalti/backoff/v5 exponential backoff.
//
// Delivery never runs on the caller's goroutine: Notify enqueues onto a
// small bounded channel and returns immediately; a dedicated goroutine
// drains it and does the signing, retrying, and HTTP round-trip. A full
// queue drops the event and logs it rather than blocking — an unreachable
// webhook must never become a liveness hazard for a pool worker or the
// scheduler thread.
package notifier

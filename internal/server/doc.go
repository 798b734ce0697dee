// Package server provides the HTTP surface for taskengine: liveness,
// pool/scheduler stats, demo task submission, and the execution ledger's
// paginated listing.
//
// Built on Gin (gin-gonic/gin) with gin-contrib/zap for structured access
// logging. There is no TLS-termination mode here: it belongs to a
// browser-facing product, not a library-focused task engine core, so this
// server only ever runs plain HTTP, with TLS termination assumed to live
// in front of it (see DESIGN.md).
//
// # Routes
//
//	GET  /healthz  - liveness
//	GET  /stats    - pool.Stats() + scheduler heap size and next deadline
//	POST /tasks    - submit a demo task (immediate, or delayed via "after")
//	GET  /tasks    - paginated execution ledger, filterable by outcome/kind
package server

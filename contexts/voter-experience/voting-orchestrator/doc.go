// Package votingorchestrator implements the voting-session orchestration
// module inside the voter-experience context.
//
// The module drives a voter through one election end to end: session start
// and resume, camera-backed facial verification with a server-owned attempt
// budget, per-position vote casting with idempotency keys, and a cancellable
// live-results poller with latest-request-wins ordering. The upstream voting
// service is the source of truth for all counters and statuses; this module
// keeps only the in-flight session state behind ports and adapters.
package votingorchestrator

// Package diffcache provides the commit-aware cache for pull-request diffs.
//
// It defines the Store contract with memory and Valkey/Redis implementations,
// commit-qualified key rendering, and the table-driven TTL policy keyed by PR
// lifecycle state.
//
// The store is deliberately fail-open: backend failures on the read path
// degrade to a miss and failures on the write path are reported to the caller
// as best-effort errors, so an unreachable cache never blocks a fetch.
package diffcache

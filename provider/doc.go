// Package provider defines the boundary between the fetch core and the
// git-hosting provider adapters.
//
// It contains the identity of a pull-request diff, the PR lifecycle states
// the caller supplies for TTL computation, the fetch function signature the
// adapters implement, and the error taxonomy the core uses to decide whether
// a failure is worth retrying.
package provider

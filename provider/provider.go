package provider

import (
	"context"
	"fmt"
	"strings"
)

// Identity locates a single pull-request diff on a provider.
//
// HeadSHA is the commit at the head of the PR branch. It participates in
// cache keys so that a new push is a guaranteed cache miss.
type Identity struct {
	Provider string // github|gitlab|bitbucket (any non-empty name is accepted)
	Owner    string
	Repo     string
	Number   int
	HeadSHA  string
}

// Validate checks that the identity is complete enough to fetch and cache.
func (id Identity) Validate() error {
	switch {
	case strings.TrimSpace(id.Provider) == "":
		return fmt.Errorf("provider: identity missing provider")
	case strings.TrimSpace(id.Owner) == "":
		return fmt.Errorf("provider: identity missing owner")
	case strings.TrimSpace(id.Repo) == "":
		return fmt.Errorf("provider: identity missing repo")
	case id.Number <= 0:
		return fmt.Errorf("provider: identity PR number must be positive, got %d", id.Number)
	case strings.TrimSpace(id.HeadSHA) == "":
		return fmt.Errorf("provider: identity missing head commit SHA")
	}
	return nil
}

// String returns a human-readable identifier, e.g. "github/acme/widgets#42".
func (id Identity) String() string {
	return fmt.Sprintf("%s/%s/%s#%d", id.Provider, id.Owner, id.Repo, id.Number)
}

// State is the lifecycle state of a pull request, supplied by the caller.
// The core consults it only for TTL computation.
type State int

const (
	// StateOpen is a regular open PR.
	StateOpen State = iota
	// StateDraft is an open PR marked as draft.
	StateDraft
	// StateMerged is a merged PR.
	StateMerged
	// StateClosed is a PR closed without merging.
	StateClosed
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateDraft:
		return "draft"
	case StateMerged:
		return "merged"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// FetchFunc retrieves the diff for an identity from a provider API.
// Implementations live in the adapter layer; the core treats the returned
// payload as opaque bytes. Errors should be *Error values so the core can
// classify them; anything else is treated as transient.
type FetchFunc func(ctx context.Context, id Identity) ([]byte, error)

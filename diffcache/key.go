package diffcache

import (
	"fmt"

	"github.com/jonwraymond/prfetch/provider"
)

// keyNamespace prefixes every cache key written by this package.
const keyNamespace = "diff"

// Key is the commit-qualified cache key for a pull-request diff. Because the
// head commit participates in the key, a new push on the PR branch is a
// guaranteed miss and needs no explicit invalidation.
type Key struct {
	Provider string
	Owner    string
	Repo     string
	Number   int
	HeadSHA  string
}

// KeyFor builds the cache key for an identity.
func KeyFor(id provider.Identity) Key {
	return Key{
		Provider: id.Provider,
		Owner:    id.Owner,
		Repo:     id.Repo,
		Number:   id.Number,
		HeadSHA:  id.HeadSHA,
	}
}

// String renders the key for the underlying store.
// Format: diff:<provider>:<owner>:<repo>:<number>:<sha>
func (k Key) String() string {
	return fmt.Sprintf("%s:%s:%s:%s:%d:%s", keyNamespace, k.Provider, k.Owner, k.Repo, k.Number, k.HeadSHA)
}

// Prefix renders the non-commit-qualified prefix shared by every head commit
// of the same PR. Stale reads and invalidation operate on this prefix.
func (k Key) Prefix() string {
	return fmt.Sprintf("%s:%s:%s:%s:%d:", keyNamespace, k.Provider, k.Owner, k.Repo, k.Number)
}

// PrefixFor builds the invalidation prefix for an identity without requiring
// a head commit, since webhook payloads may not carry one.
func PrefixFor(id provider.Identity) string {
	return fmt.Sprintf("%s:%s:%s:%s:%d:", keyNamespace, id.Provider, id.Owner, id.Repo, id.Number)
}

// Package keys turns arbitrary textual keys into stable 64-bit integer keys.
//
// Every key-accepting table operation resolves terms through a Normalizer,
// so the same term always lands on the same integer key.
package keys

import "github.com/cespare/xxhash/v2"

// Normalizer converts a textual key into its canonical 64-bit integer form.
// Implementations must be total and deterministic: same input, same key.
type Normalizer interface {
	Key(term string) uint64
}

// XXHash is the default stateless Normalizer, backed by xxhash64.
type XXHash struct{}

// Key returns the xxhash64 digest of term.
func (XXHash) Key(term string) uint64 {
	return xxhash.Sum64String(term)
}

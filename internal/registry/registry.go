// Package registry tracks the set of token mints already observed.
package registry

// KnownMints is the process-lifetime set of observed mint addresses.
// Membership only grows; there is no removal. The scanner is the sole
// writer and scan cycles run strictly sequentially, so the set carries
// no internal locking. If cycles are ever made concurrent, access must
// be synchronized externally.
type KnownMints struct {
	mints map[string]struct{}
}

// New creates an empty registry.
func New() *KnownMints {
	return &KnownMints{
		mints: make(map[string]struct{}),
	}
}

// Contains reports whether mint has been observed.
func (k *KnownMints) Contains(mint string) bool {
	_, ok := k.mints[mint]
	return ok
}

// Add records mint as observed. No-op if already present.
func (k *KnownMints) Add(mint string) {
	k.mints[mint] = struct{}{}
}

// AddAll records every mint in the slice. Used for bootstrap seeding.
func (k *KnownMints) AddAll(mints []string) {
	for _, mint := range mints {
		k.mints[mint] = struct{}{}
	}
}

// Len returns the number of known mints.
func (k *KnownMints) Len() int {
	return len(k.mints)
}

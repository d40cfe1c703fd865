// Package random provides the explicit, seedable randomness used by draws.
// Seeds come from crypto/rand; the stream itself is ChaCha8 so
// the same seed always replays the same sequence.
package random

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	mrand "math/rand/v2"
)

// Seed is the 32-byte key of a ChaCha8 stream.
type Seed [32]byte

// NewSeed draws a fresh seed from the operating system CSPRNG.
func NewSeed() (Seed, error) {
	var s Seed
	if _, err := rand.Read(s[:]); err != nil {
		return Seed{}, fmt.Errorf("failed to read random seed: %w", err)
	}
	return s, nil
}

// ParseSeed decodes a hex encoded seed.
func ParseSeed(value string) (Seed, error) {
	var s Seed
	raw, err := hex.DecodeString(value)
	if err != nil {
		return Seed{}, fmt.Errorf("seed is not valid hex: %w", err)
	}
	if len(raw) != len(s) {
		return Seed{}, fmt.Errorf("seed must be %d bytes, got %d", len(s), len(raw))
	}
	copy(s[:], raw)
	return s, nil
}

func (s Seed) String() string {
	return hex.EncodeToString(s[:])
}

// Source is a deterministic random stream derived from a Seed.
type Source struct {
	rng *mrand.Rand
}

func New(seed Seed) *Source {
	return &Source{rng: mrand.New(mrand.NewChaCha8(seed))}
}

// Shuffle is a Fisher-Yates shuffle over n elements.
func (s *Source) Shuffle(n int, swap func(i, j int)) {
	s.rng.Shuffle(n, swap)
}

// IntN returns a value in [0, n). It panics if n <= 0.
func (s *Source) IntN(n int) int {
	return s.rng.IntN(n)
}

// Shuffled returns a shuffled copy of items, leaving the input untouched.
func Shuffled[T any](src *Source, items []T) []T {
	out := make([]T, len(items))
	copy(out, items)
	src.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

// Choice picks one element. ok is false for an empty slice.
func Choice[T any](src *Source, items []T) (item T, ok bool) {
	if len(items) == 0 {
		return item, false
	}
	return items[src.IntN(len(items))], true
}

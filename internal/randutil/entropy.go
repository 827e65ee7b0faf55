package randutil

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	mrand "math/rand/v2"
	"sync"
)

const (
	// EntropySize is the number of bytes drawn per operation by the
	// built-in sources.
	EntropySize = 32

	goldenRatio64 = 0x9e3779b97f4a7c15
)

// Entropy delivers fresh, unpredictable bytes once per operation.
type Entropy interface {
	Random() ([]byte, error)
}

// CryptoEntropy reads from crypto/rand.
type CryptoEntropy struct{}

// Random returns EntropySize bytes from crypto/rand.
func (CryptoEntropy) Random() ([]byte, error) {
	b := make([]byte, EntropySize)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("randutil: read entropy: %w", err)
	}
	return b, nil
}

// StaticEntropy returns the same bytes on every call. Replays and tests only.
type StaticEntropy []byte

// Random returns a copy of the static bytes.
func (s StaticEntropy) Random() ([]byte, error) {
	if len(s) == 0 {
		return nil, ErrNoEntropy
	}
	return append([]byte(nil), s...), nil
}

// SeededEntropy produces a reproducible stream of entropy inputs from an
// int64 seed, so a whole session can be replayed from one number.
type SeededEntropy struct {
	mu  sync.Mutex
	rng *mrand.Rand
}

// NewSeededEntropy returns an entropy source seeded deterministically from
// seed. Both PCG words are derived from the seed with a splitmix finaliser so
// nearby seeds give unrelated streams.
func NewSeededEntropy(seed int64) *SeededEntropy {
	u := uint64(seed)
	return &SeededEntropy{rng: mrand.New(mrand.NewPCG(mix(u), mix(u+goldenRatio64)))}
}

// Random returns the next EntropySize bytes of the stream.
func (s *SeededEntropy) Random() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b := make([]byte, EntropySize)
	for i := 0; i < EntropySize; i += 8 {
		binary.LittleEndian.PutUint64(b[i:i+8], s.rng.Uint64())
	}
	return b, nil
}

func mix(x uint64) uint64 {
	x ^= x >> 30
	x *= 0xbf58476d1ce4e5b9
	x ^= x >> 27
	x *= 0x94d049bb133111eb
	x ^= x >> 31
	return x
}

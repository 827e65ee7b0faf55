package deck

import (
	"crypto/sha256"
	"encoding/binary"
	"math"
)

// Shuffle permutes the deck in place with Fisher-Yates, walking from the last
// position to the first. The same seed always produces the same permutation.
func (d *Deck) Shuffle(seed uint64) {
	for i := len(d.cards) - 1; i > 0; i-- {
		j := drawIndex(seed, uint64(i))
		d.cards[i], d.cards[j] = d.cards[j], d.cards[i]
	}
}

// drawIndex returns a uniform index in [0, i] derived from seed and i.
//
// Candidates are SHA-256(seed || i || attempt), little-endian, truncated to
// 64 bits. Anything at or above the largest multiple of i+1 is rejected so
// the final modulo has no bias. The loop has no iteration cap: each attempt
// is rejected with probability below 1/2, and capping it would reintroduce
// the bias.
func drawIndex(seed, i uint64) uint64 {
	bound := i + 1
	threshold := (math.MaxUint64 / bound) * bound

	var buf [24]byte
	binary.LittleEndian.PutUint64(buf[0:8], seed)
	binary.LittleEndian.PutUint64(buf[8:16], i)

	for attempt := uint64(0); ; attempt++ {
		binary.LittleEndian.PutUint64(buf[16:24], attempt)
		sum := sha256.Sum256(buf[:])
		candidate := binary.LittleEndian.Uint64(sum[:8])
		if candidate < threshold {
			return candidate % bound
		}
	}
}

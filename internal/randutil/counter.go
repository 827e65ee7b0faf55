package randutil

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math/big"
	"math/bits"
)

// CounterSize is the encoded length of a Counter.
const CounterSize = 16

// Counter is an unsigned 128-bit derivation counter. It only ever moves
// forward, one step per derived value.
type Counter struct {
	Hi, Lo uint64
}

// CounterFromBytes decodes 16 little-endian bytes.
func CounterFromBytes(b []byte) (Counter, error) {
	if len(b) != CounterSize {
		return Counter{}, fmt.Errorf("randutil: counter must be %d bytes, got %d", CounterSize, len(b))
	}
	return Counter{
		Lo: binary.LittleEndian.Uint64(b[0:8]),
		Hi: binary.LittleEndian.Uint64(b[8:16]),
	}, nil
}

// Bytes encodes the counter as 16 little-endian bytes.
func (c Counter) Bytes() []byte {
	b := make([]byte, CounterSize)
	binary.LittleEndian.PutUint64(b[0:8], c.Lo)
	binary.LittleEndian.PutUint64(b[8:16], c.Hi)
	return b
}

// Inc advances the counter by one, carrying into the high word.
func (c *Counter) Inc() {
	var carry uint64
	c.Lo, carry = bits.Add64(c.Lo, 1, 0)
	c.Hi += carry
}

// Sub returns c - other, saturating at zero when other is ahead of c.
func (c Counter) Sub(other Counter) Counter {
	lo, borrow := bits.Sub64(c.Lo, other.Lo, 0)
	hi, borrow := bits.Sub64(c.Hi, other.Hi, borrow)
	if borrow != 0 {
		return Counter{}
	}
	return Counter{Hi: hi, Lo: lo}
}

// Big returns the counter as a big.Int.
func (c Counter) Big() *big.Int {
	n := new(big.Int).SetUint64(c.Hi)
	n.Lsh(n, 64)
	return n.Or(n, new(big.Int).SetUint64(c.Lo))
}

// String returns the counter in decimal.
func (c Counter) String() string {
	return c.Big().String()
}

// MarshalText encodes the counter in decimal.
func (c Counter) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText decodes a decimal counter.
func (c *Counter) UnmarshalText(text []byte) error {
	n, ok := new(big.Int).SetString(string(text), 10)
	if !ok || n.Sign() < 0 || n.BitLen() > 128 {
		return errors.New("randutil: invalid counter " + string(text))
	}
	mask := new(big.Int).SetUint64(^uint64(0))
	c.Lo = new(big.Int).And(n, mask).Uint64()
	c.Hi = new(big.Int).Rsh(n, 64).Uint64()
	return nil
}

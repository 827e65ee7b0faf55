package randutil

import (
	"crypto/sha512"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

const (
	// MinEntropy is the smallest entropy input accepted for derivation and
	// counter initialisation.
	MinEntropy = 16

	// hkdf salt length and output length, both the SHA-512 block of 64 bytes.
	saltSize   = 64
	outputSize = 64
)

var (
	// ErrNoEntropy is returned when the entropy source produced nothing.
	ErrNoEntropy = errors.New("randutil: no entropy available")

	// ErrInsufficientEntropy is returned when fewer than MinEntropy bytes
	// were supplied.
	ErrInsufficientEntropy = errors.New("randutil: insufficient entropy")
)

// Deriver turns one entropy input and a counter into a stream of
// independent 64-bit values.
type Deriver struct {
	entropy []byte
	counter *Counter
	salt    [saltSize]byte
}

// NewDeriver creates a deriver over entropy that advances counter.
func NewDeriver(entropy []byte, counter *Counter) (*Deriver, error) {
	if err := checkEntropy(entropy); err != nil {
		return nil, err
	}
	if counter == nil {
		return nil, errors.New("randutil: nil counter")
	}
	return &Deriver{
		entropy: append([]byte(nil), entropy...),
		counter: counter,
	}, nil
}

// Next computes HKDF-SHA512(salt = zeros, ikm = entropy, info = counter),
// returns the first 8 output bytes as a little-endian uint64 and advances the
// counter by one.
func (d *Deriver) Next() uint64 {
	r := hkdf.New(sha512.New, d.entropy, d.salt[:], d.counter.Bytes())
	var out [outputSize]byte
	if _, err := io.ReadFull(r, out[:]); err != nil {
		// hkdf only fails past 255 blocks of output
		panic(fmt.Sprintf("randutil: hkdf read: %v", err))
	}
	d.counter.Inc()
	return binary.LittleEndian.Uint64(out[:8])
}

// Counter returns the current counter value.
func (d *Deriver) Counter() Counter {
	return *d.counter
}

// InitCounter derives the initial counter from the first 16 bytes of
// entropy, read little-endian.
func InitCounter(entropy []byte) (Counter, error) {
	if err := checkEntropy(entropy); err != nil {
		return Counter{}, err
	}
	return CounterFromBytes(entropy[:CounterSize])
}

func checkEntropy(entropy []byte) error {
	if len(entropy) == 0 {
		return ErrNoEntropy
	}
	if len(entropy) < MinEntropy {
		return fmt.Errorf("%w: got %d bytes, need %d", ErrInsufficientEntropy, len(entropy), MinEntropy)
	}
	return nil
}

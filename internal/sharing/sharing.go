// Package sharing splits 64-bit secrets into additive shares.
//
// Shares live in the group of integers modulo 2^64: the wrapping sum of all
// shares of a secret equals the secret, and any n-1 of them are uniformly
// distributed and independent of it.
package sharing

import (
	"errors"
	"fmt"
)

// ErrTooFewShares is returned when fewer than two shares are requested.
var ErrTooFewShares = errors.New("sharing: need at least 2 shares")

// Source supplies independent uniformly random values.
type Source interface {
	Next() uint64
}

// Split draws n-1 shares from src and sets the last share to the secret
// minus their sum.
func Split(secret uint64, n int, src Source) ([]uint64, error) {
	if n < 2 {
		return nil, fmt.Errorf("%w: got %d", ErrTooFewShares, n)
	}

	shares := make([]uint64, 0, n)
	var sum uint64
	for range n - 1 {
		share := src.Next()
		shares = append(shares, share)
		sum += share
	}
	return append(shares, secret-sum), nil
}

// Combine returns the wrapping sum of shares.
func Combine(shares []uint64) uint64 {
	var sum uint64
	for _, s := range shares {
		sum += s
	}
	return sum
}

package sharing

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/pokerdealer/internal/randutil"
)

// sequence replays fixed values, for checking the exact split.
type sequence struct {
	values []uint64
	next   int
}

func (s *sequence) Next() uint64 {
	v := s.values[s.next]
	s.next++
	return v
}

func TestSplitCombines(t *testing.T) {
	t.Parallel()

	var counter randutil.Counter
	src, err := randutil.NewDeriver(randutil.StaticEntropy("0123456789abcdef0123456789abcdef"), &counter)
	require.NoError(t, err)

	secrets := []uint64{0, 1, 42, math.MaxUint64, math.MaxUint64 / 2, 1 << 63}
	for range 20 {
		secrets = append(secrets, src.Next())
	}

	for _, secret := range secrets {
		for n := 2; n <= 9; n++ {
			shares, err := Split(secret, n, src)
			require.NoError(t, err)
			require.Len(t, shares, n)
			assert.Equal(t, secret, Combine(shares), "secret %d, n %d", secret, n)
		}
	}
}

func TestSplitLastShareWraps(t *testing.T) {
	t.Parallel()

	src := &sequence{values: []uint64{math.MaxUint64, 10}}
	shares, err := Split(5, 3, src)
	require.NoError(t, err)

	// 5 - (MaxUint64 + 10) mod 2^64 = 5 - 9 = 2^64 - 4
	assert.Equal(t, []uint64{math.MaxUint64, 10, math.MaxUint64 - 3}, shares)
	assert.Equal(t, uint64(5), Combine(shares))
}

func TestSplitRejectsSingleShare(t *testing.T) {
	t.Parallel()

	for _, n := range []int{-1, 0, 1} {
		_, err := Split(7, n, &sequence{})
		assert.ErrorIs(t, err, ErrTooFewShares, "n=%d", n)
	}
}

func TestCombineEmpty(t *testing.T) {
	t.Parallel()
	assert.Equal(t, uint64(0), Combine(nil))
}

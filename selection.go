package convolve

import (
	"math/bits"
	"strconv"
)

// MaxSelectionBits is the width of a Selection and therefore the largest
// usable catalog.
const MaxSelectionBits = 64

// Selection is a bitmask over catalog order: bit i enables catalog[i].
// Bits at or beyond the catalog length are ignored.
type Selection uint64

// SelectionOf returns a Selection with the given bits set.
func SelectionOf(indices ...int) Selection {
	var s Selection
	for _, i := range indices {
		s = s.With(i)
	}
	return s
}

// Has reports whether bit i is set.
func (s Selection) Has(i int) bool {
	if i < 0 || i >= MaxSelectionBits {
		return false
	}
	return s&(1<<uint(i)) != 0
}

// With returns s with bit i set. Out-of-range indices are ignored.
func (s Selection) With(i int) Selection {
	if i < 0 || i >= MaxSelectionBits {
		return s
	}
	return s | 1<<uint(i)
}

// Without returns s with bit i cleared.
func (s Selection) Without(i int) Selection {
	if i < 0 || i >= MaxSelectionBits {
		return s
	}
	return s &^ (1 << uint(i))
}

// Count returns the number of set bits below limit.
func (s Selection) Count(limit int) int {
	return bits.OnesCount64(uint64(s.Clip(limit)))
}

// Clip clears every bit at or above limit.
func (s Selection) Clip(limit int) Selection {
	switch {
	case limit <= 0:
		return 0
	case limit >= MaxSelectionBits:
		return s
	default:
		return s & (1<<uint(limit) - 1)
	}
}

// String renders the mask in binary, most significant bit first.
func (s Selection) String() string {
	return strconv.FormatUint(uint64(s), 2)
}

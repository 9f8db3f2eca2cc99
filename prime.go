package maglev

import "math/big"

const (
	// SmallM is a table size suitable for less than 655 backends.
	SmallM = 65537
	// BigM is a table size suitable for less than 6553 backends.
	BigM = 655373
)

// minFactor is a recommended minimum ratio of table size to the number of
// backends.
const minFactor = 100

// IsPrime reports whether n is prime.
func IsPrime(n uint64) bool {
	// ProbablyPrime(0) applies Baillie-PSW test only, which is exact for
	// values less than 2^64.
	return new(big.Int).SetUint64(n).ProbablyPrime(0)
}

// NextPrime returns the smallest prime greater than or equal to n.
// It panics if there is no such prime representable by uint64.
func NextPrime(n uint64) uint64 {
	if n <= 2 {
		return 2
	}
	if n%2 == 0 {
		n++
	}
	for ; n >= 3; n += 2 {
		if IsPrime(n) {
			return n
		}
	}
	panic("maglev: prime overflows uint64")
}

// SizeFor returns prime table size suitable for n backends.
func SizeFor(n int) uint64 {
	if n < 0 {
		n = 0
	}
	m := uint64(n) * minFactor
	switch {
	case m < SmallM:
		return SmallM
	case m < BigM:
		return BigM
	default:
		return NextPrime(m)
	}
}

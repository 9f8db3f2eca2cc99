package maglev

import "math/bits"

// permutation represents backend's preference order over the table slots.
// Its j-th element is (offset + j*skip) mod size.
//
// Since size is prime and skip is in [1, size-1], the sequence visits every
// slot exactly once before it repeats.
type permutation struct {
	offset uint64
	skip   uint64
}

func newPermutation(digest, size uint64) permutation {
	return permutation{
		offset: (digest >> 32) % size,
		skip:   (digest&0xffffffff)%(size-1) + 1,
	}
}

// at returns j-th preferred slot of the permutation.
func (p permutation) at(j, size uint64) uint64 {
	hi, lo := bits.Mul64(j%size, p.skip)
	c := bits.Rem64(hi, lo, size)
	if c >= size-p.offset {
		return c - (size - p.offset)
	}
	return c + p.offset
}

// next returns the slot following c in the permutation.
func (p permutation) next(c, size uint64) uint64 {
	c += p.skip
	if c >= size {
		c -= size
	}
	return c
}

// permutations returns permutation of each backend in the given order.
func permutations(h *hasher, backends []string, size uint64) []permutation {
	ps := make([]permutation, len(backends))
	for i, b := range backends {
		ps[i] = newPermutation(h.digest(b), size)
	}
	return ps
}

// populate assigns every slot of the table of given size to exactly one
// backend index.
//
// Backends take turns in the order of ps: each one claims its next most
// preferred free slot. Populating stops as soon as the last slot is claimed.
// It returns nil if ps is empty.
//
// Caller must guarantee that len(ps) <= size.
func populate(ps []permutation, size uint64) []int {
	if len(ps) == 0 {
		return nil
	}
	// next holds the cursor of each backend: its next preferred slot.
	next := make([]uint64, len(ps))
	for i, p := range ps {
		next[i] = p.offset
	}
	entry := make([]int, size)
	for i := range entry {
		entry[i] = -1
	}
	var n uint64
	for {
		for i, p := range ps {
			c := next[i]
			for entry[c] >= 0 {
				c = p.next(c, size)
			}
			entry[c] = i
			next[i] = p.next(c, size)
			n++
			if n == size {
				return entry
			}
		}
	}
}

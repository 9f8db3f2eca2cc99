package maglev

import (
	"bytes"
	"hash"
	"testing"

	"github.com/cespare/xxhash/v2"
)

// digestOf returns digest which results into permutation with given offset
// and skip for a table of given size.
func digestOf(offset, skip, size uint64) uint64 {
	if offset >= size || skip == 0 || skip >= size {
		panic("digest hook: malformed permutation")
	}
	return offset<<32 | (skip - 1)
}

func setupDigest(t testing.TB, values map[string]uint64) Option {
	return WithHash(func() hash.Hash64 {
		return &hash64{
			t:      t,
			values: values,
		}
	})
}

type hash64 struct {
	t      testing.TB
	values map[string]uint64
	buf    bytes.Buffer
}

func (h *hash64) Write(p []byte) (int, error) {
	return h.buf.Write(p)
}

func (h *hash64) Sum(b []byte) []byte {
	panic("maglev: hash Sum() must not be called")
}

func (h *hash64) Reset() {
	h.buf.Reset()
}

func (h *hash64) Size() int {
	return 8
}

func (h *hash64) BlockSize() int {
	return 1
}

func (h *hash64) Sum64() uint64 {
	v, has := h.values[h.buf.String()]
	if has {
		h.t.Logf("using digest value for %q: %#x", h.buf.String(), v)
		return v
	}
	return xxhash.Sum64(h.buf.Bytes())
}

// owners returns the owner of every slot of the table.
func owners(t testing.TB, tbl *Table) []string {
	ret := make([]string, tbl.Size())
	for slot := range ret {
		b, err := tbl.Lookup(uint64(slot))
		if err != nil {
			t.Fatalf("unexpected lookup error for slot %d: %v", slot, err)
		}
		ret[slot] = b
	}
	return ret
}

func mustNew(t testing.TB, backends []string, size uint64, opts ...Option) *Table {
	tbl, err := New(backends, size, opts...)
	if err != nil {
		t.Fatalf("can't create table: %v", err)
	}
	return tbl
}

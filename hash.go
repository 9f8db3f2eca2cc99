package maglev

import (
	"fmt"
	"hash"
	"io"
	"sync"

	"github.com/cespare/xxhash/v2"
)

// hasher is a pool of reusable 64-bit hash functions.
type hasher struct {
	// New is an optional function used to build up a new 64-bit hash
	// function. If New is nil, xxhash is used.
	New func() hash.Hash64

	pool sync.Pool
}

func (h *hasher) get() hash.Hash64 {
	x, _ := h.pool.Get().(hash.Hash64)
	if x != nil {
		return x
	}
	if h.New != nil {
		return h.New()
	}
	return xxhash.New()
}

func (h *hasher) put(x hash.Hash64) {
	x.Reset()
	h.pool.Put(x)
}

// digest returns 64-bit digest of backend name.
func (h *hasher) digest(backend string) uint64 {
	x := h.get()
	defer h.put(x)

	if _, err := io.WriteString(x, backend); err != nil {
		panic(fmt.Sprintf("maglev: digest error: %v", err))
	}
	return x.Sum64()
}

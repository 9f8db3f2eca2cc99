// Package digest provides 64-bit hash functions suitable for digesting
// backend names of maglev table.
package digest

import (
	"crypto/md5"
	"crypto/sha1"
	"encoding/binary"
	"fmt"
	"hash"
	"sort"

	"github.com/cespare/xxhash/v2"
	"github.com/dchest/siphash"
	"github.com/segmentio/fasthash/fnv1a"
	"github.com/spaolacci/murmur3"
	"github.com/zeebo/xxh3"
)

// XXHash returns xxHash64 hash function.
func XXHash() hash.Hash64 {
	return xxhash.New()
}

// XXH3 returns 64-bit xxHash3 hash function.
func XXH3() hash.Hash64 {
	return xxh3.New()
}

// Murmur3 returns 64-bit MurmurHash3 hash function.
func Murmur3() hash.Hash64 {
	return murmur3.New64()
}

// SipHash returns a constructor of SipHash-2-4 hash function keyed with k0
// and k1.
func SipHash(k0, k1 uint64) func() hash.Hash64 {
	var key [16]byte
	binary.LittleEndian.PutUint64(key[0:8], k0)
	binary.LittleEndian.PutUint64(key[8:16], k1)
	return func() hash.Hash64 {
		return siphash.New(key[:])
	}
}

// FNV1a returns 64-bit FNV-1a hash function.
func FNV1a() hash.Hash64 {
	f := fnv64a(fnv1a.Init64)
	return &f
}

type fnv64a uint64

func (f *fnv64a) Write(p []byte) (int, error) {
	*f = fnv64a(fnv1a.AddBytes64(uint64(*f), p))
	return len(p), nil
}

func (f *fnv64a) Sum(b []byte) []byte {
	return binary.BigEndian.AppendUint64(b, uint64(*f))
}

func (f *fnv64a) Reset()         { *f = fnv64a(fnv1a.Init64) }
func (f *fnv64a) Size() int      { return 8 }
func (f *fnv64a) BlockSize() int { return 1 }
func (f *fnv64a) Sum64() uint64  { return uint64(*f) }

// Truncate returns constructor of 64-bit hash function which digest is the
// first 8 bytes (little-endian) of the digest computed by fn.
// It panics if fn produces digests shorter than 8 bytes.
func Truncate(fn func() hash.Hash) func() hash.Hash64 {
	return func() hash.Hash64 {
		h := fn()
		if h.Size() < 8 {
			panic("digest: too small hash")
		}
		return truncated{h}
	}
}

type truncated struct {
	hash.Hash
}

func (t truncated) Sum64() uint64 {
	return binary.LittleEndian.Uint64(t.Sum(nil))
}

var byName = map[string]func() hash.Hash64{
	"xxhash":  XXHash,
	"xxh3":    XXH3,
	"murmur3": Murmur3,
	"siphash": SipHash(0, 0),
	"fnv1a":   FNV1a,
	"md5":     Truncate(md5.New),
	"sha1":    Truncate(sha1.New),
}

// ByName returns hash function constructor by its name.
// Empty name stands for the default (xxhash).
func ByName(name string) (func() hash.Hash64, error) {
	if name == "" {
		return XXHash, nil
	}
	fn, has := byName[name]
	if !has {
		return nil, fmt.Errorf("digest: unexpected hash function: %q", name)
	}
	return fn, nil
}

// Names returns sorted names of hash functions known by ByName().
func Names() []string {
	ret := make([]string, 0, len(byName))
	for name := range byName {
		ret = append(ret, name)
	}
	sort.Strings(ret)
	return ret
}

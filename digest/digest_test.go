package digest

import (
	"crypto/md5"
	"encoding/binary"
	"hash"
	"hash/fnv"
	"io"
	"testing"

	"github.com/cespare/xxhash/v2"
	"github.com/dchest/siphash"
	"github.com/spaolacci/murmur3"
	"github.com/zeebo/xxh3"
)

func sum64(fn func() hash.Hash64, s string) uint64 {
	h := fn()
	if _, err := io.WriteString(h, s); err != nil {
		panic(err)
	}
	return h.Sum64()
}

func TestHashes(t *testing.T) {
	md5Sum := func(s string) uint64 {
		sum := md5.Sum([]byte(s))
		return binary.LittleEndian.Uint64(sum[:8])
	}
	fnvSum := func(s string) uint64 {
		h := fnv.New64a()
		h.Write([]byte(s))
		return h.Sum64()
	}
	for _, test := range []struct {
		name string
		fn   func() hash.Hash64
		exp  func(string) uint64
	}{
		{"xxhash", XXHash, xxhash.Sum64String},
		{"xxh3", XXH3, xxh3.HashString},
		{"murmur3", Murmur3, func(s string) uint64 { return murmur3.Sum64([]byte(s)) }},
		{"siphash", SipHash(1, 2), func(s string) uint64 { return siphash.Hash(1, 2, []byte(s)) }},
		{"fnv1a", FNV1a, fnvSum},
		{"md5", Truncate(md5.New), md5Sum},
	} {
		t.Run(test.name, func(t *testing.T) {
			for _, s := range []string{"", "foo", "10.0.0.1:8080"} {
				if act, exp := sum64(test.fn, s), test.exp(s); act != exp {
					t.Errorf("digest of %q is %#x; want %#x", s, act, exp)
				}
			}
		})
	}
}

func TestFNV1aReset(t *testing.T) {
	h := FNV1a()
	io.WriteString(h, "foo")
	h.Reset()
	io.WriteString(h, "bar")
	if act, exp := h.Sum64(), sum64(FNV1a, "bar"); act != exp {
		t.Fatalf("digest after reset is %#x; want %#x", act, exp)
	}
	if n := len(h.Sum(nil)); n != h.Size() {
		t.Fatalf("unexpected sum length: %d", n)
	}
}

func TestByName(t *testing.T) {
	for _, name := range append(Names(), "") {
		fn, err := ByName(name)
		if err != nil {
			t.Fatalf("unexpected error for %q: %v", name, err)
		}
		if a, b := sum64(fn, "foo"), sum64(fn, "foo"); a != b {
			t.Fatalf("unstable %q digest: %#x vs %#x", name, a, b)
		}
	}
	if _, err := ByName("crc32"); err == nil {
		t.Fatalf("want error; got nothing")
	}
}

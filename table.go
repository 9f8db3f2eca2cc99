package maglev

import (
	"fmt"
	"hash"
	"slices"
	"strings"
	"sync"

	"github.com/gobwas/avl"
)

// Option configures the Table.
type Option func(*Table)

// WithHash sets a function used to build up a new 64-bit hash function used
// to digest backend names. By default xxhash is used.
//
// All processes sharing the same backend list must use the same hash
// function to get identical tables.
func WithHash(fn func() hash.Hash64) Option {
	return func(t *Table) {
		t.hasher.New = fn
	}
}

// WithTrace makes the Table call the hooks of given trace.
// If called multiple times, traces are composed.
func WithTrace(x Trace) Option {
	return func(t *Table) {
		t.trace = t.trace.Compose(x)
	}
}

// Table is a Maglev consistent hashing lookup table.
// It is goroutine safe. Table instances must not be copied.
type Table struct {
	size   uint64
	hasher hasher
	trace  Trace

	// mu serializes write operations on the table.
	// It should be held when doing insert/delete/set operations, which in
	// turn lead to table rebuild.
	mu sync.Mutex

	// lookupMu serializes read & write operations on the lookup pointer.
	// It's read-end should be held when loading the pointer.
	// It's write-end should be held when pointer is being updated.
	lookupMu sync.RWMutex

	// lookup is an immutable snapshot of the table.
	// It's protected by t.mu and t.lookupMu mutex.
	// Note that t.mu mutex should be held while preparing new version of the
	// snapshot.
	lookup *lookup
}

// lookup is an immutable state of the table populated for some list of
// backends.
type lookup struct {
	backends []string
	// entry maps slot to the index of its owner within backends.
	entry []int
	// index maps backend name to its index within backends.
	index avl.Tree // tree<backendItem>
}

func (l *lookup) find(b string) (int, bool) {
	x := l.index.Search(backendItem{name: b})
	if x == nil {
		return 0, false
	}
	return x.(backendItem).pos, true
}

func (l *lookup) owner(slot uint64) string {
	return l.backends[l.entry[slot]]
}

type backendItem struct {
	name string
	pos  int
}

func (b backendItem) Compare(x avl.Item) int {
	return strings.Compare(b.name, x.(backendItem).name)
}

// New creates a new table of given size populated with backends.
//
// The order of backends is significant: tables are identical only if they
// were built from the same list in the same order.
//
// It returns ErrInvalidTableSize if size is not prime, ErrDuplicateBackend
// if some backend is listed twice and ErrTooManyBackends if there are more
// backends than slots. Empty list of backends is valid.
func New(backends []string, size uint64, opts ...Option) (*Table, error) {
	if !IsPrime(size) {
		return nil, fmt.Errorf("%w: %d", ErrInvalidTableSize, size)
	}
	t := &Table{
		size: size,
	}
	for _, opt := range opts {
		opt(t)
	}
	setupTableTrace(t)

	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.rebuild(slices.Clone(backends)); err != nil {
		return nil, err
	}
	return t, nil
}

// Lookup returns backend owning given slot.
// It returns ErrIndexOutOfRange if slot is not less than Size() and
// ErrEmptyTable if table has no backends.
func (t *Table) Lookup(slot uint64) (string, error) {
	if slot >= t.size {
		return "", fmt.Errorf(
			"%w: %d is not in [0, %d)",
			ErrIndexOutOfRange, slot, t.size,
		)
	}
	l := t.load()
	if len(l.entry) == 0 {
		return "", ErrEmptyTable
	}
	return l.owner(slot), nil
}

// Insert appends backend to the list of backends and rebuilds the table.
// It returns non-nil error when backend already exists on the table.
func (t *Table) Insert(backend string) (err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	done := t.trace.onInsert(backend)
	defer func() {
		done(err)
	}()

	l := t.lookup
	if _, has := l.find(backend); has {
		return fmt.Errorf("%w: %q", ErrDuplicateBackend, backend)
	}
	return t.rebuild(append(slices.Clip(l.backends), backend))
}

// Delete removes backend from the list of backends and rebuilds the table.
// It returns non-nil error when backend doesn't exist on the table.
//
// Relative order of the remaining backends is preserved.
func (t *Table) Delete(backend string) (err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	done := t.trace.onDelete(backend)
	defer func() {
		done(err)
	}()

	l := t.lookup
	i, has := l.find(backend)
	if !has {
		return fmt.Errorf("%w: %q", ErrBackendNotFound, backend)
	}
	return t.rebuild(slices.Delete(slices.Clone(l.backends), i, i+1))
}

// Set replaces the whole list of backends and rebuilds the table once.
// It fails in the same cases as New() does; table is left unchanged then.
func (t *Table) Set(backends []string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.rebuild(slices.Clone(backends))
}

// Has reports whether backend exists on the table.
func (t *Table) Has(backend string) bool {
	_, has := t.load().find(backend)
	return has
}

// Backends returns a copy of current list of backends in the table order.
func (t *Table) Backends() []string {
	return slices.Clone(t.load().backends)
}

// Len returns the number of backends on the table.
func (t *Table) Len() int {
	return len(t.load().backends)
}

// Size returns the number of table slots.
func (t *Table) Size() uint64 {
	return t.size
}

// Distribution returns the number of slots owned by each backend.
func (t *Table) Distribution() map[string]int {
	l := t.load()
	ret := make(map[string]int, len(l.backends))
	for _, i := range l.entry {
		ret[l.backends[i]]++
	}
	return ret
}

func (t *Table) load() *lookup {
	t.lookupMu.RLock()
	l := t.lookup
	t.lookupMu.RUnlock()
	return l
}

// rebuild populates a new table for backends and publishes it.
// Table is left unchanged if backends list is not valid.
// Given slice must not be modified after call.
//
// t.mu must be held.
func (t *Table) rebuild(backends []string) error {
	if n := uint64(len(backends)); n > t.size {
		return fmt.Errorf(
			"%w: %d backends for table of size %d",
			ErrTooManyBackends, n, t.size,
		)
	}
	var index avl.Tree
	for i, b := range backends {
		var existing avl.Item
		index, existing = index.Insert(backendItem{name: b, pos: i})
		if existing != nil {
			return fmt.Errorf("%w: %q", ErrDuplicateBackend, b)
		}
	}

	done := t.trace.onRebuild(TraceRebuildStart{
		Backends: len(backends),
		Size:     t.size,
	})

	next := &lookup{
		backends: backends,
		entry:    populate(permutations(&t.hasher, backends, t.size), t.size),
		index:    index,
	}
	assertPopulated(next, t.size)

	prev := t.lookup

	t.lookupMu.Lock()
	t.lookup = next
	t.lookupMu.Unlock()

	done(TraceRebuildDone{
		Backends: len(backends),
		Moved:    moved(prev, next),
	})

	return nil
}

// moved returns the number of slots which owner differs between prev and
// next. Prev may be nil.
func moved(prev, next *lookup) (n int) {
	switch {
	case prev == nil || len(prev.entry) == 0:
		return len(next.entry)
	case len(next.entry) == 0:
		return len(prev.entry)
	}
	for slot := range next.entry {
		if prev.owner(uint64(slot)) != next.owner(uint64(slot)) {
			n++
		}
	}
	return n
}

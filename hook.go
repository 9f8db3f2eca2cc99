package maglev

// Trace contains hooks called on table mutations.
// Any hook may be nil.
//
// Hooks are called while table's write lock is held, so they must not call
// Insert(), Delete() or Set() of the same table.
type Trace struct {
	// OnInsert is called when backend is about to be inserted. Returned
	// function (if non-nil) is called with the result of insertion.
	OnInsert func(backend string) func(error)

	// OnDelete is called when backend is about to be deleted. Returned
	// function (if non-nil) is called with the result of deletion.
	OnDelete func(backend string) func(error)

	// OnRebuild is called before the lookup table is populated. Returned
	// function (if non-nil) is called after new table is published.
	OnRebuild func(TraceRebuildStart) func(TraceRebuildDone)
}

// TraceRebuildStart describes a rebuild being started.
type TraceRebuildStart struct {
	// Backends is the number of backends the table is populated with.
	Backends int
	// Size is the table size.
	Size uint64
}

// TraceRebuildDone describes a finished rebuild.
type TraceRebuildDone struct {
	// Backends is the number of backends the table is populated with.
	Backends int
	// Moved is the number of slots which owner has changed.
	Moved int
}

// Compose returns a new Trace which has functional fields composed both from
// t and x.
func (t Trace) Compose(x Trace) (ret Trace) {
	switch {
	case t.OnInsert == nil:
		ret.OnInsert = x.OnInsert
	case x.OnInsert == nil:
		ret.OnInsert = t.OnInsert
	default:
		h1, h2 := t.OnInsert, x.OnInsert
		ret.OnInsert = func(b string) func(error) {
			return composeDone(h1(b), h2(b))
		}
	}
	switch {
	case t.OnDelete == nil:
		ret.OnDelete = x.OnDelete
	case x.OnDelete == nil:
		ret.OnDelete = t.OnDelete
	default:
		h1, h2 := t.OnDelete, x.OnDelete
		ret.OnDelete = func(b string) func(error) {
			return composeDone(h1(b), h2(b))
		}
	}
	switch {
	case t.OnRebuild == nil:
		ret.OnRebuild = x.OnRebuild
	case x.OnRebuild == nil:
		ret.OnRebuild = t.OnRebuild
	default:
		h1, h2 := t.OnRebuild, x.OnRebuild
		ret.OnRebuild = func(s TraceRebuildStart) func(TraceRebuildDone) {
			r1, r2 := h1(s), h2(s)
			switch {
			case r1 == nil:
				return r2
			case r2 == nil:
				return r1
			}
			return func(d TraceRebuildDone) {
				r1(d)
				r2(d)
			}
		}
	}
	return ret
}

func composeDone(f1, f2 func(error)) func(error) {
	switch {
	case f1 == nil:
		return f2
	case f2 == nil:
		return f1
	}
	return func(err error) {
		f1(err)
		f2(err)
	}
}

func (t Trace) onInsert(b string) func(error) {
	var fn func(error)
	if t.OnInsert != nil {
		fn = t.OnInsert(b)
	}
	if fn == nil {
		return func(error) {}
	}
	return fn
}

func (t Trace) onDelete(b string) func(error) {
	var fn func(error)
	if t.OnDelete != nil {
		fn = t.OnDelete(b)
	}
	if fn == nil {
		return func(error) {}
	}
	return fn
}

func (t Trace) onRebuild(s TraceRebuildStart) func(TraceRebuildDone) {
	var fn func(TraceRebuildDone)
	if t.OnRebuild != nil {
		fn = t.OnRebuild(s)
	}
	if fn == nil {
		return func(TraceRebuildDone) {}
	}
	return fn
}

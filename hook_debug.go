//go:build maglev_debug
// +build maglev_debug

package maglev

import (
	"context"
	"fmt"
	"time"

	"github.com/chainguard-dev/clog"
)

const debug = true

func assertPopulated(l *lookup, size uint64) {
	if len(l.backends) == 0 {
		if len(l.entry) != 0 {
			panic("maglev: internal error: empty table has slots")
		}
		return
	}
	if n := uint64(len(l.entry)); n != size {
		panic(fmt.Sprintf(
			"maglev: internal error: table has %d slots; want %d",
			n, size,
		))
	}
	for slot, i := range l.entry {
		if i < 0 || i >= len(l.backends) {
			panic(fmt.Sprintf(
				"maglev: internal error: slot %d has invalid owner %d",
				slot, i,
			))
		}
	}
}

func setupTableTrace(t *Table) {
	log := clog.FromContext(context.Background()).With("size", t.size)
	t.trace = t.trace.Compose(Trace{
		OnInsert: func(b string) func(error) {
			log.Infof("inserting: %q", b)
			return func(err error) {
				if err != nil {
					log.Infof("not inserted: %q: %v", b, err)
				} else {
					log.Infof("inserted: %q", b)
				}
			}
		},
		OnDelete: func(b string) func(error) {
			log.Infof("deleting: %q", b)
			return func(err error) {
				if err != nil {
					log.Infof("not deleted: %q: %v", b, err)
				} else {
					log.Infof("deleted: %q", b)
				}
			}
		},
		OnRebuild: func(s TraceRebuildStart) func(TraceRebuildDone) {
			log.Infof("rebuilding: %d backends", s.Backends)
			start := time.Now()
			return func(d TraceRebuildDone) {
				log.With(
					"backends", d.Backends,
					"moved", d.Moved,
					"took", time.Since(start),
				).Info("rebuilt")
			}
		},
	})
}

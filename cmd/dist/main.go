package main

import (
	"context"
	"flag"
	"fmt"
	"hash"
	"math"
	"math/rand/v2"
	"net"
	"os"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"text/tabwriter"
	"time"

	"github.com/chainguard-dev/clog"
	"github.com/gobwas/avl"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sethvargo/go-envconfig"
	"golang.org/x/sync/errgroup"

	"github.com/gobwas/maglev"
	"github.com/gobwas/maglev/digest"
	"github.com/gobwas/maglev/metrics"
)

// config holds the defaults which could be overridden by flags.
type config struct {
	Parallelism int    `env:"MAGLEV_PARALLELISM"`
	Servers     int    `env:"MAGLEV_SERVERS,default=10"`
	Lo          uint64 `env:"MAGLEV_LO"`
	Hi          uint64 `env:"MAGLEV_HI"`
	Sizes       string `env:"MAGLEV_SIZES"`
	Hash        string `env:"MAGLEV_HASH"`
	Seed        uint64 `env:"MAGLEV_SEED"`
	CSV         bool   `env:"MAGLEV_CSV,default=true"`
	Metrics     bool   `env:"MAGLEV_METRICS"`
	Verbose     bool   `env:"MAGLEV_VERBOSE"`
	Silent      bool   `env:"MAGLEV_SILENT"`
}

func main() {
	ctx := context.Background()
	log := clog.FromContext(ctx)

	cfg := config{
		Parallelism: runtime.NumCPU(),
	}
	if err := envconfig.Process(ctx, &cfg); err != nil {
		log.Fatalf("can't process configuration: %v", err)
	}

	flag.IntVar(&cfg.Parallelism,
		"parallelism", cfg.Parallelism,
		"number of concurrent processors",
	)
	flag.IntVar(&cfg.Servers,
		"servers", cfg.Servers,
		"number of servers to place on table",
	)
	flag.Uint64Var(&cfg.Lo,
		"lo", cfg.Lo,
		"table size to start from (rounded up to prime)",
	)
	flag.Uint64Var(&cfg.Hi,
		"hi", cfg.Hi,
		"table size to end at",
	)
	flag.StringVar(&cfg.Sizes,
		"sizes", cfg.Sizes,
		"comma-separated list of prime table sizes",
	)
	flag.StringVar(&cfg.Hash,
		"hash", cfg.Hash,
		"hash function to be used; one of "+strings.Join(digest.Names(), ", "),
	)
	flag.Uint64Var(&cfg.Seed,
		"seed", cfg.Seed,
		"random seed used to generate servers (zero means random)",
	)
	flag.BoolVar(&cfg.Verbose,
		"v", cfg.Verbose,
		"be verbose",
	)
	flag.BoolVar(&cfg.Silent,
		"s", cfg.Silent,
		"be silent",
	)
	flag.BoolVar(&cfg.CSV,
		"csv", cfg.CSV,
		"print csv to standard output",
	)
	flag.BoolVar(&cfg.Metrics,
		"metrics", cfg.Metrics,
		"log collected table metrics in the end",
	)
	flag.Parse()

	logf := func(f string, args ...interface{}) {
		if !cfg.Verbose {
			return
		}
		log.Infof(f, args...)
	}
	printf := func(f string, args ...interface{}) {
		if cfg.Silent {
			return
		}
		fmt.Fprintf(os.Stderr, f, args...)
	}

	hashFunc, err := digest.ByName(cfg.Hash)
	if err != nil {
		log.Fatalf("%v", err)
	}
	if cfg.Servers <= 0 {
		log.Fatalf("invalid number of servers: %d", cfg.Servers)
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	logf("using seed %d", seed)
	rnd := rand.New(rand.NewPCG(seed, seed))

	// Prepare servers to be put on table(s).
	servers := make([]string, cfg.Servers)
	seenSrv := make(map[string]bool)
	for i := 0; i < len(servers); {
		x := rnd.Uint32()
		ip := net.IPv4(byte(x>>24), byte(x>>16), byte(x>>8), byte(x))
		s := ip.String()
		if seenSrv[s] {
			logf("#%d server duplicated; repeat", i)
			continue
		}
		seenSrv[s] = true
		servers[i] = s
		i++
	}
	logf("%d servers are ready", len(servers))

	// Prepare list of table sizes. We merge here sizes range (from `lo` to
	// `hi`) with manually specified sizes. We use tree to autofix duplicates
	// (if any).
	var sizes avl.Tree
	for _, s := range strings.Split(cfg.Sizes, ",") {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		n, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			log.Fatalf("invalid table size %q: %v", s, err)
		}
		if !maglev.IsPrime(n) {
			log.Fatalf("invalid table size %d: not a prime", n)
		}
		sizes, _ = sizes.Insert(tableSize(n))
	}
	if cfg.Lo > 0 {
		for n := maglev.NextPrime(cfg.Lo); n < cfg.Hi; n = maglev.NextPrime(n + 1) {
			sizes, _ = sizes.Insert(tableSize(n))
		}
	}
	if sizes.Size() == 0 {
		sizes, _ = sizes.Insert(tableSize(maglev.SizeFor(len(servers))))
	}
	logf("%d table sizes are ready", sizes.Size())

	var (
		collector = metrics.NewCollector("dist", nil)
		registry  = prometheus.NewRegistry()
	)
	registry.MustRegister(collector)

	var (
		mu      sync.Mutex
		results avl.Tree
		total   = sizes.Size()
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Parallelism)
	sizes.InOrder(func(x avl.Item) bool {
		if gctx.Err() != nil {
			return false
		}
		var (
			size = uint64(x.(tableSize))
			del  = rnd.IntN(len(servers))
		)
		g.Go(func() error {
			r, err := measure(servers, size, hashFunc, collector.Trace(), del)
			if err != nil {
				return fmt.Errorf("table of size %d: %w", size, err)
			}
			mu.Lock()
			defer mu.Unlock()
			results, _ = results.Insert(r)
			printf(".")
			if n := results.Size(); n%80 == 0 {
				printf(
					"%d/%d(%.1f%%)\n",
					n, total,
					float64(n)/float64(total)*100, // Progress percentage.
				)
			}
			return nil
		})
		return true
	})
	if err := g.Wait(); err != nil {
		log.Fatalf("%v", err)
	}
	printf("\n")

	tw := tabwriter.NewWriter(os.Stdout, 2, 2, 2, ' ', 0)
	results.InOrder(func(x avl.Item) bool {
		r := x.(result)
		var (
			devPct     = r.stddev / float64(r.size) * 100
			movedPct   = float64(r.moved) / float64(r.size) * 100
			optimalPct = 100 / float64(len(servers))
		)
		logf(
			"%d: stddev=%.2f(%.2f%%) moved=%d(%.2f%%, optimal %.2f%%) latency=%s",
			r.size,
			r.stddev, devPct,
			r.moved, movedPct, optimalPct,
			r.latency,
		)
		if cfg.CSV {
			fmt.Fprintf(tw,
				"%d,\t%.4f,\t%.4f,\t%.4f,\t%.2f\n",
				r.size, devPct, movedPct, optimalPct,
				r.latency.Seconds()*1000,
			)
		}
		return true
	})
	tw.Flush()

	if cfg.Metrics {
		logMetrics(log, registry)
	}

	printf("OK\n")
}

// measure builds a table of given size, computes its distribution and then
// removes the del-th server to see how many slots get relocated.
func measure(
	servers []string, size uint64,
	hashFunc func() hash.Hash64, trace maglev.Trace,
	del int,
) (result, error) {
	var moved int
	trace = trace.Compose(maglev.Trace{
		OnRebuild: func(maglev.TraceRebuildStart) func(maglev.TraceRebuildDone) {
			return func(d maglev.TraceRebuildDone) {
				moved = d.Moved
			}
		},
	})

	start := time.Now()
	t, err := maglev.New(servers, size,
		maglev.WithHash(hashFunc),
		maglev.WithTrace(trace),
	)
	if err != nil {
		return result{}, err
	}
	latency := time.Since(start)

	mean := float64(size) / float64(len(servers))
	var variance float64
	for _, n := range t.Distribution() {
		variance += math.Pow(float64(n)-mean, 2)
	}
	// Divide by number of servers as for mean.
	variance /= float64(len(servers))

	if err := t.Delete(servers[del]); err != nil {
		return result{}, err
	}
	return result{
		size:    size,
		latency: latency,
		stddev:  math.Sqrt(variance),
		moved:   moved,
	}, nil
}

func logMetrics(log *clog.Logger, g prometheus.Gatherer) {
	mfs, err := g.Gather()
	if err != nil {
		log.Errorf("can't gather metrics: %v", err)
		return
	}
	for _, mf := range mfs {
		for _, m := range mf.GetMetric() {
			switch {
			case m.GetCounter() != nil:
				log.With("value", m.GetCounter().GetValue()).Info(mf.GetName())
			case m.GetGauge() != nil:
				log.With("value", m.GetGauge().GetValue()).Info(mf.GetName())
			case m.GetHistogram() != nil:
				h := m.GetHistogram()
				log.With(
					"count", h.GetSampleCount(),
					"sum", h.GetSampleSum(),
				).Info(mf.GetName())
			}
		}
	}
}

type result struct {
	size    uint64
	latency time.Duration
	stddev  float64
	moved   int
}

func (r result) Compare(x avl.Item) int {
	return compare(r.size, x.(result).size)
}

type tableSize uint64

func (s tableSize) Compare(x avl.Item) int {
	return compare(uint64(s), uint64(x.(tableSize)))
}

func compare(x0, x1 uint64) int {
	if x0 < x1 {
		return -1
	}
	if x0 > x1 {
		return 1
	}
	return 0
}

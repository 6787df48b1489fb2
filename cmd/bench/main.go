package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/pathnote"
)

func main() {
	count := flag.Int("count", 1000, "Number of notes to write")
	workers := flag.Int("workers", 4, "Concurrent writers")
	adapter := flag.String("adapter", pathnote.AdapterFS, "Store adapter to benchmark")
	uri := flag.String("uri", "", "Store location (default: a fresh temp dir; required for mongo)")
	keep := flag.Bool("keep", false, "Keep the benchmark store after running")
	flag.Parse()

	// 1. Setup Namespace
	benchDir, err := os.MkdirTemp("", "pathnote_bench_")
	if err != nil {
		panic(err)
	}
	defer func() {
		if !*keep {
			os.RemoveAll(benchDir)
		} else {
			fmt.Printf("Keeping bench dir: %s\n", benchDir)
		}
	}()

	location := *uri
	if location == "" {
		location = benchDir
		if *adapter == pathnote.AdapterBolt {
			location = filepath.Join(benchDir, "bench.db")
		}
	}

	// 2. Initialize Service
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelWarn}))
	ctx := context.Background()
	service, err := pathnote.New(ctx, location,
		pathnote.WithLogger(logger),
		pathnote.WithAdapter(*adapter),
		pathnote.WithSecret("bench-secret", "bench-iv"),
		pathnote.WithNamespace("pathnote_bench", fmt.Sprintf("notes_%d", time.Now().UnixNano())),
	)
	if err != nil {
		panic(err)
	}
	defer service.Close()

	content := strings.Repeat("The quick brown fox jumps over the lazy dog. ", 20)
	path := func(i int) string { return fmt.Sprintf("bench/note_%d", i) }

	fmt.Printf("Benchmarking %s with %d notes, %d workers...\n", *adapter, *count, *workers)

	create := run(*count, *workers, func(i int) error {
		_, err := service.Save(ctx, path(i), content)
		return err
	})
	update := run(*count, *workers, func(i int) error {
		_, err := service.Save(ctx, path(i), content+"!")
		return err
	})
	read := run(*count, *workers, func(i int) error {
		_, err := service.Load(ctx, path(i))
		return err
	})
	cleared := run(*count, *workers, func(i int) error {
		_, err := service.Save(ctx, path(i), "")
		return err
	})

	fmt.Printf("--------------------------------------------------\n")
	fmt.Printf("Benchmark Result (%s, %d notes):\n", *adapter, *count)
	report("Create", *count, create)
	report("Update", *count, update)
	report("Load", *count, read)
	report("Clear", *count, cleared)
	fmt.Printf("--------------------------------------------------\n")
}

// run calls op for 0..n-1 across workers and returns the wall time. The first
// error aborts the benchmark.
func run(n, workers int, op func(i int) error) time.Duration {
	if workers < 1 {
		workers = 1
	}
	jobs := make(chan int)
	errs := make(chan error, workers)
	var wg sync.WaitGroup

	start := time.Now()
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			failed := false
			for i := range jobs {
				if failed {
					continue
				}
				if err := op(i); err != nil {
					errs <- err
					failed = true
				}
			}
		}()
	}
	for i := 0; i < n; i++ {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
	elapsed := time.Since(start)

	select {
	case err := <-errs:
		panic(err)
	default:
	}
	return elapsed
}

func report(name string, n int, d time.Duration) {
	perOp := time.Duration(0)
	if n > 0 {
		perOp = d / time.Duration(n)
	}
	fmt.Printf("  %-7s %12v  (%v/op)\n", name+":", d, perOp)
}

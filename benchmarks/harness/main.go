// Copyright 2025 Esteban Alvarez. All Rights Reserved.
//
// Created: October 2025
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Command harness is a standalone microbenchmark for pkg/ccta's three
// mutating operations (ingest, merge, rewrite), run as a plain `go run
// .` rather than `go test -bench`, timing each iteration directly and
// printing a human-readable summary plus a machine-readable one-line
// summary for scripts to scrape.
package main

import (
	"flag"
	"fmt"
	"math/rand/v2"
	"os"
	"runtime"
	"sort"
	"strings"
	"time"

	"ccta/pkg/ccta"
)

type opType string

const (
	opIngest  opType = "ingest"
	opMerge   opType = "merge"
	opRewrite opType = "rewrite"
)

func main() {
	var (
		opStr      = flag.String("op", "ingest", "ingest|merge|rewrite")
		numTests   = flag.Int("num_tests", 500, "distinct test rows to simulate")
		numDays    = flag.Int("num_days", 14, "artifact window width in days")
		iterations = flag.Int("iterations", 1000, "timed iterations")
		batchSize  = flag.Int("batch_size", 50, "runs per ingest session")
		deadFrac   = flag.Float64("dead_frac", 0.25, "fraction of rows aged out of the window, for -op=rewrite")
		seed       = flag.Int64("seed", 1, "PRNG seed")
	)
	flag.Parse()

	op := opType(strings.ToLower(*opStr))
	switch op {
	case opIngest, opMerge, opRewrite:
	default:
		fmt.Println("-op must be one of: ingest|merge|rewrite")
		os.Exit(2)
	}

	rnd := rand.New(rand.NewPCG(uint64(*seed), 1))
	names := make([]string, *numTests)
	for i := range names {
		names[i] = fmt.Sprintf("pkg/mod_%d::TestCase_%d", i/20, i)
	}

	var latencies []time.Duration
	var start time.Time

	switch op {
	case opIngest:
		latencies, start = runIngestBench(rnd, names, *numDays, *iterations, *batchSize)
	case opMerge:
		latencies, start = runMergeBench(rnd, names, *numDays, *iterations)
	case opRewrite:
		latencies, start = runRewriteBench(rnd, names, *numDays, *iterations, *deadFrac)
	}

	runDur := time.Since(start)
	report(string(op), *numTests, *numDays, latencies, runDur)
}

func newBaseWriter(now uint32, names []string, numDays int) *ccta.Writer {
	w := ccta.NewWriter(numDays)
	s, err := w.StartSession(now, nil, "")
	if err != nil {
		panic(err)
	}
	for _, n := range names {
		s.Insert(ccta.TestRun{Testsuite: "suite", Name: n, Outcome: ccta.Pass, Duration: 1.0})
	}
	return w
}

func runIngestBench(rnd *rand.Rand, names []string, numDays, iterations, batchSize int) ([]time.Duration, time.Time) {
	now := uint32(time.Now().Unix())
	w := newBaseWriter(now, names, numDays)

	latencies := make([]time.Duration, 0, iterations)
	start := time.Now()
	for i := 0; i < iterations; i++ {
		t0 := time.Now()
		s, err := w.StartSession(now, nil, "")
		if err != nil {
			panic(err)
		}
		for j := 0; j < batchSize; j++ {
			name := names[rnd.IntN(len(names))]
			s.Insert(ccta.TestRun{Testsuite: "suite", Name: name, Outcome: ccta.Pass, Duration: 1.0})
		}
		latencies = append(latencies, time.Since(t0))
	}
	_ = w.Finish()
	return latencies, start
}

func runMergeBench(rnd *rand.Rand, names []string, numDays, iterations int) ([]time.Duration, time.Time) {
	now := uint32(time.Now().Unix())
	wa := newBaseWriter(now, names, numDays)
	wb := newBaseWriter(now, names, numDays)
	bufA := wa.Finish()
	bufB := wb.Finish()

	va, err := ccta.Parse(bufA, now)
	if err != nil {
		panic(err)
	}
	vb, err := ccta.Parse(bufB, now)
	if err != nil {
		panic(err)
	}

	latencies := make([]time.Duration, 0, iterations)
	start := time.Now()
	for i := 0; i < iterations; i++ {
		t0 := time.Now()
		if _, err := ccta.Merge(va, vb, now); err != nil {
			panic(err)
		}
		latencies = append(latencies, time.Since(t0))
	}
	_ = rnd
	return latencies, start
}

func runRewriteBench(rnd *rand.Rand, names []string, numDays, iterations int, deadFrac float64) ([]time.Duration, time.Time) {
	now := uint32(time.Now().Unix())
	past := now - uint32(numDays+5)*86400

	w := ccta.NewWriter(numDays)
	deadCount := int(float64(len(names)) * deadFrac)
	s1, err := w.StartSession(past, nil, "")
	if err != nil {
		panic(err)
	}
	for i := 0; i < deadCount; i++ {
		s1.Insert(ccta.TestRun{Testsuite: "suite", Name: names[i], Outcome: ccta.Pass, Duration: 1.0})
	}
	s2, err := w.StartSession(now, nil, "")
	if err != nil {
		panic(err)
	}
	for i := deadCount; i < len(names); i++ {
		s2.Insert(ccta.TestRun{Testsuite: "suite", Name: names[i], Outcome: ccta.Pass, Duration: 1.0})
	}
	buf := w.Finish()

	latencies := make([]time.Duration, 0, iterations)
	start := time.Now()
	for i := 0; i < iterations; i++ {
		v, err := ccta.Parse(buf, now)
		if err != nil {
			panic(err)
		}
		t0 := time.Now()
		if _, _, err := ccta.Rewrite(v, now, numDays, -1); err != nil {
			panic(err)
		}
		latencies = append(latencies, time.Since(t0))
	}
	_ = rnd
	return latencies, start
}

func report(op string, numTests, numDays int, latencies []time.Duration, runDur time.Duration) {
	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })
	p50 := percentile(latencies, 50)
	p95 := percentile(latencies, 95)
	p99 := percentile(latencies, 99)

	var ms runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&ms)

	fmt.Printf("Op: %s  Iterations: %d  NumTests: %d  NumDays: %d\n", op, len(latencies), numTests, numDays)
	fmt.Printf("Duration: %s  Ops/sec: %s\n", runDur.Round(time.Millisecond), humanRate(float64(len(latencies))/runDur.Seconds()))
	fmt.Printf("Latency p50: %sµs  p95: %sµs  p99: %sµs\n", formatMicros(p50), formatMicros(p95), formatMicros(p99))
	fmt.Printf("Memory: Alloc=%s  TotalAlloc=%s  Sys=%s  NumGC=%d\n",
		humanBytes(ms.Alloc), humanBytes(ms.TotalAlloc), humanBytes(ms.Sys), ms.NumGC)
	fmt.Printf("Summary: op=%s num_tests=%d num_days=%d iterations=%d duration_ns=%d p50_ns=%d p95_ns=%d p99_ns=%d\n",
		op, numTests, numDays, len(latencies), runDur.Nanoseconds(), int64(p50), int64(p95), int64(p99))
}

func percentile(durations []time.Duration, p int) time.Duration {
	if len(durations) == 0 {
		return 0
	}
	idx := (len(durations) - 1) * p / 100
	return durations[idx]
}

func formatMicros(d time.Duration) string {
	us := float64(d) / 1e3
	if us < 1 {
		return fmt.Sprintf("%.3f", us)
	}
	if us < 100 {
		return fmt.Sprintf("%.1f", us)
	}
	return fmt.Sprintf("%.0f", us)
}

func humanRate(x float64) string {
	if x >= 1_000_000 {
		return fmt.Sprintf("%.1fM", x/1_000_000)
	}
	if x >= 1_000 {
		return fmt.Sprintf("%.1fk", x/1_000)
	}
	return fmt.Sprintf("%.0f", x)
}

func humanBytes(b uint64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	d := float64(b)
	units := []string{"KiB", "MiB", "GiB", "TiB"}
	i := 0
	for d >= unit && i < len(units)-1 {
		d /= unit
		i++
	}
	return fmt.Sprintf("%.1f %s", d, units[i])
}

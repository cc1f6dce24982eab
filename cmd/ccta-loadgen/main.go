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

// ccta-loadgen is a tiny, dependency-free synthetic CI-upload traffic
// generator for cmd/ccta-server. It reuses HTTP connections
// (keep-alive) and posts upload batches from a configurable number of
// concurrent workers, as fast as the server answers, so a server can be
// load-tested without a real CI pipeline.
//
// Usage example:
//
//	ccta-loadgen -base=http://127.0.0.1:8080 -repo=my-org-my-repo -branch=main -batches=2000 -c=16
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"os"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

type uploadRun struct {
	Testsuite string  `json:"testsuite"`
	Name      string  `json:"name"`
	Outcome   string  `json:"outcome"`
	Duration  float32 `json:"duration"`
	Flaky     bool    `json:"flaky"`
}

type uploadBatch struct {
	Flags      []string    `json:"flags,omitempty"`
	CommitHash string      `json:"commit_hash,omitempty"`
	Runs       []uploadRun `json:"runs"`
}

var outcomes = []string{"pass", "pass", "pass", "pass", "failure", "skip", "error"}

func synthesizeBatch(rnd *rand.Rand, numSuites, testsPerSuite, runsPerBatch int, flags []string) uploadBatch {
	runs := make([]uploadRun, runsPerBatch)
	for i := range runs {
		suite := rnd.IntN(numSuites)
		test := rnd.IntN(testsPerSuite)
		outcome := outcomes[rnd.IntN(len(outcomes))]
		runs[i] = uploadRun{
			Testsuite: fmt.Sprintf("pkg/mod_%d", suite),
			Name:      fmt.Sprintf("TestCase_%d", test),
			Outcome:   outcome,
			Duration:  float32(rnd.IntN(500)) / 100,
			Flaky:     outcome == "failure" && rnd.IntN(5) == 0,
		}
	}
	return uploadBatch{Flags: flags, Runs: runs}
}

func main() {
	var (
		base          = flag.String("base", "http://127.0.0.1:8080", "Base URL of a running ccta-server")
		repo          = flag.String("repo", "demo-org-demo-repo", "Repository identifier path segment")
		branch        = flag.String("branch", "main", "Branch identifier path segment")
		batches       = flag.Int("batches", 2000, "Total upload batches to send")
		conc          = flag.Int("c", 8, "Number of concurrent workers")
		runsPerBatch  = flag.Int("runs_per_batch", 50, "Test runs per uploaded batch")
		numSuites     = flag.Int("num_suites", 10, "Distinct synthetic test suites")
		testsPerSuite = flag.Int("tests_per_suite", 50, "Distinct synthetic tests per suite")
		flagsCSV      = flag.String("flags", "", "Comma-separated flag set every batch is tagged with")
		seed          = flag.Int64("seed", 1, "PRNG seed")
		timeout       = flag.Duration("timeout", 60*time.Second, "Overall timeout for the loadgen run")
	)
	flag.Parse()

	if *batches <= 0 || *conc <= 0 {
		fmt.Fprintln(os.Stderr, "-batches and -c must be > 0")
		os.Exit(2)
	}

	var flags []string
	if *flagsCSV != "" {
		flags = strings.Split(*flagsCSV, ",")
	}

	url := strings.TrimRight(*base, "/") + fmt.Sprintf("/ingest/%s/%s", *repo, *branch)

	tr := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        *conc * 2,
		MaxIdleConnsPerHost: *conc * 2,
		IdleConnTimeout:     30 * time.Second,
	}
	client := &http.Client{Transport: tr, Timeout: 5 * time.Second}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	var sent, failed int64
	start := time.Now()

	worker := func(id, count int) {
		rnd := rand.New(rand.NewPCG(uint64(*seed), uint64(id)+1))
		for i := 0; i < count; i++ {
			select {
			case <-ctx.Done():
				return
			default:
			}
			batch := synthesizeBatch(rnd, *numSuites, *testsPerSuite, *runsPerBatch, flags)
			body, err := json.Marshal(batch)
			if err != nil {
				atomic.AddInt64(&failed, 1)
				continue
			}
			req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
			if err != nil {
				atomic.AddInt64(&failed, 1)
				continue
			}
			req.Header.Set("Content-Type", "application/json")
			resp, err := client.Do(req)
			if err != nil {
				atomic.AddInt64(&failed, 1)
				time.Sleep(5 * time.Millisecond)
				continue
			}
			_, _ = io.Copy(io.Discard, resp.Body)
			_ = resp.Body.Close()
			if resp.StatusCode != http.StatusAccepted {
				atomic.AddInt64(&failed, 1)
			} else {
				atomic.AddInt64(&sent, 1)
			}
		}
	}

	per := *batches / *conc
	rem := *batches - per**conc
	var wg sync.WaitGroup
	wg.Add(*conc)
	for w := 0; w < *conc; w++ {
		count := per
		if w == *conc-1 {
			count += rem
		}
		go func(id, n int) {
			defer wg.Done()
			worker(id, n)
		}(w, count)
	}
	wg.Wait()

	elapsed := time.Since(start)
	if elapsed <= 0 {
		elapsed = time.Millisecond
	}
	rate := float64(sent) / elapsed.Seconds()
	fmt.Printf("LoadGen: repo=%s branch=%s batches=%d c=%d go=%d Duration=%s Sent=%d Failed=%d Throughput=%.0f batches/s\n",
		*repo, *branch, *batches, *conc, runtime.GOMAXPROCS(0), elapsed.Truncate(time.Millisecond), sent, failed, rate)
}

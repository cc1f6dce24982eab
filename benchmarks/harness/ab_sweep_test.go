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

package main

import (
	"bufio"
	"bytes"
	"context"
	"os"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"testing"
	"time"
)

// harnessResult holds parsed metrics from one harness run's summary line.
type harnessResult struct {
	Op         string
	Iterations int64
	DurationNS int64
	P50NS      int64
	P95NS      int64
	P99NS      int64
}

var reSummary = regexp.MustCompile(`^Summary: op=(\w+) num_tests=\d+ num_days=\d+ iterations=(\d+) duration_ns=(\d+) p50_ns=(\d+) p95_ns=(\d+) p99_ns=(\d+)`)

func parseHarnessOutput(out string) (h harnessResult, ok bool) {
	scanner := bufio.NewScanner(strings.NewReader(out))
	for scanner.Scan() {
		m := reSummary.FindStringSubmatch(scanner.Text())
		if m == nil {
			continue
		}
		h.Op = m[1]
		h.Iterations, _ = strconv.ParseInt(m[2], 10, 64)
		h.DurationNS, _ = strconv.ParseInt(m[3], 10, 64)
		h.P50NS, _ = strconv.ParseInt(m[4], 10, 64)
		h.P95NS, _ = strconv.ParseInt(m[5], 10, 64)
		h.P99NS, _ = strconv.ParseInt(m[6], 10, 64)
		return h, true
	}
	return h, false
}

// runHarness runs `go run .` inside this package with the provided
// args and returns the parsed summary line plus raw output.
func runHarness(t *testing.T, args ...string) (harnessResult, string) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, "go", append([]string{"run", "."}, args...)...)
	cmd.Env = os.Environ()
	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf
	if err := cmd.Run(); err != nil {
		t.Fatalf("harness failed: %v\nOutput:\n%s", err, buf.String())
	}
	res, ok := parseHarnessOutput(buf.String())
	if !ok {
		t.Fatalf("could not parse summary line\nOutput:\n%s", buf.String())
	}
	return res, buf.String()
}

// TestHarnessSweepAcrossOpsAndSizes runs the harness for each of
// ingest/merge/rewrite across a small matrix of num_tests/num_days and
// confirms it reports a non-zero throughput, the way the teacher's A/B
// sweep validated its own variants ran to completion and produced
// sane numbers. Skipped by default since it shells out to `go run`.
func TestHarnessSweepAcrossOpsAndSizes(t *testing.T) {
	if testing.Short() || os.Getenv("HARNESS_SWEEP") == "" {
		t.Skip("skipping harness sweep (set HARNESS_SWEEP=1 to run)")
	}

	sizes := []struct{ tests, days int }{
		{100, 7},
		{1000, 30},
	}
	ops := []string{"ingest", "merge", "rewrite"}

	for _, op := range ops {
		for _, sz := range sizes {
			args := []string{
				"-op=" + op,
				"-num_tests=" + strconv.Itoa(sz.tests),
				"-num_days=" + strconv.Itoa(sz.days),
				"-iterations=50",
			}
			res, out := runHarness(t, args...)
			if res.Iterations == 0 {
				t.Fatalf("op=%s size=%+v: zero iterations reported\n%s", op, sz, out)
			}
			if res.DurationNS == 0 {
				t.Fatalf("op=%s size=%+v: zero duration parsed", op, sz)
			}
			t.Logf("op=%s tests=%d days=%d: p50=%dns p95=%dns p99=%dns", op, sz.tests, sz.days, res.P50NS, res.P95NS, res.P99NS)
		}
	}
}

// TestHarnessRewriteAcrossDeadFractions sanity-checks that the rewrite
// benchmark accepts the -dead_frac knob and completes across a small
// matrix of values.
func TestHarnessRewriteAcrossDeadFractions(t *testing.T) {
	if testing.Short() || os.Getenv("HARNESS_TUNE") == "" {
		t.Skip("skipping tuning sweep (set HARNESS_TUNE=1 to run)")
	}
	fracs := []string{"0.1", "0.5", "0.9"}
	for _, f := range fracs {
		args := []string{
			"-op=rewrite",
			"-num_tests=500",
			"-num_days=14",
			"-iterations=20",
			"-dead_frac=" + f,
		}
		res, out := runHarness(t, args...)
		if res.Iterations == 0 {
			t.Fatalf("dead_frac=%s: no iterations\n%s", f, out)
		}
		t.Logf("dead_frac=%s: p99=%dns", f, res.P99NS)
	}
}

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

package ccta

import "fmt"

// Outcome is the result of a single test execution. Error and Failure
// are reported distinctly by upstream tooling (a test that errored
// before running its assertions vs. one that ran and failed them) but
// both bump a row's total_fail_count identically.
type Outcome int

const (
	Pass Outcome = iota
	Failure
	Error
	Skip
)

func (o Outcome) String() string {
	switch o {
	case Pass:
		return "pass"
	case Failure:
		return "failure"
	case Error:
		return "error"
	case Skip:
		return "skip"
	default:
		return "unknown"
	}
}

// ParseOutcome is the inverse of Outcome.String, used when decoding
// outcomes reported over the wire by ingest clients.
func ParseOutcome(s string) (Outcome, error) {
	switch s {
	case "pass":
		return Pass, nil
	case "failure":
		return Failure, nil
	case "error":
		return Error, nil
	case "skip":
		return Skip, nil
	default:
		return 0, fmt.Errorf("ccta: unknown outcome %q", s)
	}
}

// TestRun is one reported execution of a test, as presented to a
// Session. Testsuite defaults to "" when unset. Flags and the ingest
// timestamp are not part of TestRun: they're fixed for every run in a
// session by StartSession.
type TestRun struct {
	Testsuite string
	Name      string
	Outcome   Outcome
	Duration  float32
	// Flaky marks a Failure whose upstream pipeline also saw the same
	// test pass on retry within the same run; ccta only records the
	// flag, it never decides flakiness itself.
	Flaky bool
}

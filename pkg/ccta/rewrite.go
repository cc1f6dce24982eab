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

// isLive reports whether a row's most recent activity is still within
// numDays of clock — the predicate Rewrite uses to decide what to keep.
func isLive(lastTimestamp, clock uint32, numDays int) bool {
	return daysSince(lastTimestamp, clock) < int64(numDays)
}

// Rewrite compacts v as of clock: rows whose most recent activity has
// aged out of newNumDays are dropped, string/flag-set offsets are
// translated into fresh, smaller tables, and every surviving row's
// buckets are resized to newNumDays (copying min(oldNumDays,
// newNumDays) columns from column 0, zero-filling the rest).
//
// If newNumDays equals v's current width and no more than threshold
// rows would be dropped, Rewrite reports changed=false and returns a
// writer equivalent to WriterFromView — not worth the copy. threshold
// < 0 selects the default of floor(numTests / 4); pass 0 explicitly to
// rewrite on any dead row at all.
func Rewrite(v *View, clock uint32, newNumDays, threshold int) (w *Writer, changed bool, err error) {
	if threshold < 0 {
		threshold = v.NumTests() / 4
	}

	dead := 0
	keep := make([]bool, v.NumTests())
	for i := 0; i < v.NumTests(); i++ {
		lastTimestamp := v.rawTestData(i, 0).lastTimestamp
		if isLive(lastTimestamp, clock, newNumDays) {
			keep[i] = true
		} else {
			dead++
		}
	}

	if newNumDays == v.NumDays() && dead <= threshold {
		w, err = WriterFromView(v, clock)
		return w, false, err
	}

	out := newWriterAt(newNumDays, clock)
	copyWidth := min(v.NumDays(), newNumDays)

	for i := 0; i < v.NumTests(); i++ {
		if !keep[i] {
			continue
		}
		raw := v.rawTest(i)
		testsuite, _ := v.stringAt(raw.testsuiteOffset)
		name, _ := v.stringAt(raw.nameOffset)
		flags, _ := v.flagsAt(raw.flagSetOffset)

		testsuiteOffset := out.strings.insert(testsuite)
		nameOffset := out.strings.insert(name)
		flagOffsets := make([]uint32, len(flags))
		for j, f := range flags {
			flagOffsets[j] = out.strings.insert(f)
		}
		flagSetOffset := out.flagSets.insert(flagOffsets)

		row, _ := out.rowForKey(rowKey{testsuiteOffset, nameOffset, flagSetOffset})
		for d := 0; d < copyWidth; d++ {
			row.buckets[d] = v.rawTestData(i, d)
		}
	}

	// The commit-hash table is file-level provenance, not per-row, so
	// row GC never prunes it.
	for i := 0; i+commitHashSize <= len(v.commits); i += commitHashSize {
		var h [commitHashSize]byte
		copy(h[:], v.commits[i:i+commitHashSize])
		out.commits.insert(h)
	}

	return out, true, nil
}

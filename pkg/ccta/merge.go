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

import "bytes"

// Merge combines a and b into a single writer clocked at timestamp.
// The larger input (by num_days, then num_tests) becomes the base that
// the other is folded into — purely a performance hint, since rows
// unique to either side are copied as-is and rows present in both are
// aligned by their own last-seen days, not by which side was picked as
// base. That alignment is what makes Merge commutative: bytes(merge(a,
// b, t)) == bytes(merge(b, a, t)) for any a, b, t.
func Merge(a, b *View, timestamp uint32) (*Writer, error) {
	base, overlay := a, b
	if largerThan(b, a) {
		base, overlay = b, a
	}

	w, err := WriterFromView(base, timestamp)
	if err != nil {
		return nil, err
	}

	for i := 0; i < overlay.NumTests(); i++ {
		raw := overlay.rawTest(i)
		testsuite, _ := overlay.stringAt(raw.testsuiteOffset)
		name, _ := overlay.stringAt(raw.nameOffset)
		flags, _ := overlay.flagsAt(raw.flagSetOffset)

		testsuiteOffset := w.strings.insert(testsuite)
		nameOffset := w.strings.insert(name)
		flagOffsets := make([]uint32, len(flags))
		for j, f := range flags {
			flagOffsets[j] = w.strings.insert(f)
		}
		flagSetOffset := w.flagSets.insert(flagOffsets)

		overlayBuckets := make([]testData, overlay.NumDays())
		for d := range overlayBuckets {
			overlayBuckets[d] = overlay.rawTestData(i, d)
		}

		key := rowKey{testsuiteOffset, nameOffset, flagSetOffset}
		row, wasNew := w.rowForKey(key)
		if wasNew {
			copy(row.buckets, overlayBuckets)
			continue
		}
		row.buckets = mergeRows(row.buckets, overlayBuckets)
	}

	for i := 0; i+commitHashSize <= len(overlay.commits); i += commitHashSize {
		var h [commitHashSize]byte
		copy(h[:], overlay.commits[i:i+commitHashSize])
		w.commits.insert(h)
	}

	return w, nil
}

// largerThan reports whether x should be preferred over y as the merge
// base, comparing (num_days, num_tests) lexicographically. A tie on
// both falls back to comparing the two views' own bytes, so the choice
// of base never depends on which side happened to be passed as
// Merge's first argument — only on the content of a and b themselves,
// which is what Merge's commutativity guarantee requires.
func largerThan(x, y *View) bool {
	if x.NumDays() != y.NumDays() {
		return x.NumDays() > y.NumDays()
	}
	if x.NumTests() != y.NumTests() {
		return x.NumTests() > y.NumTests()
	}
	return bytes.Compare(x.buf, y.buf) > 0
}

// mergeRows aligns two rows that represent the same test and sums
// them bucket by bucket. larger is already the base's row, in place;
// smaller is the incoming row being folded in. Their time origins are
// aligned by the actual last-seen day of each, not by any shared
// writer clock, which is what makes the result independent of which
// side happened to be picked as base.
func mergeRows(larger, smaller []testData) []testData {
	largerLast := larger[0].lastTimestamp
	smallerLast := smaller[0].lastTimestamp
	delta := int64(day(smallerLast)/secondsPerDay) - int64(day(largerLast)/secondsPerDay)

	out := make([]testData, len(larger))
	copy(out, larger)

	if delta > 0 {
		// smaller is newer: the base's existing data slides back by
		// delta days before the smaller's columns are added in at 0.
		shiftRowInPlace(out, int(delta))
		overlap := min(len(out), len(smaller))
		for i := 0; i < overlap; i++ {
			out[i] = addBuckets(out[i], smaller[i])
		}
		return out
	}

	// larger is newer (or tied): no shift, smaller's columns land
	// starting at |delta|.
	start := int(-delta)
	overlap := min(len(out)-start, len(smaller))
	for i := 0; i < overlap; i++ {
		out[start+i] = addBuckets(out[start+i], smaller[i])
	}
	return out
}

// addBuckets sums one day's counters from both sides of a merge. A
// bucket that was never written (isZero) contributes nothing and
// never wins the last-seen comparison — only a genuine tie between two
// real buckets falls back to "the base wins", per the documented merge
// tie-break.
func addBuckets(base, incoming testData) testData {
	out := testData{
		totalPassCount:      addSaturating(base.totalPassCount, incoming.totalPassCount),
		totalFailCount:      addSaturating(base.totalFailCount, incoming.totalFailCount),
		totalSkipCount:      addSaturating(base.totalSkipCount, incoming.totalSkipCount),
		totalFlakyFailCount: addSaturating(base.totalFlakyFailCount, incoming.totalFlakyFailCount),
		totalDuration:       base.totalDuration + incoming.totalDuration,
	}
	switch {
	case incoming.isZero():
		out.lastTimestamp, out.lastDuration = base.lastTimestamp, base.lastDuration
	case base.isZero():
		out.lastTimestamp, out.lastDuration = incoming.lastTimestamp, incoming.lastDuration
	case incoming.lastTimestamp > base.lastTimestamp:
		out.lastTimestamp, out.lastDuration = incoming.lastTimestamp, incoming.lastDuration
	default:
		out.lastTimestamp, out.lastDuration = base.lastTimestamp, base.lastDuration
	}
	return out
}

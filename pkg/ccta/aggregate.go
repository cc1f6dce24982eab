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

// Aggregates is the sum of a row's buckets over a day range, plus
// derived rates. Counters widen to uint64 here: the on-disk per-bucket
// counters saturate at uint16, but a multi-day sum must not.
type Aggregates struct {
	TotalPass      uint64
	TotalFail      uint64
	TotalSkip      uint64
	TotalFlakyFail uint64
	TotalDuration  float64
	FailureRate    float64
	FlakeRate      float64
	AvgDuration    float64
}

func (a *Aggregates) add(d testData) {
	a.TotalPass += uint64(d.totalPassCount)
	a.TotalFail += uint64(d.totalFailCount)
	a.TotalSkip += uint64(d.totalSkipCount)
	a.TotalFlakyFail += uint64(d.totalFlakyFailCount)
	a.TotalDuration += float64(d.totalDuration)
}

func (a *Aggregates) finish() {
	denom := float64(a.TotalPass + a.TotalFail)
	if denom == 0 {
		return
	}
	a.FailureRate = float64(a.TotalFail) / denom
	a.FlakeRate = float64(a.TotalFlakyFail) / denom
	a.AvgDuration = a.TotalDuration / denom
}

// Aggregate sums h's buckets over the half-open day range [startDay,
// endDay), both expressed as offsets from today (0 is today, larger is
// further in the past), as observed by the view h belongs to.
//
// The row's own bucket 0 may not actually line up with the view's
// "today": a row's data is only physically re-aligned when a writer
// touches it, so a row nobody has ingested into recently can lag
// behind the view's clock. today_offset corrects for that drift before
// the window is clamped to the columns the row physically has.
func (h TestHandle) Aggregate(startDay, endDay int64) Aggregates {
	rowLast := h.Bucket(0).lastTimestamp
	todayOffset := offsetFromToday(rowLast, h.v.timestamp)
	start, end := adjustSelectionRange(uint32(h.v.NumDays()), startDay, endDay, todayOffset)
	var out Aggregates
	for d := start; d < end; d++ {
		out.add(h.Bucket(int(d)))
	}
	out.finish()
	return out
}

// adjustedRangeEmpty reports whether h's window [startDay, endDay)
// selects no physical columns at all, i.e. the row has fully expired
// relative to the requested window.
func (h TestHandle) adjustedRangeEmpty(startDay, endDay int64) bool {
	rowLast := h.Bucket(0).lastTimestamp
	todayOffset := offsetFromToday(rowLast, h.v.timestamp)
	start, end := adjustSelectionRange(uint32(h.v.NumDays()), startDay, endDay, todayOffset)
	return start >= end
}

// Tests iterates every row whose flag set contains flag, or every row
// if flag is empty, calling fn with the row's aggregate over
// [startDay, endDay). Rows whose adjusted range is empty — fully
// expired relative to the window — are skipped entirely, matching the
// read contract that a test with no data in the window isn't iterated.
// Iteration stops early if fn returns false.
func (v *View) Tests(flag string, startDay, endDay int64, fn func(TestHandle, Aggregates) bool) {
	for i := 0; i < v.NumTests(); i++ {
		h := v.Test(i)
		if flag != "" && !h.HasFlag(flag) {
			continue
		}
		if h.adjustedRangeEmpty(startDay, endDay) {
			continue
		}
		if !fn(h, h.Aggregate(startDay, endDay)) {
			break
		}
	}
}

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

// shiftRow re-aligns column 0 of row with a "today" that has advanced
// by shiftBy days. Column 0 is always today, so shifting forward in
// time moves every existing bucket toward the tail and opens up fresh
// zero buckets at the front.
//
// shiftBy <= 0 is a no-op copy: the writer's clock never needs to move
// backward, and ingest at an unchanged "today" just touches column 0 in
// place. shiftBy >= len(row) discards every existing bucket, since none
// of them fall within the window anymore.
func shiftRow(row []testData, shiftBy int) []testData {
	out := make([]testData, len(row))
	if shiftBy <= 0 {
		copy(out, row)
		return out
	}
	if shiftBy >= len(row) {
		return out
	}
	copy(out[shiftBy:], row[:len(row)-shiftBy])
	return out
}

// shiftRowInPlace is the mutating counterpart of shiftRow, used by the
// writer so a touch that crosses a day boundary doesn't need to
// reallocate the row it's about to write into.
func shiftRowInPlace(row []testData, shiftBy int) {
	if shiftBy <= 0 {
		return
	}
	if shiftBy >= len(row) {
		for i := range row {
			row[i] = testData{}
		}
		return
	}
	copy(row[shiftBy:], row[:len(row)-shiftBy])
	for i := 0; i < shiftBy; i++ {
		row[i] = testData{}
	}
}

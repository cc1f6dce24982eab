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

// secondsPerDay is the fixed bucket width. Day boundaries are UTC
// midnight-aligned unix time, not calendar days in any local timezone.
const secondsPerDay = 24 * 60 * 60

// day truncates a unix timestamp down to the start of its UTC day.
func day(unixSeconds uint32) uint32 {
	return (unixSeconds / secondsPerDay) * secondsPerDay
}

// offsetFromToday is the signed day distance between a stored
// timestamp and a reference clock: negative when saved is in the
// past relative to now, zero when they fall on the same day, positive
// when saved is somehow ahead of now.
func offsetFromToday(saved, now uint32) int64 {
	return int64(day(saved)/secondsPerDay) - int64(day(now)/secondsPerDay)
}

// daysSince is the number of days a clock has advanced past a stored
// timestamp: -offsetFromToday(saved, now), so it is negative when saved
// is ahead of now. It is the amount callers shift a row by; shifting
// only ever moves buckets toward the past, so the writer shifts only
// when it is positive.
func daysSince(saved, now uint32) int64 {
	return -offsetFromToday(saved, now)
}

// adjustSelectionRange maps a caller-facing "days ago" window
// [desiredStart, desiredEnd) onto the physical columns of a row whose
// storage spans [0, numDays). todayOffset is the drift between what a
// row's column 0 actually represents and the caller's current "today"
// (offsetFromToday(row's last_timestamp, view's clock)): it slides the
// desired window to compensate for that drift before clamping to the
// columns that actually exist. A window landing entirely outside
// [0, numDays) collapses to an empty range at the nearer boundary.
func adjustSelectionRange(numDays uint32, desiredStart, desiredEnd, todayOffset int64) (uint32, uint32) {
	lo := desiredStart + todayOffset
	hi := desiredEnd + todayOffset
	if hi < lo {
		hi = lo
	}
	if lo < 0 {
		lo = 0
	}
	if hi < 0 {
		hi = 0
	}
	width := int64(numDays)
	if lo > width {
		lo = width
	}
	if hi > width {
		hi = width
	}
	return uint32(lo), uint32(hi)
}

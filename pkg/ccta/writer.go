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

// writerRow is one test's identity plus its live bucket row.
type writerRow struct {
	testsuiteOffset uint32
	nameOffset      uint32
	flagSetOffset   uint32
	buckets         []testData
}

// rowKey is a row's full identity: two tests differing only in flags
// are distinct rows.
type rowKey struct {
	testsuite uint32
	name      uint32
	flagSet   uint32
}

// Writer accumulates test runs into an in-memory artifact. Rows are
// independent: each one's buckets are only re-aligned ("shifted") the
// moment a session touches it, not whenever the writer's clock moves.
// A row nobody has ingested into recently can fall behind the writer's
// nominal clock; the aggregator corrects for that drift at read time.
type Writer struct {
	numDays   int
	timestamp uint32
	strings   *stringTable
	flagSets  *flagSetTable
	commits   *commitHashTable
	rows      []*writerRow
	index     map[rowKey]int
}

// NewWriter creates an empty writer with a sliding window numDays wide.
func NewWriter(numDays int) *Writer {
	return &Writer{
		numDays:  numDays,
		strings:  newStringTable(),
		flagSets: newFlagSetTable(),
		commits:  newCommitHashTable(),
		index:    make(map[rowKey]int),
	}
}

func newWriterAt(numDays int, timestamp uint32) *Writer {
	w := NewWriter(numDays)
	w.timestamp = timestamp
	return w
}

// WriterFromView seeds a new writer with an existing artifact's rows,
// exactly as stored — no row is shifted just because timestamp is
// later than the view's own clock; that realignment only happens when
// a session subsequently touches a row. Strings, flag sets, and commit
// hashes are reused rather than re-inserted, so later inserts dedupe
// against what's already there.
func WriterFromView(v *View, timestamp uint32) (*Writer, error) {
	strings, err := stringTableFromBytes(v.strings)
	if err != nil {
		return nil, err
	}
	flagSets, err := flagSetTableFromBytes(v.flagSets)
	if err != nil {
		return nil, err
	}
	commits, err := commitHashTableFromBytes(v.commits)
	if err != nil {
		return nil, err
	}

	w := &Writer{
		numDays:   v.NumDays(),
		timestamp: timestamp,
		strings:   strings,
		flagSets:  flagSets,
		commits:   commits,
		index:     make(map[rowKey]int),
	}

	for i := 0; i < v.NumTests(); i++ {
		raw := v.rawTest(i)
		buckets := make([]testData, w.numDays)
		for d := 0; d < w.numDays; d++ {
			buckets[d] = v.rawTestData(i, d)
		}
		row := &writerRow{
			testsuiteOffset: raw.testsuiteOffset,
			nameOffset:      raw.nameOffset,
			flagSetOffset:   raw.flagSetOffset,
			buckets:         buckets,
		}
		key := rowKey{raw.testsuiteOffset, raw.nameOffset, raw.flagSetOffset}
		w.index[key] = len(w.rows)
		w.rows = append(w.rows, row)
	}

	return w, nil
}

func (w *Writer) rowForKey(key rowKey) (row *writerRow, wasNew bool) {
	if idx, ok := w.index[key]; ok {
		return w.rows[idx], false
	}
	row = &writerRow{
		testsuiteOffset: key.testsuite,
		nameOffset:      key.name,
		flagSetOffset:   key.flagSet,
		buckets:         make([]testData, w.numDays),
	}
	w.index[key] = len(w.rows)
	w.rows = append(w.rows, row)
	return row, true
}

// Session groups ingests that share one timestamp and one flag set, so
// a batch of test runs from a single CI job don't repeat either.
type Session struct {
	w             *Writer
	timestamp     uint32
	flagSetOffset uint32
}

// StartSession opens a batch of inserts sharing timestamp and flags.
// commitHash, if non-empty, is recorded once in the artifact's
// commit-hash provenance table (hex-encoded git SHA).
func (w *Writer) StartSession(timestamp uint32, flags []string, commitHash string) (*Session, error) {
	offsets := make([]uint32, len(flags))
	for i, f := range flags {
		offsets[i] = w.strings.insert(f)
	}
	flagSetOffset := w.flagSets.insert(offsets)

	if commitHash != "" {
		hash, err := ParseCommitHash(commitHash)
		if err != nil {
			return nil, err
		}
		w.commits.insert(hash)
	}

	if timestamp > w.timestamp {
		w.timestamp = timestamp
	}
	return &Session{w: w, timestamp: timestamp, flagSetOffset: flagSetOffset}, nil
}

// Insert folds one test run into the writer: resolve-or-create its
// row, shift the row if it was last touched on an earlier day than
// this session, then update column 0. Ingest never fails — overflow
// saturates and an unresolvable flag set is simply created.
func (s *Session) Insert(run TestRun) {
	key := rowKey{
		testsuite: s.w.strings.insert(run.Testsuite),
		name:      s.w.strings.insert(run.Name),
		flagSet:   s.flagSetOffset,
	}
	row, wasNew := s.w.rowForKey(key)
	if !wasNew {
		shiftBy := daysSince(row.buckets[0].lastTimestamp, s.timestamp)
		if shiftBy > 0 {
			shiftRowInPlace(row.buckets, int(shiftBy))
		}
	}

	bucket := &row.buckets[0]
	switch run.Outcome {
	case Pass:
		bucket.totalPassCount = addSaturating(bucket.totalPassCount, 1)
	case Failure, Error:
		bucket.totalFailCount = addSaturating(bucket.totalFailCount, 1)
		if run.Flaky {
			bucket.totalFlakyFailCount = addSaturating(bucket.totalFlakyFailCount, 1)
		}
	case Skip:
		bucket.totalSkipCount = addSaturating(bucket.totalSkipCount, 1)
	}
	bucket.totalDuration += run.Duration
	if s.timestamp >= bucket.lastTimestamp {
		bucket.lastTimestamp = s.timestamp
		bucket.lastDuration = run.Duration
	}
}

// addSaturating adds n to a, clamping at the uint16 maximum instead of
// wrapping. Counters are not expected to reach 65535 runs of the same
// test in a single day, but wrapping silently back to a small number
// would be a far worse failure mode than freezing.
func addSaturating(a, n uint16) uint16 {
	if uint32(a)+uint32(n) > 0xFFFF {
		return 0xFFFF
	}
	return a + n
}

// Finish serializes the writer's current state into an artifact.
func (w *Writer) Finish() []byte {
	h := header{
		magic:           magic,
		version:         version,
		timestamp:       w.timestamp,
		numTests:        uint32(len(w.rows)),
		numDays:         uint32(w.numDays),
		flagsSetLen:     uint32(len(w.flagSets.blob)),
		stringBytes:     uint32(len(w.strings.blob)),
		commitHashesLen: uint32(len(w.commits.blob)),
	}

	testsLen := len(w.rows) * testSize
	dataLen := len(w.rows) * w.numDays * testDataSize

	size := headerSize
	size = alignTo8(size) + testsLen
	size = alignTo8(size) + dataLen
	size = alignTo8(size) + len(w.flagSets.blob)
	size = alignTo8(size) + len(w.strings.blob)
	size = alignTo8(size) + len(w.commits.blob)

	buf := make([]byte, size)
	h.encode(buf[:headerSize])

	offset := headerSize
	offset = alignTo8(offset)
	for i, row := range w.rows {
		t := test{testsuiteOffset: row.testsuiteOffset, nameOffset: row.nameOffset, flagSetOffset: row.flagSetOffset}
		t.encode(buf[offset+i*testSize : offset+(i+1)*testSize])
	}
	offset += testsLen

	offset = alignTo8(offset)
	for i, row := range w.rows {
		for d, bucket := range row.buckets {
			n := i*w.numDays + d
			bucket.encode(buf[offset+n*testDataSize : offset+(n+1)*testDataSize])
		}
	}
	offset += dataLen

	offset = alignTo8(offset)
	copy(buf[offset:offset+len(w.flagSets.blob)], w.flagSets.blob)
	offset += len(w.flagSets.blob)

	offset = alignTo8(offset)
	copy(buf[offset:offset+len(w.strings.blob)], w.strings.blob)
	offset += len(w.strings.blob)

	offset = alignTo8(offset)
	copy(buf[offset:offset+len(w.commits.blob)], w.commits.blob)

	return buf
}

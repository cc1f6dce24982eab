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

// View is a read-only, borrowed view over an artifact's bytes. Parse
// never copies the input buffer; every table is decoded lazily from
// slices of it, so a View is only valid as long as the buffer it was
// parsed from is not mutated.
type View struct {
	buf  []byte
	hdr  header
	// timestamp is the effective "now" this view was parsed at:
	// max(header.timestamp, now). It is the clock the aggregator
	// measures every row's drift against.
	timestamp uint32
	tests     []byte // numTests * testSize
	data      []byte // numTests * numDays * testDataSize
	flagSets  []byte
	strings   []byte
	commits   []byte
}

// sections, in on-disk order. Each is padded up to an 8-byte boundary
// before the next one begins.
func sectionLayout(h header) (testsLen, dataLen int) {
	testsLen = int(h.numTests) * testSize
	dataLen = int(h.numTests) * int(h.numDays) * testDataSize
	return
}

// Parse validates and borrows buf as a View, observed at now (unix
// seconds). It never duplicates the input; the View's tables remain
// valid only as long as buf is not modified (strings it returns are
// copies). The view's effective clock is max(header.timestamp, now):
// a caller's clock never regresses a row into the future.
func Parse(buf []byte, now uint32) (*View, error) {
	if len(buf) < headerSize {
		return nil, newError(InvalidHeader, len(buf))
	}
	h := decodeHeader(buf[:headerSize])
	if h.magic != magic {
		return nil, newError(InvalidMagic, h.magic)
	}
	if h.version != version {
		return nil, newError(WrongVersion, h.version)
	}

	testsLen, dataLen := sectionLayout(h)
	offset := headerSize

	tests, offset, err := takeSection(buf, offset, testsLen)
	if err != nil {
		return nil, err
	}
	data, offset, err := takeSection(buf, offset, dataLen)
	if err != nil {
		return nil, err
	}
	flagSets, offset, err := takeSection(buf, offset, int(h.flagsSetLen))
	if err != nil {
		return nil, err
	}
	strings, offset, err := takeSection(buf, offset, int(h.stringBytes))
	if err != nil {
		return nil, err
	}
	if err := validateStringBytes(strings); err != nil {
		return nil, err
	}
	commits, _, err := takeSection(buf, offset, int(h.commitHashesLen))
	if err != nil {
		return nil, err
	}

	timestamp := h.timestamp
	if now > timestamp {
		timestamp = now
	}

	return &View{
		buf:       buf,
		hdr:       h,
		timestamp: timestamp,
		tests:     tests,
		data:      data,
		flagSets:  flagSets,
		strings:   strings,
		commits:   commits,
	}, nil
}

// takeSection slices length bytes at offset (after 8-byte alignment)
// out of buf, reporting InvalidTables if it would run past the end.
func takeSection(buf []byte, offset, length int) ([]byte, int, error) {
	aligned := alignTo8(offset)
	end := aligned + length
	if end > len(buf) {
		return nil, 0, newError(InvalidTables, end)
	}
	return buf[aligned:end], end, nil
}

// Timestamp returns the writer's clock at the time the artifact was
// produced, as unix seconds. This is the header's own timestamp, not
// the effective view clock used for windowing (see Now).
func (v *View) Timestamp() uint32 { return v.hdr.timestamp }

// Now returns the effective clock this view windows against:
// max(header.timestamp, now-at-parse-time).
func (v *View) Now() uint32 { return v.timestamp }

// NumTests returns the number of rows in the table.
func (v *View) NumTests() int { return int(v.hdr.numTests) }

// NumDays returns the width of the sliding window, i.e. the number of
// per-day buckets each row carries.
func (v *View) NumDays() int { return int(v.hdr.numDays) }

func (v *View) rawTest(i int) test {
	return decodeTest(v.tests[i*testSize : (i+1)*testSize])
}

func (v *View) rawTestData(testIdx, dayIdx int) testData {
	n := testIdx*v.NumDays() + dayIdx
	return decodeTestData(v.data[n*testDataSize : (n+1)*testDataSize])
}

func (v *View) stringAt(offset uint32) (string, bool) {
	return readString(v.strings, offset)
}

func (v *View) flagsAt(offset uint32) ([]string, bool) {
	offsets, ok := readFlagSet(v.flagSets, offset)
	if !ok {
		return nil, false
	}
	out := make([]string, len(offsets))
	for i, o := range offsets {
		s, ok := v.stringAt(o)
		if !ok {
			return nil, false
		}
		out[i] = s
	}
	return out, true
}

// CommitHashes returns the append-only, de-duplicated list of commit
// SHAs that have contributed data to this artifact, in insertion order.
func (v *View) CommitHashes() ([]string, error) {
	return decodeCommitHashes(v.commits)
}

// TestHandle is a resolved view of one row: its identity strings and
// flags, plus access to its per-day buckets.
type TestHandle struct {
	v   *View
	idx int
}

// Test returns a handle to row i. i must be in [0, NumTests()).
func (v *View) Test(i int) TestHandle {
	return TestHandle{v: v, idx: i}
}

// Testsuite returns the row's testsuite name.
func (h TestHandle) Testsuite() (string, bool) {
	return h.v.stringAt(h.v.rawTest(h.idx).testsuiteOffset)
}

// Name returns the row's test name.
func (h TestHandle) Name() (string, bool) {
	return h.v.stringAt(h.v.rawTest(h.idx).nameOffset)
}

// Flags returns the row's flag set, resolved to strings.
func (h TestHandle) Flags() ([]string, bool) {
	return h.v.flagsAt(h.v.rawTest(h.idx).flagSetOffset)
}

// HasFlag reports whether flag is present on this row's flag set.
func (h TestHandle) HasFlag(flag string) bool {
	flags, ok := h.Flags()
	if !ok {
		return false
	}
	for _, f := range flags {
		if f == flag {
			return true
		}
	}
	return false
}

// Bucket returns the raw counters for day dayIdx, where 0 is today.
func (h TestHandle) Bucket(dayIdx int) testData {
	return h.v.rawTestData(h.idx, dayIdx)
}

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

import (
	"encoding/binary"
	"math"
)

// magic is the little-endian encoding of the four ASCII bytes "CCTA".
const magic uint32 = 0x41544343

// version is the only supported format version.
const version uint32 = 1

// headerSize is the fixed, 8-byte-aligned size of the header in bytes.
const headerSize = 32

// testSize is the fixed size of a Test row: three u32 offsets.
const testSize = 12

// testDataSize is the fixed size of a packed TestData bucket.
const testDataSize = 20

// header mirrors the on-disk artifact header. All fields are little-endian.
type header struct {
	magic           uint32
	version         uint32
	timestamp       uint32 // writer clock, unix seconds
	numTests        uint32
	numDays         uint32
	flagsSetLen     uint32 // byte length of the flag-set table
	stringBytes     uint32 // byte length of the string table
	commitHashesLen uint32 // byte length of the commit-hash table
}

func (h header) encode(buf []byte) {
	binary.LittleEndian.PutUint32(buf[0:4], h.magic)
	binary.LittleEndian.PutUint32(buf[4:8], h.version)
	binary.LittleEndian.PutUint32(buf[8:12], h.timestamp)
	binary.LittleEndian.PutUint32(buf[12:16], h.numTests)
	binary.LittleEndian.PutUint32(buf[16:20], h.numDays)
	binary.LittleEndian.PutUint32(buf[20:24], h.flagsSetLen)
	binary.LittleEndian.PutUint32(buf[24:28], h.stringBytes)
	binary.LittleEndian.PutUint32(buf[28:32], h.commitHashesLen)
}

func decodeHeader(buf []byte) header {
	return header{
		magic:           binary.LittleEndian.Uint32(buf[0:4]),
		version:         binary.LittleEndian.Uint32(buf[4:8]),
		timestamp:       binary.LittleEndian.Uint32(buf[8:12]),
		numTests:        binary.LittleEndian.Uint32(buf[12:16]),
		numDays:         binary.LittleEndian.Uint32(buf[16:20]),
		flagsSetLen:     binary.LittleEndian.Uint32(buf[20:24]),
		stringBytes:     binary.LittleEndian.Uint32(buf[24:28]),
		commitHashesLen: binary.LittleEndian.Uint32(buf[28:32]),
	}
}

// test is one row: identity is the full tuple of string/flag-set offsets.
type test struct {
	testsuiteOffset uint32
	nameOffset      uint32
	flagSetOffset   uint32
}

func (t test) encode(buf []byte) {
	binary.LittleEndian.PutUint32(buf[0:4], t.testsuiteOffset)
	binary.LittleEndian.PutUint32(buf[4:8], t.nameOffset)
	binary.LittleEndian.PutUint32(buf[8:12], t.flagSetOffset)
}

func decodeTest(buf []byte) test {
	return test{
		testsuiteOffset: binary.LittleEndian.Uint32(buf[0:4]),
		nameOffset:      binary.LittleEndian.Uint32(buf[4:8]),
		flagSetOffset:   binary.LittleEndian.Uint32(buf[8:12]),
	}
}

// testData is a single (row, day) bucket of aggregate counters.
type testData struct {
	totalPassCount      uint16
	totalFailCount      uint16
	totalSkipCount      uint16
	totalFlakyFailCount uint16
	totalDuration       float32
	lastTimestamp       uint32
	lastDuration        float32
}

func (d testData) encode(buf []byte) {
	binary.LittleEndian.PutUint16(buf[0:2], d.totalPassCount)
	binary.LittleEndian.PutUint16(buf[2:4], d.totalFailCount)
	binary.LittleEndian.PutUint16(buf[4:6], d.totalSkipCount)
	binary.LittleEndian.PutUint16(buf[6:8], d.totalFlakyFailCount)
	binary.LittleEndian.PutUint32(buf[8:12], math.Float32bits(d.totalDuration))
	binary.LittleEndian.PutUint32(buf[12:16], d.lastTimestamp)
	binary.LittleEndian.PutUint32(buf[16:20], math.Float32bits(d.lastDuration))
}

func decodeTestData(buf []byte) testData {
	return testData{
		totalPassCount:      binary.LittleEndian.Uint16(buf[0:2]),
		totalFailCount:      binary.LittleEndian.Uint16(buf[2:4]),
		totalSkipCount:      binary.LittleEndian.Uint16(buf[4:6]),
		totalFlakyFailCount: binary.LittleEndian.Uint16(buf[6:8]),
		totalDuration:       math.Float32frombits(binary.LittleEndian.Uint32(buf[8:12])),
		lastTimestamp:       binary.LittleEndian.Uint32(buf[12:16]),
		lastDuration:        math.Float32frombits(binary.LittleEndian.Uint32(buf[16:20])),
	}
}

// isZero reports whether the bucket has never been touched.
func (d testData) isZero() bool {
	return d == testData{}
}

// alignTo8 returns n rounded up to the next multiple of 8.
func alignTo8(n int) int {
	return (n + 7) &^ 7
}

// HeaderTimestamp returns the writer-clock timestamp embedded in an
// artifact's header, without parsing or validating anything past the
// header itself. It's a fast path for callers that only need to order
// or compare artifact freshness (see internal/storage's Redis adapter)
// and would otherwise have to duplicate the header's byte layout.
func HeaderTimestamp(buf []byte) (uint32, bool) {
	if len(buf) < headerSize {
		return 0, false
	}
	return decodeHeader(buf[:headerSize]).timestamp, true
}

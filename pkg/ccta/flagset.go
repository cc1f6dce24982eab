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
	"sort"
)

// noFlagSet is the sentinel flagSetOffset for a test reported with no
// flags at all. It never refers into the flag-set blob.
const noFlagSet uint32 = 0xFFFFFFFF

// flagSetTable is a deduplicated table of ordered, de-duplicated sets of
// flag strings (string-table offsets). Each entry is length-prefixed:
// a u32 count followed by that many u32 string-table offsets, sorted so
// that the same set of flags always canonicalizes to the same bytes
// regardless of insertion order.
type flagSetTable struct {
	blob  []byte
	byKey map[string]uint32
}

func newFlagSetTable() *flagSetTable {
	return &flagSetTable{byKey: make(map[string]uint32)}
}

// insert canonicalizes offsets (a flag set expressed as string-table
// offsets) and returns its stable flagSetOffset, reusing an existing
// entry when the same set was already inserted.
func (t *flagSetTable) insert(offsets []uint32) uint32 {
	if len(offsets) == 0 {
		return noFlagSet
	}
	sorted := dedupSorted(offsets)
	key := canonicalFlagSetKey(sorted)
	if off, ok := t.byKey[key]; ok {
		return off
	}
	off := uint32(len(t.blob))
	entry := make([]byte, 4+4*len(sorted))
	binary.LittleEndian.PutUint32(entry[0:4], uint32(len(sorted)))
	for i, o := range sorted {
		binary.LittleEndian.PutUint32(entry[4+4*i:8+4*i], o)
	}
	t.blob = append(t.blob, entry...)
	t.byKey[key] = off
	return off
}

// read returns the sorted string-table offsets of the flag set at
// offset. A noFlagSet offset yields an empty, valid set.
func (t *flagSetTable) read(offset uint32) ([]uint32, bool) {
	return readFlagSet(t.blob, offset)
}

func readFlagSet(blob []byte, offset uint32) ([]uint32, bool) {
	if offset == noFlagSet {
		return nil, true
	}
	if offset > uint32(len(blob)) || len(blob)-int(offset) < 4 {
		return nil, false
	}
	count := binary.LittleEndian.Uint32(blob[offset : offset+4])
	start := offset + 4
	end := uint64(start) + uint64(count)*4
	if end > uint64(len(blob)) {
		return nil, false
	}
	out := make([]uint32, count)
	for i := range out {
		o := start + uint32(i)*4
		out[i] = binary.LittleEndian.Uint32(blob[o : o+4])
	}
	return out, true
}

// flagSetTableFromBytes reconstructs a flagSetTable from raw bytes,
// rebuilding the canonical-key index so a writer built from an existing
// artifact can dedupe new flag sets against the ones already stored.
func flagSetTableFromBytes(blob []byte) (*flagSetTable, error) {
	t := &flagSetTable{blob: append([]byte(nil), blob...), byKey: make(map[string]uint32)}
	offset := uint32(0)
	for int(offset) < len(blob) {
		offsets, ok := readFlagSet(blob, offset)
		if !ok {
			return nil, newError(InvalidFlagSetReference, offset)
		}
		t.byKey[canonicalFlagSetKey(offsets)] = offset
		offset += 4 + uint32(len(offsets))*4
	}
	return t, nil
}

func dedupSorted(offsets []uint32) []uint32 {
	sorted := append([]uint32(nil), offsets...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	out := sorted[:0]
	var prev uint32
	havePrev := false
	for _, o := range sorted {
		if havePrev && o == prev {
			continue
		}
		out = append(out, o)
		prev = o
		havePrev = true
	}
	return out
}

func canonicalFlagSetKey(sorted []uint32) string {
	buf := make([]byte, 4*len(sorted))
	for i, o := range sorted {
		binary.LittleEndian.PutUint32(buf[4*i:4*i+4], o)
	}
	return string(buf)
}

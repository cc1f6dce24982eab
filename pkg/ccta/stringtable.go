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

// stringTable is an append-only, NUL-delimited UTF-8 blob. Repeated
// inserts of the same string return the same offset via an internal
// hash index. String offsets are stable for the lifetime of the writer
// that produced them, but not across writers.
type stringTable struct {
	blob   []byte
	byText map[string]uint32
}

func newStringTable() *stringTable {
	return &stringTable{byText: make(map[string]uint32)}
}

// insert appends s if not already present and returns its stable offset.
func (t *stringTable) insert(s string) uint32 {
	if off, ok := t.byText[s]; ok {
		return off
	}
	off := uint32(len(t.blob))
	t.blob = append(t.blob, s...)
	t.blob = append(t.blob, 0)
	t.byText[s] = off
	return off
}

// read returns a copy of the string stored at offset.
func (t *stringTable) read(offset uint32) (string, bool) {
	return readString(t.blob, offset)
}

// readString scans blob for a NUL-terminated run starting at offset.
func readString(blob []byte, offset uint32) (string, bool) {
	if offset > uint32(len(blob)) {
		return "", false
	}
	i := int(offset)
	for j := i; j < len(blob); j++ {
		if blob[j] == 0 {
			return string(blob[i:j]), true
		}
	}
	return "", false
}

// stringBytesMismatch is the Detail carried by an UnexpectedStringBytes
// error: the section's declared length versus how many bytes a clean
// scan of NUL-terminated runs actually consumed.
type stringBytesMismatch struct {
	Expected int
	Found    int
}

// validateStringBytes scans blob as a run of back-to-back
// NUL-terminated strings and confirms the scan consumes every declared
// byte, with no truncated trailing string and no trailing garbage past
// the last terminator.
func validateStringBytes(blob []byte) error {
	offset := 0
	for offset < len(blob) {
		s, ok := readString(blob, uint32(offset))
		if !ok {
			return newError(UnexpectedStringBytes, stringBytesMismatch{Expected: len(blob), Found: offset})
		}
		offset += len(s) + 1
	}
	if offset != len(blob) {
		return newError(UnexpectedStringBytes, stringBytesMismatch{Expected: len(blob), Found: offset})
	}
	return nil
}

// stringTableFromBytes reconstructs a stringTable from raw bytes by scanning
// NUL-terminated runs and rebuilding the offset index, so a writer built
// from an existing artifact can keep inserting without duplicating
// strings that are already present.
func stringTableFromBytes(blob []byte) (*stringTable, error) {
	t := &stringTable{blob: append([]byte(nil), blob...), byText: make(map[string]uint32)}
	offset := 0
	for offset < len(blob) {
		s, ok := readString(blob, uint32(offset))
		if !ok {
			return nil, newError(InvalidStringReference, offset)
		}
		t.byText[s] = uint32(offset)
		offset += len(s) + 1
	}
	return t, nil
}

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
	"encoding/hex"
)

// commitHashSize is the width of a single entry: a raw SHA-1 git
// commit hash, not its 40-character hex rendering.
const commitHashSize = 20

// commitHashTable is the append-only, de-duplicated list of commits
// that have contributed data to an artifact. Unlike the string and
// flag-set tables it carries no back-references from the row table;
// it is file-level provenance, not per-row.
type commitHashTable struct {
	blob []byte
	seen map[[commitHashSize]byte]struct{}
}

func newCommitHashTable() *commitHashTable {
	return &commitHashTable{seen: make(map[[commitHashSize]byte]struct{})}
}

// insert appends hash if it has not been recorded before.
func (t *commitHashTable) insert(hash [commitHashSize]byte) {
	if _, ok := t.seen[hash]; ok {
		return
	}
	t.seen[hash] = struct{}{}
	t.blob = append(t.blob, hash[:]...)
}

// hashes returns the recorded commits in insertion order, hex-encoded.
func (t *commitHashTable) hashes() ([]string, error) {
	return decodeCommitHashes(t.blob)
}

func decodeCommitHashes(blob []byte) ([]string, error) {
	if len(blob)%commitHashSize != 0 {
		return nil, newError(InvalidTables, len(blob))
	}
	n := len(blob) / commitHashSize
	out := make([]string, n)
	for i := 0; i < n; i++ {
		out[i] = hex.EncodeToString(blob[i*commitHashSize : (i+1)*commitHashSize])
	}
	return out, nil
}

// commitHashTableFromBytes reconstructs a commitHashTable from raw
// bytes, rebuilding the dedup index.
func commitHashTableFromBytes(blob []byte) (*commitHashTable, error) {
	if len(blob)%commitHashSize != 0 {
		return nil, newError(InvalidTables, len(blob))
	}
	t := &commitHashTable{blob: append([]byte(nil), blob...), seen: make(map[[commitHashSize]byte]struct{})}
	for i := 0; i*commitHashSize < len(blob); i++ {
		var h [commitHashSize]byte
		copy(h[:], blob[i*commitHashSize:(i+1)*commitHashSize])
		t.seen[h] = struct{}{}
	}
	return t, nil
}

// ParseCommitHash decodes a 40-character hex commit SHA into its raw
// 20-byte form.
func ParseCommitHash(s string) ([commitHashSize]byte, error) {
	var out [commitHashSize]byte
	b, err := hex.DecodeString(s)
	if err != nil || len(b) != commitHashSize {
		return out, newError(InvalidTables, s)
	}
	copy(out[:], b)
	return out, nil
}

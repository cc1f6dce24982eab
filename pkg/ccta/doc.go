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

// Package ccta implements the Compact CI Test Analytics binary artifact:
// a sliding window of daily per-test outcome buckets that can be parsed,
// queried for windowed aggregates, and mutated by ingest, merge, or
// rewrite. The artifact is an in-memory, bytes-in/bytes-out format; this
// package performs no file or network I/O.
//
// Column 0 of a row's per-day buckets represents "today" as of the last
// time that row was touched, not the writer's clock as a whole: rows
// are realigned lazily, one at a time, only when ingest or merge
// writes into them, so an untouched row can lag behind. Reads correct
// for that drift at query time; ingest, merge, and rewrite each reduce
// to a variant of shifting a row's buckets to re-align column 0.
package ccta

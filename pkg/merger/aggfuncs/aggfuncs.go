// Copyright 2026 PingCAP, Inc.
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

package aggfuncs

import (
	"unsafe"

	"github.com/pingcap/shardmerge/pkg/types"
)

// PartialResult represents data structure to store the partial result for the
// aggregate functions. Here we use unsafe.Pointer to allow the partial result
// to be any type.
type PartialResult unsafe.Pointer

// AggFunc is the interface to combine the per-shard partial values of one
// aggregate column. The inputs are rows of the same group coming from
// different shards; each row already holds the shard-local aggregate.
type AggFunc interface {
	// AllocPartialResult allocates a specific data structure to store the
	// partial result and initializes it.
	AllocPartialResult() PartialResult

	// ResetPartialResult resets the partial result to the original state.
	ResetPartialResult(pr PartialResult)

	// UpdatePartialResult folds the value the row holds for this aggregate
	// column into the partial result.
	UpdatePartialResult(row types.Row, pr PartialResult) error

	// AppendFinalResult finalizes the partial result and writes it into the
	// aggregate column of the output row.
	AppendFinalResult(pr PartialResult, row types.Row) error
}

type baseAggFunc struct {
	name string
	// ordinal is the 0-based position of the aggregate column in a row.
	ordinal int
}

func (e *baseAggFunc) input(row types.Row) any {
	return row[e.ordinal]
}

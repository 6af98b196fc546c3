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

package executor

import (
	"context"

	"github.com/pingcap/errors"
	"github.com/pingcap/shardmerge/pkg/merger/aggfuncs"
	"github.com/pingcap/shardmerge/pkg/merger/column"
	"github.com/pingcap/shardmerge/pkg/types"
)

// StreamAggExec combines the rows of each group into one row. Its child must
// return the rows of a group adjacently, which holds when the child is
// ordered by the group keys. Without group keys every row belongs to one
// implicit group.
//
// The output row of a group is its first row with the aggregate columns
// replaced by the combined values.
type StreamAggExec struct {
	baseExecutor
	groupKeys      []column.OrderByItem
	cmp            *rowComparator
	aggFuncs       []aggfuncs.AggFunc
	partialResults []aggfuncs.PartialResult

	curGroupRow types.Row
	drained     bool
	emitted     bool
}

// NewStreamAggExec creates a StreamAggExec.
func NewStreamAggExec(src Executor, groupKeys []column.OrderByItem, funcs []aggfuncs.AggFunc) *StreamAggExec {
	e := &StreamAggExec{
		baseExecutor:   newBaseExecutor(src.Fields(), nil, src),
		groupKeys:      groupKeys,
		cmp:            newRowComparator(groupKeys),
		aggFuncs:       funcs,
		partialResults: make([]aggfuncs.PartialResult, 0, len(funcs)),
	}
	for _, f := range funcs {
		e.partialResults = append(e.partialResults, f.AllocPartialResult())
	}
	return e
}

// Next implements the Executor Next interface.
func (e *StreamAggExec) Next(ctx context.Context) (types.Row, error) {
	if e.curGroupRow == nil {
		if e.drained {
			return nil, nil
		}
		row, err := e.children[0].Next(ctx)
		if err != nil {
			return nil, errors.Trace(err)
		}
		if row == nil {
			e.drained = true
			if len(e.groupKeys) == 0 && !e.emitted {
				// An aggregation over no rows still returns one row.
				e.emitted = true
				return e.appendResult(make(types.Row, len(e.fields)))
			}
			return nil, nil
		}
		e.curGroupRow = row
	}

	for i, f := range e.aggFuncs {
		f.ResetPartialResult(e.partialResults[i])
	}
	if err := e.updatePartialResults(e.curGroupRow); err != nil {
		return nil, err
	}
	var nextGroupRow types.Row
	for {
		row, err := e.children[0].Next(ctx)
		if err != nil {
			return nil, errors.Trace(err)
		}
		if row == nil {
			e.drained = true
			break
		}
		cmp, err := e.cmp.compare(e.curGroupRow, row)
		if err != nil {
			return nil, err
		}
		if cmp != 0 {
			nextGroupRow = row
			break
		}
		if err = e.updatePartialResults(row); err != nil {
			return nil, err
		}
	}
	out := e.curGroupRow.Copy()
	e.curGroupRow = nextGroupRow
	e.emitted = true
	return e.appendResult(out)
}

func (e *StreamAggExec) updatePartialResults(row types.Row) error {
	for i, f := range e.aggFuncs {
		if err := f.UpdatePartialResult(row, e.partialResults[i]); err != nil {
			return errors.Trace(err)
		}
	}
	return nil
}

func (e *StreamAggExec) appendResult(out types.Row) (types.Row, error) {
	for i, f := range e.aggFuncs {
		if err := f.AppendFinalResult(e.partialResults[i], out); err != nil {
			return nil, errors.Trace(err)
		}
	}
	return out, nil
}

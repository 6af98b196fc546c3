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

	"github.com/emirpasic/gods/trees/binaryheap"
	"github.com/pingcap/errors"
	"github.com/pingcap/shardmerge/pkg/merger/column"
	"github.com/pingcap/shardmerge/pkg/merger/shard"
	"github.com/pingcap/shardmerge/pkg/types"
)

// mergeItem is the head row of one shard.
type mergeItem struct {
	row   types.Row
	shard *shard.Shard
}

// StreamMergeExec merges shards whose rows are each sorted by the same keys.
// It holds at most one row per shard: the heap orders the shard heads by the
// keys and, for equal keys, by shard ordinal so the merge is stable.
type StreamMergeExec struct {
	baseExecutor
	cmp     *rowComparator
	heap    *binaryheap.Heap
	cmpErr  error
	started bool
}

// NewStreamMergeExec creates a StreamMergeExec over shards sorted by keys.
func NewStreamMergeExec(fields []*types.Field, shards []*shard.Shard, keys []column.OrderByItem) *StreamMergeExec {
	e := &StreamMergeExec{
		baseExecutor: newBaseExecutor(fields, shards),
		cmp:          newRowComparator(keys),
	}
	e.heap = binaryheap.NewWith(e.compareItems)
	return e
}

func (e *StreamMergeExec) compareItems(a, b any) int {
	x, y := a.(*mergeItem), b.(*mergeItem)
	cmp, err := e.cmp.compare(x.row, y.row)
	if err != nil {
		if e.cmpErr == nil {
			e.cmpErr = err
		}
		return 0
	}
	if cmp != 0 {
		return cmp
	}
	return x.shard.Ordinal() - y.shard.Ordinal()
}

// push reads the next row of s into the heap, releasing s once drained.
func (e *StreamMergeExec) push(ctx context.Context, s *shard.Shard) error {
	row, err := s.Next(ctx)
	if err != nil {
		return errors.Trace(err)
	}
	if row == nil {
		releaseShard(ctx, s)
		return nil
	}
	e.heap.Push(&mergeItem{row: row, shard: s})
	return errors.Trace(e.cmpErr)
}

// Next implements the Executor Next interface.
func (e *StreamMergeExec) Next(ctx context.Context) (types.Row, error) {
	if !e.started {
		e.started = true
		for _, s := range e.shards {
			if err := e.push(ctx, s); err != nil {
				return nil, err
			}
		}
	}
	head, ok := e.heap.Pop()
	if !ok {
		return nil, nil
	}
	if e.cmpErr != nil {
		return nil, errors.Trace(e.cmpErr)
	}
	item := head.(*mergeItem)
	if err := e.push(ctx, item.shard); err != nil {
		return nil, err
	}
	return item.row, nil
}

// Close implements the Executor Close interface.
func (e *StreamMergeExec) Close() error {
	e.heap.Clear()
	return e.baseExecutor.Close()
}

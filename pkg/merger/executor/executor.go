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
	"github.com/pingcap/shardmerge/pkg/merger/shard"
	"github.com/pingcap/shardmerge/pkg/types"
	"github.com/pingcap/shardmerge/pkg/util/logutil"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

var (
	_ Executor = &UnionExec{}
	_ Executor = &StreamMergeExec{}
	_ Executor = &SortExec{}
	_ Executor = &StreamAggExec{}
	_ Executor = &LimitExec{}
)

// Executor produces the merged rows one at a time.
type Executor interface {
	Fields() []*types.Field
	// Next returns the next row, nil when there is no more row.
	Next(ctx context.Context) (types.Row, error)
	Close() error
}

type baseExecutor struct {
	fields   []*types.Field
	children []Executor
	shards   []*shard.Shard
}

func newBaseExecutor(fields []*types.Field, shards []*shard.Shard, children ...Executor) baseExecutor {
	return baseExecutor{fields: fields, children: children, shards: shards}
}

// Fields implements the Executor Fields interface.
func (e *baseExecutor) Fields() []*types.Field {
	return e.fields
}

// Close closes the children and the shards read by the executor.
func (e *baseExecutor) Close() error {
	var err error
	for _, child := range e.children {
		err = multierr.Append(err, child.Close())
	}
	for _, s := range e.shards {
		if closeErr := s.Close(); closeErr != nil {
			err = multierr.Append(err, errors.Annotatef(closeErr, "close shard %d", s.Ordinal()))
		}
	}
	return err
}

// releaseShard closes a drained shard so its connection is returned early.
func releaseShard(ctx context.Context, s *shard.Shard) {
	if err := s.Close(); err != nil {
		logutil.Logger(ctx).Warn("close drained shard failed", zap.Int("shard", s.Ordinal()), zap.Error(err))
	}
}

// UnionExec concatenates the rows of the shards in shard order.
type UnionExec struct {
	baseExecutor
	cursor int
}

// NewUnionExec creates a UnionExec.
func NewUnionExec(fields []*types.Field, shards []*shard.Shard) *UnionExec {
	return &UnionExec{baseExecutor: newBaseExecutor(fields, shards)}
}

// Next implements the Executor Next interface.
func (e *UnionExec) Next(ctx context.Context) (types.Row, error) {
	for e.cursor < len(e.shards) {
		s := e.shards[e.cursor]
		row, err := s.Next(ctx)
		if err != nil {
			return nil, errors.Trace(err)
		}
		if row != nil {
			return row, nil
		}
		releaseShard(ctx, s)
		e.cursor++
	}
	return nil, nil
}

// LimitExec represents limit executor.
type LimitExec struct {
	baseExecutor
	Offset int64
	// Count is the maximum number of rows after the offset, negative means
	// no limit.
	Count int64
	Idx   int64
}

// NewLimitExec creates a LimitExec.
func NewLimitExec(src Executor, offset, count int64) *LimitExec {
	return &LimitExec{
		baseExecutor: newBaseExecutor(src.Fields(), nil, src),
		Offset:       offset,
		Count:        count,
	}
}

// Next implements the Executor Next interface.
func (e *LimitExec) Next(ctx context.Context) (types.Row, error) {
	src := e.children[0]
	for e.Idx < e.Offset {
		srcRow, err := src.Next(ctx)
		if err != nil {
			return nil, errors.Trace(err)
		}
		if srcRow == nil {
			return nil, nil
		}
		e.Idx++
	}
	// Negative Limit means no limit.
	if e.Count >= 0 && e.Idx >= e.Offset+e.Count {
		return nil, nil
	}
	srcRow, err := src.Next(ctx)
	if err != nil {
		return nil, errors.Trace(err)
	}
	if srcRow == nil {
		return nil, nil
	}
	e.Idx++
	return srcRow, nil
}

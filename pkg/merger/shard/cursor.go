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

package shard

import (
	"context"
	"fmt"
	"strings"

	"github.com/pingcap/errors"
	"github.com/pingcap/failpoint"
	"github.com/pingcap/shardmerge/pkg/merger/mergeerrors"
	"github.com/pingcap/shardmerge/pkg/metrics"
	"github.com/pingcap/shardmerge/pkg/types"
	"github.com/pingcap/shardmerge/pkg/util/logutil"
	"go.uber.org/atomic"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Cursor is the forward-only row reader over the result of one shard.
type Cursor interface {
	// Fields returns the column metadata of the result.
	Fields() []*types.Field
	// ColumnLabelIndexMap maps column labels to 1-based column indices.
	ColumnLabelIndexMap() map[string]int
	// Next returns the next row, or nil when the cursor is drained. The
	// returned row belongs to the caller and must not be reused.
	Next(ctx context.Context) (types.Row, error)
	// Close releases the resources, e.g. the backing connection.
	Close() error
}

// LabelIndexMapOf builds a label to 1-based index map from fields. The label
// is used when present, otherwise the name; the first occurrence wins.
func LabelIndexMapOf(fields []*types.Field) map[string]int {
	ret := make(map[string]int, len(fields))
	for i, f := range fields {
		key := f.Label
		if key == "" {
			key = f.Name
		}
		if _, ok := ret[key]; !ok && key != "" {
			ret[key] = i + 1
		}
	}
	return ret
}

// Shard is a cursor owned by a CursorSet. It closes the underlying cursor at
// most once and never reads from it after that.
type Shard struct {
	ordinal int
	cursor  Cursor
	closed  atomic.Bool
}

// Ordinal returns the position of the shard in its set.
func (s *Shard) Ordinal() int {
	return s.ordinal
}

// Next returns the next row of the shard, nil when it is drained or closed.
// Errors of the underlying cursor are wrapped into ErrShardRead.
func (s *Shard) Next(ctx context.Context) (types.Row, error) {
	if s.closed.Load() {
		return nil, nil
	}
	failpoint.Inject("shardReadError", func(val failpoint.Value) {
		if ordinal, ok := val.(int); ok && ordinal == s.ordinal {
			failpoint.Return(nil, s.wrapError(errors.New("injected shard read error")))
		}
	})
	row, err := s.cursor.Next(ctx)
	if err != nil {
		return nil, s.wrapError(err)
	}
	return row, nil
}

func (s *Shard) wrapError(err error) error {
	metrics.ShardReadErrorCounter.Inc()
	return errors.Trace(mergeerrors.ErrShardRead.GenWithStackByArgs(s.ordinal, err.Error()))
}

// Close closes the underlying cursor if it is not closed yet.
func (s *Shard) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	return s.cursor.Close()
}

// Closed returns if the shard is closed.
func (s *Shard) Closed() bool {
	return s.closed.Load()
}

// CursorSet owns the cursors of all shards a logical query was routed to.
// Every shard is assumed to return the same columns in the same order, so the
// column metadata of shard 0 is used for all of them.
type CursorSet struct {
	shards     []*Shard
	fields     []*types.Field
	labelIndex map[string]int
	logger     *zap.Logger
}

// NewCursorSet creates a CursorSet. A logical query is always routed to at
// least one shard, so an empty input is an error. The set owns the cursors
// only when it is created; on error the caller still has to close them.
func NewCursorSet(cursors ...Cursor) (*CursorSet, error) {
	if len(cursors) == 0 {
		return nil, errors.Trace(mergeerrors.ErrEmptyShardSet.GenWithStackByArgs("zero shard cursors"))
	}
	for i, c := range cursors {
		if c == nil {
			return nil, errors.Trace(mergeerrors.ErrEmptyShardSet.GenWithStackByArgs(fmt.Sprintf("shard %d is absent", i)))
		}
	}
	set := &CursorSet{
		shards:     make([]*Shard, 0, len(cursors)),
		fields:     cursors[0].Fields(),
		labelIndex: cursors[0].ColumnLabelIndexMap(),
		logger:     logutil.BgLogger(),
	}
	for i, c := range cursors {
		set.shards = append(set.shards, &Shard{ordinal: i, cursor: c})
	}
	return set, nil
}

// SetLogger sets the logger of close failures.
func (s *CursorSet) SetLogger(logger *zap.Logger) {
	s.logger = logger
}

// Shards returns the shards in routing order.
func (s *CursorSet) Shards() []*Shard {
	return s.shards
}

// Len returns the number of shards.
func (s *CursorSet) Len() int {
	return len(s.shards)
}

// Fields returns the column metadata of the first shard.
func (s *CursorSet) Fields() []*types.Field {
	return s.fields
}

// LabelIndexMap returns the label to 1-based index map of the first shard.
func (s *CursorSet) LabelIndexMap() map[string]int {
	return s.labelIndex
}

// ColumnIndexOf returns the 1-based index of a column label or name.
func (s *CursorSet) ColumnIndexOf(labelOrName string) (int, bool) {
	if idx, ok := s.labelIndex[labelOrName]; ok {
		return idx, true
	}
	for i, f := range s.fields {
		if f.Label != "" && strings.EqualFold(f.Label, labelOrName) {
			return i + 1, true
		}
	}
	for i, f := range s.fields {
		if f.Name != "" && strings.EqualFold(f.Name, labelOrName) {
			return i + 1, true
		}
	}
	return 0, false
}

// Close closes every shard that is still open. It can be called many times;
// each cursor is closed exactly once.
func (s *CursorSet) Close() error {
	var err error
	for _, shard := range s.shards {
		if closeErr := shard.Close(); closeErr != nil {
			s.logger.Warn("close shard cursor failed", zap.Int("shard", shard.ordinal), zap.Error(closeErr))
			err = multierr.Append(err, errors.Annotatef(closeErr, "close shard %d", shard.ordinal))
		}
	}
	return err
}

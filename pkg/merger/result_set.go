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

package merger

import (
	"context"

	"github.com/pingcap/errors"
	"github.com/pingcap/shardmerge/pkg/merger/column"
	"github.com/pingcap/shardmerge/pkg/merger/executor"
	"github.com/pingcap/shardmerge/pkg/merger/mergeerrors"
	"github.com/pingcap/shardmerge/pkg/merger/shard"
	"github.com/pingcap/shardmerge/pkg/merger/strategy"
	"github.com/pingcap/shardmerge/pkg/metrics"
	"github.com/pingcap/shardmerge/pkg/types"
	"github.com/pingcap/shardmerge/pkg/util/logutil"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// ResultSet is the merged, forward-only result of one logical query. It is
// not safe for concurrent use.
type ResultSet struct {
	id      string
	logger  *zap.Logger
	spec    *column.QuerySpec
	plan    *strategy.Plan
	cursors *shard.CursorSet
	root    executor.Executor

	rows     int64
	err      error
	done     bool
	released bool
	closed   bool
	closeErr error
}

// ID returns the merge id, also logged as the merge_id field.
func (rs *ResultSet) ID() string {
	return rs.id
}

// Fields returns the column metadata of the first shard.
func (rs *ResultSet) Fields() []*types.Field {
	return rs.cursors.Fields()
}

// Plan returns the merge plan.
func (rs *ResultSet) Plan() *strategy.Plan {
	return rs.plan
}

// Spec returns the resolved query spec.
func (rs *ResultSet) Spec() *column.QuerySpec {
	return rs.spec
}

// Next returns the next merged row, nil when there is no more row. After the
// first error every call returns that error.
func (rs *ResultSet) Next(ctx context.Context) (types.Row, error) {
	if rs.closed {
		return nil, errors.Trace(mergeerrors.ErrResultSetClosed.GenWithStackByArgs())
	}
	if rs.err != nil {
		return nil, rs.err
	}
	if rs.done {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, rs.fail(err)
	}
	row, err := rs.root.Next(logutil.WithLogger(ctx, rs.logger))
	if err != nil {
		return nil, rs.fail(err)
	}
	if row == nil {
		rs.done = true
		rs.logger.Debug("merged result set drained", zap.Int64("rows", rs.rows))
		rs.release(metrics.ResultOK)
		return nil, nil
	}
	rs.rows++
	metrics.MergedRowsCounter.Inc()
	return row, nil
}

func (rs *ResultSet) fail(err error) error {
	rs.err = errors.Trace(err)
	rs.logger.Warn("merge failed", zap.Int64("rows", rs.rows), zap.Error(err))
	rs.release(metrics.ResultError)
	return rs.err
}

// release closes the executors and every shard cursor once.
func (rs *ResultSet) release(result string) {
	if rs.released {
		return
	}
	rs.released = true
	metrics.ResultSetCounter.WithLabelValues(result).Inc()
	err := multierr.Append(rs.root.Close(), rs.cursors.Close())
	if err != nil {
		rs.logger.Warn("close shard cursors failed", zap.Error(err))
		rs.closeErr = err
	}
}

// Close closes the result set and the shard cursors not closed yet. It can be
// called many times.
func (rs *ResultSet) Close() error {
	if rs.closed {
		return nil
	}
	rs.closed = true
	rs.release(metrics.ResultOK)
	return rs.closeErr
}

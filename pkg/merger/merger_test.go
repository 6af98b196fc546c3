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
	"math"
	"testing"

	"github.com/pingcap/errors"
	"github.com/pingcap/shardmerge/pkg/config"
	"github.com/pingcap/shardmerge/pkg/merger/column"
	"github.com/pingcap/shardmerge/pkg/merger/mergeerrors"
	"github.com/pingcap/shardmerge/pkg/merger/shard"
	"github.com/pingcap/shardmerge/pkg/merger/strategy"
	"github.com/pingcap/shardmerge/pkg/types"
	"github.com/pingcap/shardmerge/pkg/util/logutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type trackedCursor struct {
	*shard.RowsCursor
	reads   int
	closes  int
	failAt  int
	readErr error
}

func (c *trackedCursor) Next(ctx context.Context) (types.Row, error) {
	if c.closes > 0 {
		panic("read after close")
	}
	c.reads++
	if c.readErr != nil && c.reads >= c.failAt {
		return nil, c.readErr
	}
	return c.RowsCursor.Next(ctx)
}

func (c *trackedCursor) Close() error {
	c.closes++
	return nil
}

func newCursors(labels []string, shards ...[]types.Row) ([]shard.Cursor, []*trackedCursor) {
	cursors := make([]shard.Cursor, 0, len(shards))
	tracked := make([]*trackedCursor, 0, len(shards))
	for _, rows := range shards {
		c := &trackedCursor{RowsCursor: shard.NewRowsCursorWithLabels(labels, rows)}
		cursors = append(cursors, c)
		tracked = append(tracked, c)
	}
	return cursors, tracked
}

func drain(t *testing.T, rs *ResultSet) []types.Row {
	var rows []types.Row
	for {
		row, err := rs.Next(context.Background())
		require.NoError(t, err)
		if row == nil {
			return rows
		}
		rows = append(rows, row)
	}
}

func requireClosedOnce(t *testing.T, cursors []*trackedCursor) {
	for i, c := range cursors {
		require.Equalf(t, 1, c.closes, "shard %d", i)
	}
}

func idRows(ids ...int64) []types.Row {
	rows := make([]types.Row, 0, len(ids))
	for _, id := range ids {
		rows = append(rows, types.Row{id})
	}
	return rows
}

func TestPagination(t *testing.T) {
	cursors, tracked := newCursors([]string{"id"}, idRows(1, 2, 3, 4, 5), idRows(1, 2, 3, 4, 5), idRows(1, 2, 3, 4, 5))
	spec := column.NewQuerySpec(nil,
		[]column.OrderByItem{column.NewOrderByItem("", "id", "", column.Asc)},
		nil, &column.Limit{Offset: 2, Count: 3})
	rs, err := New(context.Background(), spec, cursors)
	require.NoError(t, err)
	require.Equal(t, []strategy.StepKind{strategy.StepStreamMerge, strategy.StepLimit}, rs.Plan().Kinds())

	require.Equal(t, idRows(1, 2, 2), drain(t, rs))
	requireClosedOnce(t, tracked)
	require.NoError(t, rs.Close())
	requireClosedOnce(t, tracked)
}

func avgSpec(groupBy []column.GroupByItem, orderBy []column.OrderByItem) *column.QuerySpec {
	aggs := &column.Aggregations{}
	aggs.AddAvg(column.Ref{Label: "AVG(price)"},
		column.Ref{Label: "AVG_DERIVED_SUM_0"}, column.Ref{Label: "AVG_DERIVED_COUNT_0"})
	return column.NewQuerySpec(groupBy, orderBy, aggs, nil)
}

var avgLabels = []string{"user_id", "AVG(price)", "AVG_DERIVED_SUM_0", "AVG_DERIVED_COUNT_0"}

func TestGroupByStreamsPreSortedShards(t *testing.T) {
	cursors, tracked := newCursors(avgLabels,
		[]types.Row{{int64(1), decimal.NewFromInt(5), int64(10), int64(2)}, {int64(2), decimal.NewFromInt(1), int64(1), int64(1)}},
		[]types.Row{{int64(1), decimal.NewFromInt(6), int64(20), int64(3)}},
	)
	spec := avgSpec([]column.GroupByItem{column.NewGroupByItem("", "user_id", "", column.None)}, nil)
	rs, err := New(context.Background(), spec, cursors)
	require.NoError(t, err)
	plan := rs.Plan()
	require.Equal(t, []strategy.StepKind{strategy.StepStreamMerge, strategy.StepAggregate}, plan.Kinds())
	require.False(t, plan.Has(strategy.StepGroupSort))
	require.True(t, rs.Spec().ImplicitOrderBy())

	rows := drain(t, rs)
	require.Len(t, rows, 2)
	require.Equal(t, int64(1), rows[0].GetByIndex(1))
	require.True(t, decimal.NewFromInt(6).Equal(rows[0].GetByIndex(2).(decimal.Decimal)))
	require.True(t, decimal.NewFromInt(30).Equal(rows[0].GetByIndex(3).(decimal.Decimal)))
	require.Equal(t, int64(5), rows[0].GetByIndex(4))
	require.Equal(t, int64(2), rows[1].GetByIndex(1))
	require.True(t, decimal.NewFromInt(1).Equal(rows[1].GetByIndex(2).(decimal.Decimal)))
	requireClosedOnce(t, tracked)
	require.NoError(t, rs.Close())
}

func TestGroupByWithDistinctOrderBy(t *testing.T) {
	// Shards are ordered by the order key, the average, not by user_id.
	cursors, tracked := newCursors(avgLabels,
		[]types.Row{{int64(2), decimal.NewFromInt(2), int64(2), int64(1)}, {int64(1), decimal.NewFromInt(5), int64(10), int64(2)}},
		[]types.Row{{int64(3), decimal.NewFromInt(1), int64(3), int64(3)}, {int64(1), decimal.NewFromInt(10), int64(30), int64(3)}},
	)
	spec := avgSpec(
		[]column.GroupByItem{column.NewGroupByItem("", "user_id", "", column.None)},
		[]column.OrderByItem{column.NewOrderByItem("", "AVG(price)", "", column.Asc)})
	rs, err := New(context.Background(), spec, cursors)
	require.NoError(t, err)
	require.Equal(t,
		[]strategy.StepKind{strategy.StepGroupSort, strategy.StepAggregate, strategy.StepOrderSort},
		rs.Plan().Kinds())

	rows := drain(t, rs)
	require.Len(t, rows, 3)
	require.Equal(t, int64(3), rows[0].GetByIndex(1))
	require.Equal(t, int64(2), rows[1].GetByIndex(1))
	require.Equal(t, int64(1), rows[2].GetByIndex(1))
	require.True(t, decimal.NewFromInt(8).Equal(rows[2].GetByIndex(2).(decimal.Decimal)))
	requireClosedOnce(t, tracked)
	require.NoError(t, rs.Close())
}

func TestAggregationWithoutGroupBy(t *testing.T) {
	aggs := &column.Aggregations{}
	aggs.AddRoot(column.Count, column.Ref{Name: "cnt"})
	aggs.AddRoot(column.Max, column.Ref{Name: "top"})
	spec := column.NewQuerySpec(nil, nil, aggs, nil)

	cursors, tracked := newCursors([]string{"cnt", "top"}, nil, nil)
	rs, err := New(context.Background(), spec, cursors)
	require.NoError(t, err)
	require.Equal(t, []types.Row{{int64(0), nil}}, drain(t, rs))
	requireClosedOnce(t, tracked)

	cursors, _ = newCursors([]string{"cnt", "top"},
		[]types.Row{{int64(3), "b"}}, []types.Row{{int64(4), "c"}}, []types.Row{{int64(0), nil}})
	rs, err = New(context.Background(), spec, cursors)
	require.NoError(t, err)
	require.Equal(t, []types.Row{{int64(7), "c"}}, drain(t, rs))
	require.NoError(t, rs.Close())
}

func TestResolveByNameOnly(t *testing.T) {
	fields := []*types.Field{{Label: "oid", Name: "order_id"}}
	c0 := shard.NewRowsCursor(fields, idRows(1, 3))
	c1 := shard.NewRowsCursor(fields, idRows(2))
	spec := column.NewQuerySpec(nil, []column.OrderByItem{column.NewOrderByItem("o", "order_id", "", column.Desc)}, nil, nil)
	rs, err := New(context.Background(), spec, []shard.Cursor{c0, c1})
	require.Error(t, err)
	require.True(t, mergeerrors.ErrColumnNotResolved.Equal(err))
	require.Nil(t, rs)

	// A column selected without alias is labelled by its name.
	fields = []*types.Field{{Name: "order_id"}}
	c0 = shard.NewRowsCursor(fields, idRows(3, 1))
	c1 = shard.NewRowsCursor(fields, idRows(2))
	rs, err = New(context.Background(), spec, []shard.Cursor{c0, c1})
	require.NoError(t, err)
	require.Equal(t, 1, rs.Spec().OrderBy()[0].Index)
	require.Equal(t, idRows(3, 2, 1), drain(t, rs))
	require.NoError(t, rs.Close())
}

func TestUnknownColumnFailsBeforeReads(t *testing.T) {
	cursors, tracked := newCursors([]string{"id"}, idRows(1), idRows(2))
	spec := column.NewQuerySpec(nil, []column.OrderByItem{column.NewOrderByItem("", "missing", "", column.Asc)}, nil, nil)
	_, err := New(context.Background(), spec, cursors)
	require.True(t, mergeerrors.ErrColumnNotResolved.Equal(err))
	require.Contains(t, err.Error(), "missing")
	for _, c := range tracked {
		require.Zero(t, c.reads)
	}
	requireClosedOnce(t, tracked)
}

func TestEmptyShardSet(t *testing.T) {
	_, err := New(context.Background(), column.NewQuerySpec(nil, nil, nil, nil), nil)
	require.True(t, mergeerrors.ErrEmptyShardSet.Equal(err))

	cursors, tracked := newCursors([]string{"id"}, idRows(1))
	_, err = New(context.Background(), column.NewQuerySpec(nil, nil, nil, nil), append(cursors, nil))
	require.True(t, mergeerrors.ErrEmptyShardSet.Equal(err))
	requireClosedOnce(t, tracked)
}

func TestEarlyClose(t *testing.T) {
	cursors, tracked := newCursors([]string{"id"}, idRows(1, 4, 7), idRows(2, 5, 8), idRows(3, 6, 9))
	spec := column.NewQuerySpec(nil, []column.OrderByItem{column.NewOrderByItem("", "id", "", column.Asc)}, nil, nil)
	rs, err := New(context.Background(), spec, cursors)
	require.NoError(t, err)

	ctx := context.Background()
	for _, expected := range []int64{1, 2} {
		row, err := rs.Next(ctx)
		require.NoError(t, err)
		require.Equal(t, expected, row.GetByIndex(1))
	}
	reads := make([]int, 0, len(tracked))
	for _, c := range tracked {
		reads = append(reads, c.reads)
	}
	require.NoError(t, rs.Close())
	require.NoError(t, rs.Close())
	requireClosedOnce(t, tracked)

	_, err = rs.Next(ctx)
	require.True(t, mergeerrors.ErrResultSetClosed.Equal(err))
	for i, c := range tracked {
		require.Equal(t, reads[i], c.reads)
	}
}

func TestShardReadError(t *testing.T) {
	cursors, tracked := newCursors([]string{"id"}, idRows(1, 3), idRows(2, 4))
	tracked[1].readErr = errors.New("lost connection")
	tracked[1].failAt = 2
	spec := column.NewQuerySpec(nil, []column.OrderByItem{column.NewOrderByItem("", "id", "", column.Asc)}, nil, nil)
	rs, err := New(context.Background(), spec, cursors)
	require.NoError(t, err)

	ctx := context.Background()
	row, err := rs.Next(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1), row.GetByIndex(1))
	_, err = rs.Next(ctx)
	require.True(t, mergeerrors.ErrShardRead.Equal(err))
	requireClosedOnce(t, tracked)

	_, again := rs.Next(ctx)
	require.Equal(t, err, again)
	require.NoError(t, rs.Close())
	requireClosedOnce(t, tracked)
}

func TestContextCanceled(t *testing.T) {
	cursors, tracked := newCursors([]string{"id"}, idRows(1, 2), idRows(3))
	rs, err := New(context.Background(), column.NewQuerySpec(nil, nil, nil, nil), cursors)
	require.NoError(t, err)
	require.Equal(t, []strategy.StepKind{strategy.StepUnion}, rs.Plan().Kinds())

	ctx, cancel := context.WithCancel(context.Background())
	row, err := rs.Next(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1), row.GetByIndex(1))
	cancel()
	_, err = rs.Next(ctx)
	require.Equal(t, context.Canceled, errors.Cause(err))
	requireClosedOnce(t, tracked)
	require.NoError(t, rs.Close())
}

func TestBufferedRowsQuota(t *testing.T) {
	cursors, tracked := newCursors(avgLabels,
		[]types.Row{{int64(2), nil, int64(1), int64(1)}, {int64(1), nil, int64(1), int64(1)}},
		[]types.Row{{int64(3), nil, int64(1), int64(1)}},
	)
	spec := avgSpec(
		[]column.GroupByItem{column.NewGroupByItem("", "user_id", "", column.None)},
		[]column.OrderByItem{column.NewOrderByItem("", "AVG(price)", "", column.Desc)})
	rs, err := New(context.Background(), spec, cursors, WithConfig(&config.Merge{MaxBufferedRows: 2, AvgScale: 2}))
	require.NoError(t, err)
	_, err = rs.Next(context.Background())
	require.True(t, mergeerrors.ErrBufferedRowsExceeded.Equal(err))
	requireClosedOnce(t, tracked)
	require.NoError(t, rs.Close())

	cursors, tracked = newCursors([]string{"id"}, idRows(1))
	_, err = New(context.Background(), spec, cursors, WithConfig(&config.Merge{MaxBufferedRows: -1}))
	require.True(t, mergeerrors.ErrInvalidConfig.Equal(err))
	requireClosedOnce(t, tracked)
}

func TestMergeIDLogged(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	cursors, _ := newCursors([]string{"id"}, idRows(1))
	rs, err := New(context.Background(), column.NewQuerySpec(nil, nil, nil, nil), cursors, WithLogger(zap.New(core)))
	require.NoError(t, err)
	require.Len(t, drain(t, rs), 1)
	require.NoError(t, rs.Close())

	entries := logs.FilterField(zap.String(logutil.LogFieldMergeID, rs.ID())).All()
	require.GreaterOrEqual(t, len(entries), 2)
	require.Equal(t, "build merge plan", entries[0].Message)
	require.Equal(t, "Union", entries[0].ContextMap()["plan"])
}

func TestMergeIDReachesExecutors(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	cursors, _ := newCursors(avgLabels,
		[]types.Row{{int64(2), decimal.NewFromInt(2), int64(2), int64(1)}},
		[]types.Row{{int64(1), decimal.NewFromInt(5), int64(10), int64(2)}},
	)
	spec := avgSpec(
		[]column.GroupByItem{column.NewGroupByItem("", "user_id", "", column.None)},
		[]column.OrderByItem{column.NewOrderByItem("", "AVG(price)", "", column.Asc)})
	rs, err := New(context.Background(), spec, cursors, WithLogger(zap.New(core)))
	require.NoError(t, err)
	require.Len(t, drain(t, rs), 2)
	require.NoError(t, rs.Close())

	// One entry for the grouping sort and one for the final ordering.
	sorted := logs.FilterMessage("buffered sort finished").All()
	require.Len(t, sorted, 2)
	for _, entry := range sorted {
		fields := entry.ContextMap()
		require.Equal(t, rs.ID(), fields[logutil.LogFieldMergeID])
		require.Equal(t, "shard-merge", fields[logutil.LogFieldCategory])
	}
}

type failingCloseCursor struct {
	*shard.RowsCursor
}

func (*failingCloseCursor) Close() error {
	return errors.New("connection reset")
}

func TestCloseFailureLogsMergeID(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	cursors := []shard.Cursor{&failingCloseCursor{shard.NewRowsCursorWithLabels([]string{"id"}, idRows(1))}}
	spec := column.NewQuerySpec(nil, []column.OrderByItem{column.NewOrderByItem("", "missing", "", column.Asc)}, nil, nil)
	_, err := New(context.Background(), spec, cursors, WithLogger(zap.New(core)))
	require.True(t, mergeerrors.ErrColumnNotResolved.Equal(err))

	entries := logs.FilterMessage("close shard cursor failed").All()
	require.Len(t, entries, 1)
	require.NotEmpty(t, entries[0].ContextMap()[logutil.LogFieldMergeID])
	require.Equal(t, int64(0), entries[0].ContextMap()["shard"])
}

func TestDefaultAvgScale(t *testing.T) {
	cursors, _ := newCursors(avgLabels,
		[]types.Row{{int64(1), nil, int64(4), int64(1)}},
		[]types.Row{{int64(1), nil, int64(6), int64(2)}},
	)
	spec := avgSpec([]column.GroupByItem{column.NewGroupByItem("", "user_id", "", column.None)}, nil)
	rs, err := New(context.Background(), spec, cursors, WithConfig(&config.Merge{MaxBufferedRows: 1000}))
	require.NoError(t, err)
	rows := drain(t, rs)
	require.Len(t, rows, 1)
	require.Equal(t, "3.3333", rows[0].GetByIndex(2).(decimal.Decimal).String())
	require.NoError(t, rs.Close())
}

func TestMergeSpecialFloats(t *testing.T) {
	cursors, tracked := newCursors([]string{"score"},
		[]types.Row{{int64(1)}, {math.Inf(1)}},
		[]types.Row{{math.Inf(-1)}, {2.5}},
	)
	spec := column.NewQuerySpec(nil, []column.OrderByItem{column.NewOrderByItem("", "score", "", column.Asc)}, nil, nil)
	rs, err := New(context.Background(), spec, cursors)
	require.NoError(t, err)
	require.Equal(t, []types.Row{{math.Inf(-1)}, {int64(1)}, {2.5}, {math.Inf(1)}}, drain(t, rs))
	requireClosedOnce(t, tracked)
	require.NoError(t, rs.Close())
}

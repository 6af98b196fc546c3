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
	"slices"

	"github.com/pingcap/errors"
	"github.com/pingcap/failpoint"
	"github.com/pingcap/shardmerge/pkg/merger/column"
	"github.com/pingcap/shardmerge/pkg/merger/mergeerrors"
	"github.com/pingcap/shardmerge/pkg/metrics"
	"github.com/pingcap/shardmerge/pkg/types"
	"github.com/pingcap/shardmerge/pkg/util/logutil"
	"go.uber.org/zap"
)

// SortExec represents the buffered sort executor. It drains its child, sorts
// all the rows stably by the keys and then serves them in order.
type SortExec struct {
	baseExecutor
	cmp *rowComparator
	// maxRows is the buffered row quota, 0 means unlimited.
	maxRows int64

	fetched bool
	rows    []types.Row
	Idx     int
}

// NewSortExec creates a SortExec.
func NewSortExec(src Executor, keys []column.OrderByItem, maxRows int64) *SortExec {
	return &SortExec{
		baseExecutor: newBaseExecutor(src.Fields(), nil, src),
		cmp:          newRowComparator(keys),
		maxRows:      maxRows,
	}
}

// Next implements the Executor Next interface.
func (e *SortExec) Next(ctx context.Context) (types.Row, error) {
	if !e.fetched {
		if err := e.fetchRows(ctx); err != nil {
			return nil, err
		}
		if err := e.sortRows(); err != nil {
			return nil, err
		}
		e.fetched = true
		logutil.Logger(ctx).Debug("buffered sort finished", zap.Int("rows", len(e.rows)))
	}
	if e.Idx >= len(e.rows) {
		return nil, nil
	}
	row := e.rows[e.Idx]
	e.rows[e.Idx] = nil
	e.Idx++
	return row, nil
}

func (e *SortExec) fetchRows(ctx context.Context) error {
	defer func() {
		metrics.BufferedSortRowsHistogram.Observe(float64(len(e.rows)))
	}()
	for {
		failpoint.Inject("sortFetchError", func() {
			failpoint.Return(errors.New("injected sort fetch error"))
		})
		row, err := e.children[0].Next(ctx)
		if err != nil {
			return errors.Trace(err)
		}
		if row == nil {
			return nil
		}
		if e.maxRows > 0 && int64(len(e.rows)) >= e.maxRows {
			return errors.Trace(mergeerrors.ErrBufferedRowsExceeded.GenWithStackByArgs(e.maxRows))
		}
		e.rows = append(e.rows, row)
	}
}

func (e *SortExec) sortRows() error {
	var sortErr error
	slices.SortStableFunc(e.rows, func(a, b types.Row) int {
		cmp, err := e.cmp.compare(a, b)
		if err != nil && sortErr == nil {
			sortErr = err
		}
		return cmp
	})
	return errors.Trace(sortErr)
}

// Close implements the Executor Close interface.
func (e *SortExec) Close() error {
	e.rows = nil
	return e.baseExecutor.Close()
}

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

	"github.com/pingcap/shardmerge/pkg/types"
)

// RowsCursor is a Cursor over rows already materialized in memory.
type RowsCursor struct {
	fields     []*types.Field
	labelIndex map[string]int
	rows       []types.Row
	idx        int
}

// NewRowsCursor creates a RowsCursor. The rows are not copied.
func NewRowsCursor(fields []*types.Field, rows []types.Row) *RowsCursor {
	return &RowsCursor{
		fields:     fields,
		labelIndex: LabelIndexMapOf(fields),
		rows:       rows,
	}
}

// NewRowsCursorWithLabels creates a RowsCursor whose fields are the labels.
func NewRowsCursorWithLabels(labels []string, rows []types.Row) *RowsCursor {
	fields := make([]*types.Field, 0, len(labels))
	for _, l := range labels {
		fields = append(fields, &types.Field{Label: l, Name: l})
	}
	return NewRowsCursor(fields, rows)
}

// Fields implements the Cursor Fields interface.
func (c *RowsCursor) Fields() []*types.Field {
	return c.fields
}

// ColumnLabelIndexMap implements the Cursor ColumnLabelIndexMap interface.
func (c *RowsCursor) ColumnLabelIndexMap() map[string]int {
	return c.labelIndex
}

// Next implements the Cursor Next interface.
func (c *RowsCursor) Next(ctx context.Context) (types.Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if c.idx >= len(c.rows) {
		return nil, nil
	}
	row := c.rows[c.idx]
	c.idx++
	return row, nil
}

// Close implements the Cursor Close interface.
func (c *RowsCursor) Close() error {
	c.rows = nil
	return nil
}

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
	"database/sql"
	"strconv"
	"strings"

	"github.com/pingcap/errors"
	"github.com/pingcap/shardmerge/pkg/types"
	"github.com/shopspring/decimal"
)

// SQLCursor adapts *sql.Rows into a Cursor. Values that the driver returns as
// raw bytes are converted by the database type of their column, so rows of
// the text and the binary protocol compare the same way.
type SQLCursor struct {
	rows       *sql.Rows
	fields     []*types.Field
	labelIndex map[string]int
	dest       []any
	ptrs       []any
}

// NewSQLCursor creates a SQLCursor. The cursor takes the ownership of rows.
func NewSQLCursor(rows *sql.Rows) (*SQLCursor, error) {
	colTypes, err := rows.ColumnTypes()
	if err != nil {
		return nil, errors.Trace(multiClose(err, rows))
	}
	fields := make([]*types.Field, 0, len(colTypes))
	for _, ct := range colTypes {
		fields = append(fields, &types.Field{
			Label:    ct.Name(),
			Name:     ct.Name(),
			TypeName: strings.ToUpper(ct.DatabaseTypeName()),
		})
	}
	c := &SQLCursor{
		rows:       rows,
		fields:     fields,
		labelIndex: LabelIndexMapOf(fields),
		dest:       make([]any, len(fields)),
		ptrs:       make([]any, len(fields)),
	}
	for i := range c.dest {
		c.ptrs[i] = &c.dest[i]
	}
	return c, nil
}

func multiClose(err error, rows *sql.Rows) error {
	if closeErr := rows.Close(); closeErr != nil {
		return errors.Annotatef(err, "close rows: %v", closeErr)
	}
	return err
}

// Fields implements the Cursor Fields interface.
func (c *SQLCursor) Fields() []*types.Field {
	return c.fields
}

// ColumnLabelIndexMap implements the Cursor ColumnLabelIndexMap interface.
func (c *SQLCursor) ColumnLabelIndexMap() map[string]int {
	return c.labelIndex
}

// Next implements the Cursor Next interface.
func (c *SQLCursor) Next(ctx context.Context) (types.Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Trace(err)
	}
	if !c.rows.Next() {
		return nil, errors.Trace(c.rows.Err())
	}
	if err := c.rows.Scan(c.ptrs...); err != nil {
		return nil, errors.Trace(err)
	}
	row := make(types.Row, len(c.dest))
	for i, v := range c.dest {
		converted, err := convertValue(c.fields[i].TypeName, v)
		if err != nil {
			return nil, errors.Annotatef(err, "convert column %s", c.fields[i])
		}
		row[i] = converted
		c.dest[i] = nil
	}
	return row, nil
}

// Close implements the Cursor Close interface.
func (c *SQLCursor) Close() error {
	return errors.Trace(c.rows.Close())
}

func convertValue(typeName string, v any) (any, error) {
	b, ok := v.([]byte)
	if !ok {
		return v, nil
	}
	unsigned := strings.HasPrefix(typeName, "UNSIGNED ")
	switch strings.TrimPrefix(typeName, "UNSIGNED ") {
	case "TINYINT", "SMALLINT", "MEDIUMINT", "INT", "INTEGER", "BIGINT", "YEAR":
		if unsigned {
			u, err := strconv.ParseUint(string(b), 10, 64)
			return u, errors.Trace(err)
		}
		i, err := strconv.ParseInt(string(b), 10, 64)
		return i, errors.Trace(err)
	case "DECIMAL", "NUMERIC":
		d, err := decimal.NewFromString(string(b))
		return d, errors.Trace(err)
	case "FLOAT", "DOUBLE", "REAL":
		f, err := strconv.ParseFloat(string(b), 64)
		return f, errors.Trace(err)
	case "BINARY", "VARBINARY", "BLOB", "TINYBLOB", "MEDIUMBLOB", "LONGBLOB", "BIT", "GEOMETRY":
		return append([]byte(nil), b...), nil
	}
	return string(b), nil
}

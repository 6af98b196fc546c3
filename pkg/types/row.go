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

package types

import "fmt"

// Row is one record produced by a shard cursor or by a merge executor.
// Values are laid out positionally; the column with the 1-based physical
// index i is stored at Row[i-1]. A nil value is SQL NULL.
type Row []any

// Copy returns a shallow copy of the row. Byte slices are copied as well
// since drivers are allowed to reuse them between rows.
func (r Row) Copy() Row {
	c := make(Row, len(r))
	for i, v := range r {
		if b, ok := v.([]byte); ok {
			v = append([]byte(nil), b...)
		}
		c[i] = v
	}
	return c
}

// Len returns the number of values in the row.
func (r Row) Len() int {
	return len(r)
}

// GetByIndex returns the value of the column with the 1-based physical index.
func (r Row) GetByIndex(index int) any {
	return r[index-1]
}

// SetByIndex sets the value of the column with the 1-based physical index.
func (r Row) SetByIndex(index int, v any) {
	r[index-1] = v
}

// IsNull returns if the value with the 1-based physical index is null.
func (r Row) IsNull(index int) bool {
	return r[index-1] == nil
}

// String implements fmt.Stringer interface.
func (r Row) String() string {
	return fmt.Sprint([]any(r))
}

// Field is the column metadata of a shard result set. Merging never changes
// it: the merged result exposes the fields of the first shard.
type Field struct {
	// Label is the column label, the alias when the select item has one.
	Label string
	// Name is the original column name.
	Name string
	// Table is the table (or alias) owning the column, may be empty.
	Table string
	// TypeName is the database type name reported by the driver.
	TypeName string
}

// String implements fmt.Stringer interface.
func (f *Field) String() string {
	if f.Label != "" {
		return f.Label
	}
	return f.Name
}

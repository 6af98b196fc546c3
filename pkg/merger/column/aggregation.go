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

package column

import (
	"strings"

	"github.com/pingcap/errors"
)

// AggKind is the kind of an aggregate function.
type AggKind int

// Aggregate kinds.
const (
	Count AggKind = iota
	Sum
	Avg
	Max
	Min
)

// String implements fmt.Stringer interface.
func (k AggKind) String() string {
	switch k {
	case Count:
		return "COUNT"
	case Sum:
		return "SUM"
	case Avg:
		return "AVG"
	case Max:
		return "MAX"
	case Min:
		return "MIN"
	}
	return "UNKNOWN"
}

// ParseAggKind parses an aggregate function name (case insensitive).
func ParseAggKind(s string) (AggKind, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "COUNT":
		return Count, nil
	case "SUM":
		return Sum, nil
	case "AVG":
		return Avg, nil
	case "MAX":
		return Max, nil
	case "MIN":
		return Min, nil
	}
	return Count, errors.Errorf("unknown aggregate function %q", s)
}

// AggregationColumn is an aggregate select item. Derived lists, by arena
// position, the synthetic columns the shards compute so a composite aggregate
// can be rebuilt, e.g. AVG derives a SUM and a COUNT.
type AggregationColumn struct {
	Ref
	Kind    AggKind
	Derived []int
}

// Aggregations is an arena of aggregation columns. Roots are the columns of
// the original select list; derived columns only live in Columns.
type Aggregations struct {
	Columns []AggregationColumn
	Roots   []int
}

// AddRoot appends a top level aggregation column and returns its position.
func (a *Aggregations) AddRoot(kind AggKind, ref Ref) int {
	pos := a.add(kind, ref)
	a.Roots = append(a.Roots, pos)
	return pos
}

// AddDerived appends a column derived from the column at parent and returns
// its position.
func (a *Aggregations) AddDerived(parent int, kind AggKind, ref Ref) int {
	pos := a.add(kind, ref)
	a.Columns[parent].Derived = append(a.Columns[parent].Derived, pos)
	return pos
}

// AddAvg appends an AVG column with its derived SUM and COUNT.
func (a *Aggregations) AddAvg(ref, sumRef, countRef Ref) int {
	pos := a.AddRoot(Avg, ref)
	a.AddDerived(pos, Sum, sumRef)
	a.AddDerived(pos, Count, countRef)
	return pos
}

func (a *Aggregations) add(kind AggKind, ref Ref) int {
	a.Columns = append(a.Columns, AggregationColumn{Ref: ref, Kind: kind})
	return len(a.Columns) - 1
}

// Len returns the number of aggregation columns including derived ones.
func (a *Aggregations) Len() int {
	return len(a.Columns)
}

// Empty returns if there is no aggregation column.
func (a *Aggregations) Empty() bool {
	return len(a.Roots) == 0
}

// DerivedOf returns the first column derived from pos with the kind.
func (a *Aggregations) DerivedOf(pos int, kind AggKind) (*AggregationColumn, bool) {
	for _, d := range a.Columns[pos].Derived {
		if a.Columns[d].Kind == kind {
			return &a.Columns[d], true
		}
	}
	return nil, false
}

// Walk returns the positions of all columns reachable from the roots in
// breadth first order: a work queue is seeded with the roots and every
// dequeued column enqueues its direct derived columns.
func (a *Aggregations) Walk() []int {
	ret := make([]int, 0, len(a.Columns))
	visited := make([]bool, len(a.Columns))
	queue := append([]int(nil), a.Roots...)
	for len(queue) > 0 {
		pos := queue[0]
		queue = queue[1:]
		if visited[pos] {
			continue
		}
		visited[pos] = true
		ret = append(ret, pos)
		queue = append(queue, a.Columns[pos].Derived...)
	}
	return ret
}

func (a *Aggregations) clone() Aggregations {
	ret := Aggregations{
		Columns: make([]AggregationColumn, len(a.Columns)),
		Roots:   append([]int(nil), a.Roots...),
	}
	for i, col := range a.Columns {
		col.Derived = append([]int(nil), col.Derived...)
		ret.Columns[i] = col
	}
	return ret
}

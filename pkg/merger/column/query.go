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
	"github.com/pingcap/errors"
)

// Limit is the LIMIT clause of the logical query. A negative Count means
// there is no row count bound, only an offset.
type Limit struct {
	Offset int64
	Count  int64
}

// QuerySpec is the read-only merge description of one logical query, as
// produced by the SQL parsing layer.
type QuerySpec struct {
	groupBy      []GroupByItem
	orderBy      []OrderByItem
	aggregations Aggregations
	limit        *Limit

	implicitOrderBy bool
}

// NewQuerySpec creates a QuerySpec. The inputs are copied.
//
// A grouped query without ORDER BY is sent to the shards ordered by its group
// keys, so its order keys are the group keys reinterpreted as order keys.
func NewQuerySpec(groupBy []GroupByItem, orderBy []OrderByItem, aggregations *Aggregations, limit *Limit) *QuerySpec {
	spec := &QuerySpec{
		groupBy: append([]GroupByItem(nil), groupBy...),
		orderBy: append([]OrderByItem(nil), orderBy...),
	}
	for i := range spec.orderBy {
		if spec.orderBy[i].Direction == None {
			spec.orderBy[i].Direction = Asc
		}
	}
	if aggregations != nil {
		spec.aggregations = aggregations.clone()
	}
	if limit != nil {
		l := *limit
		spec.limit = &l
	}
	if len(spec.orderBy) == 0 && len(spec.groupBy) > 0 {
		spec.orderBy = GroupKeysAsOrderKeys(spec.groupBy)
		spec.implicitOrderBy = true
	}
	return spec
}

// HasGroupBy returns if the query has a GROUP BY clause.
func (s *QuerySpec) HasGroupBy() bool {
	return len(s.groupBy) > 0
}

// HasOrderBy returns if the query has order keys.
func (s *QuerySpec) HasOrderBy() bool {
	return len(s.orderBy) > 0
}

// HasAggregation returns if the query selects aggregate functions.
func (s *QuerySpec) HasAggregation() bool {
	return !s.aggregations.Empty()
}

// ImplicitOrderBy returns if the order keys were derived from the group keys.
func (s *QuerySpec) ImplicitOrderBy() bool {
	return s.implicitOrderBy
}

// GroupBy returns the group keys. The slice must not be modified.
func (s *QuerySpec) GroupBy() []GroupByItem {
	return s.groupBy
}

// OrderBy returns the order keys. The slice must not be modified.
func (s *QuerySpec) OrderBy() []OrderByItem {
	return s.orderBy
}

// Aggregations returns the aggregation arena. It must not be modified.
func (s *QuerySpec) Aggregations() *Aggregations {
	return &s.aggregations
}

// Limit returns the LIMIT clause, nil when the query has none.
func (s *QuerySpec) Limit() *Limit {
	return s.limit
}

// Resolved returns if every column reference has a physical index.
func (s *QuerySpec) Resolved() bool {
	for i := range s.groupBy {
		if !s.groupBy[i].Resolved() {
			return false
		}
	}
	for i := range s.orderBy {
		if !s.orderBy[i].Resolved() {
			return false
		}
	}
	for _, pos := range s.aggregations.Walk() {
		if !s.aggregations.Columns[pos].Resolved() {
			return false
		}
	}
	return true
}

// Resolve assigns a physical index to every unresolved column reference of the
// group keys, the order keys and the aggregation columns, derived ones
// included. The label is looked up first, then the name. It returns a new,
// fully resolved QuerySpec and leaves s untouched.
func (s *QuerySpec) Resolve(labelIndex map[string]int) (*QuerySpec, error) {
	ret := &QuerySpec{
		groupBy:         append([]GroupByItem(nil), s.groupBy...),
		orderBy:         append([]OrderByItem(nil), s.orderBy...),
		aggregations:    s.aggregations.clone(),
		limit:           s.limit,
		implicitOrderBy: s.implicitOrderBy,
	}
	for i := range ret.groupBy {
		if err := ret.groupBy[i].resolve(labelIndex); err != nil {
			return nil, errors.Annotate(err, "resolve group by")
		}
	}
	for i := range ret.orderBy {
		if err := ret.orderBy[i].resolve(labelIndex); err != nil {
			return nil, errors.Annotate(err, "resolve order by")
		}
	}
	for _, pos := range ret.aggregations.Walk() {
		col := &ret.aggregations.Columns[pos]
		if err := col.resolve(labelIndex); err != nil {
			return nil, errors.Annotatef(err, "resolve %s", col.Kind)
		}
	}
	return ret, nil
}

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

package config

import (
	"github.com/pingcap/errors"
	"github.com/pingcap/shardmerge/pkg/merger/column"
)

// QuerySpec converts the query section into the merge description of the
// query. Column indices are left unresolved.
func (q *Query) QuerySpec() (*column.QuerySpec, error) {
	groupBy := make([]column.GroupByItem, 0, len(q.GroupBy))
	for _, item := range q.GroupBy {
		dir, err := column.ParseDirection(item.Direction)
		if err != nil {
			return nil, errors.Trace(err)
		}
		groupBy = append(groupBy, column.NewGroupByItem(item.Owner, item.Column, item.Alias, dir))
	}
	orderBy := make([]column.OrderByItem, 0, len(q.OrderBy))
	for _, item := range q.OrderBy {
		dir, err := column.ParseDirection(item.Direction)
		if err != nil {
			return nil, errors.Trace(err)
		}
		orderBy = append(orderBy, column.NewOrderByItem(item.Owner, item.Column, item.Alias, dir))
	}
	aggs := &column.Aggregations{}
	for _, agg := range q.Aggregations {
		kind, err := column.ParseAggKind(agg.Kind)
		if err != nil {
			return nil, errors.Trace(err)
		}
		pos := aggs.AddRoot(kind, agg.ref())
		if err = addDerived(aggs, pos, agg.Derived); err != nil {
			return nil, err
		}
	}
	var limit *column.Limit
	if q.Offset > 0 || q.Limit >= 0 {
		limit = &column.Limit{Offset: q.Offset, Count: q.Limit}
	}
	return column.NewQuerySpec(groupBy, orderBy, aggs, limit), nil
}

func addDerived(aggs *column.Aggregations, parent int, derived []Aggregation) error {
	for _, agg := range derived {
		kind, err := column.ParseAggKind(agg.Kind)
		if err != nil {
			return errors.Trace(err)
		}
		pos := aggs.AddDerived(parent, kind, agg.ref())
		if err = addDerived(aggs, pos, agg.Derived); err != nil {
			return err
		}
	}
	return nil
}

func (a *Aggregation) ref() column.Ref {
	return column.Ref{Owner: a.Owner, Label: a.Label, Name: a.Name}
}

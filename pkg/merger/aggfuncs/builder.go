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

package aggfuncs

import (
	"github.com/pingcap/errors"
	"github.com/pingcap/shardmerge/pkg/merger/column"
)

// DefaultAvgScale is the number of fractional digits AVG rounds to.
const DefaultAvgScale int32 = 4

// Build creates the aggregate functions of every column of a resolved
// aggregation arena, derived columns included, in breadth first order.
func Build(aggs *column.Aggregations, avgScale int32) ([]AggFunc, error) {
	positions := aggs.Walk()
	ret := make([]AggFunc, 0, len(positions))
	for _, pos := range positions {
		f, err := build(aggs, pos, avgScale)
		if err != nil {
			return nil, err
		}
		ret = append(ret, f)
	}
	return ret, nil
}

func build(aggs *column.Aggregations, pos int, avgScale int32) (AggFunc, error) {
	col := &aggs.Columns[pos]
	if !col.Resolved() {
		return nil, errors.Errorf("aggregation column %s is not resolved", col.String())
	}
	base := baseAggFunc{name: col.Kind.String(), ordinal: col.Index - 1}
	switch col.Kind {
	case column.Count:
		return &count{base}, nil
	case column.Sum:
		return &sum{base}, nil
	case column.Max:
		return &maxMin{base, true}, nil
	case column.Min:
		return &maxMin{base, false}, nil
	case column.Avg:
		return buildAvg(aggs, pos, base, avgScale)
	}
	return nil, errors.Errorf("unknown aggregate function %s", col.Kind)
}

func buildAvg(aggs *column.Aggregations, pos int, base baseAggFunc, avgScale int32) (AggFunc, error) {
	col := &aggs.Columns[pos]
	sumCol, ok := aggs.DerivedOf(pos, column.Sum)
	if !ok || !sumCol.Resolved() {
		return nil, errors.Errorf("AVG column %s has no derived SUM column", col.String())
	}
	countCol, ok := aggs.DerivedOf(pos, column.Count)
	if !ok || !countCol.Resolved() {
		return nil, errors.Errorf("AVG column %s has no derived COUNT column", col.String())
	}
	if avgScale < 0 {
		avgScale = DefaultAvgScale
	}
	return &avg{
		baseAggFunc:  base,
		sumOrdinal:   sumCol.Index - 1,
		countOrdinal: countCol.Index - 1,
		scale:        avgScale,
	}, nil
}

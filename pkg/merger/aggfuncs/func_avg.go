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
	"github.com/pingcap/shardmerge/pkg/types"
	"github.com/shopspring/decimal"
)

type partialResult4Avg struct {
	sum   decimal.Decimal
	count decimal.Decimal
}

// avg rebuilds an average from the SUM and COUNT columns derived from it. The
// shard averages themselves can not be combined.
type avg struct {
	baseAggFunc
	sumOrdinal   int
	countOrdinal int
	scale        int32
}

func (*avg) AllocPartialResult() PartialResult {
	return PartialResult(new(partialResult4Avg))
}

func (*avg) ResetPartialResult(pr PartialResult) {
	p := (*partialResult4Avg)(pr)
	p.sum = decimal.Zero
	p.count = decimal.Zero
}

func (e *avg) UpdatePartialResult(row types.Row, pr PartialResult) error {
	p := (*partialResult4Avg)(pr)
	s, isNull, err := types.ToDecimalFor(e.name, row[e.sumOrdinal])
	if err != nil {
		return errors.Trace(err)
	}
	if !isNull {
		p.sum = p.sum.Add(s)
	}
	c, isNull, err := types.ToDecimalFor(e.name, row[e.countOrdinal])
	if err != nil {
		return errors.Trace(err)
	}
	if !isNull {
		p.count = p.count.Add(c)
	}
	return nil
}

func (e *avg) AppendFinalResult(pr PartialResult, row types.Row) error {
	p := (*partialResult4Avg)(pr)
	if p.count.IsZero() {
		row[e.ordinal] = nil
		return nil
	}
	row[e.ordinal] = p.sum.DivRound(p.count, e.scale)
	return nil
}

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

type partialResult4Sum struct {
	val    decimal.Decimal
	isNull bool
}

// sum adds up the shard sums. It is NULL when every input is NULL.
type sum struct {
	baseAggFunc
}

func (*sum) AllocPartialResult() PartialResult {
	p := new(partialResult4Sum)
	p.isNull = true
	return PartialResult(p)
}

func (*sum) ResetPartialResult(pr PartialResult) {
	p := (*partialResult4Sum)(pr)
	p.val = decimal.Zero
	p.isNull = true
}

func (e *sum) UpdatePartialResult(row types.Row, pr PartialResult) error {
	p := (*partialResult4Sum)(pr)
	input, isNull, err := types.ToDecimalFor(e.name, e.input(row))
	if err != nil {
		return errors.Trace(err)
	}
	if isNull {
		return nil
	}
	if p.isNull {
		p.val = input
		p.isNull = false
		return nil
	}
	p.val = p.val.Add(input)
	return nil
}

func (e *sum) AppendFinalResult(pr PartialResult, row types.Row) error {
	p := (*partialResult4Sum)(pr)
	if p.isNull {
		row[e.ordinal] = nil
		return nil
	}
	row[e.ordinal] = p.val
	return nil
}

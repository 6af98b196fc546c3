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

type partialResult4Count struct {
	val decimal.Decimal
}

// count adds up the shard counts. The result is never NULL.
type count struct {
	baseAggFunc
}

func (*count) AllocPartialResult() PartialResult {
	return PartialResult(new(partialResult4Count))
}

func (*count) ResetPartialResult(pr PartialResult) {
	p := (*partialResult4Count)(pr)
	p.val = decimal.Zero
}

func (e *count) UpdatePartialResult(row types.Row, pr PartialResult) error {
	p := (*partialResult4Count)(pr)
	input, isNull, err := types.ToDecimalFor(e.name, e.input(row))
	if err != nil {
		return errors.Trace(err)
	}
	if isNull {
		return nil
	}
	p.val = p.val.Add(input)
	return nil
}

func (e *count) AppendFinalResult(pr PartialResult, row types.Row) error {
	p := (*partialResult4Count)(pr)
	if p.val.IsInteger() && p.val.Cmp(maxInt64) <= 0 {
		row[e.ordinal] = p.val.IntPart()
		return nil
	}
	row[e.ordinal] = p.val
	return nil
}

var maxInt64 = decimal.NewFromInt(1<<63 - 1)

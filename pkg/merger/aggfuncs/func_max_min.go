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
)

type partialResult4MaxMin struct {
	val    any
	isNull bool
}

// maxMin keeps the extremum of the shard values by types.Compare.
type maxMin struct {
	baseAggFunc
	isMax bool
}

func (*maxMin) AllocPartialResult() PartialResult {
	p := new(partialResult4MaxMin)
	p.isNull = true
	return PartialResult(p)
}

func (*maxMin) ResetPartialResult(pr PartialResult) {
	p := (*partialResult4MaxMin)(pr)
	p.val = nil
	p.isNull = true
}

func (e *maxMin) UpdatePartialResult(row types.Row, pr PartialResult) error {
	p := (*partialResult4MaxMin)(pr)
	input := e.input(row)
	if input == nil {
		return nil
	}
	if p.isNull {
		p.val, p.isNull = copyValue(input), false
		return nil
	}
	cmp, err := types.Compare(input, p.val)
	if err != nil {
		return errors.Annotatef(err, "%s", e.name)
	}
	if e.isMax && cmp > 0 || !e.isMax && cmp < 0 {
		p.val = copyValue(input)
	}
	return nil
}

func (e *maxMin) AppendFinalResult(pr PartialResult, row types.Row) error {
	p := (*partialResult4MaxMin)(pr)
	if p.isNull {
		row[e.ordinal] = nil
		return nil
	}
	row[e.ordinal] = p.val
	return nil
}

func copyValue(v any) any {
	if b, ok := v.([]byte); ok {
		return append([]byte(nil), b...)
	}
	return v
}

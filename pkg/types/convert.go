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

import (
	"math"
	"math/big"
	"strings"

	"github.com/pingcap/errors"
	"github.com/pingcap/shardmerge/pkg/merger/mergeerrors"
	"github.com/shopspring/decimal"
)

// ToDecimal converts a column value into a decimal for numeric aggregation.
// Strings and byte slices are parsed since text protocol drivers return
// numeric columns that way. isNull is true for SQL NULL.
func ToDecimal(v any) (d decimal.Decimal, isNull bool, err error) {
	return toDecimal("", v)
}

// ToDecimalFor is ToDecimal with the aggregate function name recorded in the
// returned error.
func ToDecimalFor(fnName string, v any) (decimal.Decimal, bool, error) {
	return toDecimal(fnName, v)
}

func toDecimal(fnName string, v any) (decimal.Decimal, bool, error) {
	switch x := v.(type) {
	case nil:
		return decimal.Zero, true, nil
	case decimal.Decimal:
		return x, false, nil
	case *decimal.Decimal:
		if x == nil {
			return decimal.Zero, true, nil
		}
		return *x, false, nil
	case int, int8, int16, int32, int64:
		return decimal.NewFromInt(toInt64(x)), false, nil
	case uint8, uint16, uint32:
		return decimal.NewFromInt(int64(toUint64(x))), false, nil
	case uint, uint64:
		return decimal.NewFromBigInt(new(big.Int).SetUint64(toUint64(x)), 0), false, nil
	case float32:
		if isSpecialFloat(float64(x)) {
			break
		}
		return decimal.NewFromFloat32(x), false, nil
	case float64:
		if isSpecialFloat(x) {
			break
		}
		return decimal.NewFromFloat(x), false, nil
	case string:
		return parseDecimal(fnName, x, v)
	case []byte:
		return parseDecimal(fnName, string(x), v)
	}
	return decimal.Zero, false, errors.Trace(mergeerrors.ErrAggregationType.GenWithStackByArgs(fnNameOrValue(fnName), v, v))
}

// isSpecialFloat reports NaN and infinities, which have no decimal value.
func isSpecialFloat(f float64) bool {
	return math.IsNaN(f) || math.IsInf(f, 0)
}

func parseDecimal(fnName, s string, origin any) (decimal.Decimal, bool, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, false, errors.Trace(mergeerrors.ErrAggregationType.GenWithStackByArgs(fnNameOrValue(fnName), origin, origin))
	}
	return d, false, nil
}

func fnNameOrValue(fnName string) string {
	if fnName == "" {
		return "numeric conversion"
	}
	return fnName
}

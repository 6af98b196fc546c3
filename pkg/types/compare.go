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
	"bytes"
	"cmp"
	"strings"
	"time"

	"github.com/pingcap/errors"
	"github.com/pingcap/shardmerge/pkg/merger/mergeerrors"
	"github.com/shopspring/decimal"
)

type valueKind int

const (
	kindNull valueKind = iota
	kindInt
	kindUint
	kindFloat
	kindDecimal
	kindString
	kindBytes
	kindTime
	kindBool
	kindOther
)

func classify(v any) valueKind {
	switch v.(type) {
	case nil:
		return kindNull
	case int, int8, int16, int32, int64:
		return kindInt
	case uint, uint8, uint16, uint32, uint64:
		return kindUint
	case float32, float64:
		return kindFloat
	case decimal.Decimal, *decimal.Decimal:
		return kindDecimal
	case string:
		return kindString
	case []byte:
		return kindBytes
	case time.Time:
		return kindTime
	case bool:
		return kindBool
	}
	return kindOther
}

func isNumericKind(k valueKind) bool {
	return k == kindInt || k == kindUint || k == kindFloat || k == kindDecimal
}

// Compare compares two column values and returns -1, 0 or 1.
// NULL is greater than every non-NULL value and equal to NULL, so NULLs sort
// last in ascending order and first in descending order.
func Compare(a, b any) (int, error) {
	ka, kb := classify(a), classify(b)
	switch {
	case ka == kindNull && kb == kindNull:
		return 0, nil
	case ka == kindNull:
		return 1, nil
	case kb == kindNull:
		return -1, nil
	}

	if isNumericKind(ka) && isNumericKind(kb) {
		return compareNumeric(a, b, ka, kb), nil
	}
	switch {
	case ka == kindString && kb == kindString:
		return strings.Compare(a.(string), b.(string)), nil
	case (ka == kindString || ka == kindBytes) && (kb == kindString || kb == kindBytes):
		return bytes.Compare(toBytes(a), toBytes(b)), nil
	case ka == kindTime && kb == kindTime:
		return a.(time.Time).Compare(b.(time.Time)), nil
	case ka == kindBool && kb == kindBool:
		return compareBool(a.(bool), b.(bool)), nil
	}
	return 0, errors.Trace(mergeerrors.ErrIncomparable.GenWithStackByArgs(a, a, b, b))
}

func compareNumeric(a, b any, ka, kb valueKind) int {
	if ka == kb {
		switch ka {
		case kindInt:
			return cmp.Compare(toInt64(a), toInt64(b))
		case kindUint:
			return cmp.Compare(toUint64(a), toUint64(b))
		case kindFloat:
			return cmp.Compare(toFloat64(a), toFloat64(b))
		}
	}
	// NaN and infinities have no decimal value. cmp.Compare orders NaN
	// before every other float.
	if fa, ok := specialFloat(a); ok {
		return cmp.Compare(fa, numericToFloat64(b))
	}
	if fb, ok := specialFloat(b); ok {
		return cmp.Compare(numericToFloat64(a), fb)
	}
	// Other mixed kinds are compared exactly through decimal. Conversion of a
	// finite numeric value can not fail.
	da, _, _ := ToDecimal(a)
	db, _, _ := ToDecimal(b)
	return da.Cmp(db)
}

func specialFloat(v any) (float64, bool) {
	switch v.(type) {
	case float32, float64:
		f := toFloat64(v)
		return f, isSpecialFloat(f)
	}
	return 0, false
}

func numericToFloat64(v any) float64 {
	switch v.(type) {
	case float32, float64:
		return toFloat64(v)
	}
	d, _, _ := ToDecimal(v)
	return d.InexactFloat64()
}

func compareBool(a, b bool) int {
	switch {
	case a == b:
		return 0
	case !a:
		return -1
	}
	return 1
}

func toBytes(v any) []byte {
	if s, ok := v.(string); ok {
		return []byte(s)
	}
	return v.([]byte)
}

func toInt64(v any) int64 {
	switch x := v.(type) {
	case int:
		return int64(x)
	case int8:
		return int64(x)
	case int16:
		return int64(x)
	case int32:
		return int64(x)
	case int64:
		return x
	}
	return 0
}

func toUint64(v any) uint64 {
	switch x := v.(type) {
	case uint:
		return uint64(x)
	case uint8:
		return uint64(x)
	case uint16:
		return uint64(x)
	case uint32:
		return uint64(x)
	case uint64:
		return x
	}
	return 0
}

func toFloat64(v any) float64 {
	switch x := v.(type) {
	case float32:
		return float64(x)
	case float64:
		return x
	}
	return 0
}

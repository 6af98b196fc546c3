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
	"testing"
	"time"

	"github.com/pingcap/shardmerge/pkg/merger/mergeerrors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestCompare(t *testing.T) {
	now := time.Now()
	tests := []struct {
		a, b any
		ret  int
	}{
		{nil, nil, 0},
		{nil, int64(1), 1},
		{int64(1), nil, -1},
		{int64(1), int64(2), -1},
		{int32(7), int64(7), 0},
		{uint64(10), uint8(9), 1},
		{1.5, float32(1.5), 0},
		{int64(2), 1.5, 1},
		{uint64(1 << 63), int64(-1), 1},
		{decimal.RequireFromString("1.10"), 1.1, 0},
		{decimal.RequireFromString("3"), int64(4), -1},
		{"a", "b", -1},
		{"b", []byte("a"), 1},
		{[]byte("abc"), []byte("abc"), 0},
		{now, now.Add(time.Second), -1},
		{true, false, 1},
		{false, false, 0},
	}
	for _, tt := range tests {
		ret, err := Compare(tt.a, tt.b)
		require.NoError(t, err)
		require.Equalf(t, tt.ret, ret, "compare %v with %v", tt.a, tt.b)
	}
}

func TestCompareSpecialFloats(t *testing.T) {
	inf, nan := math.Inf(1), math.NaN()
	tests := []struct {
		a, b any
		ret  int
	}{
		{int64(1), inf, -1},
		{inf, int64(1), 1},
		{decimal.NewFromInt(-5), math.Inf(-1), 1},
		{uint64(3), float32(math.Inf(1)), -1},
		{nan, int64(0), -1},
		{int64(0), nan, 1},
		{nan, nan, 0},
		{inf, inf, 0},
		{nil, nan, 1},
	}
	for _, tt := range tests {
		ret, err := Compare(tt.a, tt.b)
		require.NoError(t, err)
		require.Equalf(t, tt.ret, ret, "compare %v with %v", tt.a, tt.b)
	}

	for _, v := range []any{nan, math.Inf(1), math.Inf(-1), float32(math.NaN())} {
		_, _, err := ToDecimalFor("SUM", v)
		require.Truef(t, mergeerrors.ErrAggregationType.Equal(err), "value %v", v)
	}
}

func TestCompareIncomparable(t *testing.T) {
	_, err := Compare("a", int64(1))
	require.Error(t, err)
	require.True(t, mergeerrors.ErrIncomparable.Equal(err))

	_, err = Compare(struct{}{}, struct{}{})
	require.True(t, mergeerrors.ErrIncomparable.Equal(err))
}

func TestToDecimal(t *testing.T) {
	d, isNull, err := ToDecimal(nil)
	require.NoError(t, err)
	require.True(t, isNull)
	require.True(t, d.IsZero())

	for _, v := range []any{int64(12), uint16(12), "12", []byte(" 12 "), 12.0, decimal.NewFromInt(12)} {
		d, isNull, err = ToDecimal(v)
		require.NoError(t, err)
		require.False(t, isNull)
		require.Truef(t, d.Equal(decimal.NewFromInt(12)), "value %v", v)
	}

	d, _, err = ToDecimal(uint64(1<<64 - 1))
	require.NoError(t, err)
	require.Equal(t, "18446744073709551615", d.String())

	_, _, err = ToDecimalFor("SUM", "abc")
	require.True(t, mergeerrors.ErrAggregationType.Equal(err))
	require.Contains(t, err.Error(), "SUM")

	_, _, err = ToDecimal(time.Now())
	require.True(t, mergeerrors.ErrAggregationType.Equal(err))
}

func TestRowAccessors(t *testing.T) {
	b := []byte("x")
	r := Row{int64(1), nil, b}
	require.Equal(t, 3, r.Len())
	require.Equal(t, int64(1), r.GetByIndex(1))
	require.True(t, r.IsNull(2))

	c := r.Copy()
	b[0] = 'y'
	require.Equal(t, []byte("x"), c.GetByIndex(3))

	c.SetByIndex(2, "v")
	require.True(t, r.IsNull(2))
	require.Equal(t, "v", c.GetByIndex(2))
}

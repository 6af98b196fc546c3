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

package executor

import (
	"github.com/pingcap/errors"
	"github.com/pingcap/shardmerge/pkg/merger/column"
	"github.com/pingcap/shardmerge/pkg/types"
)

// rowComparator compares rows by resolved keys in precedence order.
type rowComparator struct {
	keys []column.OrderByItem
}

func newRowComparator(keys []column.OrderByItem) *rowComparator {
	return &rowComparator{keys: keys}
}

func (c *rowComparator) compare(a, b types.Row) (int, error) {
	for i := range c.keys {
		key := &c.keys[i]
		cmp, err := types.Compare(a.GetByIndex(key.Index), b.GetByIndex(key.Index))
		if err != nil {
			return 0, errors.Annotatef(err, "compare key %s", key.String())
		}
		if cmp == 0 {
			continue
		}
		if key.Direction == column.Desc {
			return -cmp, nil
		}
		return cmp, nil
	}
	return 0, nil
}

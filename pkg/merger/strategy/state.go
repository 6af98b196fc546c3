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

package strategy

import (
	"github.com/pingcap/shardmerge/pkg/merger/column"
)

// Ordering tells which key list currently orders the merged rows.
type Ordering int

const (
	// UsingOrderKeys means the rows are ordered by the query order keys.
	UsingOrderKeys Ordering = iota
	// UsingGroupKeys means the rows are ordered by the group keys.
	UsingGroupKeys
)

// String implements fmt.Stringer interface.
func (o Ordering) String() string {
	if o == UsingGroupKeys {
		return "group keys"
	}
	return "order keys"
}

// MergeState tracks the key ordering of the rows flowing out of the merge
// pipeline built so far. The active keys are always derived from the tag, so
// they are either the query order keys or the group keys as order keys.
type MergeState struct {
	spec     *column.QuerySpec
	ordering Ordering
	plan     *Plan
}

// NewMergeState creates a MergeState for a resolved QuerySpec. The shards
// return rows ordered by the query order keys, so that is the initial tag.
func NewMergeState(spec *column.QuerySpec) *MergeState {
	return &MergeState{spec: spec, ordering: UsingOrderKeys}
}

// Spec returns the query spec.
func (s *MergeState) Spec() *column.QuerySpec {
	return s.spec
}

// Ordering returns the current tag.
func (s *MergeState) Ordering() Ordering {
	return s.ordering
}

// ActiveKeys returns the keys the rows are currently ordered by.
func (s *MergeState) ActiveKeys() []column.OrderByItem {
	if s.ordering == UsingGroupKeys {
		return column.GroupKeysAsOrderKeys(s.spec.GroupBy())
	}
	return s.spec.OrderBy()
}

// NeedsBufferedSortForGrouping reports whether the rows must be re-sorted
// before equal group keys become adjacent.
func (s *MergeState) NeedsBufferedSortForGrouping() bool {
	return s.spec.HasGroupBy() &&
		!column.EqualOrderBy(s.ActiveKeys(), column.GroupKeysAsOrderKeys(s.spec.GroupBy()))
}

// SwitchToGroupOrdering records that the rows are now ordered by the group keys.
func (s *MergeState) SwitchToGroupOrdering() {
	s.ordering = UsingGroupKeys
}

// NeedsBufferedSortForOrdering reports whether the rows must be re-sorted to
// follow the query order keys.
func (s *MergeState) NeedsBufferedSortForOrdering() bool {
	return s.spec.HasOrderBy() && !column.EqualOrderBy(s.ActiveKeys(), s.spec.OrderBy())
}

// SwitchToQueryOrdering records that the rows are now ordered by the query
// order keys.
func (s *MergeState) SwitchToQueryOrdering() {
	s.ordering = UsingOrderKeys
}

// GroupingSortKeys returns the keys of the sort that groups the rows: the
// group keys followed by the order keys on columns not grouped by. Rows of one
// group stay adjacent and keep the query order inside the group.
func (s *MergeState) GroupingSortKeys() []column.OrderByItem {
	keys := column.GroupKeysAsOrderKeys(s.spec.GroupBy())
	for _, item := range s.spec.OrderBy() {
		if !containsColumn(keys, &item) {
			keys = append(keys, item)
		}
	}
	return keys
}

func containsColumn(keys []column.OrderByItem, item *column.OrderByItem) bool {
	for i := range keys {
		if item.Resolved() && keys[i].Index == item.Index {
			return true
		}
		if !item.Resolved() && keys[i].Owner == item.Owner &&
			keys[i].Label == item.Label && keys[i].Name == item.Name {
			return true
		}
	}
	return false
}

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

package column

import (
	"strconv"
	"strings"

	"github.com/pingcap/errors"
	"github.com/pingcap/shardmerge/pkg/merger/mergeerrors"
)

// Direction is the sort direction of an ORDER BY or GROUP BY item.
type Direction int

// Directions.
const (
	None Direction = iota
	Asc
	Desc
)

// String implements fmt.Stringer interface.
func (d Direction) String() string {
	switch d {
	case None:
		return "NONE"
	case Asc:
		return "ASC"
	case Desc:
		return "DESC"
	}
	return strconv.Itoa(int(d))
}

// ParseDirection parses asc/desc (case insensitive). An empty string is None.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "":
		return None, nil
	case "ASC":
		return Asc, nil
	case "DESC":
		return Desc, nil
	}
	return None, errors.Errorf("unknown sort direction %q", s)
}

// Ref is a logical reference to a column of the shard result sets.
// Index is the 1-based physical position, 0 until the reference is resolved.
type Ref struct {
	Owner     string
	Label     string
	Name      string
	Direction Direction
	Index     int
}

// Resolved returns if the reference has a physical index.
func (r *Ref) Resolved() bool {
	return r.Index > 0
}

// String implements fmt.Stringer interface.
func (r *Ref) String() string {
	var sb strings.Builder
	if r.Owner != "" {
		sb.WriteString(r.Owner)
		sb.WriteByte('.')
	}
	sb.WriteString(r.Name)
	if r.Label != "" {
		if r.Name != "" {
			sb.WriteString(" AS ")
		}
		sb.WriteString(r.Label)
	}
	if r.Index > 0 {
		sb.WriteString("#")
		sb.WriteString(strconv.Itoa(r.Index))
	}
	return sb.String()
}

// equal compares two references structurally: owner, label, name, direction
// and physical index must all match.
func (r *Ref) equal(o *Ref) bool {
	return r.Owner == o.Owner && r.Label == o.Label && r.Name == o.Name &&
		r.Direction == o.Direction && r.Index == o.Index
}

// resolve looks the label up first and then the name. A positive index is
// never reassigned.
func (r *Ref) resolve(labelIndex map[string]int) error {
	if r.Resolved() {
		return nil
	}
	if idx, ok := lookup(labelIndex, r.Label); ok {
		r.Index = idx
		return nil
	}
	if idx, ok := lookup(labelIndex, r.Name); ok {
		r.Index = idx
		return nil
	}
	return errors.Trace(mergeerrors.ErrColumnNotResolved.GenWithStackByArgs(r.String()))
}

// lookup finds key in the label map, falling back to a case insensitive
// match since MySQL column labels are case insensitive. Among labels that
// differ only by case the leftmost column wins.
func lookup(labelIndex map[string]int, key string) (int, bool) {
	if key == "" {
		return 0, false
	}
	if idx, ok := labelIndex[key]; ok && idx > 0 {
		return idx, true
	}
	found := 0
	for label, idx := range labelIndex {
		if idx > 0 && (found == 0 || idx < found) && strings.EqualFold(label, key) {
			found = idx
		}
	}
	return found, found > 0
}

// OrderByItem is an ORDER BY key. Its direction is never None.
type OrderByItem struct {
	Ref
}

// NewOrderByItem creates an ORDER BY key, None direction is treated as Asc.
func NewOrderByItem(owner, name, alias string, direction Direction) OrderByItem {
	if direction == None {
		direction = Asc
	}
	return OrderByItem{Ref: Ref{Owner: owner, Name: name, Label: alias, Direction: direction}}
}

// GroupByItem is a GROUP BY key. It has the same shape as OrderByItem so the
// two can be compared structurally.
type GroupByItem struct {
	Ref
}

// NewGroupByItem creates a GROUP BY key.
func NewGroupByItem(owner, name, alias string, direction Direction) GroupByItem {
	return GroupByItem{Ref: Ref{Owner: owner, Name: name, Label: alias, Direction: direction}}
}

// ToOrderBy reinterprets the group key as an order key: same owner, name,
// label and physical index, ascending unless the group key has a direction.
func (g *GroupByItem) ToOrderBy() OrderByItem {
	ref := g.Ref
	if ref.Direction == None {
		ref.Direction = Asc
	}
	return OrderByItem{Ref: ref}
}

// GroupKeysAsOrderKeys converts the group keys positionally to order keys.
func GroupKeysAsOrderKeys(items []GroupByItem) []OrderByItem {
	ret := make([]OrderByItem, 0, len(items))
	for i := range items {
		ret = append(ret, items[i].ToOrderBy())
	}
	return ret
}

// EqualOrderBy reports whether two key lists are structurally equal. Order
// matters since it decides the comparator precedence.
func EqualOrderBy(a, b []OrderByItem) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].equal(&b[i].Ref) {
			return false
		}
	}
	return true
}

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
	"strings"

	"github.com/pingcap/shardmerge/pkg/merger/column"
)

// StepKind is the kind of one merge executor.
type StepKind int

// Step kinds.
const (
	// StepUnion concatenates the shards.
	StepUnion StepKind = iota
	// StepStreamMerge merges shards already sorted by Keys.
	StepStreamMerge
	// StepGroupSort buffers and sorts the rows so equal group keys are adjacent.
	StepGroupSort
	// StepAggregate combines the runs of equal Keys into one row each.
	StepAggregate
	// StepOrderSort buffers and sorts the aggregated rows by the order keys.
	StepOrderSort
	// StepLimit applies offset and row count.
	StepLimit
)

// String implements fmt.Stringer interface.
func (k StepKind) String() string {
	switch k {
	case StepUnion:
		return "Union"
	case StepStreamMerge:
		return "StreamMerge"
	case StepGroupSort:
		return "GroupSort"
	case StepAggregate:
		return "StreamAgg"
	case StepOrderSort:
		return "Sort"
	case StepLimit:
		return "Limit"
	}
	return "Unknown"
}

// Step is one executor of the merge pipeline, from the shards to the caller.
type Step struct {
	Kind StepKind
	// Keys are the comparator keys of merge, sort and aggregate steps. They
	// are empty for an aggregation without GROUP BY.
	Keys []column.OrderByItem
}

// String implements fmt.Stringer interface.
func (s *Step) String() string {
	if len(s.Keys) == 0 {
		return s.Kind.String()
	}
	var sb strings.Builder
	sb.WriteString(s.Kind.String())
	sb.WriteByte('(')
	for i := range s.Keys {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(s.Keys[i].String())
		sb.WriteByte(' ')
		sb.WriteString(s.Keys[i].Direction.String())
	}
	sb.WriteByte(')')
	return sb.String()
}

// Plan is the merge pipeline of one query.
type Plan struct {
	Steps []Step
}

// Has returns if the plan contains a step of the kind.
func (p *Plan) Has(kind StepKind) bool {
	for i := range p.Steps {
		if p.Steps[i].Kind == kind {
			return true
		}
	}
	return false
}

// Kinds returns the step kinds in pipeline order.
func (p *Plan) Kinds() []StepKind {
	ret := make([]StepKind, 0, len(p.Steps))
	for i := range p.Steps {
		ret = append(ret, p.Steps[i].Kind)
	}
	return ret
}

// String implements fmt.Stringer interface.
func (p *Plan) String() string {
	parts := make([]string, 0, len(p.Steps))
	for i := range p.Steps {
		parts = append(parts, p.Steps[i].String())
	}
	return strings.Join(parts, " -> ")
}

// Plan derives the merge pipeline of the query. It is computed once; later
// calls return the same plan.
func (s *MergeState) Plan() *Plan {
	if s.plan != nil {
		return s.plan
	}
	p := &Plan{}
	spec := s.spec
	switch {
	case !spec.HasGroupBy() && !spec.HasAggregation():
		if spec.HasOrderBy() {
			p.add(StepStreamMerge, s.ActiveKeys())
		} else {
			p.add(StepUnion, nil)
		}
	case !spec.HasGroupBy():
		// All rows form one implicit group.
		if spec.HasOrderBy() {
			p.add(StepStreamMerge, s.ActiveKeys())
		} else {
			p.add(StepUnion, nil)
		}
		p.add(StepAggregate, nil)
	default:
		if s.NeedsBufferedSortForGrouping() {
			s.SwitchToGroupOrdering()
			p.add(StepGroupSort, s.GroupingSortKeys())
		} else {
			p.add(StepStreamMerge, s.ActiveKeys())
		}
		p.add(StepAggregate, column.GroupKeysAsOrderKeys(spec.GroupBy()))
		if s.NeedsBufferedSortForOrdering() {
			s.SwitchToQueryOrdering()
			p.add(StepOrderSort, s.ActiveKeys())
		}
	}
	if spec.Limit() != nil {
		p.add(StepLimit, nil)
	}
	s.plan = p
	return p
}

func (p *Plan) add(kind StepKind, keys []column.OrderByItem) {
	p.Steps = append(p.Steps, Step{Kind: kind, Keys: keys})
}

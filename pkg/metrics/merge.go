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

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Label constants.
const (
	LblPlan   = "plan"
	LblResult = "result"

	PlanUnion       = "union"
	PlanStreamMerge = "stream_merge"
	PlanBufferSort  = "buffered_sort"
	PlanGroupSort   = "group_buffered_sort"
	PlanAggregation = "aggregation"
	PlanLimit       = "limit"

	ResultOK    = "ok"
	ResultError = "error"
)

// Metrics
var (
	MergePlanCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "shardmerge",
			Subsystem: "merger",
			Name:      "plan_total",
			Help:      "Counter of merge executors built, by kind.",
		}, []string{LblPlan})

	MergedRowsCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "shardmerge",
			Subsystem: "merger",
			Name:      "merged_rows_total",
			Help:      "Counter of rows returned by merged result sets.",
		})

	ResultSetCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "shardmerge",
			Subsystem: "merger",
			Name:      "result_set_total",
			Help:      "Counter of finished merged result sets.",
		}, []string{LblResult})

	BufferedSortRowsHistogram = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "shardmerge",
			Subsystem: "merger",
			Name:      "buffered_sort_rows",
			Help:      "Bucketed histogram of rows held in memory by one buffered sort.",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 14), // 1 ~ 67M
		})

	ShardReadErrorCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "shardmerge",
			Subsystem: "shard",
			Name:      "read_error_total",
			Help:      "Counter of errors raised by shard cursors.",
		})
)

// RegisterMetrics registers the merge metrics to the registerer.
func RegisterMetrics(r prometheus.Registerer) {
	r.MustRegister(MergePlanCounter)
	r.MustRegister(MergedRowsCounter)
	r.MustRegister(ResultSetCounter)
	r.MustRegister(BufferedSortRowsHistogram)
	r.MustRegister(ShardReadErrorCounter)
}

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

package merger

import (
	"context"

	"github.com/google/uuid"
	"github.com/pingcap/errors"
	"github.com/pingcap/shardmerge/pkg/config"
	"github.com/pingcap/shardmerge/pkg/merger/aggfuncs"
	"github.com/pingcap/shardmerge/pkg/merger/column"
	"github.com/pingcap/shardmerge/pkg/merger/executor"
	"github.com/pingcap/shardmerge/pkg/merger/shard"
	"github.com/pingcap/shardmerge/pkg/merger/strategy"
	"github.com/pingcap/shardmerge/pkg/metrics"
	"github.com/pingcap/shardmerge/pkg/util/logutil"
	"go.uber.org/zap"
)

const logCategory = "shard-merge"

type options struct {
	cfg    *config.Merge
	logger *zap.Logger
}

// Option configures a merged result set.
type Option func(*options)

// WithConfig sets the merge config. A zero AvgScale means
// config.DefaultAvgScale.
func WithConfig(cfg *config.Merge) Option {
	return func(o *options) {
		o.cfg = cfg
	}
}

// WithLogger sets the logger, the logger of ctx is used by default.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// New merges the results of the shards a logical query was routed to into
// one result set. The result set owns the cursors: they are closed when the
// result set is drained, fails or is closed, and also when New fails.
func New(ctx context.Context, spec *column.QuerySpec, cursors []shard.Cursor, opts ...Option) (*ResultSet, error) {
	o := options{cfg: &config.Merge{AvgScale: config.DefaultAvgScale}}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger != nil {
		ctx = logutil.WithLogger(ctx, o.logger)
	}
	if o.cfg.AvgScale == 0 {
		cfg := *o.cfg
		cfg.AvgScale = config.DefaultAvgScale
		o.cfg = &cfg
	}
	mergeID := uuid.NewString()
	logger := logutil.Logger(logutil.WithMergeID(logutil.WithCategory(ctx, logCategory), mergeID))

	if err := o.cfg.Valid(); err != nil {
		closeCursors(logger, cursors)
		return nil, errors.Trace(err)
	}
	set, err := shard.NewCursorSet(cursors...)
	if err != nil {
		closeCursors(logger, cursors)
		return nil, err
	}
	set.SetLogger(logger)
	rs, err := newResultSet(mergeID, logger, spec, set, o.cfg)
	if err != nil {
		if closeErr := set.Close(); closeErr != nil {
			logger.Warn("close shards failed", zap.Error(closeErr))
		}
		return nil, err
	}
	return rs, nil
}

func closeCursors(logger *zap.Logger, cursors []shard.Cursor) {
	for i, c := range cursors {
		if c == nil {
			continue
		}
		if err := c.Close(); err != nil {
			logger.Warn("close shard cursor failed", zap.Int("shard", i), zap.Error(err))
		}
	}
}

func newResultSet(mergeID string, logger *zap.Logger, spec *column.QuerySpec, set *shard.CursorSet, cfg *config.Merge) (*ResultSet, error) {
	resolved, err := spec.Resolve(set.LabelIndexMap())
	if err != nil {
		return nil, err
	}
	plan := strategy.NewMergeState(resolved).Plan()
	root, err := buildExecutor(plan, resolved, set, cfg)
	if err != nil {
		return nil, err
	}
	for _, kind := range plan.Kinds() {
		metrics.MergePlanCounter.WithLabelValues(planLabel(kind)).Inc()
	}
	logger.Debug("build merge plan",
		zap.Stringer("plan", plan),
		zap.Int("shards", set.Len()),
		zap.Bool("implicitOrderBy", resolved.ImplicitOrderBy()))
	return &ResultSet{
		id:      mergeID,
		logger:  logger,
		spec:    resolved,
		plan:    plan,
		cursors: set,
		root:    root,
	}, nil
}

// buildExecutor builds the executors of the plan from the shards upwards.
func buildExecutor(plan *strategy.Plan, spec *column.QuerySpec, set *shard.CursorSet, cfg *config.Merge) (executor.Executor, error) {
	var e executor.Executor
	for _, step := range plan.Steps {
		switch step.Kind {
		case strategy.StepUnion:
			e = executor.NewUnionExec(set.Fields(), set.Shards())
		case strategy.StepStreamMerge:
			e = executor.NewStreamMergeExec(set.Fields(), set.Shards(), step.Keys)
		case strategy.StepGroupSort:
			if e == nil {
				e = executor.NewUnionExec(set.Fields(), set.Shards())
			}
			e = executor.NewSortExec(e, step.Keys, cfg.MaxBufferedRows)
		case strategy.StepAggregate:
			funcs, err := aggfuncs.Build(spec.Aggregations(), cfg.AvgScale)
			if err != nil {
				return nil, err
			}
			e = executor.NewStreamAggExec(e, step.Keys, funcs)
		case strategy.StepOrderSort:
			e = executor.NewSortExec(e, step.Keys, cfg.MaxBufferedRows)
		case strategy.StepLimit:
			limit := spec.Limit()
			e = executor.NewLimitExec(e, limit.Offset, limit.Count)
		default:
			return nil, errors.Errorf("unknown merge step %s", step.Kind)
		}
	}
	if e == nil {
		return nil, errors.New("empty merge plan")
	}
	return e, nil
}

func planLabel(kind strategy.StepKind) string {
	switch kind {
	case strategy.StepUnion:
		return metrics.PlanUnion
	case strategy.StepStreamMerge:
		return metrics.PlanStreamMerge
	case strategy.StepGroupSort:
		return metrics.PlanGroupSort
	case strategy.StepAggregate:
		return metrics.PlanAggregation
	case strategy.StepOrderSort:
		return metrics.PlanBufferSort
	case strategy.StepLimit:
		return metrics.PlanLimit
	}
	return kind.String()
}

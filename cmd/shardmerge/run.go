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

package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"

	"github.com/go-sql-driver/mysql"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pingcap/errors"
	"github.com/pingcap/shardmerge/pkg/config"
	"github.com/pingcap/shardmerge/pkg/merger"
	"github.com/pingcap/shardmerge/pkg/merger/shard"
	"github.com/pingcap/shardmerge/pkg/types"
	"github.com/pingcap/shardmerge/pkg/util/logutil"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// openShardDB opens the database of one shard.
var openShardDB = func(dsn string) (*sql.DB, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, errors.Trace(err)
	}
	connector, err := mysql.NewConnector(cfg)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return sql.OpenDB(connector), nil
}

func newRunCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "run the query on every shard and print the merged rows",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			conf, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return runMerge(cmd.Context(), conf, cmd.OutOrStdout())
		},
	}
}

func runMerge(ctx context.Context, conf *config.Config, out io.Writer) error {
	if len(conf.Shards) == 0 {
		return errors.New("no shard is configured")
	}
	if conf.Query.SQL == "" {
		return errors.New("query sql is empty")
	}
	spec, err := conf.Query.QuerySpec()
	if err != nil {
		return err
	}

	dbs := make([]*sql.DB, len(conf.Shards))
	defer func() {
		for i, db := range dbs {
			if db == nil {
				continue
			}
			if err := db.Close(); err != nil {
				logutil.Logger(ctx).Warn("close shard db failed", zap.String("shard", conf.Shards[i].Name), zap.Error(err))
			}
		}
	}()
	// The shard rows are bound to queryCtx, it must outlive the merge.
	queryCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	cursors, err := queryShards(queryCtx, cancel, conf, dbs)
	if err != nil {
		return err
	}

	rs, err := merger.New(ctx, spec, cursors, merger.WithConfig(&conf.Merge))
	if err != nil {
		return err
	}
	defer func() {
		if err := rs.Close(); err != nil {
			logutil.Logger(ctx).Warn("close merged result set failed", zap.Error(err))
		}
	}()
	logutil.Logger(ctx).Info("merge shards",
		zap.String("mergeID", rs.ID()),
		zap.Int("shards", len(cursors)),
		zap.Stringer("plan", rs.Plan()))

	t := table.NewWriter()
	t.SetOutputMirror(out)
	header := make(table.Row, 0, len(rs.Fields()))
	for _, f := range rs.Fields() {
		header = append(header, f.String())
	}
	t.AppendHeader(header)
	for {
		row, err := rs.Next(ctx)
		if err != nil {
			return err
		}
		if row == nil {
			break
		}
		t.AppendRow(formatRow(row))
	}
	t.Render()
	return nil
}

// queryShards runs the query on all shards concurrently. Either every cursor
// is returned or none is left open. The first failure calls cancel so the
// queries still running on other shards stop early.
func queryShards(ctx context.Context, cancel context.CancelFunc, conf *config.Config, dbs []*sql.DB) ([]shard.Cursor, error) {
	cursors := make([]shard.Cursor, len(conf.Shards))
	var g errgroup.Group
	for i, s := range conf.Shards {
		i, s := i, s
		g.Go(func() error {
			c, err := queryShard(ctx, s, conf.Query.SQL, &dbs[i])
			if err != nil {
				cancel()
				return err
			}
			cursors[i] = c
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		for _, c := range cursors {
			if c != nil {
				_ = c.Close()
			}
		}
		return nil, err
	}
	return cursors, nil
}

func queryShard(ctx context.Context, s config.Shard, query string, db **sql.DB) (shard.Cursor, error) {
	var err error
	if *db, err = openShardDB(s.DSN); err != nil {
		return nil, errors.Annotatef(err, "open shard %s", s.Name)
	}
	rows, err := (*db).QueryContext(ctx, query)
	if err != nil {
		return nil, errors.Annotatef(err, "query shard %s", s.Name)
	}
	c, err := shard.NewSQLCursor(rows)
	if err != nil {
		return nil, errors.Annotatef(err, "query shard %s", s.Name)
	}
	return c, nil
}

func formatRow(row types.Row) table.Row {
	ret := make(table.Row, 0, len(row))
	for _, v := range row {
		switch x := v.(type) {
		case nil:
			ret = append(ret, "NULL")
		case []byte:
			ret = append(ret, string(x))
		case decimal.Decimal:
			ret = append(ret, x.String())
		default:
			ret = append(ret, fmt.Sprint(x))
		}
	}
	return ret
}

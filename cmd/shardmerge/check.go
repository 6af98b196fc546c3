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
	"fmt"
	"io"

	"github.com/go-sql-driver/mysql"
	"github.com/pingcap/errors"
	"github.com/pingcap/shardmerge/pkg/config"
	"github.com/pingcap/shardmerge/pkg/merger"
	"github.com/pingcap/shardmerge/pkg/merger/mergeerrors"
	"github.com/pingcap/shardmerge/pkg/merger/shard"
	"github.com/spf13/cobra"
)

func newCheckCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "validate the config and print the merge plan without connecting to the shards",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			conf, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return checkMerge(cmd.Context(), conf, cmd.OutOrStdout())
		},
	}
}

// checkMerge plans the merge over empty shards laid out as the columns
// declared by the first shard.
func checkMerge(ctx context.Context, conf *config.Config, out io.Writer) error {
	if len(conf.Shards) == 0 {
		return errors.Trace(mergeerrors.ErrInvalidConfig.GenWithStackByArgs("no shard is configured"))
	}
	columns := conf.Shards[0].Columns
	if len(columns) == 0 {
		return errors.Trace(mergeerrors.ErrInvalidConfig.GenWithStackByArgs(
			fmt.Sprintf("shard %s declares no columns", conf.Shards[0].Name)))
	}
	for _, s := range conf.Shards {
		if _, err := mysql.ParseDSN(s.DSN); err != nil {
			return errors.Annotatef(err, "shard %s", s.Name)
		}
	}
	spec, err := conf.Query.QuerySpec()
	if err != nil {
		return err
	}
	cursors := make([]shard.Cursor, 0, len(conf.Shards))
	for range conf.Shards {
		cursors = append(cursors, shard.NewRowsCursorWithLabels(columns, nil))
	}
	rs, err := merger.New(ctx, spec, cursors, merger.WithConfig(&conf.Merge))
	if err != nil {
		return err
	}
	defer rs.Close()
	_, err = fmt.Fprintf(out, "shards: %d\nplan: %s\n", len(cursors), rs.Plan())
	return errors.Trace(err)
}

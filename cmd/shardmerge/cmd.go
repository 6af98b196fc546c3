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
	"github.com/pingcap/errors"
	"github.com/pingcap/shardmerge/pkg/config"
	"github.com/pingcap/shardmerge/pkg/util/logutil"
	"github.com/spf13/cobra"
)

const (
	// FlagConfig is the name of config flag.
	FlagConfig = "config"
	// FlagLogLevel is the name of log-level flag.
	FlagLogLevel = "log-level"
)

func defineCommonFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringP(FlagConfig, "C", "", "Set the path of the merge config file")
	cmd.PersistentFlags().StringP(FlagLogLevel, "L", "",
		"Set the log level, overrides the level of the config file")
}

// loadConfig loads and validates the config named by the flags, then
// initializes the global logger with it.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, err := cmd.Flags().GetString(FlagConfig)
	if err != nil {
		return nil, errors.Trace(err)
	}
	if path == "" {
		return nil, errors.Errorf("--%s is required", FlagConfig)
	}
	conf := config.NewConfig()
	if err = conf.Load(path); err != nil {
		return nil, errors.Annotatef(err, "load config %s", path)
	}
	level, err := cmd.Flags().GetString(FlagLogLevel)
	if err != nil {
		return nil, errors.Trace(err)
	}
	if level != "" {
		conf.Log.Level = level
	}
	if err = conf.Valid(); err != nil {
		return nil, err
	}
	if err = logutil.InitLogger(conf.Log.ToLogConfig()); err != nil {
		return nil, err
	}
	return conf, nil
}

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

package config

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/pingcap/errors"
	"github.com/pingcap/shardmerge/pkg/merger/mergeerrors"
	"github.com/pingcap/shardmerge/pkg/util/logutil"
)

// DefaultAvgScale is the number of decimal places kept by a merged AVG.
const DefaultAvgScale = 4

// Config contains configuration options.
type Config struct {
	Log    Log     `toml:"log" json:"log"`
	Merge  Merge   `toml:"merge" json:"merge"`
	Shards []Shard `toml:"shards" json:"shards"`
	Query  Query   `toml:"query" json:"query"`
}

// Log is the log section of config.
type Log struct {
	// Log level.
	Level string `toml:"level" json:"level"`
	// Log format. one of json, text, or console.
	Format string `toml:"format" json:"format"`
	// Disable automatic timestamps in output.
	DisableTimestamp bool `toml:"disable-timestamp" json:"disable-timestamp"`
	// File log config.
	File logutil.FileLogConfig `toml:"file" json:"file"`
}

// Merge is the merge section of config.
type Merge struct {
	// MaxBufferedRows bounds the rows one buffered sort may hold, 0 means unlimited.
	MaxBufferedRows int64 `toml:"max-buffered-rows" json:"max-buffered-rows"`
	// AvgScale is the number of decimal places of a merged AVG, 0 means
	// DefaultAvgScale.
	AvgScale int32 `toml:"avg-scale" json:"avg-scale"`
}

// Shard is one physical data source the CLI fans the query out to.
type Shard struct {
	Name string `toml:"name" json:"name"`
	DSN  string `toml:"dsn" json:"dsn"`
	// Columns declares the column labels of the shard result set, used by
	// the check command which does not connect to the shards.
	Columns []string `toml:"columns" json:"columns"`
}

// Query describes the shard SQL fragment and how its results are merged.
type Query struct {
	SQL          string        `toml:"sql" json:"sql"`
	OrderBy      []OrderItem   `toml:"order-by" json:"order-by"`
	GroupBy      []OrderItem   `toml:"group-by" json:"group-by"`
	Aggregations []Aggregation `toml:"aggregations" json:"aggregations"`
	Offset       int64         `toml:"offset" json:"offset"`
	// Limit is the row count of LIMIT, negative means no limit.
	Limit int64 `toml:"limit" json:"limit"`
}

// OrderItem is one ORDER BY or GROUP BY item.
type OrderItem struct {
	Owner     string `toml:"owner" json:"owner"`
	Column    string `toml:"column" json:"column"`
	Alias     string `toml:"alias" json:"alias"`
	Direction string `toml:"direction" json:"direction"`
}

// Aggregation is one aggregate select item, AVG lists its derived SUM and COUNT.
type Aggregation struct {
	Kind    string        `toml:"kind" json:"kind"`
	Owner   string        `toml:"owner" json:"owner"`
	Label   string        `toml:"label" json:"label"`
	Name    string        `toml:"name" json:"name"`
	Derived []Aggregation `toml:"derived" json:"derived"`
}

var defaultConf = Config{
	Log: Log{
		Level:  logutil.DefaultLogLevel,
		Format: logutil.DefaultLogFormat,
	},
	Merge: Merge{
		MaxBufferedRows: 0,
		AvgScale:        DefaultAvgScale,
	},
	Query: Query{
		Limit: -1,
	},
}

// NewConfig creates a new config instance with default value.
func NewConfig() *Config {
	conf := defaultConf
	return &conf
}

// Load loads config options from a toml file.
func (c *Config) Load(confFile string) error {
	_, err := toml.DecodeFile(confFile, c)
	return errors.Trace(err)
}

// LoadString loads config options from toml content.
func (c *Config) LoadString(content string) error {
	_, err := toml.Decode(content, c)
	return errors.Trace(err)
}

// Valid checks if this config is valid.
func (c *Config) Valid() error {
	if err := c.Merge.Valid(); err != nil {
		return err
	}
	for i, s := range c.Shards {
		if s.Name == "" {
			return mergeerrors.ErrInvalidConfig.GenWithStackByArgs(fmt.Sprintf("shards[%d] has no name", i))
		}
	}
	if c.Query.Offset < 0 {
		return mergeerrors.ErrInvalidConfig.GenWithStackByArgs("query offset must not be negative")
	}
	for _, item := range append(append([]OrderItem(nil), c.Query.OrderBy...), c.Query.GroupBy...) {
		if item.Column == "" && item.Alias == "" {
			return mergeerrors.ErrInvalidConfig.GenWithStackByArgs("order/group item needs a column or an alias")
		}
		switch strings.ToLower(item.Direction) {
		case "", "asc", "desc":
		default:
			return mergeerrors.ErrInvalidConfig.GenWithStackByArgs(fmt.Sprintf("unknown direction %q", item.Direction))
		}
	}
	return validAggregations(c.Query.Aggregations)
}

func validAggregations(aggs []Aggregation) error {
	for _, agg := range aggs {
		switch strings.ToLower(agg.Kind) {
		case "count", "sum", "max", "min":
		case "avg":
			if len(agg.Derived) != 2 {
				return mergeerrors.ErrInvalidConfig.GenWithStackByArgs("avg needs a derived sum and a derived count")
			}
		default:
			return mergeerrors.ErrInvalidConfig.GenWithStackByArgs(fmt.Sprintf("unknown aggregation %q", agg.Kind))
		}
		if agg.Label == "" && agg.Name == "" {
			return mergeerrors.ErrInvalidConfig.GenWithStackByArgs(fmt.Sprintf("%s aggregation needs a label or a name", agg.Kind))
		}
		if err := validAggregations(agg.Derived); err != nil {
			return err
		}
	}
	return nil
}

// Valid checks if the merge section is valid.
func (m *Merge) Valid() error {
	if m.MaxBufferedRows < 0 {
		return mergeerrors.ErrInvalidConfig.GenWithStackByArgs("max-buffered-rows must not be negative")
	}
	if m.AvgScale < 0 {
		return mergeerrors.ErrInvalidConfig.GenWithStackByArgs("avg-scale must not be negative")
	}
	return nil
}

// ToLogConfig converts *Log to *logutil.LogConfig.
func (l *Log) ToLogConfig() *logutil.LogConfig {
	return logutil.NewLogConfig(l.Level, l.Format, l.File, l.DisableTimestamp)
}

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

package logutil

import (
	"context"

	"github.com/pingcap/errors"
	"github.com/pingcap/log"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	// DefaultLogFormat is the log format used when none is configured.
	DefaultLogFormat = "text"
	// DefaultLogLevel is the log level used when none is configured.
	DefaultLogLevel = "info"

	// LogFieldCategory names the component that wrote a log entry.
	LogFieldCategory = "category"
	// LogFieldMergeID carries the id of one merged result set.
	LogFieldMergeID = "merge_id"
)

// FileLogConfig is the file sink section of the log config.
type FileLogConfig struct {
	log.FileLogConfig
}

// LogConfig is the log section of the config.
type LogConfig struct {
	log.Config
}

// NewLogConfig creates a LogConfig.
func NewLogConfig(level, format string, fileCfg FileLogConfig, disableTimestamp bool) *LogConfig {
	return &LogConfig{Config: log.Config{
		Level:            level,
		Format:           format,
		DisableTimestamp: disableTimestamp,
		File:             fileCfg.FileLogConfig,
	}}
}

// InitLogger replaces the global logger with one built from cfg. Stacks are
// only recorded for fatal entries.
func InitLogger(cfg *LogConfig, opts ...zap.Option) error {
	logger, props, err := log.InitLogger(&cfg.Config, append(opts, zap.AddStacktrace(zapcore.FatalLevel))...)
	if err != nil {
		return errors.Trace(err)
	}
	log.ReplaceGlobals(logger, props)
	return nil
}

type loggerKey struct{}

// Logger returns the logger attached to ctx, or the global one.
func Logger(ctx context.Context) *zap.Logger {
	if logger, ok := ctx.Value(loggerKey{}).(*zap.Logger); ok {
		return logger
	}
	return log.L()
}

// BgLogger returns the global logger for code without a request context.
func BgLogger() *zap.Logger {
	return log.L()
}

// WithLogger attaches logger to ctx, replacing the one already attached.
func WithLogger(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// WithFields attaches the logger of ctx extended with fields.
func WithFields(ctx context.Context, fields ...zap.Field) context.Context {
	if len(fields) == 0 {
		return ctx
	}
	return WithLogger(ctx, Logger(ctx).With(fields...))
}

// WithMergeID attaches the id of a merged result set.
func WithMergeID(ctx context.Context, mergeID string) context.Context {
	return WithFields(ctx, zap.String(LogFieldMergeID, mergeID))
}

// WithCategory attaches the component name.
func WithCategory(ctx context.Context, category string) context.Context {
	return WithFields(ctx, zap.String(LogFieldCategory, category))
}

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
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestInitLogger(t *testing.T) {
	prev := BgLogger()
	require.NoError(t, InitLogger(NewLogConfig("debug", DefaultLogFormat, FileLogConfig{}, true)))
	require.True(t, BgLogger().Core().Enabled(zap.DebugLevel))
	require.NotSame(t, prev, BgLogger())

	require.NoError(t, InitLogger(NewLogConfig("warn", DefaultLogFormat, FileLogConfig{}, true)))
	require.False(t, BgLogger().Core().Enabled(zap.InfoLevel))

	require.Error(t, InitLogger(NewLogConfig("noisy", DefaultLogFormat, FileLogConfig{}, true)))
	require.NoError(t, InitLogger(NewLogConfig(DefaultLogLevel, DefaultLogFormat, FileLogConfig{}, true)))
}

func TestContextLogger(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	ctx := WithLogger(context.Background(), zap.New(core))
	ctx = WithMergeID(ctx, "m-1")
	ctx = WithCategory(ctx, "merge")

	Logger(ctx).Info("merged")
	entries := logs.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	require.Equal(t, "m-1", fields[LogFieldMergeID])
	require.Equal(t, "merge", fields[LogFieldCategory])

	require.Equal(t, BgLogger(), Logger(context.Background()))
	require.Equal(t, ctx, WithFields(ctx))
}

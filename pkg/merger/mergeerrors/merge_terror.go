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

package mergeerrors

import (
	"github.com/pingcap/errors"
)

// error definitions.
var (
	// ErrColumnNotResolved is returned when neither the label nor the name of a
	// column reference is present in the shard column map.
	ErrColumnNotResolved = errors.Normalize("column %s has no index in the shard result set",
		errors.RFCCodeText("ShardMerge:ErrColumnNotResolved"))
	// ErrEmptyShardSet is returned when a merge is requested over zero shards.
	ErrEmptyShardSet = errors.Normalize("no shard result set to merge: %s",
		errors.RFCCodeText("ShardMerge:ErrEmptyShardSet"))
	// ErrShardRead wraps a failure raised by a shard cursor while producing a row.
	ErrShardRead = errors.Normalize("read shard %d failed: %s",
		errors.RFCCodeText("ShardMerge:ErrShardRead"))
	// ErrAggregationType is returned when a non-numeric value reaches SUM, COUNT or AVG.
	ErrAggregationType = errors.Normalize("%s can not aggregate non-numeric value %v (%T)",
		errors.RFCCodeText("ShardMerge:ErrAggregationType"))
	ErrIncomparable = errors.Normalize("can not compare %v (%T) with %v (%T)",
		errors.RFCCodeText("ShardMerge:ErrIncomparable"))
	ErrBufferedRowsExceeded = errors.Normalize("buffered sort holds more than %d rows",
		errors.RFCCodeText("ShardMerge:ErrBufferedRowsExceeded"))
	ErrResultSetClosed = errors.Normalize("merged result set is closed",
		errors.RFCCodeText("ShardMerge:ErrResultSetClosed"))
	ErrInvalidConfig = errors.Normalize("invalid config: %s",
		errors.RFCCodeText("ShardMerge:ErrInvalidConfig"))
)

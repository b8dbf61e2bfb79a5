package sinks

import (
	"time"

	"github.com/msto63/logflow/foundation/core/log"
)

var testEpoch = time.Date(2026, 3, 14, 9, 26, 53, 589_000_000, time.UTC)

func record(level, message string, args ...any) log.Record {
	return log.Record{Level: level, Message: message, Args: args, Timestamp: testEpoch}
}

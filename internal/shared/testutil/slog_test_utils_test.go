package testutil

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandlerCapturesRecords(t *testing.T) {
	logger, handler := NewTestLogger(t)

	logger.Info("table replaced", slog.String("backend", "csv"))
	logger.Warn("spot lookup failed", slog.Int("attempt", 2))

	records := handler.Records()
	require.Len(t, records, 2)
	assert.Equal(t, slog.LevelInfo, records[0].Level)
	assert.Equal(t, "table replaced", records[0].Message)
	assert.Equal(t, "csv", records[0].Attrs["backend"])
	assert.Equal(t, int64(2), records[1].Attrs["attempt"])
}

func TestAssertionHelpers(t *testing.T) {
	logger, handler := NewTestLogger(t)

	logger.Warn("spot lookup failed", slog.String("symbol", "^NSEI"))

	AssertLogContains(t, handler, slog.LevelWarn, "lookup failed")
	AssertLogAttr(t, handler, "symbol", "^NSEI")
}

func TestHandlerIsConcurrencySafe(t *testing.T) {
	logger, handler := NewTestLogger(t)

	done := make(chan struct{})
	for i := 0; i < 10; i++ {
		go func(n int) {
			logger.Info("merge applied", slog.Int("worker", n))
			done <- struct{}{}
		}(i)
	}
	for i := 0; i < 10; i++ {
		<-done
	}

	assert.Len(t, handler.Records(), 10)
}

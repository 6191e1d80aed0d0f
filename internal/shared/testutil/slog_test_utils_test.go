package testutil

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBufferedSlogHandler(t *testing.T) {
	logger, handler := NewTestLogger(t)

	logger.With(slog.String("component", "license")).Warn("key rejected", slog.Int("status", 400))
	logger.Info("started")

	assert.Equal(t, 2, handler.Count())
	assert.True(t, handler.ContainsMessage("rejected"))
	assert.True(t, handler.ContainsAttr("component", "license"))
	assert.True(t, handler.ContainsAttr("status", 400))
	assert.False(t, handler.ContainsAttr("status", 500))
	assert.Len(t, handler.GetRecordsByLevel(slog.LevelWarn), 1)

	AssertLogContains(t, handler, slog.LevelInfo, "started")
	AssertLogAttr(t, handler, "component", "license")
	AssertNoErrors(t, handler)
}

package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	var buf bytes.Buffer
	loc := time.FixedZone("IST", 5*3600+1800)

	logger := New(&buf, "debug", loc)
	logger.WithField("component", "test").Info("hello")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))

	assert.Equal(t, "hello", entry["msg"])
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "test", entry["component"])

	ts, ok := entry["ts"].(string)
	require.True(t, ok)
	assert.True(t, strings.HasSuffix(ts, "+05:30"), "timestamp %q not rendered in location", ts)
	assert.Equal(t, logrus.DebugLevel, logger.GetLevel())
}

func TestNew_UnknownLevel(t *testing.T) {
	logger := New(&bytes.Buffer{}, "loud", nil)
	assert.Equal(t, logrus.InfoLevel, logger.GetLevel())
}

func TestDiscard(t *testing.T) {
	logger := Discard()
	assert.NotPanics(t, func() { logger.Error("dropped") })
}

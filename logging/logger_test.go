package logging

import (
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/amankumarsingh77/gamerscrawl/config"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogFormatter(t *testing.T) {
	entry := &log.Entry{
		Logger:  log.New(),
		Time:    time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
		Level:   log.WarnLevel,
		Message: "fetch failed\n",
		Data:    log.Fields{"source": "inven", "attempt": 2},
		Caller:  &runtime.Frame{File: "/src/news/inven.go", Line: 42},
	}

	out, err := (&LogFormatter{}).Format(entry)
	require.NoError(t, err)
	assert.Equal(t, "[2025-01-02 03:04:05] [warn ] [inven.go:42] fetch failed attempt=2 source=inven\n", string(out))
}

func TestSetupWithFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "gamerscrawl.log")
	require.NoError(t, Setup(config.LogConfig{Level: "debug", File: path}))
	assert.Equal(t, log.DebugLevel, log.GetLevel())

	require.NoError(t, Setup(config.LogConfig{Level: "bogus"}))
	assert.Equal(t, log.InfoLevel, log.GetLevel())
}

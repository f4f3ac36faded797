package library

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/phuslu/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bookreader.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[database]
path = "books.db"

[downloads]
concurrency = 5
timeout = "30s"

[reading]
chunk_size = 2
snippet_radius = 20

[logging]
level = "debug"
format = "json"
`), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "books.db", cfg.Database.Path)
	assert.True(t, cfg.Database.WALMode, "unset keys keep their defaults")
	assert.Equal(t, 5, cfg.Downloads.Concurrency)
	assert.Equal(t, "DownloadedBooks", cfg.Downloads.Dir)
	assert.Equal(t, 2, cfg.Reading.ChunkSize)
	assert.Equal(t, 20, cfg.Reading.SnippetRadius)
	assert.Equal(t, "json", cfg.Logging.Format)

	d, err := cfg.Downloads.TimeoutDuration()
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, d)
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("BOOKREADER_DB", "/tmp/env.db")
	t.Setenv("BOOKREADER_DOWNLOADS", "/tmp/dl")
	t.Setenv("BOOKREADER_LOG_LEVEL", "warn")

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/env.db", cfg.Database.Path)
	assert.Equal(t, "/tmp/dl", cfg.Downloads.Dir)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestLoadConfigInvalid(t *testing.T) {
	cases := map[string]string{
		"bad toml":       "[database\n",
		"bad duration":   "[downloads]\ntimeout = \"soon\"\n",
		"zero workers":   "[downloads]\nconcurrency = 0\n",
		"negative chunk": "[reading]\nchunk_size = -1\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "c.toml")
			require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
			_, err := LoadConfig(path)
			assert.Error(t, err)
		})
	}
}

func TestLoggerLevelsAndFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := newLoggerTo(LoggingConfig{Level: "WARN", Format: "json"}, &buf)

	logger.Info().Msg("hidden")
	logger.Warn().Str("book", "tale").Msg("shown")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"book":"tale"`)
	assert.True(t, strings.HasPrefix(out, "{"))
}

func TestLoggerConsole(t *testing.T) {
	var buf bytes.Buffer
	logger := newLoggerTo(LoggingConfig{Level: "debug", Format: "console"}, &buf)
	assert.Equal(t, log.DebugLevel, logger.Level)

	logger.Debug().Str("url", "http://x").Msg("fetching")
	assert.Contains(t, buf.String(), "fetching")
}

func TestOrDiscard(t *testing.T) {
	assert.NotNil(t, orDiscard(nil))
	l := &log.Logger{}
	assert.Same(t, l, orDiscard(l))
}

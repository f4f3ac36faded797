package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"bookreader/library"

	"github.com/phuslu/log"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleIngestLogsFailures(t *testing.T) {
	dir := t.TempDir()
	c := library.DefaultConfig()
	c.Database.Path = filepath.Join(dir, "test.db")
	c.Downloads.Dir = filepath.Join(dir, "downloads")

	var buf bytes.Buffer
	logger = &log.Logger{Level: log.InfoLevel, Writer: &log.IOWriter{Writer: &buf}}
	m, err := library.NewLibraryManager(c, logger)
	require.NoError(t, err)
	manager = m
	t.Cleanup(func() {
		m.Close()
		manager, logger = nil, nil
	})

	missing := filepath.Join(dir, "no-such-book")
	err = handleIngest(&cobra.Command{}, []string{missing})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 1 sources failed")

	out := buf.String()
	assert.Contains(t, out, `"message":"ingestion failed"`)
	assert.Contains(t, out, `"source":"`+missing+`"`)
	assert.Contains(t, out, `"error":`)
}

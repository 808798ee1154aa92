package logger

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/iliyamo/cabin-booking/internal/logger/sl"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"":        slog.LevelInfo,
		"debug":   slog.LevelDebug,
		" WARN ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestNew_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, Config{Level: "info", Format: "json"})

	log.Debug("hidden")
	log.Info("sync finished", slog.String("op", "ingest.Sync"), sl.Err(errors.New("boom")))

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"msg":"sync finished"`)
	assert.Contains(t, out, `"op":"ingest.Sync"`)
	assert.Contains(t, out, `"error":"boom"`)
}

package logger

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mrmechko/ifscraper/pkg/config"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *config.LoggingConfig
		wantErr bool
	}{
		{
			name:    "valid config with info level",
			cfg:     &config.LoggingConfig{Level: "info"},
			wantErr: false,
		},
		{
			name:    "valid config with debug level",
			cfg:     &config.LoggingConfig{Level: "debug"},
			wantErr: false,
		},
		{
			name:    "invalid log level",
			cfg:     &config.LoggingConfig{Level: "invalid"},
			wantErr: true,
		},
		{
			name:    "config with file output",
			cfg:     &config.LoggingConfig{Level: "info", File: filepath.Join(t.TempDir(), "logs", "test.log")},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := New(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("New() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && logger == nil {
				t.Error("New() returned nil logger")
			}
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		level    string
		expected zerolog.Level
		wantErr  bool
	}{
		{"debug", zerolog.DebugLevel, false},
		{"INFO", zerolog.InfoLevel, false},
		{"warning", zerolog.WarnLevel, false},
		{"error", zerolog.ErrorLevel, false},
		{"disabled", zerolog.Disabled, false},
		{"loud", zerolog.InfoLevel, true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			level, err := parseLogLevel(tt.level)
			if (err != nil) != tt.wantErr {
				t.Errorf("parseLogLevel() error = %v, wantErr %v", err, tt.wantErr)
			}
			if level != tt.expected {
				t.Errorf("parseLogLevel() = %v, want %v", level, tt.expected)
			}
		})
	}
}

func TestFileOutput(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "ifscraper.log")

	l, err := New(&config.LoggingConfig{Level: "info", File: logFile})
	require.NoError(t, err)

	l.WithField("page", 3).Info("Page fetched")

	data, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Page fetched")
	assert.Contains(t, string(data), `"page":3`)
	assert.Contains(t, string(data), `"app":"ifscraper"`)
}

func TestWithFieldsDoesNotMutateParent(t *testing.T) {
	var buf bytes.Buffer
	parent := newLogger(&buf, zerolog.InfoLevel)

	parent.WithField("run_id", "abc").Info("child")
	parent.WithError(errors.New("boom")).Info("failed")
	parent.Info("parent")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], `"run_id":"abc"`)
	assert.Contains(t, lines[1], `"error":"boom"`)
	assert.NotContains(t, lines[2], "run_id")
	assert.NotContains(t, lines[2], "error")
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := newLogger(&buf, zerolog.WarnLevel)

	l.Info("hidden")
	l.WarnWithFields("shown", map[string]interface{}{"elapsed": 1500 * time.Millisecond})

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
	assert.Contains(t, buf.String(), `"elapsed":1500`)
}

func TestTestLoggerCapturesFields(t *testing.T) {
	tl := NewTestLogger()

	tl.WithField("run_id", "r1").WithError(errors.New("boom")).WarnWithFields("Skipping item block", map[string]interface{}{
		"block": 4,
	})

	warns := tl.GetMessagesByLevel("WARN")
	require.Len(t, warns, 1)
	assert.Equal(t, "r1", warns[0].Fields["run_id"])
	assert.Equal(t, 4, warns[0].Fields["block"])
	assert.EqualError(t, warns[0].Error, "boom")
	assert.True(t, tl.HasMessage("Skipping item block"))
	assert.False(t, tl.HasError())
}

func TestHelpers(t *testing.T) {
	tl := NewTestLogger()

	LogPageFetch(tl, "http://example.com/?page=2", 2, time.Millisecond, nil)
	LogPageFetch(tl, "http://example.com/?page=3", 3, time.Millisecond, errors.New("timeout"))
	LogMediaFetch(tl, "http://example.com/a.webp", "/tmp/a.webp", "rejected", nil)
	LogScrapeProgress(tl, 5, 10)
	LogCheckpoint(tl, "/tmp/scrape.json.backup", 10)

	assert.True(t, tl.HasMessage("Page fetched"))
	assert.True(t, tl.HasError())
	assert.True(t, tl.HasMessage("Not an image, skipping media"))
	assert.True(t, tl.HasMessage("Checkpoint saved"))
}

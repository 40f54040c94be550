package batch

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testTemplate = "https://imgflip.com/meme/{code}"

func TestResolve(t *testing.T) {
	tests := []struct {
		name     string
		entry    Entry
		wantCode string
		wantURL  string
	}{
		{
			name:     "bare code",
			entry:    Entry{Generator: "Drake-Hotline-Bling"},
			wantCode: "Drake-Hotline-Bling",
			wantURL:  "https://imgflip.com/meme/Drake-Hotline-Bling",
		},
		{
			name:     "full url",
			entry:    Entry{Generator: "https://imgflip.com/meme/Distracted-Boyfriend"},
			wantCode: "Distracted-Boyfriend",
			wantURL:  "https://imgflip.com/meme/Distracted-Boyfriend",
		},
		{
			name:     "trailing slash and query",
			entry:    Entry{Generator: "https://imgflip.com/meme/Two-Buttons/?sort=top#x"},
			wantCode: "Two-Buttons",
			wantURL:  "https://imgflip.com/meme/Two-Buttons/?sort=top#x",
		},
		{
			name:     "existing values kept",
			entry:    Entry{Generator: "ignored", Code: "custom", URL: "https://example.com/list"},
			wantCode: "custom",
			wantURL:  "https://example.com/list",
		},
		{
			name:     "relative path uses template",
			entry:    Entry{Generator: "meme/Change-My-Mind"},
			wantCode: "Change-My-Mind",
			wantURL:  "https://imgflip.com/meme/Change-My-Mind",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Resolve(tt.entry, testTemplate)
			require.NoError(t, err)
			assert.Equal(t, tt.wantCode, got.Code)
			assert.Equal(t, tt.wantURL, got.URL)
			assert.Equal(t, tt.entry.Generator, got.Generator)
		})
	}
}

func TestResolveRejectsEmptyEntries(t *testing.T) {
	_, err := Resolve(Entry{}, testTemplate)
	assert.Error(t, err)

	_, err = Resolve(Entry{Generator: "https://imgflip.com/"}, testTemplate)
	assert.Error(t, err)
}

func TestFormatOf(t *testing.T) {
	assert.Equal(t, FormatYAML, FormatOf("list.yaml"))
	assert.Equal(t, FormatYAML, FormatOf("list.YML"))
	assert.Equal(t, FormatJSON, FormatOf("list.json"))
	assert.Equal(t, FormatJSON, FormatOf("list"))
}

func TestEntriesWriteBackJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "memes.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"generator": "Two-Buttons"}]`), 0644))

	entries, format, err := LoadEntries(path)
	require.NoError(t, err)
	require.Equal(t, FormatJSON, format)
	require.Len(t, entries, 1)

	entries[0], err = Resolve(entries[0], testTemplate)
	require.NoError(t, err)
	require.NoError(t, SaveEntries(path, entries, format))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"generator":"Two-Buttons","code":"Two-Buttons","url":"https://imgflip.com/meme/Two-Buttons"}]`, string(data))
	assert.Contains(t, string(data), "\n  {", "json is indented with two spaces")
}

func TestEntriesWriteBackYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "memes.yaml")
	require.NoError(t, os.WriteFile(path, []byte("- generator: Two-Buttons\n- generator: https://imgflip.com/meme/Drake\n"), 0644))

	entries, format, err := LoadEntries(path)
	require.NoError(t, err)
	require.Equal(t, FormatYAML, format)
	require.Len(t, entries, 2)

	for i := range entries {
		entries[i], err = Resolve(entries[i], testTemplate)
		require.NoError(t, err)
	}
	require.NoError(t, SaveEntries(path, entries, format))

	reloaded, _, err := LoadEntries(path)
	require.NoError(t, err)
	assert.Equal(t, entries, reloaded)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "code: Drake")
	assert.NotContains(t, string(data), "{", "file stays yaml")
}

func TestLoadEntriesErrors(t *testing.T) {
	dir := t.TempDir()

	_, _, err := LoadEntries(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{not json"), 0644))
	_, _, err = LoadEntries(bad)
	assert.Error(t, err)
}

package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/mrmechko/ifscraper/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockListing serves two pages of four items each. The first request for
// page one is rate limited so the retry path runs.
type mockListing struct {
	server      *httptest.Server
	rateLimited int32
}

func newMockListing() *mockListing {
	m := &mockListing{}
	mux := http.NewServeMux()
	mux.HandleFunc("/img/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("png"))
	})
	mux.HandleFunc("/meme/", func(w http.ResponseWriter, r *http.Request) {
		if atomic.CompareAndSwapInt32(&m.rateLimited, 0, 1) {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		code := strings.TrimPrefix(r.URL.Path, "/meme/")
		page := r.URL.Query().Get("page")
		first := 0
		if page == "2" {
			first = 4
		}

		var b strings.Builder
		b.WriteString("<html><body>")
		for i := first; i < first+4; i++ {
			fmt.Fprintf(&b, `<div class="base-unit">
  <h2 class="base-unit-title"><a href="#">%[1]s %[2]d</a></h2>
  <img class="base-img" src="/img/%[1]s-%[2]d.png" alt="%[1]s %[2]d | image tagged in %[1]s | hello; world">
  <div class="base-view-cnt">1,22%[2]d views, %[2]d upvotes</div>
</div>`, code, i)
		}
		if page != "2" {
			fmt.Fprintf(&b, `<a class="pager-next" href="/meme/%s?page=2">Next</a>`, code)
		}
		b.WriteString("</body></html>")
		w.Write([]byte(b.String()))
	})
	m.server = httptest.NewServer(mux)
	return m
}

// writeTestConfig isolates the run from user config and keeps sleeps short
func writeTestConfig(t *testing.T, template string) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)

	path := filepath.Join(home, "ifscraper.yaml")
	content := fmt.Sprintf(`retry:
  enabled: true
  max_attempts: 3
  base_delay: 5ms
  max_delay: 20ms
  multiplier: 2
rate_limit:
  item_delay: 0s
  requests_per_minute: 0
batch:
  url_template: %q
  concurrency: 1
`, template)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func execute(t *testing.T, args ...string) error {
	t.Helper()
	rootCmd.SetArgs(args)
	return rootCmd.Execute()
}

func readRecords(t *testing.T, path string) []models.Item {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var items []models.Item
	require.NoError(t, json.Unmarshal(data, &items))
	return items
}

func TestScrapeCommandEndToEnd(t *testing.T) {
	listing := newMockListing()
	defer listing.server.Close()

	cfgPath := writeTestConfig(t, listing.server.URL+"/meme/{code}")
	out := t.TempDir()

	err := execute(t, "scrape", listing.server.URL+"/meme/Drake",
		"--config", cfgPath, "--log-level", "error", "--quiet",
		"--output", out, "--num", "6", "--shard", "7")
	require.NoError(t, err)

	items := readRecords(t, filepath.Join(out, "scrape_7.json"))
	require.Len(t, items, 6)
	assert.Equal(t, "Drake 5", *items[5].Caption.Title)
	assert.Equal(t, []string{"Drake"}, items[5].Caption.Tags)
	assert.Equal(t, []string{"hello", " world"}, items[5].Caption.Text)
	assert.Equal(t, 1225, items[5].Engagement.Views)
	assert.Equal(t, 5, items[5].Engagement.Upvotes)
	assert.FileExists(t, items[0].LocalPath)
	assert.NoFileExists(t, filepath.Join(out, "scrape_7.json.backup"))
}

func TestBatchAndUpdateCommands(t *testing.T) {
	listing := newMockListing()
	defer listing.server.Close()

	cfgPath := writeTestConfig(t, listing.server.URL+"/meme/{code}")
	out := t.TempDir()
	list := filepath.Join(t.TempDir(), "memes.json")
	require.NoError(t, os.WriteFile(list, []byte(`[{"generator":"Drake"},{"generator":"Two-Buttons"}]`), 0644))

	err := execute(t, "batch", list,
		"--config", cfgPath, "--log-level", "error", "--quiet",
		"--output", out, "--num", "3")
	require.NoError(t, err)

	for i, code := range []string{"Drake", "Two-Buttons"} {
		items := readRecords(t, filepath.Join(out, code, fmt.Sprintf("scrape_%d.json", i)))
		assert.Len(t, items, 3, code)
	}

	data, err := os.ReadFile(list)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"code": "Two-Buttons"`)

	err = execute(t, "update", out, "--fname", "scrape_0.json",
		"--config", cfgPath, "--log-level", "error", "--quiet")
	require.NoError(t, err)

	items := readRecords(t, filepath.Join(out, "Drake", "scrape_0.json"))
	assert.Equal(t, []string{"Drake"}, items[0].Caption.Tags)
}

func TestScrapeCommandRequiresURL(t *testing.T) {
	scrapeURL = ""
	err := execute(t, "scrape", "--log-level", "error", "--quiet")
	assert.Error(t, err)
}

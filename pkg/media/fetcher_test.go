package media

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	errs "github.com/mrmechko/ifscraper/pkg/errors"
	"github.com/mrmechko/ifscraper/pkg/logger"
	"github.com/mrmechko/ifscraper/pkg/retry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFetcher(t *testing.T, log logger.Logger) *Fetcher {
	t.Helper()
	return NewFetcher(Options{
		UserAgent:   "ifscraper-test",
		Headers:     map[string]string{"Accept": "image/*"},
		MaxAttempts: 3,
		Backoff:     &retry.ConstantBackoff{Delay: time.Millisecond},
		Logger:      log,
	})
}

func TestDerivePath(t *testing.T) {
	root := filepath.Join("out", "drake")

	got := DerivePath("https://i.imgflip.com/4/abc.jpg", root)
	assert.Equal(t, filepath.Join(root, "img", "i.imgflip.com_4_abc.jpg"), got)
	assert.Equal(t, got, DerivePath("https://i.imgflip.com/4/abc.jpg", root), "must be deterministic")

	assert.Equal(t, filepath.Join(root, "img", "example.com_a.png"), DerivePath("http://example.com/a.png", root))
	// Only a leading scheme is removed
	assert.Equal(t, filepath.Join(root, "img", "ftp:__x_https:__y.gif"), DerivePath("ftp://x/https://y.gif", root))
}

func TestExtension(t *testing.T) {
	tests := map[string]string{
		"https://i.imgflip.com/abc.jpg":       "jpg",
		"https://i.imgflip.com/abc.JPG":       "JPG",
		"https://i.imgflip.com/abc.webp":      "webp",
		"https://i.imgflip.com/abc.gif?x=1.y": "gif",
		"https://i.imgflip.com/dir.d/abc":     "",
		"https://i.imgflip.com/":              "",
	}
	for in, want := range tests {
		assert.Equal(t, want, Extension(in), in)
	}
}

func TestFetchSkipsExistingFileWithoutNetwork(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.Write([]byte("new"))
	}))
	defer server.Close()

	path := filepath.Join(t.TempDir(), "img", "existing.jpg")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte("old"), 0644))

	res := newTestFetcher(t, logger.NewNopLogger()).Fetch(context.Background(), server.URL+"/existing.jpg", path, false)

	assert.Equal(t, StatusSkipped, res.Status)
	assert.NoError(t, res.Err)
	assert.Equal(t, int32(0), atomic.LoadInt32(&hits))
	data, _ := os.ReadFile(path)
	assert.Equal(t, "old", string(data))
}

func TestFetchRejectsDisallowedExtension(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
	}))
	defer server.Close()

	log := logger.NewTestLogger()
	path := filepath.Join(t.TempDir(), "img", "a.webp")
	res := newTestFetcher(t, log).Fetch(context.Background(), server.URL+"/a.webp", path, false)

	assert.Equal(t, StatusRejected, res.Status)
	assert.NoError(t, res.Err)
	assert.Equal(t, int32(0), atomic.LoadInt32(&hits))
	assert.NoFileExists(t, path)
	assert.True(t, log.HasMessage("Not an image, skipping media"))

	// Extension matching is case-sensitive
	res = newTestFetcher(t, log).Fetch(context.Background(), server.URL+"/a.JPG", path, false)
	assert.Equal(t, StatusRejected, res.Status)
}

func TestFetchDownloadsWithScopedHeaders(t *testing.T) {
	var gotUA, gotAccept string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotAccept = r.Header.Get("Accept")
		w.Write([]byte("GIF89a"))
	}))
	defer server.Close()

	dir := t.TempDir()
	path := filepath.Join(dir, "img", "x.gif")
	res := newTestFetcher(t, logger.NewNopLogger()).Fetch(context.Background(), server.URL+"/x.gif", path, false)

	require.Equal(t, StatusDownloaded, res.Status)
	assert.Equal(t, int64(6), res.Bytes)
	assert.Equal(t, "ifscraper-test", gotUA)
	assert.Equal(t, "image/*", gotAccept)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "GIF89a", string(data))

	leftovers, _ := filepath.Glob(filepath.Join(dir, "img", "*.tmp"))
	assert.Empty(t, leftovers)
}

func TestFetchReplaceOverwrites(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("fresh"))
	}))
	defer server.Close()

	path := filepath.Join(t.TempDir(), "a.png")
	require.NoError(t, os.WriteFile(path, []byte("stale"), 0644))

	res := newTestFetcher(t, logger.NewNopLogger()).Fetch(context.Background(), server.URL+"/a.png", path, true)
	require.Equal(t, StatusDownloaded, res.Status)

	data, _ := os.ReadFile(path)
	assert.Equal(t, "fresh", string(data))
}

func TestFetchRetriesServerErrors(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	path := filepath.Join(t.TempDir(), "img", "r.jpg")
	res := newTestFetcher(t, logger.NewNopLogger()).Fetch(context.Background(), server.URL+"/r.jpg", path, false)

	assert.Equal(t, StatusDownloaded, res.Status)
	assert.Equal(t, int32(3), atomic.LoadInt32(&hits))
}

func TestFetchFailureIsReportedNotRaised(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		http.NotFound(w, r)
	}))
	defer server.Close()

	log := logger.NewTestLogger()
	path := filepath.Join(t.TempDir(), "img", "gone.jpg")
	res := newTestFetcher(t, log).Fetch(context.Background(), server.URL+"/gone.jpg", path, false)

	assert.Equal(t, StatusFailed, res.Status)
	require.Error(t, res.Err)
	assert.True(t, errs.Is(res.Err, errs.ErrorTypeNotFound))
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits), "404 is not retried")
	assert.NoFileExists(t, path)
	assert.True(t, log.HasError())
}

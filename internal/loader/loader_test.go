package loader

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scrapegoat/internal/model"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadCSVSkipsHeaderAndDeduplicates(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "domains.csv",
		"Domain name,Agency\n"+
			"example.gov,GSA\n"+
			"www.example.gov,GSA\n"+
			"api.example.gov,GSA\n"+
			"second.gov,DOI\n"+
			"EXAMPLE.GOV,GSA\n")

	entries, err := NewListLoader(discardLogger()).Load(path)
	require.NoError(t, err)

	require.Len(t, entries, 3)
	assert.Equal(t, model.DomainEntry{Raw: "example.gov", Hostname: "example.gov"}, entries[0])
	assert.Equal(t, "api.example.gov", entries[1].Hostname)
	assert.Equal(t, "second.gov", entries[2].Hostname)
}

func TestLoadCSVWithoutHeader(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "domains.csv", "first.gov,x\nsecond.gov,y\n")

	entries, err := NewListLoader(discardLogger()).Load(path)
	require.NoError(t, err)

	require.Len(t, entries, 2)
	assert.Equal(t, "first.gov", entries[0].Hostname)
}

func TestLoadTXTPreservesFirstSeenOrder(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "domains.txt",
		"b.example.com\n\na.example.com\n# a comment\nwww.b.example.com\n")

	entries, err := NewListLoader(discardLogger()).Load(path)
	require.NoError(t, err)

	// www.b.example.com normalizes to b.example.com and is dropped as a
	// duplicate; the first occurrence keeps its place in the order.
	require.Len(t, entries, 2)
	assert.Equal(t, "b.example.com", entries[0].Hostname)
	assert.Equal(t, "b.example.com", entries[0].Raw)
	assert.Equal(t, "a.example.com", entries[1].Hostname)
}

func TestLoadSkipsInvalidEntries(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "domains.txt", "good.example.com\n   \nalso-good.example.com\n")

	entries, err := NewListLoader(discardLogger()).Load(path)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestLoadUnsupportedFormat(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "domains.xlsx", "whatever")

	_, err := NewListLoader(discardLogger()).Load(path)
	assert.ErrorIs(t, err, ErrListUnavailable)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := NewListLoader(discardLogger()).Load(filepath.Join(t.TempDir(), "nope.csv"))
	assert.ErrorIs(t, err, ErrListUnavailable)
}

func TestEnsureLocalDownloadsWhenMissing(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("Domain name,Agency\nremote.gov,GSA\n"))
	}))
	defer ts.Close()

	dir := t.TempDir()
	path := filepath.Join(dir, "lists", "remote.csv")
	l := NewListLoader(discardLogger())

	require.NoError(t, l.EnsureLocal(path, ts.URL))

	entries, err := l.Load(path)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "remote.gov", entries[0].Hostname)
}

func TestEnsureLocalKeepsExistingFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "local.txt", "local.example.com\n")

	// Source URL is bogus; it must not be contacted when the file exists.
	require.NoError(t, NewListLoader(discardLogger()).EnsureLocal(path, "http://127.0.0.1:1/x"))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "local.example.com\n", string(content))
}

func TestEnsureLocalNoSourceConfigured(t *testing.T) {
	err := NewListLoader(discardLogger()).EnsureLocal(filepath.Join(t.TempDir(), "gone.csv"), "")
	assert.ErrorIs(t, err, ErrListUnavailable)
}

func TestUpdateOverwritesLocalCopy(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("fresh.gov\n"))
	}))
	defer ts.Close()

	dir := t.TempDir()
	path := writeFile(t, dir, "list.txt", "stale.gov\nold.gov\n")

	require.NoError(t, NewListLoader(discardLogger()).Update(path, ts.URL))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "fresh.gov\n", string(content))
}

func TestUpdateFailureIsFatal(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer ts.Close()

	err := NewListLoader(discardLogger()).Update(filepath.Join(t.TempDir(), "x.txt"), ts.URL)
	assert.ErrorIs(t, err, ErrListUnavailable)
}

package fetcher

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scrapegoat/config"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testFetcher(maxRedirects int) *SiteFetcher {
	return NewSiteFetcher(&config.FetcherConfig{
		Timeout:      5 * time.Second,
		MaxRedirects: maxRedirects,
		UserAgent:    "scrapegoat-test",
	}, discardLogger())
}

// hostOf strips the scheme from an httptest server URL so the fetcher can
// apply its own protocol fallback against it.
func hostOf(t *testing.T, serverURL string) string {
	t.Helper()
	host := strings.TrimPrefix(serverURL, "https://")
	host = strings.TrimPrefix(host, "http://")
	return host
}

func TestFetchFallsBackToHTTP(t *testing.T) {
	var gotUA string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.UserAgent()
		_, _ = w.Write([]byte("<html><body>plain http only</body></html>"))
	}))
	defer ts.Close()

	res, failure := testFetcher(5).Fetch(hostOf(t, ts.URL))
	require.Nil(t, failure)

	assert.True(t, strings.HasPrefix(res.FinalURL, "http://"))
	assert.Contains(t, res.HTML, "plain http only")
	assert.False(t, res.InsecureTLS)
	assert.Empty(t, res.SSLNote)
	assert.Equal(t, "scrapegoat-test", gotUA)
}

func TestFetchRetriesInsecureOnBadCertificate(t *testing.T) {
	ts := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html><body>self signed</body></html>"))
	}))
	defer ts.Close()

	res, failure := testFetcher(5).Fetch(hostOf(t, ts.URL))
	require.Nil(t, failure)

	assert.True(t, strings.HasPrefix(res.FinalURL, "https://"))
	assert.Contains(t, res.HTML, "self signed")
	assert.True(t, res.InsecureTLS)
	assert.Contains(t, res.SSLNote, "SSL verification failed")
}

func TestFetchReportsBothProtocolFailures(t *testing.T) {
	// Port 1 is reserved and never listening.
	res, failure := testFetcher(5).Fetch("127.0.0.1:1")
	require.Nil(t, res)
	require.NotNil(t, failure)

	assert.NotEmpty(t, failure.HTTPSErr)
	assert.NotEmpty(t, failure.HTTPErr)
	assert.NotEmpty(t, failure.Reason())
}

func TestFetchFollowsRedirectsToFinalURL(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/landing", http.StatusFound)
	})
	mux.HandleFunc("/landing", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html><body>landed</body></html>"))
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	res, failure := testFetcher(5).Fetch(hostOf(t, ts.URL))
	require.Nil(t, failure)

	assert.True(t, strings.HasSuffix(res.FinalURL, "/landing"))
	assert.Contains(t, res.HTML, "landed")
}

func TestFetchStopsAfterRedirectCap(t *testing.T) {
	var hops int
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hops++
		http.Redirect(w, r, "/again", http.StatusFound)
	}))
	defer ts.Close()

	res, failure := testFetcher(2).Fetch(hostOf(t, ts.URL))
	require.Nil(t, res)
	require.NotNil(t, failure)

	assert.Contains(t, failure.HTTPErr, "stopped after 2 redirects")
}

func TestFetchRejectsErrorStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not here", http.StatusNotFound)
	}))
	defer ts.Close()

	res, failure := testFetcher(5).Fetch(hostOf(t, ts.URL))
	require.Nil(t, res)
	require.NotNil(t, failure)
	assert.Contains(t, failure.HTTPErr, "Not Found")
}

func TestIsTLSError(t *testing.T) {
	assert.True(t, isTLSError(errTLS("x509: certificate signed by unknown authority")))
	assert.True(t, isTLSError(errTLS("tls: first record does not look like a TLS handshake")))
	assert.False(t, isTLSError(errTLS("dial tcp 127.0.0.1:1: connect: connection refused")))
	assert.False(t, isTLSError(errTLS("context deadline exceeded")))
}

type errTLS string

func (e errTLS) Error() string { return string(e) }

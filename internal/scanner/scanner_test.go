package scanner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustScanner(t *testing.T, keywords ...string) *KeywordScanner {
	t.Helper()
	s, err := NewKeywordScanner(keywords)
	require.NoError(t, err)
	return s
}

func TestScanReturnsSmallestEnclosingElement(t *testing.T) {
	s := mustScanner(t, "Annual Report")

	matches, err := s.Scan("<html><body><div><p>Annual Report 2024</p></div></body></html>")
	require.NoError(t, err)

	require.Len(t, matches, 1)
	assert.Equal(t, "Annual Report", matches[0].Keyword)
	assert.Equal(t, "Annual Report 2024", matches[0].Context)
}

func TestScanPicksDeepestElementNotAncestor(t *testing.T) {
	s := mustScanner(t, "Privacy")

	matches, err := s.Scan(`<div>Welcome to the site. <p>Read our <span>Privacy Policy</span> here.</p></div>`)
	require.NoError(t, err)

	require.Len(t, matches, 1)
	assert.Equal(t, "Privacy Policy", matches[0].Context)
}

func TestScanIsCaseInsensitive(t *testing.T) {
	s := mustScanner(t, "annual report")

	matches, err := s.Scan("<p>ANNUAL REPORT available</p>")
	require.NoError(t, err)

	require.Len(t, matches, 1)
	assert.Equal(t, "annual report", matches[0].Keyword)
	assert.Equal(t, "ANNUAL REPORT available", matches[0].Context)
}

func TestScanAbsentKeywordYieldsEmptySet(t *testing.T) {
	s := mustScanner(t, "nowhere to be found")

	matches, err := s.Scan("<p>Completely unrelated content.</p>")
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestScanOneMatchPerDistinctKeyword(t *testing.T) {
	s := mustScanner(t, "Security")

	matches, err := s.Scan("<p>Security first</p><p>Security second</p>")
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "Security first", matches[0].Context)
}

func TestScanMultipleKeywords(t *testing.T) {
	s := mustScanner(t, "Privacy", "Security", "Terms of Service")

	matches, err := s.Scan(`<ul><li>Privacy Policy</li><li>Security Notice</li></ul>`)
	require.NoError(t, err)

	require.Len(t, matches, 2)
	found := map[string]string{}
	for _, m := range matches {
		found[m.Keyword] = m.Context
	}
	assert.Equal(t, "Privacy Policy", found["Privacy"])
	assert.Equal(t, "Security Notice", found["Security"])
}

func TestScanIgnoresHiddenText(t *testing.T) {
	s := mustScanner(t, "Privacy")

	matches, err := s.Scan(`<html><head><title>Privacy</title></head>` +
		`<body><script>var x = "Privacy";</script><style>.Privacy{}</style>` +
		`<p>nothing here</p></body></html>`)
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestScanNormalizesContextWhitespace(t *testing.T) {
	s := mustScanner(t, "Annual Report")

	matches, err := s.Scan("<p>\n  Annual Report\n  2024\n</p>")
	require.NoError(t, err)

	require.Len(t, matches, 1)
	assert.Equal(t, "Annual Report 2024", matches[0].Context)
}

func TestNewKeywordScannerRejectsEmptySet(t *testing.T) {
	_, err := NewKeywordScanner(nil)
	assert.Error(t, err)

	_, err = NewKeywordScanner([]string{"  ", ""})
	assert.Error(t, err)
}

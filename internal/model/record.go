package model

import "time"

type Category int

const (
	CategoryMatch Category = iota
	CategoryNoMatch
	CategoryError
)

func (c Category) String() string {
	return [...]string{"match", "no_match", "error"}[c]
}

func (c Category) MarshalJSON() ([]byte, error) {
	return []byte(`"` + c.String() + `"`), nil
}

// DomainEntry pairs a raw line from the input list with its canonical
// hostname. Entries are created by the loader and never mutated.
type DomainEntry struct {
	Raw      string `json:"raw"`
	Hostname string `json:"hostname"`
}

// FetchResult is a successful retrieval of a hostname's content.
// InsecureTLS is set when certificate verification had to be bypassed
// to complete the request.
type FetchResult struct {
	FinalURL    string `json:"final_url"`
	HTML        string `json:"-"`
	InsecureTLS bool   `json:"insecure_tls,omitempty"`
	SSLNote     string `json:"ssl_note,omitempty"`
}

// FetchFailure carries the per-protocol reasons after both protocols
// have been exhausted.
type FetchFailure struct {
	HTTPSErr string `json:"https_err,omitempty"`
	HTTPErr  string `json:"http_err,omitempty"`
}

func (f *FetchFailure) Reason() string {
	switch {
	case f.HTTPSErr != "" && f.HTTPErr != "":
		return "https: " + f.HTTPSErr + "; http: " + f.HTTPErr
	case f.HTTPSErr != "":
		return "https: " + f.HTTPSErr
	case f.HTTPErr != "":
		return "http: " + f.HTTPErr
	}
	return "connection failure"
}

// Match pairs a keyword with the text of the smallest element
// containing it.
type Match struct {
	Keyword string `json:"keyword"`
	Context string `json:"context"`
}

// ScanRecord is the final categorized outcome for one hostname.
type ScanRecord struct {
	Timestamp time.Time `json:"timestamp"`
	Domain    string    `json:"domain"`
	ScanKey   string    `json:"scan_key,omitempty"`
	FinalURL  string    `json:"final_url,omitempty"`
	Category  Category  `json:"category"`
	Matches   []Match   `json:"matches,omitempty"`
	Reason    string    `json:"reason,omitempty"`
	Details   []string  `json:"details,omitempty"`
}

// Package loader resolves the working set of hostnames for a scan run
// from local CSV/TXT lists, fetching the list from its configured source
// URL when the local copy is missing.
package loader

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"scrapegoat/internal/model"
	"scrapegoat/internal/normalize"
)

var ErrListUnavailable = errors.New("domain list unavailable")

const downloadTimeout = 15 * time.Second

type ListLoader struct {
	log    *slog.Logger
	client *http.Client
}

func NewListLoader(log *slog.Logger) *ListLoader {
	return &ListLoader{
		log:    log,
		client: &http.Client{Timeout: downloadTimeout},
	}
}

// Load reads the list file (format by extension), normalizes every entry
// and deduplicates by hostname, first occurrence winning. Invalid entries
// are skipped, never fatal.
func (l *ListLoader) Load(filename string) ([]model.DomainEntry, error) {
	raws, err := l.readRaw(filename)
	if err != nil {
		return nil, err
	}

	entries := make([]model.DomainEntry, 0, len(raws))
	seen := make(map[string]struct{}, len(raws))
	for _, raw := range raws {
		hostname, err := normalize.Hostname(raw)
		if err != nil {
			l.log.Debug("skipping invalid domain entry.", slog.String("raw", raw))
			continue
		}
		if _, ok := seen[hostname]; ok {
			continue
		}
		seen[hostname] = struct{}{}
		entries = append(entries, model.DomainEntry{Raw: raw, Hostname: hostname})
	}
	l.log.Info("domain list loaded.", slog.String("file", filename),
		slog.Int("entries", len(raws)), slog.Int("unique", len(entries)))

	return entries, nil
}

// EnsureLocal downloads the list from its source URL when the local file
// does not exist yet. A download failure here is fatal to the run.
func (l *ListLoader) EnsureLocal(filename, sourceURL string) error {
	if _, err := os.Stat(filename); err == nil {
		return nil
	}
	if sourceURL == "" {
		return fmt.Errorf("%w: %s does not exist and no source url is configured",
			ErrListUnavailable, filename)
	}
	l.log.Info("local list not found. downloading...", slog.String("file", filename))

	return l.Update(filename, sourceURL)
}

// Update downloads the latest list to filename, overwriting any existing
// copy, and reports the change in entry count.
func (l *ListLoader) Update(filename, sourceURL string) error {
	before := l.countEntries(filename)

	resp, err := l.client.Get(sourceURL)
	if err != nil {
		return fmt.Errorf("%w: download failed: %v", ErrListUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: download failed: %s", ErrListUnavailable, resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: download failed: %v", ErrListUnavailable, err)
	}
	if err := os.MkdirAll(filepath.Dir(filename), 0755); err != nil {
		return fmt.Errorf("%w: %v", ErrListUnavailable, err)
	}
	if err := os.WriteFile(filename, body, 0644); err != nil {
		return fmt.Errorf("%w: %v", ErrListUnavailable, err)
	}

	after := l.countEntries(filename)
	switch {
	case before == 0:
		l.log.Info("list downloaded.", slog.String("file", filename), slog.Int("entries", after))
	case after != before:
		l.log.Info("list updated.", slog.String("file", filename),
			slog.Int("entries", after), slog.Int("change", after-before))
	default:
		l.log.Info("list unchanged.", slog.String("file", filename), slog.Int("entries", after))
	}

	return nil
}

func (l *ListLoader) readRaw(filename string) ([]string, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrListUnavailable, err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return readCSV(f)
	case ".txt":
		raws, err := readLines(f)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrListUnavailable, err)
		}
		return raws, nil
	default:
		return nil, fmt.Errorf("%w: unsupported list format %q (use .csv or .txt)",
			ErrListUnavailable, filepath.Ext(filename))
	}
}

// readCSV reads the first column of every row. The first row is skipped
// when its first cell does not look like a domain.
func readCSV(r io.Reader) ([]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	var raws []string
	first := true
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: malformed csv: %v", ErrListUnavailable, err)
		}
		if len(row) == 0 {
			continue
		}
		cell := strings.TrimSpace(row[0])
		if first {
			first = false
			if !plausibleDomain(cell) {
				continue // header row
			}
		}
		if cell != "" {
			raws = append(raws, cell)
		}
	}

	return raws, nil
}

func readLines(r io.Reader) ([]string, error) {
	var raws []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		raws = append(raws, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return raws, nil
}

// plausibleDomain is the header-skip heuristic: a cell with a dot and no
// spaces is taken to be data, anything else a header label.
func plausibleDomain(cell string) bool {
	return cell != "" && strings.Contains(cell, ".") && !strings.ContainsAny(cell, " \t")
}

// countEntries counts data rows in an existing list file. Used only to
// report the delta after an update; errors count as zero.
func (l *ListLoader) countEntries(filename string) int {
	raws, err := l.readRaw(filename)
	if err != nil {
		return 0
	}
	return len(raws)
}

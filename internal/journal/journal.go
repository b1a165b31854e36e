// Package journal appends categorized scan records to the run's output
// streams. Every record is flushed as soon as it is written so an
// interrupted run keeps everything scanned so far.
package journal

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	jsoniter "github.com/json-iterator/go"

	"scrapegoat/internal/model"
)

const timeLayout = "2006-01-02 15:04:05"

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Journal owns the three category logs (matches, no-matches, errors) and,
// optionally, a machine-readable records.jsonl stream.
type Journal struct {
	matches   *os.File
	noMatches *os.File
	errs      *os.File
	records   *os.File
	log       *slog.Logger
}

// Open creates or opens the output streams under dir. In clobber mode any
// existing content is truncated once, here; otherwise records are appended.
func Open(dir string, clobber, jsonl bool, log *slog.Logger) (*Journal, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create logs directory: %w", err)
	}

	flags := os.O_CREATE | os.O_WRONLY | os.O_APPEND
	if clobber {
		flags = os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	}

	j := &Journal{log: log}
	var err error
	if j.matches, err = os.OpenFile(filepath.Join(dir, "matches.log"), flags, 0644); err != nil {
		return nil, fmt.Errorf("failed to open matches log: %w", err)
	}
	if j.noMatches, err = os.OpenFile(filepath.Join(dir, "no_matches.log"), flags, 0644); err != nil {
		j.Close()
		return nil, fmt.Errorf("failed to open no-matches log: %w", err)
	}
	if j.errs, err = os.OpenFile(filepath.Join(dir, "errors.log"), flags, 0644); err != nil {
		j.Close()
		return nil, fmt.Errorf("failed to open errors log: %w", err)
	}
	if jsonl {
		if j.records, err = os.OpenFile(filepath.Join(dir, "records.jsonl"), flags, 0644); err != nil {
			j.Close()
			return nil, fmt.Errorf("failed to open jsonl stream: %w", err)
		}
	}

	return j, nil
}

// Match appends a match record: a header line followed by one context
// line per matched keyword.
func (j *Journal) Match(rec *model.ScanRecord) error {
	var b strings.Builder
	fmt.Fprintf(&b, "%s - %s (%s):\n", rec.Timestamp.Format(timeLayout), rec.ScanKey, rec.Domain)
	for _, m := range rec.Matches {
		fmt.Fprintf(&b, "  - [%s]: %s\n", m.Keyword, m.Context)
	}
	b.WriteString("\n")

	if err := j.write(j.matches, b.String()); err != nil {
		return err
	}
	return j.writeRecord(rec)
}

func (j *Journal) NoMatch(rec *model.ScanRecord) error {
	line := fmt.Sprintf("%s - %s (%s)\n", rec.Timestamp.Format(timeLayout), rec.ScanKey, rec.Domain)
	if err := j.write(j.noMatches, line); err != nil {
		return err
	}
	return j.writeRecord(rec)
}

func (j *Journal) Error(rec *model.ScanRecord) error {
	var b strings.Builder
	fmt.Fprintf(&b, "%s - %s - %s\n", rec.Timestamp.Format(timeLayout), rec.Domain, rec.Reason)
	for _, d := range rec.Details {
		fmt.Fprintf(&b, "  - %s\n", d)
	}

	if err := j.write(j.errs, b.String()); err != nil {
		return err
	}
	return j.writeRecord(rec)
}

// Note appends an annotation line to the errors log without producing an
// Error record. Used for the TLS-bypass note on otherwise successful scans.
func (j *Journal) Note(rec *model.ScanRecord, note string) error {
	line := fmt.Sprintf("%s - %s - SSL NOTE: %s\n", rec.Timestamp.Format(timeLayout), rec.Domain, note)
	return j.write(j.errs, line)
}

func (j *Journal) Close() {
	for _, f := range []*os.File{j.matches, j.noMatches, j.errs, j.records} {
		if f == nil {
			continue
		}
		if err := f.Close(); err != nil {
			j.log.Error("failed to close output stream.", slog.String("err", err.Error()))
		}
	}
}

func (j *Journal) write(f *os.File, s string) error {
	if _, err := f.WriteString(s); err != nil {
		return fmt.Errorf("failed to write scan record: %w", err)
	}
	// os.File writes are unbuffered; Sync guards against losing flushed
	// records to an OS-level crash mid-run.
	if err := f.Sync(); err != nil {
		return fmt.Errorf("failed to sync scan record: %w", err)
	}
	return nil
}

func (j *Journal) writeRecord(rec *model.ScanRecord) error {
	if j.records == nil {
		return nil
	}
	body, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal scan record: %w", err)
	}
	return j.write(j.records, string(body)+"\n")
}

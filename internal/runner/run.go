// Package runner sequences the scan: fetch each hostname of the working
// set once, scan the content for keywords and journal the categorized
// result. Hostnames are visited in a random permutation unless file order
// is requested.
package runner

import (
	"context"
	"log/slog"
	"math/rand"
	"net/url"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"

	"scrapegoat/internal/console"
	"scrapegoat/internal/model"
	"scrapegoat/internal/normalize"
)

type Fetcher interface {
	Fetch(hostname string) (*model.FetchResult, *model.FetchFailure)
}

type Scanner interface {
	Scan(html string) ([]model.Match, error)
}

type Recorder interface {
	Match(*model.ScanRecord) error
	NoMatch(*model.ScanRecord) error
	Error(*model.ScanRecord) error
	Note(*model.ScanRecord, string) error
}

type Summary struct {
	Scanned int
	Hits    int
	Errors  int
	Skipped int
}

type Runner struct {
	Fetch   Fetcher
	Scan    Scanner
	Journal Recorder
	Console *console.Printer
	Log     *slog.Logger
	Rand    *rand.Rand
	InOrder bool

	// Base domains already scanned this run. A hostname whose final URL
	// redirects into an already scanned site is skipped.
	seen *cache.Cache
}

func NewRunner(fetch Fetcher, scan Scanner, j Recorder, c *console.Printer,
	log *slog.Logger, rng *rand.Rand, inOrder bool) *Runner {
	return &Runner{
		Fetch:   fetch,
		Scan:    scan,
		Journal: j,
		Console: c,
		Log:     log,
		Rand:    rng,
		InOrder: inOrder,
		seen:    cache.New(cache.NoExpiration, 0),
	}
}

// Run processes every entry exactly once. Cancellation is checked between
// hostnames, before committing to a fetch; the hostname in flight when the
// interrupt arrives finishes and its record is written whole, then Run
// returns cleanly. Only an unwritable output stream aborts with an error.
func (r *Runner) Run(ctx context.Context, entries []model.DomainEntry) (Summary, error) {
	order := make([]model.DomainEntry, len(entries))
	copy(order, entries)
	if !r.InOrder {
		r.Rand.Shuffle(len(order), func(i, j int) {
			order[i], order[j] = order[j], order[i]
		})
	}

	var sum Summary
	for i, entry := range order {
		select {
		case <-ctx.Done():
			r.Log.Info("scan interrupted by operator.", slog.Int("completed", sum.Scanned))
			return sum, nil
		default:
		}

		sum.Scanned++
		r.Console.Scanning(i+1, len(order), entry.Hostname)
		rec := &model.ScanRecord{Timestamp: time.Now(), Domain: entry.Raw}

		res, failure := r.Fetch.Fetch(entry.Hostname)
		if failure != nil {
			rec.Category = model.CategoryError
			rec.Reason = "Connection Failure"
			if failure.HTTPSErr != "" {
				rec.Details = append(rec.Details, "HTTPS Error: "+failure.HTTPSErr)
			}
			if failure.HTTPErr != "" {
				rec.Details = append(rec.Details, "HTTP Error: "+failure.HTTPErr)
			}
			if err := r.Journal.Error(rec); err != nil {
				return sum, err
			}
			r.Console.Error(entry.Hostname, "could not connect on either protocol")
			sum.Errors++
			continue
		}

		rec.FinalURL = res.FinalURL
		if res.SSLNote != "" {
			r.Console.Note(res.SSLNote)
			if err := r.Journal.Note(rec, res.SSLNote); err != nil {
				return sum, err
			}
		}

		scanKey := normalize.BaseDomain(res.FinalURL)
		if scanKey == "" {
			rec.Category = model.CategoryError
			rec.Reason = "Could not parse final domain from " + res.FinalURL
			if err := r.Journal.Error(rec); err != nil {
				return sum, err
			}
			r.Console.Error(entry.Hostname, rec.Reason)
			sum.Errors++
			continue
		}
		rec.ScanKey = scanKey

		if _, dup := r.seen.Get(scanKey); dup {
			r.Console.Skip(entry.Hostname, scanKey)
			sum.Skipped++
			continue
		}
		r.seen.Set(scanKey, struct{}{}, cache.NoExpiration)

		matches, err := r.Scan.Scan(res.HTML)
		if err != nil {
			rec.Category = model.CategoryError
			rec.Reason = err.Error()
			if err := r.Journal.Error(rec); err != nil {
				return sum, err
			}
			r.Console.Error(entry.Hostname, rec.Reason)
			sum.Errors++
			continue
		}

		if len(matches) == 0 {
			rec.Category = model.CategoryNoMatch
			if err := r.Journal.NoMatch(rec); err != nil {
				return sum, err
			}
			r.Console.NoMatch(entry.Hostname)
			continue
		}

		rec.Category = model.CategoryMatch
		rec.Matches = matches
		if err := r.Journal.Match(rec); err != nil {
			return sum, err
		}
		sum.Hits++
		r.Console.Match(entry.Hostname, scanKey, protocol(res.FinalURL))
		for _, m := range matches {
			r.Console.MatchContext(m.Keyword, m.Context)
		}
	}

	return sum, nil
}

func protocol(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" {
		return "HTTP"
	}
	return strings.ToUpper(u.Scheme)
}

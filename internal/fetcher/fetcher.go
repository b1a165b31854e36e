// Package fetcher retrieves a hostname's HTML, trying HTTPS before HTTP
// and bypassing certificate verification when that is the only way to
// complete the request.
package fetcher

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gocolly/colly"

	"scrapegoat/config"
	"scrapegoat/internal/model"
)

type SiteFetcher struct {
	cfg *config.FetcherConfig
	log *slog.Logger
}

func NewSiteFetcher(cfg *config.FetcherConfig, log *slog.Logger) *SiteFetcher {
	return &SiteFetcher{cfg: cfg, log: log}
}

// Fetch attempts https://hostname first and falls back to http://hostname.
// An HTTPS attempt that fails certificate verification is retried once
// with verification disabled; the result then carries InsecureTLS and an
// SSL note. No other retries are made.
func (f *SiteFetcher) Fetch(hostname string) (*model.FetchResult, *model.FetchFailure) {
	res, err := f.attempt("https://"+hostname, false)
	if err == nil {
		return res, nil
	}
	httpsErr := err

	if isTLSError(err) {
		note := fmt.Sprintf("SSL verification failed (%v), proceeding without verification", err)
		f.log.Debug("tls verification failed. retrying insecure.",
			slog.String("host", hostname), slog.String("err", err.Error()))
		res, err = f.attempt("https://"+hostname, true)
		if err == nil {
			res.InsecureTLS = true
			res.SSLNote = note
			return res, nil
		}
		httpsErr = err
	}

	res, err = f.attempt("http://"+hostname, false)
	if err == nil {
		return res, nil
	}

	return nil, &model.FetchFailure{
		HTTPSErr: httpsErr.Error(),
		HTTPErr:  err.Error(),
	}
}

func (f *SiteFetcher) attempt(url string, insecure bool) (*model.FetchResult, error) {
	c := colly.NewCollector()
	c.SetRequestTimeout(f.cfg.Timeout)
	c.UserAgent = f.cfg.UserAgent
	c.WithTransport(&http.Transport{
		Proxy:           http.ProxyFromEnvironment,
		TLSClientConfig: &tls.Config{InsecureSkipVerify: insecure},
	})
	c.RedirectHandler = func(req *http.Request, via []*http.Request) error {
		if len(via) >= f.cfg.MaxRedirects {
			return fmt.Errorf("stopped after %d redirects", f.cfg.MaxRedirects)
		}
		return nil
	}

	var result *model.FetchResult
	c.OnResponse(func(resp *colly.Response) {
		result = &model.FetchResult{
			FinalURL: resp.Request.URL.String(),
			HTML:     string(resp.Body),
		}
	})

	if err := c.Visit(url); err != nil {
		return nil, err
	}
	if result == nil {
		return nil, errors.New("empty response")
	}

	return result, nil
}

// isTLSError reports whether err is a certificate verification failure,
// the only failure class that warrants the insecure retry.
func isTLSError(err error) bool {
	var certErr *tls.CertificateVerificationError
	if errors.As(err, &certErr) {
		return true
	}
	var unknownAuthority x509.UnknownAuthorityError
	if errors.As(err, &unknownAuthority) {
		return true
	}
	var hostnameErr x509.HostnameError
	if errors.As(err, &hostnameErr) {
		return true
	}
	var invalidCert x509.CertificateInvalidError
	if errors.As(err, &invalidCert) {
		return true
	}

	msg := err.Error()
	return strings.Contains(msg, "x509:") || strings.Contains(msg, "tls:")
}

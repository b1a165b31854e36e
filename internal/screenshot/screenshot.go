// Package screenshot saves full-page captures of a list of domains into a
// dated directory using a headless browser.
package screenshot

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"

	"scrapegoat/config"
)

const sampleDomains = "google.com\ngithub.com\n"

type Capturer struct {
	cfg       *config.ScreenshotConfig
	userAgent string
	log       *slog.Logger
}

func NewCapturer(cfg *config.ScreenshotConfig, userAgent string, log *slog.Logger) *Capturer {
	return &Capturer{cfg: cfg, userAgent: userAgent, log: log}
}

// LoadDomains reads the screenshot domain list, one domain per line. When
// the file does not exist a sample is written and created is true so the
// caller can ask the operator to edit it.
func LoadDomains(filename string, log *slog.Logger) (domains []string, created bool, err error) {
	if _, statErr := os.Stat(filename); os.IsNotExist(statErr) {
		if err := os.WriteFile(filename, []byte(sampleDomains), 0644); err != nil {
			return nil, false, fmt.Errorf("failed to create screenshot domains file: %w", err)
		}
		log.Info("screenshot domains file not found. A sample has been created.",
			slog.String("file", filename))
		return nil, true, nil
	}

	f, err := os.Open(filename)
	if err != nil {
		return nil, false, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		domains = append(domains, line)
	}

	return domains, false, scanner.Err()
}

// CaptureAll screenshots every domain into <output_dir>/<YYYY-MM-DD>/.
// Per-domain failures are logged and skipped; cancellation is honored
// between domains.
func (c *Capturer) CaptureAll(ctx context.Context, domains []string) error {
	outDir := filepath.Join(c.cfg.OutputDir, time.Now().Format("2006-01-02"))
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return fmt.Errorf("failed to create screenshot directory: %w", err)
	}
	c.log.Info("saving screenshots.", slog.String("dir", outDir), slog.Int("domains", len(domains)))

	browserCtx, cancel := chromedp.NewContext(ctx)
	defer cancel()

	for i, domain := range domains {
		select {
		case <-ctx.Done():
			c.log.Info("screenshot run interrupted by operator.", slog.Int("completed", i))
			return nil
		default:
		}

		url := domain
		if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
			url = "https://" + url
		}
		c.log.Info("capturing.", slog.String("url", url))
		path, err := c.capture(browserCtx, url, outDir, domain)
		if err != nil {
			c.log.Error("capture failed.", slog.String("url", url), slog.String("err", err.Error()))
			continue
		}
		c.log.Info("screenshot saved.", slog.String("file", path))
	}

	return nil
}

func (c *Capturer) capture(parent context.Context, url, outDir, domain string) (string, error) {
	tCtx, cancelTCtx := context.WithTimeout(parent, c.cfg.PageTimeout)
	defer cancelTCtx()
	ctx, cancel := chromedp.NewContext(tCtx)
	defer cancel()

	var buf []byte
	err := chromedp.Run(ctx,
		network.Enable(),
		network.SetExtraHTTPHeaders(map[string]interface{}{
			"User-Agent": c.userAgent,
		}),
		chromedp.Navigate(url),
		chromedp.Sleep(2*time.Second), // let lazy-loaded elements settle
		chromedp.FullScreenshot(&buf, 90),
	)
	if err != nil {
		return "", err
	}

	name := fmt.Sprintf("%s_%s.png", SanitizeFilename(domain), time.Now().Format("2006-01-02-15-04-05"))
	path := filepath.Join(outDir, name)
	if err := os.WriteFile(path, buf, 0644); err != nil {
		return "", err
	}

	return path, nil
}

// SanitizeFilename makes a domain safe to use as a file name.
func SanitizeFilename(domain string) string {
	return strings.NewReplacer(".", "_", "/", "", ":", "_").Replace(domain)
}

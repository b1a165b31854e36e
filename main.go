package main

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	netUrl "net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/lmittmann/tint"
	flag "github.com/spf13/pflag"

	"scrapegoat/config"
	"scrapegoat/internal/console"
	"scrapegoat/internal/fetcher"
	"scrapegoat/internal/journal"
	"scrapegoat/internal/loader"
	"scrapegoat/internal/runner"
	"scrapegoat/internal/scanner"
	"scrapegoat/internal/screenshot"
)

var (
	cfg *config.Config
	log *slog.Logger
)

var (
	inputFlag      = flag.StringP("input", "i", "", "custom local input file (in the lists directory), overriding config")
	listNameFlag   = flag.StringP("list-name", "l", "", "named domain list from config.yaml (default: the list marked default)")
	inOrderFlag    = flag.BoolP("in-order", "o", false, "scan domains in file order (disables randomization)")
	noColorFlag    = flag.BoolP("no-color", "c", false, "disable colorized console output")
	updateFlag     = flag.BoolP("update-list", "u", false, "download the latest version of the selected domain list and exit")
	clobberFlag    = flag.Bool("clobber", false, "overwrite the output logs instead of appending")
	screenshotFlag = flag.Bool("screenshots", false, "take full-page screenshots of the screenshot domain list instead of scanning")
	seedFlag       = flag.Int64("seed", 0, "seed for the random scan order (0 = time-based)")
)

func main() {
	flag.Parse()
	cfg = config.MustLoad()
	log = setupLogger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	os.Exit(run(ctx))
}

func run(ctx context.Context) int {
	if *screenshotFlag {
		return runScreenshots(ctx)
	}

	listName := *listNameFlag
	if listName == "" {
		listName = cfg.DefaultListName()
	}
	list, ok := cfg.Lists[listName]
	if !ok && *inputFlag == "" {
		log.Error("list name not found in config.", slog.String("list", listName),
			slog.String("available", strings.Join(listNames(), ", ")))
		return 1
	}

	listsDir := cfg.OutputSettings.ListsDir
	if err := os.MkdirAll(listsDir, 0755); err != nil {
		log.Error("failed to create lists directory.", slog.String("err", err.Error()))
		return 1
	}

	listLoader := loader.NewListLoader(log)
	if *updateFlag {
		if list == nil {
			log.Error("no list selected to update.")
			return 1
		}
		if err := listLoader.Update(localListFile(listsDir, list), list.URL); err != nil {
			log.Error("list update failed.", slog.String("err", err.Error()))
			return 1
		}
		return 0
	}

	var inputFile string
	if *inputFlag != "" {
		inputFile = filepath.Join(listsDir, *inputFlag)
		log.Info("using local override file.", slog.String("file", inputFile))
	} else {
		inputFile = localListFile(listsDir, list)
		log.Info("using list from config.", slog.String("list", listName))
		if err := listLoader.EnsureLocal(inputFile, list.URL); err != nil {
			log.Error("domain list is unavailable.", slog.String("err", err.Error()))
			return 1
		}
	}

	keywordsFile := "keywords.txt"
	if list != nil && list.KeywordsFile != "" {
		keywordsFile = list.KeywordsFile
	}
	keywords, created, err := loader.LoadKeywords(keywordsFile, log)
	if err != nil {
		log.Error("failed to load keywords.", slog.String("err", err.Error()))
		return 1
	}
	if created {
		log.Info("edit the keyword file and run again.", slog.String("file", keywordsFile))
		return 0
	}

	entries, err := listLoader.Load(inputFile)
	if err != nil {
		log.Error("failed to load domain list.", slog.String("err", err.Error()))
		return 1
	}

	keywordScanner, err := scanner.NewKeywordScanner(keywords)
	if err != nil {
		log.Error("failed to prepare keyword scanner.", slog.String("err", err.Error()))
		return 1
	}

	jnl, err := journal.Open(cfg.OutputSettings.LogsDir, *clobberFlag, cfg.OutputSettings.Jsonl, log)
	if err != nil {
		log.Error("failed to open output streams.", slog.String("err", err.Error()))
		return 1
	}
	defer jnl.Close()
	if *clobberFlag {
		log.Info("clobbering previous output files.")
	}

	seed := *seedFlag
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	printer := console.NewPrinter(*noColorFlag)
	scanRunner := runner.NewRunner(
		fetcher.NewSiteFetcher(cfg.FetcherSettings, log),
		keywordScanner,
		jnl,
		printer,
		log,
		rand.New(rand.NewSource(seed)),
		*inOrderFlag,
	)

	fmt.Println("--- Scrape Goat: Website Keyword Checker ---")
	fmt.Println("-> Press Ctrl+C at any time to stop the scan.")
	if *inOrderFlag {
		log.Info("scanning domains in file order.")
	} else {
		log.Info("scanning domains in random order. Use --in-order to disable.")
	}
	log.Info("starting scan.", slog.Int("domains", len(entries)))

	summary, err := scanRunner.Run(ctx, entries)
	if err != nil {
		log.Error("scan aborted.", slog.String("err", err.Error()))
		return 1
	}
	printer.Summary(summary.Hits, summary.Scanned, cfg.OutputSettings.LogsDir)

	return 0
}

func runScreenshots(ctx context.Context) int {
	domains, created, err := screenshot.LoadDomains(cfg.ScreenshotSettings.DomainsFile, log)
	if err != nil {
		log.Error("failed to load screenshot domains.", slog.String("err", err.Error()))
		return 1
	}
	if created {
		log.Info("edit the screenshot domains file and run again.",
			slog.String("file", cfg.ScreenshotSettings.DomainsFile))
		return 0
	}
	if len(domains) == 0 {
		log.Info("screenshot domains file is empty. Nothing to do.")
		return 0
	}

	capturer := screenshot.NewCapturer(cfg.ScreenshotSettings, cfg.FetcherSettings.UserAgent, log)
	if err := capturer.CaptureAll(ctx, domains); err != nil {
		log.Error("screenshot run failed.", slog.String("err", err.Error()))
		return 1
	}

	return 0
}

// localListFile resolves the local path for a configured list: its
// explicit filename, or the basename of the source URL's path.
func localListFile(listsDir string, list *config.ListConfig) string {
	if list.Filename != "" {
		return filepath.Join(listsDir, list.Filename)
	}
	base := "domains.csv"
	if u, err := netUrl.Parse(list.URL); err == nil && u.Path != "" {
		b := filepath.Base(u.Path)
		if unescaped, err := netUrl.PathUnescape(b); err == nil {
			b = unescaped
		}
		if b != "." && b != "/" {
			base = b
		}
	}
	return filepath.Join(listsDir, base)
}

func listNames() []string {
	names := make([]string, 0, len(cfg.Lists))
	for name := range cfg.Lists {
		names = append(names, name)
	}
	return names
}

func setupLogger() *slog.Logger {
	resolvedLogLevel := func() slog.Level {
		envLogLevel := strings.ToLower(cfg.LogLevel)
		switch envLogLevel {
		case "info":
			return slog.LevelInfo
		case "error":
			return slog.LevelError
		default:
			return slog.LevelDebug
		}
	}

	replaceAttrs := func(groups []string, a slog.Attr) slog.Attr {
		if a.Key == slog.SourceKey {
			source := a.Value.Any().(*slog.Source)
			source.File = filepath.Base(source.File)
		}
		return a
	}

	var logger *slog.Logger
	if strings.ToLower(cfg.LogType) == "json" {
		logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			AddSource:   true,
			Level:       resolvedLogLevel(),
			ReplaceAttr: replaceAttrs}))
	} else {
		logger = slog.New(tint.NewHandler(os.Stdout, &tint.Options{
			AddSource:   true,
			Level:       resolvedLogLevel(),
			ReplaceAttr: replaceAttrs,
			NoColor:     *noColorFlag}))
	}

	slog.SetDefault(logger)
	logger.Debug("debug messages are enabled.")

	return logger
}

package config

import (
	"errors"
	"log/slog"
	"os"
	"path"
	"time"

	"github.com/spf13/viper"
)

const defaultConfig = `# scrapegoat configuration
log_level: "info"
log_type: "text" # text or json

fetcher:
  timeout: 10s
  max_redirects: 10
  user_agent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/58.0.3029.110 Safari/537.36"

output:
  logs_dir: "logs"
  lists_dir: "domain-lists"
  jsonl: false # also write logs/records.jsonl, one JSON record per line

screenshots:
  domains_file: "screenshot_domains.txt"
  output_dir: "."
  page_timeout: 20s

# Named domain lists. The first column of a .csv (or each line of a .txt)
# is read as a domain. When the local file is missing it is downloaded
# from 'url'. The list with 'default: true' is used when no -l flag is given.
lists:
  hatch-act:
    url: "https://raw.githubusercontent.com/cisagov/dotgov-data/main/current-federal.csv"
    keywords_file: "keywords.txt"
    default: true
`

type Config struct {
	LogLevel           string                 `mapstructure:"log_level"`
	LogType            string                 `mapstructure:"log_type"`
	FetcherSettings    *FetcherConfig         `mapstructure:"fetcher"`
	OutputSettings     *OutputConfig          `mapstructure:"output"`
	ScreenshotSettings *ScreenshotConfig      `mapstructure:"screenshots"`
	Lists              map[string]*ListConfig `mapstructure:"lists"`
}

type FetcherConfig struct {
	Timeout      time.Duration `mapstructure:"timeout"`
	MaxRedirects int           `mapstructure:"max_redirects"`
	UserAgent    string        `mapstructure:"user_agent"`
}

type OutputConfig struct {
	LogsDir  string `mapstructure:"logs_dir"`
	ListsDir string `mapstructure:"lists_dir"`
	Jsonl    bool   `mapstructure:"jsonl"`
}

type ScreenshotConfig struct {
	DomainsFile string        `mapstructure:"domains_file"`
	OutputDir   string        `mapstructure:"output_dir"`
	PageTimeout time.Duration `mapstructure:"page_timeout"`
}

type ListConfig struct {
	URL          string `mapstructure:"url"`
	Filename     string `mapstructure:"filename"`
	KeywordsFile string `mapstructure:"keywords_file"`
	Default      bool   `mapstructure:"default"`
}

func MustLoad() *Config {
	viper.AddConfigPath(path.Join("."))
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AutomaticEnv()
	setDefaults()

	err := viper.ReadInConfig()
	if err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			bootstrapDefaultConfig()
		}
		slog.Error("can't initialize config file.", slog.String("err", err.Error()))
		os.Exit(1)
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		slog.Error("error unmarshalling viper config.", slog.String("err", err.Error()))
		os.Exit(1)
	}

	return &cfg
}

// bootstrapDefaultConfig writes a commented example config next to the
// binary and exits so the operator can review it before the first run.
func bootstrapDefaultConfig() {
	if err := os.WriteFile("config.yaml", []byte(defaultConfig), 0644); err != nil {
		slog.Error("failed to write example config.", slog.String("err", err.Error()))
		os.Exit(1)
	}
	slog.Info("config.yaml not found. An example config has been created. " +
		"Edit it and run again.")
	os.Exit(0)
}

func setDefaults() {
	viper.SetDefault("log_level", "info")
	viper.SetDefault("log_type", "text")
	viper.SetDefault("fetcher.timeout", 10*time.Second)
	viper.SetDefault("fetcher.max_redirects", 10)
	viper.SetDefault("fetcher.user_agent",
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/58.0.3029.110 Safari/537.36")
	viper.SetDefault("output.logs_dir", "logs")
	viper.SetDefault("output.lists_dir", "domain-lists")
	viper.SetDefault("output.jsonl", false)
	viper.SetDefault("screenshots.domains_file", "screenshot_domains.txt")
	viper.SetDefault("screenshots.output_dir", ".")
	viper.SetDefault("screenshots.page_timeout", 20*time.Second)
}

// DefaultListName returns the list marked default, or any list if none is.
func (c *Config) DefaultListName() string {
	for name, l := range c.Lists {
		if l.Default {
			return name
		}
	}
	for name := range c.Lists {
		return name
	}
	return ""
}

// Load envs from .env
// Load YAML config
// Apply env overrides and defaults
// Validate config

package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultPath is read when no config path is given.
const DefaultPath = "configs/config.yaml"

// ErrMissingDatabaseURL is returned before any work starts when no store
// endpoint is configured.
var ErrMissingDatabaseURL = errors.New("DATABASE_URL is required")

// ErrInvalid wraps every other validation failure.
var ErrInvalid = errors.New("invalid config")

type Config struct {
	Database struct {
		URL            string `yaml:"url" env:"DATABASE_URL"`
		KeyringAccount string `yaml:"keyring_account" env:"DATABASE_KEYRING_ACCOUNT"`
	} `yaml:"database"`

	//Search source
	Source struct {
		URLTemplate       string        `yaml:"url_template" env:"HARVEST_URL_TEMPLATE"`
		PageStep          int           `yaml:"page_step"`
		MaxPages          int           `yaml:"max_pages" env:"HARVEST_MAX_PAGES"`
		NavigationTimeout time.Duration `yaml:"navigation_timeout"`
		ReadyTimeout      time.Duration `yaml:"ready_timeout"`
		MinDelay          time.Duration `yaml:"min_delay"`
		MaxDelay          time.Duration `yaml:"max_delay"`
		RequestsPerSecond float64       `yaml:"requests_per_second"`
	} `yaml:"source"`

	Browser struct {
		ShowBrowser   bool   `yaml:"show_browser"`
		UserAgent     string `yaml:"user_agent"`
		CookiesPath   string `yaml:"cookies_path"`
		ScreenshotDir string `yaml:"screenshot_dir"`
	} `yaml:"browser"`

	Export struct {
		Path      string `yaml:"path" env:"HARVEST_EXPORT_PATH"`
		Delimiter string `yaml:"delimiter"`
	} `yaml:"export"`

	//Optional run notifications
	Telegram struct {
		Token  string `yaml:"token" env:"TELEGRAM_BOT_TOKEN"`
		ChatID int64  `yaml:"chat_id" env:"TELEGRAM_CHAT_ID"`
	} `yaml:"telegram"`
}

// Load builds the process configuration once. The returned Config is passed
// explicitly to every component; nothing else reads the environment.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	if path == "" {
		path = DefaultPath
	}

	//Load yaml config
	cfg := &Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		log.Printf("Warning: Could not read %s: %v", path, err)
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", ErrInvalid, path, err)
	}

	//Override with env vars
	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	applyDefaults(cfg)

	//Validate required fields
	if err := validate(cfg); err != nil {
		return nil, err
	}

	if err := resolvePassword(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("DATABASE_KEYRING_ACCOUNT"); v != "" {
		cfg.Database.KeyringAccount = v
	}
	if v := os.Getenv("HARVEST_URL_TEMPLATE"); v != "" {
		cfg.Source.URLTemplate = v
	}
	if v := os.Getenv("HARVEST_MAX_PAGES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: HARVEST_MAX_PAGES: %v", ErrInvalid, err)
		}
		cfg.Source.MaxPages = n
	}
	if v := os.Getenv("HARVEST_EXPORT_PATH"); v != "" {
		cfg.Export.Path = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.Token = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%w: TELEGRAM_CHAT_ID: %v", ErrInvalid, err)
		}
		cfg.Telegram.ChatID = id
	}
	return nil
}

func applyDefaults(cfg *Config) {
	s := &cfg.Source
	if s.PageStep == 0 {
		s.PageStep = 1
	}
	if s.MaxPages == 0 {
		s.MaxPages = 10
	}
	if s.NavigationTimeout == 0 {
		s.NavigationTimeout = 30 * time.Second
	}
	if s.ReadyTimeout == 0 {
		s.ReadyTimeout = 15 * time.Second
	}
	if s.MinDelay == 0 && s.MaxDelay == 0 {
		s.MinDelay = 2 * time.Second
		s.MaxDelay = 5 * time.Second
	}
	if s.RequestsPerSecond == 0 {
		s.RequestsPerSecond = 0.5
	}

	if cfg.Export.Path == "" {
		cfg.Export.Path = "data/jobs.csv"
	}
	if cfg.Export.Delimiter == "" {
		cfg.Export.Delimiter = ","
	}
}

func validate(cfg *Config) error {
	if strings.TrimSpace(cfg.Database.URL) == "" {
		return ErrMissingDatabaseURL
	}

	var errs []error
	s := cfg.Source
	if strings.TrimSpace(s.URLTemplate) == "" {
		errs = append(errs, errors.New("source.url_template is required"))
	} else if s.MaxPages > 1 && !strings.Contains(s.URLTemplate, "{page}") {
		errs = append(errs, errors.New("source.url_template must contain {page} when max_pages > 1"))
	}
	if s.MaxPages < 1 {
		errs = append(errs, fmt.Errorf("source.max_pages must be >= 1, got %d", s.MaxPages))
	}
	if s.PageStep < 1 {
		errs = append(errs, fmt.Errorf("source.page_step must be >= 1, got %d", s.PageStep))
	}
	if s.MinDelay < 0 || s.MaxDelay < s.MinDelay {
		errs = append(errs, fmt.Errorf("source delay range [%s, %s] is invalid", s.MinDelay, s.MaxDelay))
	}
	if s.RequestsPerSecond < 0 {
		errs = append(errs, errors.New("source.requests_per_second must be >= 0"))
	}
	if err := validateDelimiter(cfg.Export.Delimiter); err != nil {
		errs = append(errs, err)
	}
	if (cfg.Telegram.Token == "") != (cfg.Telegram.ChatID == 0) {
		errs = append(errs, errors.New("telegram.token and telegram.chat_id must be set together"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
	}
	return nil
}

// validateDelimiter accepts the characters encoding/csv can write with.
func validateDelimiter(d string) error {
	runes := []rune(d)
	if len(runes) != 1 {
		return fmt.Errorf("export.delimiter must be a single character, got %q", d)
	}
	switch r := runes[0]; {
	case r == '"', r == '\r', r == '\n', r == 0, r == utf8.RuneError:
		return fmt.Errorf("export.delimiter %q cannot be used as a field separator", d)
	}
	return nil
}

// DelimiterRune returns the export delimiter as a rune.
func (c *Config) DelimiterRune() rune {
	return []rune(c.Export.Delimiter)[0]
}

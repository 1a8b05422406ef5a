package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"wc-ledger/internal/ledger"
)

// APIConfig carries the WooCommerce endpoint, credentials and fetch tuning.
type APIConfig struct {
	BaseURL        string `yaml:"base_url"`
	Key            string `yaml:"key"`
	Secret         string `yaml:"secret"`
	AuthMode       string `yaml:"auth_mode"`
	PerPage        int    `yaml:"per_page"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	TimeoutStep    int    `yaml:"timeout_step_seconds"`
	Attempts       int    `yaml:"attempts"`
	Pages          int    `yaml:"pages"`
	Workers        int    `yaml:"workers"`
}

// MetaKeys names the order meta fields the shop's fulfilment plugin writes.
// Empty values keep the projector defaults.
type MetaKeys struct {
	Dispatch string `yaml:"dispatch"`
	Tracking string `yaml:"tracking"`
	Delivery string `yaml:"delivery"`
	Birthday string `yaml:"birthday"`
}

// Config is the full run configuration: environment first, then an optional
// YAML file named by LEDGER_CONFIG layered on top.
type Config struct {
	API             APIConfig          `yaml:"api"`
	Language        string             `yaml:"lang"`
	DaysBack        int                `yaml:"days_back"`
	LedgerPath      string             `yaml:"ledger_path"`
	LabelsPath      string             `yaml:"labels_path"`
	LabelFontPath   string             `yaml:"label_font_path"`
	LogPath         string             `yaml:"log_path"`
	ExcludeStatuses []string           `yaml:"exclude_statuses"`
	Styles          ledger.StyleConfig `yaml:"styles"`
	Locale          LocaleOverrides    `yaml:"locale"`
	Meta            MetaKeys           `yaml:"meta_keys"`
	HistoryDSN      string             `yaml:"history_dsn"`
	MetricsPushURL  string             `yaml:"metrics_push_url"`
	MetricsJob      string             `yaml:"metrics_job"`
}

// Load assembles the configuration. Credentials and endpoint are required;
// the error names the missing key.
func Load() (Config, error) {
	cfg := Config{
		API: APIConfig{
			BaseURL:        os.Getenv("WC_BASE_URL"),
			Key:            os.Getenv("WC_KEY"),
			Secret:         os.Getenv("WC_SECRET"),
			AuthMode:       getenvDefault("WC_AUTH_MODE", "query"),
			PerPage:        getenvIntDefault("WC_PER_PAGE", 100),
			TimeoutSeconds: getenvIntDefault("WC_TIMEOUT_SECONDS", 10),
			TimeoutStep:    getenvIntDefault("WC_TIMEOUT_STEP_SECONDS", 5),
			Attempts:       getenvIntDefault("WC_ATTEMPTS", 3),
			Pages:          getenvIntDefault("WC_PAGES", 10),
			Workers:        getenvIntDefault("WC_WORKERS", 5),
		},
		Language:        getenvDefault("LEDGER_LANG", "fa"),
		DaysBack:        getenvIntDefault("LEDGER_DAYS", 30),
		LedgerPath:      getenvDefault("LEDGER_PATH", "orders.xlsx"),
		LabelsPath:      getenvDefault("LEDGER_LABELS_PATH", "labels.pdf"),
		LabelFontPath:   os.Getenv("LEDGER_LABEL_FONT"),
		LogPath:         getenvDefault("LEDGER_LOG_PATH", "wc-ledger.log"),
		ExcludeStatuses: splitCSV(getenvDefault("LEDGER_EXCLUDE_STATUSES", "cancelled,pending")),
		Styles:          ledger.DefaultStyleConfig(),
		HistoryDSN:      getenvDefault("DATABASE_URL", os.Getenv("PG_DSN")),
		MetricsPushURL:  os.Getenv("METRICS_PUSH_URL"),
		MetricsJob:      getenvDefault("METRICS_JOB", "wc-ledger"),
	}

	if path := os.Getenv("LEDGER_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	if cfg.API.BaseURL == "" {
		return cfg, errors.New("config: WC_BASE_URL is required")
	}
	if cfg.API.Key == "" {
		return cfg, errors.New("config: WC_KEY is required")
	}
	if cfg.API.Secret == "" {
		return cfg, errors.New("config: WC_SECRET is required")
	}
	if _, err := LocaleFor(cfg.Language); err != nil {
		return cfg, err
	}
	if cfg.DaysBack < 0 {
		return cfg, fmt.Errorf("config: negative LEDGER_DAYS %d", cfg.DaysBack)
	}
	return cfg, nil
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvIntDefault(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func splitCSV(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	var result []string
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part != "" {
			result = append(result, part)
		}
	}
	return result
}

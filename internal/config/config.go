// Package config loads and watches the YAML configuration file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	yaml "go.yaml.in/yaml/v3"
)

type Config struct {
	Telegram  TelegramConfig  `yaml:"telegram"`
	Logging   LoggingConfig   `yaml:"logging"`
	Storage   StorageConfig   `yaml:"storage"`
	Prices    PricesConfig    `yaml:"prices"`
	Notifier  NotifierConfig  `yaml:"notifier"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
}

type TelegramConfig struct {
	// Token may be left empty in the file and provided via TG_TOKEN instead,
	// so the config file can be committed without secrets.
	Token       string   `yaml:"token"`
	PollTimeout Duration `yaml:"poll_timeout"`
}

type LoggingConfig struct {
	Level   string     `yaml:"level"`
	Console bool       `yaml:"console"`
	File    FileConfig `yaml:"file"`
}

type FileConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

type StorageConfig struct {
	Path        string   `yaml:"path"`
	BusyTimeout Duration `yaml:"busy_timeout"`
}

type PricesConfig struct {
	BaseURL string   `yaml:"base_url"`
	Timeout Duration `yaml:"timeout"`
	// Concurrency bounds the per-run price fetch fan-out.
	Concurrency int `yaml:"concurrency"`
	// Markets is the allow-list of marketplace identifiers accepted by /add.
	Markets []string `yaml:"markets"`
}

type NotifierConfig struct {
	RatePerSec int `yaml:"rate_per_sec"`
	// Modes maps mode names to codes by position: Modes[0] is code 0
	// (every check), Modes[1] is code 1 (changes only).
	Modes []string `yaml:"modes"`
}

type SchedulerConfig struct {
	// Timezone is the bot's reference IANA timezone; user offsets are
	// relative to it.
	Timezone string `yaml:"timezone"`
}

// Duration is a time.Duration that unmarshals from a Go duration string
// (e.g. "10s", "1m30s").
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	v, err := time.ParseDuration(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(v)
	return nil
}

func (d Duration) Std() time.Duration { return time.Duration(d) }

// Load reads, strictly decodes and validates the config at path.
// Unknown keys are rejected to catch typos early.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg, err := parse(b)
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func parse(b []byte) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if strings.TrimSpace(c.Telegram.Token) == "" {
		c.Telegram.Token = os.Getenv("TG_TOKEN")
	}
	if c.Telegram.PollTimeout <= 0 {
		c.Telegram.PollTimeout = Duration(10 * time.Second)
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if !c.Logging.Console && !c.Logging.File.Enabled {
		c.Logging.Console = true
	}
	if c.Storage.Path == "" {
		c.Storage.Path = "./data/pricewatch.db"
	}
	if c.Storage.BusyTimeout <= 0 {
		c.Storage.BusyTimeout = Duration(5 * time.Second)
	}
	if c.Prices.BaseURL == "" {
		c.Prices.BaseURL = "https://api.moneyplace.io"
	}
	if c.Prices.Timeout <= 0 {
		c.Prices.Timeout = Duration(10 * time.Second)
	}
	if c.Prices.Concurrency <= 0 {
		c.Prices.Concurrency = 4
	}
	if len(c.Prices.Markets) == 0 {
		c.Prices.Markets = []string{"wb", "ozon", "mm"}
	}
	if c.Notifier.RatePerSec <= 0 {
		c.Notifier.RatePerSec = 3
	}
	if len(c.Notifier.Modes) == 0 {
		c.Notifier.Modes = []string{"all", "changes"}
	}
	if c.Scheduler.Timezone == "" {
		c.Scheduler.Timezone = "UTC"
	}
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.Telegram.Token) == "" {
		return errors.New("telegram token is empty (set telegram.token or TG_TOKEN)")
	}
	if len(c.Notifier.Modes) != 2 {
		return fmt.Errorf("notifier.modes must name exactly 2 modes, got %d", len(c.Notifier.Modes))
	}
	if _, err := time.LoadLocation(c.Scheduler.Timezone); err != nil {
		return fmt.Errorf("scheduler.timezone: %w", err)
	}
	return nil
}

package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Search struct {
		Keywords string `yaml:"keywords"`
		Location string `yaml:"location"`
		Pages    int    `yaml:"pages"`
	} `yaml:"search"`

	Walk struct {
		ProbeTimeoutSeconds int `yaml:"probe_timeout_seconds"`
		SettleSeconds       int `yaml:"settle_seconds"`
	} `yaml:"walk"`

	Enrich struct {
		BatchSize           int `yaml:"batch_size"`
		FetchTimeoutSeconds int `yaml:"fetch_timeout_seconds"`
		WaitTimeoutSeconds  int `yaml:"wait_timeout_seconds"`
		SettleSeconds       int `yaml:"settle_seconds"`
	} `yaml:"enrich"`

	Render struct {
		Headless          bool    `yaml:"headless"`
		RequestsPerSecond float64 `yaml:"requests_per_second"`
		Burst             int     `yaml:"burst"`
	} `yaml:"render"`

	Store struct {
		// DSN is a sqlite file path by default; postgres:// URLs select
		// the pgx backend.
		DSN string `yaml:"dsn"`
	} `yaml:"store"`

	Export struct {
		Path string `yaml:"path"`
	} `yaml:"export"`
}

func Load(path string) (Config, error) {
	var cfg Config
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, err
	}
	cfg.ApplyDefaults()
	return cfg, nil
}

// ApplyDefaults fills in every zero value so an empty config file is a
// usable one.
func (c *Config) ApplyDefaults() {
	if c.Search.Keywords == "" {
		c.Search.Keywords = "AI Software Engineer"
	}
	if c.Search.Location == "" {
		c.Search.Location = "Remote"
	}
	if c.Search.Pages <= 0 {
		c.Search.Pages = 1
	}
	if c.Walk.ProbeTimeoutSeconds <= 0 {
		c.Walk.ProbeTimeoutSeconds = 6
	}
	if c.Walk.SettleSeconds <= 0 {
		c.Walk.SettleSeconds = 3
	}
	if c.Enrich.BatchSize <= 0 {
		c.Enrich.BatchSize = 5
	}
	if c.Enrich.FetchTimeoutSeconds <= 0 {
		c.Enrich.FetchTimeoutSeconds = 30
	}
	if c.Enrich.WaitTimeoutSeconds <= 0 {
		c.Enrich.WaitTimeoutSeconds = 10
	}
	if c.Enrich.SettleSeconds <= 0 {
		c.Enrich.SettleSeconds = 4
	}
	if c.Render.RequestsPerSecond <= 0 {
		c.Render.RequestsPerSecond = 1.0
	}
	if c.Render.Burst <= 0 {
		c.Render.Burst = 2
	}
	if c.Store.DSN == "" {
		c.Store.DSN = "linkedin_jobs.db"
	}
	if c.Export.Path == "" {
		c.Export.Path = "all-jobs.csv"
	}
}

func Validate(cfg Config) error {
	var errs []string

	if cfg.Search.Pages < 1 {
		errs = append(errs, "search.pages must be >= 1")
	}
	if cfg.Search.Pages > 40 {
		errs = append(errs, fmt.Sprintf("search.pages is %d; the search surface caps out around 40 pages", cfg.Search.Pages))
	}
	if cfg.Enrich.BatchSize < 1 {
		errs = append(errs, "enrich.batch_size must be >= 1")
	}
	if cfg.Enrich.BatchSize > 20 {
		errs = append(errs, fmt.Sprintf("enrich.batch_size is %d; more than 20 concurrent detail fetches gets rate-limited", cfg.Enrich.BatchSize))
	}
	if cfg.Render.RequestsPerSecond > 5 {
		errs = append(errs, "render.requests_per_second must be <= 5")
	}

	if len(errs) > 0 {
		return errors.New("config validation failed:\n- " + joinLines(errs))
	}
	return nil
}

func joinLines(lines []string) string {
	out := ""
	for i, s := range lines {
		if i > 0 {
			out += "\n- "
		}
		out += s
	}
	return out
}

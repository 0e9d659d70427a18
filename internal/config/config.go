// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"

	"portfolio-stats/internal/github"
)

// Config holds all configuration for the application.
type Config struct {
	LogLevel         string        `mapstructure:"LOG_LEVEL"`
	HTTPAddr         string        `mapstructure:"HTTP_ADDR"`
	GithubAPIBaseURL string        `mapstructure:"GITHUB_API_BASE_URL"`
	GithubAccount    string        `mapstructure:"GITHUB_ACCOUNT"`
	GithubToken      string        `mapstructure:"GITHUB_TOKEN"`
	UserAgent        string        `mapstructure:"USER_AGENT"`
	CacheTTL         time.Duration `mapstructure:"CACHE_TTL"`
	FeaturedRepos    []string      `mapstructure:"FEATURED_REPOS"`
	FeaturedLimit    int           `mapstructure:"FEATURED_LIMIT"`
	FallbackLanguage string        `mapstructure:"FALLBACK_LANGUAGE"`
	RefreshInterval  time.Duration `mapstructure:"REFRESH_INTERVAL"`
	ShutdownTimeout  time.Duration `mapstructure:"SHUTDOWN_TIMEOUT"`
}

// LoadConfig reads configuration from file and/or environment variables.
func LoadConfig() (*Config, error) {
	v := viper.New()

	// Set default values
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("GITHUB_API_BASE_URL", "https://api.github.com/")
	v.SetDefault("GITHUB_ACCOUNT", "KayoPereira")
	v.SetDefault("GITHUB_TOKEN", "")
	v.SetDefault("USER_AGENT", github.DefaultUserAgent)
	v.SetDefault("CACHE_TTL", "5m")
	v.SetDefault("FEATURED_REPOS", []string{
		"myportfolio",
		"vitalis_app",
		"itbi-county",
		"HiperionSerras",
		"DevRec",
		"WiFiClientConnect",
	})
	v.SetDefault("FEATURED_LIMIT", 6)
	v.SetDefault("FALLBACK_LANGUAGE", "JavaScript")
	v.SetDefault("REFRESH_INTERVAL", "0s")
	v.SetDefault("SHUTDOWN_TIMEOUT", "10s")

	// Load from .env file if it exists
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // Ignore error if file not found

	// Bind environment variables
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	cfg.FeaturedRepos = trimAll(cfg.FeaturedRepos)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.GithubAccount == "" {
		return errors.New("GITHUB_ACCOUNT is a required configuration field")
	}
	u, err := url.Parse(c.GithubAPIBaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return errors.New("GITHUB_API_BASE_URL must be an absolute URL (e.g. https://api.github.com/)")
	}
	if c.CacheTTL <= 0 {
		return errors.New("CACHE_TTL must be a positive duration")
	}
	if c.FeaturedLimit <= 0 {
		return errors.New("FEATURED_LIMIT must be at least 1")
	}
	if c.RefreshInterval < 0 {
		return errors.New("REFRESH_INTERVAL must not be negative")
	}
	for _, name := range c.FeaturedRepos {
		if err := github.ValidateRepoName(name); err != nil {
			return fmt.Errorf("FEATURED_REPOS: %w", err)
		}
	}
	return nil
}

func trimAll(names []string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			out = append(out, n)
		}
	}
	return out
}

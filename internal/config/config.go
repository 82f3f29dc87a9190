// Package config loads the bot configuration.
//
// Values are layered, lowest precedence first:
//  1. defaults (New)
//  2. YAML file named by Options.File or FASTFINGERS_CONFIG
//  3. a .env file, which only fills variables not already in the environment
//  4. environment variables prefixed FASTFINGERS_ (FASTFINGERS_SLACK_TOKEN -> slack_token)
//  5. explicit overrides, normally command-line flags the user set
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config contains process configuration
type Config struct {
	// Twitter account used to sign in to 10fastfingers
	TwitterUsername string `koanf:"twitter_username"`
	TwitterPassword string `koanf:"twitter_password"`

	SlackToken      string   `koanf:"slack_token"`
	SlackChannelIDs []string `koanf:"slack_channel_ids"`
	SlackUsername   string   `koanf:"slack_username"`

	// Production posts to Slack and enforces the gate; otherwise posts are printed
	Production bool `koanf:"production"`
	// Headless keeps the browser headless outside production too
	Headless bool `koanf:"headless"`
	// NoSandbox disables the Chrome sandbox, needed when running as root in containers
	NoSandbox bool `koanf:"no_sandbox"`
	// Force announces even when the gate would suppress the run
	Force bool `koanf:"force"`

	Timezone        string        `koanf:"timezone"`
	ActiveFromHour  int           `koanf:"active_from_hour"`
	ActiveUntilHour int           `koanf:"active_until_hour"`
	SettleDelay     time.Duration `koanf:"settle_delay"`

	DataDir        string `koanf:"data_dir"`
	ExportPath     string `koanf:"export_path"`
	PushgatewayURL string `koanf:"pushgateway_url"`
	LogLevel       string `koanf:"log_level"`

	// Endpoint overrides, empty means the public site
	SiteURL     string `koanf:"site_url"`
	RankingsURL string `koanf:"rankings_url"`
}

// New creates a Config holding the defaults
func New() *Config {
	return &Config{
		SlackUsername:   "10fastfingers",
		Timezone:        "Local",
		ActiveFromHour:  9,
		ActiveUntilHour: 17,
		SettleDelay:     10 * time.Second,
		DataDir:         "~/.local/share/fastfingers-bot",
		LogLevel:        "info",
	}
}

// Validate checks the values a run cannot do without
func (c *Config) Validate() error {
	if c.TwitterUsername == "" || c.TwitterPassword == "" {
		return ErrMissingCredentials
	}
	if c.Production {
		if c.SlackToken == "" {
			return fmt.Errorf("%w: slack_token is required in production", ErrInvalidConfig)
		}
		if len(c.SlackChannelIDs) == 0 {
			return fmt.Errorf("%w: slack_channel_ids is required in production", ErrInvalidConfig)
		}
	}
	if c.ActiveFromHour < 0 || c.ActiveFromHour > 24 || c.ActiveUntilHour < 0 || c.ActiveUntilHour > 24 {
		return fmt.Errorf("%w: active hours must be between 0 and 24", ErrInvalidConfig)
	}
	if c.SettleDelay < 0 {
		return fmt.Errorf("%w: settle_delay must not be negative", ErrInvalidConfig)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location resolves the configured time zone
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" || strings.EqualFold(c.Timezone, "local") {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("%w: timezone: %v", ErrInvalidConfig, err)
	}
	return loc, nil
}

// Headful reports whether the browser window should be shown
func (c *Config) Headful() bool {
	return !c.Production && !c.Headless
}

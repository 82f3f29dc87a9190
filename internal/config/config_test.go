package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	c := New()
	c.TwitterUsername = "typing_bot"
	c.TwitterPassword = "hunter2"
	return c
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{
			name:   "development defaults",
			mutate: func(c *Config) {},
		},
		{
			name:    "missing username",
			mutate:  func(c *Config) { c.TwitterUsername = "" },
			wantErr: ErrMissingCredentials,
		},
		{
			name:    "missing password",
			mutate:  func(c *Config) { c.TwitterPassword = "" },
			wantErr: ErrMissingCredentials,
		},
		{
			name:    "production without slack token",
			mutate:  func(c *Config) { c.Production = true; c.SlackChannelIDs = []string{"C1"} },
			wantErr: ErrInvalidConfig,
		},
		{
			name:    "production without channels",
			mutate:  func(c *Config) { c.Production = true; c.SlackToken = "xoxp-1" },
			wantErr: ErrInvalidConfig,
		},
		{
			name: "production complete",
			mutate: func(c *Config) {
				c.Production = true
				c.SlackToken = "xoxp-1"
				c.SlackChannelIDs = []string{"C1"}
			},
		},
		{
			name:    "hour out of range",
			mutate:  func(c *Config) { c.ActiveUntilHour = 25 },
			wantErr: ErrInvalidConfig,
		},
		{
			name:    "negative settle delay",
			mutate:  func(c *Config) { c.SettleDelay = -time.Second },
			wantErr: ErrInvalidConfig,
		},
		{
			name:    "unknown timezone",
			mutate:  func(c *Config) { c.Timezone = "Mars/Olympus_Mons" },
			wantErr: ErrInvalidConfig,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestLocation(t *testing.T) {
	c := New()
	loc, err := c.Location()
	require.NoError(t, err)
	assert.Equal(t, time.Local, loc)

	c.Timezone = "UTC"
	loc, err = c.Location()
	require.NoError(t, err)
	assert.Equal(t, "UTC", loc.String())
}

func TestHeadful(t *testing.T) {
	tests := []struct {
		production bool
		headless   bool
		want       bool
	}{
		{production: false, headless: false, want: true},
		{production: false, headless: true, want: false},
		{production: true, headless: false, want: false},
		{production: true, headless: true, want: false},
	}

	for _, tt := range tests {
		c := &Config{Production: tt.production, Headless: tt.headless}
		assert.Equal(t, tt.want, c.Headful(), "production=%v headless=%v", tt.production, tt.headless)
	}
}

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const appName = "claude-statusline"

// Config holds user preferences. It is loaded once per process and passed
// down by pointer; nothing mutates it after load.
type Config struct {
	Cache       CacheConfig       `yaml:"cache"`
	API         APIConfig         `yaml:"api"`
	Credentials CredentialsConfig `yaml:"credentials"`
	Display     DisplayConfig     `yaml:"display"`
	Log         LogConfig         `yaml:"log"`
}

// CacheConfig controls where quota readings are cached and for how long.
type CacheConfig struct {
	Dir        string        `yaml:"dir"`
	SessionTTL time.Duration `yaml:"session_ttl"`
	WeeklyTTL  time.Duration `yaml:"weekly_ttl"`
}

// APIConfig describes the remote usage endpoint.
type APIConfig struct {
	Endpoint string        `yaml:"endpoint"`
	Beta     string        `yaml:"beta"`
	Timeout  time.Duration `yaml:"timeout"`
}

// CredentialsConfig controls the Keychain lookup.
type CredentialsConfig struct {
	Timeout time.Duration `yaml:"timeout"`
	Service string        `yaml:"service"`
}

// DisplayConfig controls how the line looks.
type DisplayConfig struct {
	BarWidth    int     `yaml:"bar_width"`
	WeeklyReset bool    `yaml:"weekly_reset"`
	Palette     Palette `yaml:"palette"`
}

// Palette holds hex colors. Defaults are Catppuccin Mocha.
type Palette struct {
	Red    string `yaml:"red"`
	Yellow string `yaml:"yellow"`
	Green  string `yaml:"green"`
	Gray   string `yaml:"gray"`
	Text   string `yaml:"text"`
}

// LogConfig controls the log file. Logs never go to stdout.
type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Cache: CacheConfig{
			Dir:        defaultCacheDir(),
			SessionTTL: time.Minute,
			WeeklyTTL:  5 * time.Minute,
		},
		API: APIConfig{
			Endpoint: "https://api.anthropic.com/api/oauth/usage",
			Beta:     "oauth-2025-04-20",
			Timeout:  5 * time.Second,
		},
		Credentials: CredentialsConfig{
			Timeout: 5 * time.Second,
			Service: "Claude Code-credentials",
		},
		Display: DisplayConfig{
			BarWidth: 8,
			Palette:  defaultPalette(),
		},
		Log: LogConfig{
			Level: "warn",
		},
	}
}

func defaultPalette() Palette {
	return Palette{
		Red:    "#f38ba8",
		Yellow: "#f9e2af",
		Green:  "#a6e3a1",
		Gray:   "#585b70",
		Text:   "#cdd6f4",
	}
}

// configDir returns the configuration directory.
func configDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, appName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", appName)
}

// defaultCacheDir returns the per-user cache directory.
func defaultCacheDir() string {
	if dir := os.Getenv("XDG_CACHE_HOME"); dir != "" {
		return filepath.Join(dir, appName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), appName)
	}
	return filepath.Join(home, ".cache", appName)
}

// configPath returns the full path to the config file.
func configPath() string {
	return filepath.Join(configDir(), "config.yaml")
}

// LoadConfig loads the configuration from path, or returns defaults if the
// file does not exist. On any other error the defaults are returned together
// with the error so the caller can log it and carry on.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}

	loaded := DefaultConfig()
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &loaded); err != nil {
		return cfg, fmt.Errorf("failed to parse config: %w", err)
	}

	return loaded.normalized(), nil
}

// normalized replaces values that cannot work with their defaults.
func (c Config) normalized() Config {
	def := DefaultConfig()
	if c.Cache.Dir == "" {
		c.Cache.Dir = def.Cache.Dir
	}
	if c.Cache.SessionTTL <= 0 {
		c.Cache.SessionTTL = def.Cache.SessionTTL
	}
	if c.Cache.WeeklyTTL <= 0 {
		c.Cache.WeeklyTTL = def.Cache.WeeklyTTL
	}
	if c.API.Endpoint == "" {
		c.API.Endpoint = def.API.Endpoint
	}
	if c.API.Timeout <= 0 {
		c.API.Timeout = def.API.Timeout
	}
	if c.Credentials.Timeout <= 0 {
		c.Credentials.Timeout = def.Credentials.Timeout
	}
	if c.Credentials.Service == "" {
		c.Credentials.Service = def.Credentials.Service
	}
	if c.Display.BarWidth < 0 {
		c.Display.BarWidth = 0
	}
	p := &c.Display.Palette
	for _, f := range []struct {
		val *string
		def string
	}{
		{&p.Red, def.Display.Palette.Red},
		{&p.Yellow, def.Display.Palette.Yellow},
		{&p.Green, def.Display.Palette.Green},
		{&p.Gray, def.Display.Palette.Gray},
		{&p.Text, def.Display.Palette.Text},
	} {
		if !validHex(*f.val) {
			*f.val = f.def
		}
	}
	return c
}

// TTL returns how long a cached reading for key stays valid.
func (c CacheConfig) TTL(key QuotaKey) time.Duration {
	if key == KeyWeekly {
		return c.WeeklyTTL
	}
	return c.SessionTTL
}

func (c Config) logFile() string {
	if c.Log.File != "" {
		return c.Log.File
	}
	return filepath.Join(c.Cache.Dir, "statusline.log")
}

func validHex(s string) bool {
	if len(s) != 7 || s[0] != '#' {
		return false
	}
	for _, r := range s[1:] {
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'f', r >= 'A' && r <= 'F':
		default:
			return false
		}
	}
	return true
}

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/KaramelBytes/datadash/internal/utils"
)

// Global configuration structure.
type Global struct {
	Addr        string `mapstructure:"addr" yaml:"addr"`
	PreviewRows int    `mapstructure:"preview_rows" yaml:"preview_rows"`
	DefaultBins int    `mapstructure:"default_bins" yaml:"default_bins"`

	// Chart canvas size in pixels
	ChartWidth  int `mapstructure:"chart_width" yaml:"chart_width"`
	ChartHeight int `mapstructure:"chart_height" yaml:"chart_height"`

	MaxUploadMB   int `mapstructure:"max_upload_mb" yaml:"max_upload_mb"`
	CacheEntries  int `mapstructure:"cache_entries" yaml:"cache_entries"`
	SessionTTLMin int `mapstructure:"session_ttl_min" yaml:"session_ttl_min"`
	MaxSessions   int `mapstructure:"max_sessions" yaml:"max_sessions"`

	LogLevel    string   `mapstructure:"log_level" yaml:"log_level"`
	LogFormat   string   `mapstructure:"log_format" yaml:"log_format"`
	CORSOrigins []string `mapstructure:"cors_origins" yaml:"cors_origins"`
}

// Defaults returns the configuration used when nothing is set.
func Defaults() *Global {
	return &Global{
		Addr:          ":8501",
		PreviewRows:   10,
		DefaultBins:   20,
		ChartWidth:    1000,
		ChartHeight:   600,
		MaxUploadMB:   50,
		CacheEntries:  32,
		SessionTTLMin: 60,
		MaxSessions:   10000,
		LogLevel:      "info",
		LogFormat:     "text",
		CORSOrigins:   []string{"*"},
	}
}

// MaxUploadBytes is the upload limit in bytes.
func (c *Global) MaxUploadBytes() int64 { return int64(c.MaxUploadMB) << 20 }

// SessionTTL is how long an idle session is kept.
func (c *Global) SessionTTL() time.Duration { return time.Duration(c.SessionTTLMin) * time.Minute }

// Validate rejects values the dashboard cannot run with.
func (c *Global) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("addr must not be empty")
	case c.PreviewRows <= 0:
		return fmt.Errorf("preview_rows must be positive, got %d", c.PreviewRows)
	case c.ChartWidth < 100 || c.ChartHeight < 100:
		return fmt.Errorf("chart size %dx%d is too small (min 100x100)", c.ChartWidth, c.ChartHeight)
	case c.MaxUploadMB <= 0:
		return fmt.Errorf("max_upload_mb must be positive, got %d", c.MaxUploadMB)
	case c.CacheEntries <= 0:
		return fmt.Errorf("cache_entries must be positive, got %d", c.CacheEntries)
	case c.SessionTTLMin <= 0:
		return fmt.Errorf("session_ttl_min must be positive, got %d", c.SessionTTLMin)
	case c.MaxSessions <= 0:
		return fmt.Errorf("max_sessions must be positive, got %d", c.MaxSessions)
	}
	return nil
}

// DefaultPath is ~/.datadash/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".datadash", "config.yaml"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.datadash/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) (string, error) {
	path := cfgFile
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return "", err
		}
		path = p
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("mkdir config dir: %w", err)
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("marshal yaml: %w", err)
	}
	if err := utils.SafeWriteFile(path, b); err != nil {
		return "", fmt.Errorf("write config: %w", err)
	}
	return path, nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: flags (cfgFile) > env > config file > defaults.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("DATADASH")
	v.AutomaticEnv()

	d := Defaults()
	v.SetDefault("addr", d.Addr)
	v.SetDefault("preview_rows", d.PreviewRows)
	v.SetDefault("default_bins", d.DefaultBins)
	v.SetDefault("chart_width", d.ChartWidth)
	v.SetDefault("chart_height", d.ChartHeight)
	v.SetDefault("max_upload_mb", d.MaxUploadMB)
	v.SetDefault("cache_entries", d.CacheEntries)
	v.SetDefault("session_ttl_min", d.SessionTTLMin)
	v.SetDefault("max_sessions", d.MaxSessions)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("log_format", d.LogFormat)
	v.SetDefault("cors_origins", d.CORSOrigins)

	// Config file
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", cfgFile, err)
		}
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".datadash"))
		}
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		// optional read
		_ = v.ReadInConfig()
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &c, nil
}

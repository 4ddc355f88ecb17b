package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	EnvPrefix = "SYLLABUS_MERGE"
	appName   = "syllabus-merge"

	KeyHost             = "host"
	KeyPort             = "port"
	KeyFetchTimeout     = "fetch_timeout"
	KeyMaxDocumentBytes = "max_document_bytes"
	KeyMaxRequestBytes  = "max_request_bytes"
	KeyUserAgent        = "user_agent"
	KeyReadTimeout      = "read_timeout"
	KeyWriteTimeout     = "write_timeout"
	KeyIdleTimeout      = "idle_timeout"
	KeyShutdownTimeout  = "shutdown_timeout"
	KeyAllowedOrigins   = "allowed_origins"
	KeyLogLevel         = "log_level"
	KeyLogFormat        = "log_format"
)

const (
	defaultHost             = "0.0.0.0"
	defaultPort             = 5001
	defaultFetchTimeout     = 30 * time.Second
	defaultMaxDocumentBytes = 32 << 20
	defaultMaxRequestBytes  = 64 << 10
	defaultUserAgent        = "syllabus-merge/1.0"
	defaultReadTimeout      = 30 * time.Second
	defaultWriteTimeout     = 60 * time.Second
	defaultIdleTimeout      = 60 * time.Second
	defaultShutdownTimeout  = 30 * time.Second
	defaultLogLevel         = "info"
	defaultLogFormat        = "text"
)

var (
	validLogLevels  = []string{"trace", "debug", "info", "warn", "warning", "error", "fatal", "panic"}
	validLogFormats = []string{"text", "json"}
)

type Config struct {
	Host             string
	Port             int
	FetchTimeout     time.Duration
	MaxDocumentBytes int64
	MaxRequestBytes  int64
	UserAgent        string
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
	IdleTimeout      time.Duration
	ShutdownTimeout  time.Duration
	AllowedOrigins   []string
	LogLevel         string
	LogFormat        string
}

// New returns a viper instance with defaults, environment binding and, when
// present, a config file. An explicit cfgFile must exist; the search path
// (./syllabus-merge.yaml, ~/.config/syllabus-merge/) is optional.
func New(cfgFile string) (*viper.Viper, error) {
	v := viper.New()
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName(appName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", appName))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}
	return v, nil
}

func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyHost, defaultHost)
	v.SetDefault(KeyPort, defaultPort)
	v.SetDefault(KeyFetchTimeout, defaultFetchTimeout)
	v.SetDefault(KeyMaxDocumentBytes, defaultMaxDocumentBytes)
	v.SetDefault(KeyMaxRequestBytes, defaultMaxRequestBytes)
	v.SetDefault(KeyUserAgent, defaultUserAgent)
	v.SetDefault(KeyReadTimeout, defaultReadTimeout)
	v.SetDefault(KeyWriteTimeout, defaultWriteTimeout)
	v.SetDefault(KeyIdleTimeout, defaultIdleTimeout)
	v.SetDefault(KeyShutdownTimeout, defaultShutdownTimeout)
	v.SetDefault(KeyAllowedOrigins, []string{"*"})
	v.SetDefault(KeyLogLevel, defaultLogLevel)
	v.SetDefault(KeyLogFormat, defaultLogFormat)
}

// Load reads the configuration out of v and validates it.
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Host:             strings.TrimSpace(v.GetString(KeyHost)),
		Port:             v.GetInt(KeyPort),
		FetchTimeout:     v.GetDuration(KeyFetchTimeout),
		MaxDocumentBytes: v.GetInt64(KeyMaxDocumentBytes),
		MaxRequestBytes:  v.GetInt64(KeyMaxRequestBytes),
		UserAgent:        v.GetString(KeyUserAgent),
		ReadTimeout:      v.GetDuration(KeyReadTimeout),
		WriteTimeout:     v.GetDuration(KeyWriteTimeout),
		IdleTimeout:      v.GetDuration(KeyIdleTimeout),
		ShutdownTimeout:  v.GetDuration(KeyShutdownTimeout),
		AllowedOrigins:   splitList(v.GetStringSlice(KeyAllowedOrigins)),
		LogLevel:         strings.ToLower(v.GetString(KeyLogLevel)),
		LogFormat:        strings.ToLower(v.GetString(KeyLogFormat)),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Address returns the listen address.
func (c *Config) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", c.Port)
	}

	durations := map[string]time.Duration{
		KeyFetchTimeout:    c.FetchTimeout,
		KeyReadTimeout:     c.ReadTimeout,
		KeyWriteTimeout:    c.WriteTimeout,
		KeyIdleTimeout:     c.IdleTimeout,
		KeyShutdownTimeout: c.ShutdownTimeout,
	}
	for key, d := range durations {
		if d <= 0 {
			return fmt.Errorf("%s must be a positive duration", key)
		}
	}

	// The write deadline covers the whole merge, so a fetch that outlives it
	// is cut off before its timeout can be reported.
	if c.FetchTimeout >= c.WriteTimeout {
		return fmt.Errorf("%s (%s) must be shorter than %s (%s)", KeyFetchTimeout, c.FetchTimeout, KeyWriteTimeout, c.WriteTimeout)
	}

	if c.MaxDocumentBytes <= 0 {
		return fmt.Errorf("%s must be positive", KeyMaxDocumentBytes)
	}
	if c.MaxRequestBytes <= 0 {
		return fmt.Errorf("%s must be positive", KeyMaxRequestBytes)
	}
	if len(c.AllowedOrigins) == 0 {
		return fmt.Errorf("%s must list at least one origin", KeyAllowedOrigins)
	}
	if !slices.Contains(validLogLevels, c.LogLevel) {
		return fmt.Errorf("unknown log level %q", c.LogLevel)
	}
	if !slices.Contains(validLogFormats, c.LogFormat) {
		return fmt.Errorf("unknown log format %q", c.LogFormat)
	}
	return nil
}

// splitList accepts both YAML lists and comma-separated env values.
func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

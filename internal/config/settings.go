package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment variable read by Apply.
const EnvPrefix = "SURVEY_"

// Store backends.
const (
	StoreMemory = "memory"
	StoreFile   = "file"
	StoreRedis  = "redis"
)

// Sink backends.
const (
	SinkMemory = "memory"
	SinkSQLite = "sqlite"
	SinkRemote = "remote"
)

// Settings holds the runtime configuration of the survey commands.
type Settings struct {
	// Source is the survey definition: a file path or an http(s) URL.
	Source string `yaml:"source"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	Addr        string `yaml:"addr"`
	MetricsAddr string `yaml:"metrics_addr"`

	Store    string        `yaml:"store"`
	StoreDir string        `yaml:"store_dir"`
	Redis    RedisSettings `yaml:"redis"`

	Sink       string        `yaml:"sink"`
	SQLitePath string        `yaml:"sqlite_path"`
	RemoteURL  string        `yaml:"remote_url"`
	Timeout    time.Duration `yaml:"timeout"`

	StrictChoices bool `yaml:"strict_choices"`
	MaxInputSize  int  `yaml:"max_input_size"`
	Watch         bool `yaml:"watch"`

	// EncryptionKey enables at-rest encryption of stored sessions (32 bytes, hex or base64).
	EncryptionKey string `yaml:"encryption_key"`
	// MaskPatterns lists question id patterns whose answers are masked on submit.
	MaskPatterns []string `yaml:"mask_patterns"`
}

// RedisSettings configures the redis session store and locker.
type RedisSettings struct {
	Addr   string        `yaml:"addr"`
	Prefix string        `yaml:"prefix"`
	TTL    time.Duration `yaml:"ttl"`
}

// Default returns the settings used when nothing else is configured.
func Default() Settings {
	return Settings{
		LogLevel:     "info",
		LogFormat:    "text",
		Addr:         ":8080",
		Store:        StoreMemory,
		StoreDir:     ".survey/sessions",
		Sink:         SinkMemory,
		SQLitePath:   "responses.db",
		Timeout:      10 * time.Second,
		MaxInputSize: 4096,
		Redis: RedisSettings{
			Addr:   "localhost:6379",
			Prefix: "survey:",
			TTL:    24 * time.Hour,
		},
	}
}

// Load resolves settings from defaults, then the optional YAML file at
// path, then SURVEY_* environment variables. Command line flags are
// applied last by the caller.
func Load(path string) (Settings, error) {
	s := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return s, fmt.Errorf("failed to read settings: %w", err)
		}
		if err := yaml.Unmarshal(data, &s); err != nil {
			return s, fmt.Errorf("failed to parse settings %s: %w", path, err)
		}
	}
	if err := s.ApplyEnv(os.LookupEnv); err != nil {
		return s, err
	}
	return s, nil
}

// ApplyEnv overrides fields from the environment through lookup.
func (s *Settings) ApplyEnv(lookup func(string) (string, bool)) error {
	var errs []error
	str := func(key string, dst *string) {
		if v, ok := lookup(EnvPrefix + key); ok {
			*dst = v
		}
	}
	dur := func(key string, dst *time.Duration) {
		if v, ok := lookup(EnvPrefix + key); ok {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
				return
			}
			*dst = d
		}
	}
	boolean := func(key string, dst *bool) {
		if v, ok := lookup(EnvPrefix + key); ok {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
				return
			}
			*dst = b
		}
	}

	str("SOURCE", &s.Source)
	str("LOG_LEVEL", &s.LogLevel)
	str("LOG_FORMAT", &s.LogFormat)
	str("ADDR", &s.Addr)
	str("METRICS_ADDR", &s.MetricsAddr)
	str("STORE", &s.Store)
	str("STORE_DIR", &s.StoreDir)
	str("REDIS_ADDR", &s.Redis.Addr)
	str("REDIS_PREFIX", &s.Redis.Prefix)
	dur("REDIS_TTL", &s.Redis.TTL)
	str("SINK", &s.Sink)
	str("SQLITE_PATH", &s.SQLitePath)
	str("REMOTE_URL", &s.RemoteURL)
	dur("TIMEOUT", &s.Timeout)
	boolean("STRICT_CHOICES", &s.StrictChoices)
	boolean("WATCH", &s.Watch)
	str("ENCRYPTION_KEY", &s.EncryptionKey)

	if v, ok := lookup(EnvPrefix + "MAX_INPUT_SIZE"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sMAX_INPUT_SIZE: %w", EnvPrefix, err))
		} else {
			s.MaxInputSize = n
		}
	}
	if v, ok := lookup(EnvPrefix + "MASK_PATTERNS"); ok {
		s.MaskPatterns = nil
		for _, p := range strings.Split(v, ",") {
			if p = strings.TrimSpace(p); p != "" {
				s.MaskPatterns = append(s.MaskPatterns, p)
			}
		}
	}
	return errors.Join(errs...)
}

// Validate checks backend names and required companions.
func (s Settings) Validate() error {
	var errs []error
	switch s.Store {
	case StoreMemory, StoreFile, StoreRedis:
	default:
		errs = append(errs, fmt.Errorf("unknown store %q (want memory, file or redis)", s.Store))
	}
	switch s.Sink {
	case SinkMemory, SinkSQLite:
	case SinkRemote:
		if s.RemoteURL == "" {
			errs = append(errs, errors.New("sink remote requires remote_url"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown sink %q (want memory, sqlite or remote)", s.Sink))
	}
	if s.MaxInputSize <= 0 {
		errs = append(errs, fmt.Errorf("max_input_size must be positive, got %d", s.MaxInputSize))
	}
	return errors.Join(errs...)
}

package config

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// envPrefix is the environment variable prefix used by all platform settings.
const envPrefix = "CLAIMGUARD"

// Sentinel errors returned by Load so callers can distinguish failure modes
// with errors.Is.
var (
	ErrConfigFileNotFound = errors.New("config: file not found")
	ErrConfigParseError   = errors.New("config: parse error")
	ErrConfigValidation   = errors.New("config: validation failed")
)

// LoadOption customises a Load call.
type LoadOption func(*loadOptions)

type loadOptions struct {
	configPath     string
	searchPaths    []string
	overrides      map[string]interface{}
	skipValidation bool
}

// WithConfigPath points the loader at an explicit config file.
func WithConfigPath(path string) LoadOption {
	return func(o *loadOptions) { o.configPath = path }
}

// WithSearchPaths adds directories in which to look for a "config.yaml".
func WithSearchPaths(paths ...string) LoadOption {
	return func(o *loadOptions) { o.searchPaths = append(o.searchPaths, paths...) }
}

// WithOverrides applies explicit key overrides after file and env resolution.
// Keys use dotted notation, e.g. "server.http.port".
func WithOverrides(overrides map[string]interface{}) LoadOption {
	return func(o *loadOptions) { o.overrides = overrides }
}

// WithoutValidation skips Config.Validate after defaults are applied.  CLI
// commands that never open infrastructure connections load this way; commands
// that do connect validate the sections they use before dialling.
func WithoutValidation() LoadOption {
	return func(o *loadOptions) { o.skipValidation = true }
}

// newViper builds a pre-configured Viper instance with the platform's standard
// settings: YAML file type, CLAIMGUARD_ env prefix, automatic env binding, and
// a key replacer that maps "." → "_" so that nested keys like
// "database.postgres.host" resolve to "CLAIMGUARD_DATABASE_POSTGRES_HOST".
func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	return v
}

// Load reads configuration from an optional YAML file, merges CLAIMGUARD_*
// environment variable overrides and explicit overrides, applies platform
// defaults for unset fields, and validates the result.  It returns a
// fully-populated *Config or a descriptive error wrapping one of the sentinel
// errors above.
//
// The loaded Config also becomes the process-wide config returned by Get.
func Load(opts ...LoadOption) (*Config, error) {
	o := &loadOptions{}
	for _, opt := range opts {
		opt(o)
	}

	v := newViper()

	switch {
	case o.configPath != "":
		v.SetConfigFile(o.configPath)
	case len(o.searchPaths) > 0:
		v.SetConfigName("config")
		for _, p := range o.searchPaths {
			v.AddConfigPath(p)
		}
	}

	if o.configPath != "" || len(o.searchPaths) > 0 {
		if err := v.ReadInConfig(); err != nil {
			var nf viper.ConfigFileNotFoundError
			if errors.As(err, &nf) {
				return nil, fmt.Errorf("%w: %v", ErrConfigFileNotFound, err)
			}
			var pe viper.ConfigParseError
			if errors.As(err, &pe) {
				return nil, fmt.Errorf("%w: %v", ErrConfigParseError, err)
			}
			// SetConfigFile bypasses ConfigFileNotFoundError; classify by message.
			if strings.Contains(err.Error(), "no such file") || strings.Contains(err.Error(), "not found") {
				return nil, fmt.Errorf("%w: %v", ErrConfigFileNotFound, err)
			}
			return nil, fmt.Errorf("%w: %v", ErrConfigParseError, err)
		}
	}

	for k, val := range o.overrides {
		v.Set(k, val)
	}

	return unmarshalAndFinalize(v, o.skipValidation)
}

// LoadFromFile is a convenience wrapper for the common single-file case.
func LoadFromFile(path string) (*Config, error) {
	return Load(WithConfigPath(path))
}

// LoadFromEnv builds a Config entirely from CLAIMGUARD_* environment
// variables, with no config file required.  This is the preferred loading
// strategy for containerised (12-factor) deployments.
func LoadFromEnv() (*Config, error) {
	return Load()
}

// unmarshalAndFinalize unmarshals viper state into a Config struct, applies
// defaults, validates, and publishes the result as the global config.
func unmarshalAndFinalize(v *viper.Viper, skipValidation bool) (*Config, error) {
	// Bind the keys we unmarshal so AutomaticEnv is honoured even when the key
	// never appears in a file.
	for _, key := range boundKeys {
		_ = v.BindEnv(key)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigParseError, err)
	}

	ApplyDefaults(cfg)

	if !skipValidation {
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrConfigValidation, err)
		}
	}

	setGlobal(cfg)
	return cfg, nil
}

// boundKeys enumerates the env-overridable keys.  Viper's Unmarshal does not
// consult AutomaticEnv for keys absent from the file, so each is bound
// explicitly.
var boundKeys = []string{
	"server.http.host", "server.http.port",
	"database.postgres.host", "database.postgres.port",
	"database.postgres.user", "database.postgres.password",
	"database.postgres.dbname", "database.postgres.sslmode",
	"cache.redis.addr", "cache.redis.password", "cache.redis.db",
	"messaging.kafka.brokers", "messaging.kafka.topic",
	"storage.minio.endpoint", "storage.minio.access_key",
	"storage.minio.secret_key", "storage.minio.audit_bucket",
	"storage.minio.models_bucket",
	"scoring.models_dir", "scoring.scorer_endpoint",
	"monitoring.logging.level", "monitoring.logging.format",
	"monitoring.prometheus.port",
}

// Watch monitors configPath for changes and invokes onChange with the newly
// parsed Config whenever the file is modified on disk.  It is intended for
// hot-reloading non-critical settings such as log level and rule weights;
// callers are responsible for applying only the safe subset of changes at
// runtime.
//
// Watch is non-blocking; it starts a background goroutine managed by viper.
// If the changed file fails to parse or validate, onChange is NOT called so
// the application never enters a broken state.
func Watch(configPath string, onChange func(*Config)) {
	v := newViper()
	v.SetConfigFile(configPath)

	// Initial read; errors are ignored here, callers should call Load first.
	_ = v.ReadInConfig()

	v.WatchConfig()
	v.OnConfigChange(func(_ fsnotify.Event) {
		cfg, err := unmarshalAndFinalize(v, false)
		if err != nil {
			return
		}
		onChange(cfg)
	})
}

// MustLoad is a convenience wrapper around Load that panics on any error.
// It is intended for use in main() where a config-load failure is always fatal.
func MustLoad(opts ...LoadOption) *Config {
	cfg, err := Load(opts...)
	if err != nil {
		panic(fmt.Sprintf("config: MustLoad failed: %v", err))
	}
	return cfg
}

var (
	globalMu  sync.RWMutex
	globalCfg *Config
)

func setGlobal(cfg *Config) {
	globalMu.Lock()
	globalCfg = cfg
	globalMu.Unlock()
}

// Get returns the most recently loaded Config, or nil when Load has never
// succeeded.  Constructor injection is preferred; Get exists for call sites
// that cannot receive a Config (init-time wiring, CLI helpers).
func Get() *Config {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalCfg
}

package config

import (
	"os"
	"regexp"

	"github.com/spf13/viper"

	"github.com/guardrailhq/aegis/internal/types"
)

var envPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Load reads the configuration file at path, interpolates ${ENV_VAR}
// references, applies defaults for unset keys, and validates the result.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	applyDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, types.WrapError(types.CONFIG_LOAD_FAILED, "failed to read config file", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, types.WrapError(types.CONFIG_PARSE_FAILED, "failed to unmarshal config", err)
	}

	interpolate(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadOrDefault loads path when it exists, otherwise returns defaults.
func LoadOrDefault(path string) (*Config, error) {
	if path == "" {
		cfg := Default()
		return &cfg, nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg := Default()
		return &cfg, nil
	}
	return Load(path)
}

func applyDefaults(v *viper.Viper) {
	def := Default()
	v.SetDefault("log.level", def.Log.Level)
	v.SetDefault("log.format", def.Log.Format)
	v.SetDefault("database.path", def.Database.Path)
	v.SetDefault("regen.max_attempts", def.Regen.MaxAttempts)
	v.SetDefault("regen.reset_window", def.Regen.ResetWindow)
	v.SetDefault("rate.limit", def.Rate.Limit)
	v.SetDefault("rate.window", def.Rate.Window)
	v.SetDefault("redis.prefix", def.Redis.Prefix)
}

// interpolate expands ${ENV_VAR} references in string fields. Unset
// variables expand to the empty string.
func interpolate(cfg *Config) {
	for _, field := range []*string{
		&cfg.Log.Level,
		&cfg.Log.Format,
		&cfg.Database.Path,
		&cfg.Redis.Addr,
		&cfg.Redis.Prefix,
	} {
		*field = envPattern.ReplaceAllStringFunc(*field, func(match string) string {
			name := envPattern.FindStringSubmatch(match)[1]
			return os.Getenv(name)
		})
	}
}

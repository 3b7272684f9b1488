// Package config loads runtime settings from an optional YAML file and
// OPINION_* environment variables, and builds the scoring components they
// describe.
package config

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/MikejR2904/opinion-quality-filter/pkg/opinion"
	"github.com/MikejR2904/opinion-quality-filter/pkg/opinion/internalerr"
)

// Lexical graph sources.
const (
	SourceEmbedded = "embedded"
	SourceYAML     = "yaml"
	SourceSQLite   = "sqlite"
)

// Tagger names.
const (
	TaggerProse = "prose"
	TaggerNone  = "none"
)

// Config is the root configuration.
type Config struct {
	Dedup  DedupConfig  `yaml:"dedup" mapstructure:"dedup"`
	Aspect AspectConfig `yaml:"aspect" mapstructure:"aspect"`
	Lexnet LexnetConfig `yaml:"lexnet" mapstructure:"lexnet"`
	Tagger string       `yaml:"tagger" mapstructure:"tagger"`
	Batch  BatchConfig  `yaml:"batch" mapstructure:"batch"`
	Log    LogConfig    `yaml:"log" mapstructure:"log"`
}

// DedupConfig mirrors opinion.Params.
type DedupConfig struct {
	Threshold        float64 `yaml:"threshold" mapstructure:"threshold"`
	NumPerm          int     `yaml:"num_perm" mapstructure:"num_perm"`
	ShingleSize      int     `yaml:"shingle_size" mapstructure:"shingle_size"`
	OverlapThreshold float64 `yaml:"overlap_threshold" mapstructure:"overlap_threshold"`
	KeepUnmatched    bool    `yaml:"keep_unmatched" mapstructure:"keep_unmatched"`
	Seed             uint64  `yaml:"seed" mapstructure:"seed"`
}

// AspectConfig configures the aspect scorer.
type AspectConfig struct {
	CacheSize int    `yaml:"cache_size" mapstructure:"cache_size"`
	TablePath string `yaml:"table_path" mapstructure:"table_path"` // empty = embedded table
}

// LexnetConfig selects the hypernym hierarchy.
type LexnetConfig struct {
	Source string `yaml:"source" mapstructure:"source"`
	Path   string `yaml:"path" mapstructure:"path"`
}

// BatchConfig configures multi-business runs.
type BatchConfig struct {
	Concurrency int `yaml:"concurrency" mapstructure:"concurrency"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Params converts the dedup section to engine parameters.
func (c *Config) Params() opinion.Params {
	return opinion.Params{
		Threshold:        c.Dedup.Threshold,
		NumPerm:          c.Dedup.NumPerm,
		ShingleSize:      c.Dedup.ShingleSize,
		OverlapThreshold: c.Dedup.OverlapThreshold,
		DropUnmatched:    !c.Dedup.KeepUnmatched,
		Seed:             c.Dedup.Seed,
	}
}

// Load reads configuration from file and environment. An empty path looks
// for config.yaml in the working directory and tolerates its absence; an
// explicit path must exist.
func Load(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("OPINION")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := opinion.DefaultParams()
	v.SetDefault("dedup.threshold", defaults.Threshold)
	v.SetDefault("dedup.num_perm", defaults.NumPerm)
	v.SetDefault("dedup.shingle_size", defaults.ShingleSize)
	v.SetDefault("dedup.overlap_threshold", defaults.OverlapThreshold)
	v.SetDefault("dedup.keep_unmatched", !defaults.DropUnmatched)
	v.SetDefault("dedup.seed", defaults.Seed)
	v.SetDefault("aspect.cache_size", 2000)
	v.SetDefault("aspect.table_path", "")
	v.SetDefault("lexnet.source", SourceEmbedded)
	v.SetDefault("lexnet.path", "")
	v.SetDefault("tagger", TaggerProse)
	v.SetDefault("batch.concurrency", opinion.DefaultConcurrency)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}
	return &cfg, nil
}

// Validate checks every setting and reports all problems together.
func (c *Config) Validate() error {
	var errs []string

	for _, p := range c.Params().Problems() {
		errs = append(errs, "dedup."+p)
	}
	if c.Aspect.CacheSize <= 0 {
		errs = append(errs, fmt.Sprintf("aspect.cache_size must be > 0, got %d", c.Aspect.CacheSize))
	}
	switch c.Lexnet.Source {
	case SourceEmbedded:
	case SourceYAML, SourceSQLite:
		if c.Lexnet.Path == "" {
			errs = append(errs, fmt.Sprintf("lexnet.path is required for source %q", c.Lexnet.Source))
		}
	default:
		errs = append(errs, fmt.Sprintf("lexnet.source must be one of embedded, yaml, sqlite; got %q", c.Lexnet.Source))
	}
	if c.Tagger != TaggerProse && c.Tagger != TaggerNone {
		errs = append(errs, fmt.Sprintf("tagger must be prose or none, got %q", c.Tagger))
	}
	if c.Batch.Concurrency < 1 {
		errs = append(errs, fmt.Sprintf("batch.concurrency must be >= 1, got %d", c.Batch.Concurrency))
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Sprintf("log.level %q is not a zap level", c.Log.Level))
	}
	if c.Log.Format != "json" && c.Log.Format != "console" {
		errs = append(errs, fmt.Sprintf("log.format must be json or console, got %q", c.Log.Format))
	}

	if len(errs) > 0 {
		return eris.Wrapf(internalerr.ErrInvalidConfig, "config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}

// Package config loads and validates rulesynth configuration from YAML files
// with environment-variable overrides, and turns it into rulesynth options.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/hupe1980/rulesynth/optimize/genetic"
	"github.com/hupe1980/rulesynth/persistence"
)

// ErrInvalid is returned by Validate.
var ErrInvalid = errors.New("invalid configuration")

// Config is the top-level configuration.
type Config struct {
	Logging   LoggingConfig   `yaml:"logging"`
	Resources ResourcesConfig `yaml:"resources"`
	Rules     RulesConfig     `yaml:"rules"`
	Genetic   GeneticConfig   `yaml:"genetic"`
	KFlip     KFlipConfig     `yaml:"kflip"`
	Storage   StorageConfig   `yaml:"storage"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// LoggingConfig controls structured logging level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// ResourcesConfig sizes the shared worker pool.
type ResourcesConfig struct {
	Workers        int64   `yaml:"workers"`
	CallsPerSecond float64 `yaml:"callsPerSecond"`
	Burst          int     `yaml:"burst"`
	MemoryLimitMB  int64   `yaml:"memoryLimitMB"`
	CacheSize      int     `yaml:"cacheSize"`
}

// RulesConfig selects the rule factory and objective weights.
type RulesConfig struct {
	MinimalCovers bool      `yaml:"minimalCovers"`
	RuleWeights   []float64 `yaml:"ruleWeights"`
	SetWeights    []float64 `yaml:"setWeights"`
}

// GeneticConfig mirrors genetic.Config.
type GeneticConfig struct {
	PopulationSize          int     `yaml:"populationSize"`
	CrossoverProbability    float64 `yaml:"crossoverProbability"`
	MutationProbability     float64 `yaml:"mutationProbability"`
	OffspringFraction       float64 `yaml:"offspringFraction"`
	MaxAge                  int     `yaml:"maxAge"`
	OffspringTournamentSize int     `yaml:"offspringTournamentSize"`
	SurvivorTournamentSize  int     `yaml:"survivorTournamentSize"`
	SteadyGenerations       int     `yaml:"steadyGenerations"`
	ConvergenceEpsilon      float64 `yaml:"convergenceEpsilon"`
	MaxGenerations          int     `yaml:"maxGenerations"`
	Seed                    int64   `yaml:"seed"`
	EliteRefinement         int     `yaml:"eliteRefinement"`
}

// KFlipConfig controls standalone refinement.
type KFlipConfig struct {
	K        int `yaml:"k"`
	MaxSteps int `yaml:"maxSteps"`
}

// StorageConfig selects the rule-set store.
type StorageConfig struct {
	// Backend is one of "", "memory", "local", "s3" or "minio".
	// An empty backend disables Save and Load.
	Backend     string      `yaml:"backend"`
	Compression string      `yaml:"compression"`
	Local       LocalConfig `yaml:"local"`
	S3          S3Config    `yaml:"s3"`
	MinIO       MinIOConfig `yaml:"minio"`
}

// LocalConfig is the local-filesystem store.
type LocalConfig struct {
	Dir string `yaml:"dir"`
}

// S3Config is the S3 store. A non-empty DynamoDBTable enables versioned
// commits of CURRENT pointers.
type S3Config struct {
	Bucket        string `yaml:"bucket"`
	Prefix        string `yaml:"prefix"`
	Region        string `yaml:"region"`
	DynamoDBTable string `yaml:"dynamodbTable"`
	BaseURI       string `yaml:"baseUri"`
}

// MinIOConfig is the MinIO store.
type MinIOConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"accessKey"`
	SecretKey string `yaml:"secretKey"`
	Bucket    string `yaml:"bucket"`
	Prefix    string `yaml:"prefix"`
	UseSSL    bool   `yaml:"useSSL"`
}

// MetricsConfig selects the metrics collector: "none", "basic" or "prometheus".
type MetricsConfig struct {
	Collector string `yaml:"collector"`
}

// Load reads a YAML config file (if provided) and applies environment-variable
// overrides. Missing values keep their defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	applyEnvOverrides(cfg)
	return cfg, nil
}

// Default returns a Config with the library defaults.
func Default() *Config {
	g := genetic.DefaultConfig()
	return &Config{
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Resources: ResourcesConfig{
			Workers:   1,
			CacheSize: 4096,
		},
		Genetic: GeneticConfig{
			PopulationSize:          g.PopulationSize,
			CrossoverProbability:    g.CrossoverProbability,
			MutationProbability:     g.MutationProbability,
			OffspringFraction:       g.OffspringFraction,
			MaxAge:                  g.MaxAge,
			OffspringTournamentSize: g.OffspringTournamentSize,
			SurvivorTournamentSize:  g.SurvivorTournamentSize,
			SteadyGenerations:       g.SteadyGenerations,
			ConvergenceEpsilon:      g.ConvergenceEpsilon,
			MaxGenerations:          g.MaxGenerations,
			Seed:                    g.Seed,
		},
		KFlip: KFlipConfig{
			K: 1,
		},
		Storage: StorageConfig{
			Compression: "zstd",
			Local:       LocalConfig{Dir: "./rules"},
			S3:          S3Config{Region: "us-east-1"},
		},
		Metrics: MetricsConfig{
			Collector: "none",
		},
	}
}

// applyEnvOverrides reads RULESYNTH_* environment variables and overrides the
// corresponding config fields.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("RULESYNTH_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("RULESYNTH_LOGGING_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv("RULESYNTH_WORKERS"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Resources.Workers = n
		}
	}
	if v := os.Getenv("RULESYNTH_CALLS_PER_SECOND"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Resources.CallsPerSecond = f
		}
	}
	if v := os.Getenv("RULESYNTH_GENETIC_POPULATION_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Genetic.PopulationSize = n
		}
	}
	if v := os.Getenv("RULESYNTH_GENETIC_MAX_GENERATIONS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Genetic.MaxGenerations = n
		}
	}
	if v := os.Getenv("RULESYNTH_GENETIC_SEED"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Genetic.Seed = n
		}
	}
	if v := os.Getenv("RULESYNTH_KFLIP_K"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.KFlip.K = n
		}
	}
	if v := os.Getenv("RULESYNTH_STORAGE_BACKEND"); v != "" {
		cfg.Storage.Backend = v
	}
	if v := os.Getenv("RULESYNTH_STORAGE_COMPRESSION"); v != "" {
		cfg.Storage.Compression = v
	}
	if v := os.Getenv("RULESYNTH_STORAGE_LOCAL_DIR"); v != "" {
		cfg.Storage.Local.Dir = v
	}
	if v := os.Getenv("RULESYNTH_S3_BUCKET"); v != "" {
		cfg.Storage.S3.Bucket = v
	}
	if v := os.Getenv("RULESYNTH_S3_PREFIX"); v != "" {
		cfg.Storage.S3.Prefix = v
	}
	if v := os.Getenv("RULESYNTH_S3_REGION"); v != "" {
		cfg.Storage.S3.Region = v
	}
	if v := os.Getenv("RULESYNTH_S3_DYNAMODB_TABLE"); v != "" {
		cfg.Storage.S3.DynamoDBTable = v
	}
	if v := os.Getenv("RULESYNTH_MINIO_ENDPOINT"); v != "" {
		cfg.Storage.MinIO.Endpoint = v
	}
	if v := os.Getenv("RULESYNTH_MINIO_ACCESS_KEY"); v != "" {
		cfg.Storage.MinIO.AccessKey = v
	}
	if v := os.Getenv("RULESYNTH_MINIO_SECRET_KEY"); v != "" {
		cfg.Storage.MinIO.SecretKey = v
	}
	if v := os.Getenv("RULESYNTH_MINIO_BUCKET"); v != "" {
		cfg.Storage.MinIO.Bucket = v
	}
	if v := os.Getenv("RULESYNTH_METRICS_COLLECTOR"); v != "" {
		cfg.Metrics.Collector = v
	}
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	var errs []error
	if _, err := parseLevel(c.Logging.Level); err != nil {
		errs = append(errs, err)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("logging.format %q", c.Logging.Format))
	}
	if c.Resources.Workers < 0 {
		errs = append(errs, fmt.Errorf("resources.workers %d < 0", c.Resources.Workers))
	}
	if n := len(c.Rules.RuleWeights); n != 0 && n != 3 {
		errs = append(errs, fmt.Errorf("rules.ruleWeights has %d entries, want 3", n))
	}
	if n := len(c.Rules.SetWeights); n != 0 && n != 4 {
		errs = append(errs, fmt.Errorf("rules.setWeights has %d entries, want 4", n))
	}
	if err := c.geneticConfig().Validate(); err != nil {
		errs = append(errs, err)
	}
	if c.KFlip.K < 1 {
		errs = append(errs, fmt.Errorf("kflip.k %d < 1", c.KFlip.K))
	}
	if _, err := persistence.ParseCompression(c.Storage.Compression); err != nil {
		errs = append(errs, err)
	}
	switch strings.ToLower(c.Storage.Backend) {
	case "", "memory":
	case "local":
		if c.Storage.Local.Dir == "" {
			errs = append(errs, errors.New("storage.local.dir is required"))
		}
	case "s3":
		if c.Storage.S3.Bucket == "" {
			errs = append(errs, errors.New("storage.s3.bucket is required"))
		}
	case "minio":
		if c.Storage.MinIO.Endpoint == "" || c.Storage.MinIO.Bucket == "" {
			errs = append(errs, errors.New("storage.minio.endpoint and bucket are required"))
		}
	default:
		errs = append(errs, fmt.Errorf("storage.backend %q", c.Storage.Backend))
	}
	switch strings.ToLower(c.Metrics.Collector) {
	case "", "none", "basic", "prometheus":
	default:
		errs = append(errs, fmt.Errorf("metrics.collector %q", c.Metrics.Collector))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
	}
	return nil
}

func (c *Config) geneticConfig() genetic.Config {
	g := c.Genetic
	return genetic.Config{
		PopulationSize:          g.PopulationSize,
		CrossoverProbability:    g.CrossoverProbability,
		MutationProbability:     g.MutationProbability,
		OffspringFraction:       g.OffspringFraction,
		MaxAge:                  g.MaxAge,
		OffspringTournamentSize: g.OffspringTournamentSize,
		SurvivorTournamentSize:  g.SurvivorTournamentSize,
		SteadyGenerations:       g.SteadyGenerations,
		ConvergenceEpsilon:      g.ConvergenceEpsilon,
		MaxGenerations:          g.MaxGenerations,
		Seed:                    g.Seed,
	}
}

func parseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if s == "" {
		return slog.LevelInfo, nil
	}
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("logging.level %q: %w", s, err)
	}
	return l, nil
}

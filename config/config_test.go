package config

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/rulesynth"
	"github.com/hupe1980/rulesynth/blobstore"
	blobminio "github.com/hupe1980/rulesynth/blobstore/minio"
	"github.com/hupe1980/rulesynth/metrics/prom"
	"github.com/hupe1980/rulesynth/rule"
	"github.com/hupe1980/rulesynth/testutil"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rulesynth.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, 50, cfg.Genetic.PopulationSize)
	assert.Equal(t, 1, cfg.KFlip.K)
	assert.Equal(t, "zstd", cfg.Storage.Compression)
	assert.Empty(t, cfg.Storage.Backend)
}

func TestLoad_YAML(t *testing.T) {
	path := writeFile(t, `
logging:
  level: debug
  format: json
resources:
  workers: 4
  callsPerSecond: 100
rules:
  minimalCovers: true
  setWeights: [1, 0.5, 1, 2]
genetic:
  populationSize: 30
  maxGenerations: 10
  eliteRefinement: 1
kflip:
  k: 2
storage:
  backend: local
  compression: lz4
  local:
    dir: /tmp/rules
metrics:
  collector: prometheus
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, int64(4), cfg.Resources.Workers)
	assert.True(t, cfg.Rules.MinimalCovers)
	assert.Equal(t, []float64{1, 0.5, 1, 2}, cfg.Rules.SetWeights)
	assert.Equal(t, 30, cfg.Genetic.PopulationSize)
	// Unset keys keep their defaults.
	assert.Equal(t, 0.3, cfg.Genetic.CrossoverProbability)
	assert.Equal(t, 2, cfg.KFlip.K)
	assert.Equal(t, "/tmp/rules", cfg.Storage.Local.Dir)
	assert.IsType(t, &prom.Collector{}, cfg.MetricsCollector())
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeFile(t, "genetic: [oops"))
	assert.Error(t, err)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("RULESYNTH_LOGGING_LEVEL", "warn")
	t.Setenv("RULESYNTH_WORKERS", "8")
	t.Setenv("RULESYNTH_GENETIC_SEED", "99")
	t.Setenv("RULESYNTH_KFLIP_K", "3")
	t.Setenv("RULESYNTH_STORAGE_BACKEND", "minio")
	t.Setenv("RULESYNTH_MINIO_ENDPOINT", "localhost:9000")
	t.Setenv("RULESYNTH_MINIO_BUCKET", "rules")
	t.Setenv("RULESYNTH_GENETIC_POPULATION_SIZE", "not-a-number")

	cfg, err := Load(writeFile(t, "logging:\n  level: debug\n"))
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, int64(8), cfg.Resources.Workers)
	assert.Equal(t, int64(99), cfg.Genetic.Seed)
	assert.Equal(t, 3, cfg.KFlip.K)
	assert.Equal(t, 50, cfg.Genetic.PopulationSize)
	require.NoError(t, cfg.Validate())

	store, err := cfg.OpenStore(context.Background())
	require.NoError(t, err)
	assert.IsType(t, &blobminio.Store{}, store)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"level", func(c *Config) { c.Logging.Level = "loud" }},
		{"format", func(c *Config) { c.Logging.Format = "xml" }},
		{"workers", func(c *Config) { c.Resources.Workers = -1 }},
		{"rule weights", func(c *Config) { c.Rules.RuleWeights = []float64{1} }},
		{"set weights", func(c *Config) { c.Rules.SetWeights = []float64{1, 2, 3} }},
		{"population", func(c *Config) { c.Genetic.PopulationSize = 1 }},
		{"kflip", func(c *Config) { c.KFlip.K = 0 }},
		{"compression", func(c *Config) { c.Storage.Compression = "gzip" }},
		{"backend", func(c *Config) { c.Storage.Backend = "ftp" }},
		{"s3 bucket", func(c *Config) { c.Storage.Backend = "s3" }},
		{"minio", func(c *Config) { c.Storage.Backend = "minio" }},
		{"local dir", func(c *Config) { c.Storage.Backend = "local"; c.Storage.Local.Dir = "" }},
		{"metrics", func(c *Config) { c.Metrics.Collector = "statsd" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalid)
		})
	}
}

func TestOpenStore(t *testing.T) {
	ctx := context.Background()

	cfg := Default()
	store, err := cfg.OpenStore(ctx)
	require.NoError(t, err)
	assert.Nil(t, store)

	cfg.Storage.Backend = "memory"
	store, err = cfg.OpenStore(ctx)
	require.NoError(t, err)
	assert.IsType(t, &blobstore.MemoryStore{}, store)

	cfg.Storage.Backend = "local"
	cfg.Storage.Local.Dir = t.TempDir()
	store, err = cfg.OpenStore(ctx)
	require.NoError(t, err)
	assert.IsType(t, &blobstore.LocalStore{}, store)
}

func TestToOptions_EndToEnd(t *testing.T) {
	cfg := Default()
	cfg.Logging.Level = "debug"
	cfg.Genetic.MaxGenerations = 5
	cfg.Resources.Workers = 2
	cfg.Rules.MinimalCovers = true
	cfg.Storage.Backend = "local"
	cfg.Storage.Local.Dir = t.TempDir()
	cfg.Metrics.Collector = "basic"

	var logs bytes.Buffer
	opts, err := cfg.ToOptions(context.Background(), &logs)
	require.NoError(t, err)

	sc := testutil.NewScenario()
	s, err := rulesynth.New(sc.Table, opts...)
	require.NoError(t, err)
	assert.IsType(t, &rule.MinimalCoversFactory{}, s.Factory())

	label, err := s.Label(1)
	require.NoError(t, err)
	res, err := s.OptimizeRule(context.Background(), s.Foundation(label), nil)
	require.NoError(t, err)
	assert.LessOrEqual(t, res.Generations, 5)

	set, err := rule.NewSet(res.Entity)
	require.NoError(t, err)
	_, err = s.Save(context.Background(), "cfg", set)
	require.NoError(t, err)

	assert.Contains(t, logs.String(), "index built")
	assert.Contains(t, logs.String(), "rule set saved")

	cfg.KFlip.K = 0
	_, err = cfg.ToOptions(context.Background(), nil)
	assert.ErrorIs(t, err, ErrInvalid)
}

package config

import (
	"context"
	"fmt"
	"io"
	"strings"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/hupe1980/rulesynth"
	"github.com/hupe1980/rulesynth/blobstore"
	blobminio "github.com/hupe1980/rulesynth/blobstore/minio"
	blobs3 "github.com/hupe1980/rulesynth/blobstore/s3"
	"github.com/hupe1980/rulesynth/metrics/prom"
	"github.com/hupe1980/rulesynth/persistence"
	"github.com/hupe1980/rulesynth/resource"
)

// Logger builds the configured logger writing to w (stderr if nil).
func (c *Config) Logger(w io.Writer) (*rulesynth.Logger, error) {
	level, err := parseLevel(c.Logging.Level)
	if err != nil {
		return nil, err
	}
	if strings.EqualFold(c.Logging.Format, "json") {
		return rulesynth.NewJSONLogger(w, level), nil
	}
	return rulesynth.NewTextLogger(w, level), nil
}

// ResourceController builds the shared worker pool.
func (c *Config) ResourceController() *resource.Controller {
	r := c.Resources
	return resource.NewController(resource.Config{
		MaxWorkers:       r.Workers,
		CallsPerSecond:   r.CallsPerSecond,
		Burst:            r.Burst,
		MemoryLimitBytes: r.MemoryLimitMB * 1024 * 1024,
	})
}

// MetricsCollector builds the configured collector. It returns nil for "none".
func (c *Config) MetricsCollector() rulesynth.MetricsCollector {
	switch strings.ToLower(c.Metrics.Collector) {
	case "basic":
		return &rulesynth.BasicMetricsCollector{}
	case "prometheus":
		return prom.New()
	default:
		return nil
	}
}

// OpenStore connects the configured rule-set store. It returns nil when no
// backend is configured.
func (c *Config) OpenStore(ctx context.Context) (blobstore.Store, error) {
	s := c.Storage
	switch strings.ToLower(s.Backend) {
	case "":
		return nil, nil
	case "memory":
		return blobstore.NewMemoryStore(), nil
	case "local":
		return blobstore.NewLocalStore(s.Local.Dir), nil
	case "s3":
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(s.S3.Region))
		if err != nil {
			return nil, fmt.Errorf("loading AWS config: %w", err)
		}
		store := blobs3.NewStore(awss3.NewFromConfig(awsCfg), s.S3.Bucket, s.S3.Prefix)
		if s.S3.DynamoDBTable == "" {
			return store, nil
		}
		baseURI := s.S3.BaseURI
		if baseURI == "" {
			baseURI = "s3://" + s.S3.Bucket + "/" + s.S3.Prefix
		}
		return blobs3.NewDDBCommitStore(store, dynamodb.NewFromConfig(awsCfg), s.S3.DynamoDBTable, baseURI), nil
	case "minio":
		client, err := minio.New(s.MinIO.Endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(s.MinIO.AccessKey, s.MinIO.SecretKey, ""),
			Secure: s.MinIO.UseSSL,
		})
		if err != nil {
			return nil, fmt.Errorf("creating MinIO client: %w", err)
		}
		return blobminio.NewStore(client, s.MinIO.Bucket, s.MinIO.Prefix), nil
	default:
		return nil, fmt.Errorf("%w: storage.backend %q", ErrInvalid, s.Backend)
	}
}

// ToOptions validates the configuration and converts it into Synthesizer
// options. logOutput receives log records (stderr if nil).
func (c *Config) ToOptions(ctx context.Context, logOutput io.Writer) ([]rulesynth.Option, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	logger, err := c.Logger(logOutput)
	if err != nil {
		return nil, err
	}
	ct, err := persistence.ParseCompression(c.Storage.Compression)
	if err != nil {
		return nil, err
	}

	opts := []rulesynth.Option{
		rulesynth.WithLogger(logger),
		rulesynth.WithResourceController(c.ResourceController()),
		rulesynth.WithGeneticConfig(c.geneticConfig()),
		rulesynth.WithEliteRefinement(c.Genetic.EliteRefinement),
		rulesynth.WithKFlip(c.KFlip.K, c.KFlip.MaxSteps),
		rulesynth.WithCacheSize(c.Resources.CacheSize),
		rulesynth.WithCompression(ct),
	}
	if c.Rules.MinimalCovers {
		opts = append(opts, rulesynth.WithMinimalCovers())
	}
	if w := c.Rules.RuleWeights; len(w) == 3 {
		opts = append(opts, rulesynth.WithRuleWeights(w[0], w[1], w[2]))
	}
	if w := c.Rules.SetWeights; len(w) == 4 {
		opts = append(opts, rulesynth.WithSetWeights(w[0], w[1], w[2], w[3]))
	}
	if mc := c.MetricsCollector(); mc != nil {
		opts = append(opts, rulesynth.WithMetricsCollector(mc))
	}

	store, err := c.OpenStore(ctx)
	if err != nil {
		return nil, err
	}
	if store != nil {
		opts = append(opts, rulesynth.WithStore(store))
	}
	return opts, nil
}

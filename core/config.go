package core

import (
	"fmt"
	"time"
)

// Config holds the fixed pipeline and search parameters. A Config is built
// once at startup, validated, and passed into components at construction;
// components never mutate it.
type Config struct {
	// ChunkSize is the chunk window length in tokens.
	ChunkSize int

	// ChunkOverlap is the number of tokens shared by consecutive chunks.
	// Must be strictly less than ChunkSize.
	ChunkOverlap int

	// EmbeddingDimension is the fixed vector dimensionality produced by the
	// configured embedding model.
	EmbeddingDimension int

	// RRFK is the Reciprocal Rank Fusion constant. It is tunable but must
	// stay fixed per deployment so rankings are reproducible.
	RRFK int

	// TopKFactor scales the per-source retrieval depth: each source is
	// asked for limit*TopKFactor candidates (never fewer than limit).
	TopKFactor int

	// RetryMaxAttempts bounds retries of transient stage failures.
	RetryMaxAttempts int

	// RetryBaseDelay is the base delay for exponential backoff between
	// retry attempts.
	RetryBaseDelay time.Duration

	// Workers is the ingestion worker pool size.
	Workers int
}

// ConfigOption is a functional option for building a Config.
type ConfigOption func(*Config)

// WithChunking sets the chunk window size and overlap, both in tokens.
func WithChunking(size, overlap int) ConfigOption {
	return func(c *Config) {
		c.ChunkSize = size
		c.ChunkOverlap = overlap
	}
}

// WithEmbeddingDimension sets the expected embedding vector dimension.
func WithEmbeddingDimension(dim int) ConfigOption {
	return func(c *Config) {
		c.EmbeddingDimension = dim
	}
}

// WithRRFK sets the Reciprocal Rank Fusion constant.
func WithRRFK(k int) ConfigOption {
	return func(c *Config) {
		c.RRFK = k
	}
}

// WithRetry sets the retry ceiling and backoff base delay for transient
// stage failures.
func WithRetry(maxAttempts int, baseDelay time.Duration) ConfigOption {
	return func(c *Config) {
		c.RetryMaxAttempts = maxAttempts
		c.RetryBaseDelay = baseDelay
	}
}

// WithWorkers sets the ingestion worker pool size.
func WithWorkers(n int) ConfigOption {
	return func(c *Config) {
		c.Workers = n
	}
}

// DefaultConfig returns the deployment defaults: 750-token chunks with a
// 100-token overlap, 384-dimension embeddings, RRF k=60.
func DefaultConfig() *Config {
	return &Config{
		ChunkSize:          750,
		ChunkOverlap:       100,
		EmbeddingDimension: 384,
		RRFK:               60,
		TopKFactor:         3,
		RetryMaxAttempts:   3,
		RetryBaseDelay:     time.Second,
		Workers:            4,
	}
}

// NewConfig creates a Config with defaults and applies the given options.
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Validate checks the configuration, failing fast on values the pipeline
// cannot run with. All errors wrap ErrConfig.
func (c *Config) Validate() error {
	if c.ChunkSize <= 0 {
		return fmt.Errorf("%w: chunk size must be positive, got %d", ErrConfig, c.ChunkSize)
	}
	if c.ChunkOverlap < 0 {
		return fmt.Errorf("%w: chunk overlap cannot be negative, got %d", ErrConfig, c.ChunkOverlap)
	}
	if c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("%w: chunk overlap %d must be strictly less than chunk size %d",
			ErrConfig, c.ChunkOverlap, c.ChunkSize)
	}
	if c.EmbeddingDimension <= 0 {
		return fmt.Errorf("%w: embedding dimension must be positive, got %d", ErrConfig, c.EmbeddingDimension)
	}
	if c.RRFK <= 0 {
		return fmt.Errorf("%w: RRF constant must be positive, got %d", ErrConfig, c.RRFK)
	}
	if c.TopKFactor < 1 {
		return fmt.Errorf("%w: top-k factor must be at least 1, got %d", ErrConfig, c.TopKFactor)
	}
	if c.RetryMaxAttempts < 1 {
		return fmt.Errorf("%w: retry max attempts must be at least 1, got %d", ErrConfig, c.RetryMaxAttempts)
	}
	if c.Workers < 1 {
		return fmt.Errorf("%w: worker count must be at least 1, got %d", ErrConfig, c.Workers)
	}
	return nil
}

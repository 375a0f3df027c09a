package persistence

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/hupe1980/rulesynth/blobstore"
	"github.com/hupe1980/rulesynth/rule"
)

// ErrInvalidName is returned for an empty or malformed rule-set name.
var ErrInvalidName = errors.New("invalid rule-set name")

// Repository stores versioned rule sets in a blobstore.Store.
//
// Each Save writes an immutable container "<name>/<checksum>.rset" and then
// points "<name>/CURRENT" at it, so readers never observe a partial write.
type Repository struct {
	store       blobstore.Store
	compression CompressionType
	logger      *slog.Logger
}

// RepositoryOption configures a Repository.
type RepositoryOption func(*Repository)

// WithCompression sets the payload compression for saved containers.
func WithCompression(ct CompressionType) RepositoryOption {
	return func(r *Repository) {
		r.compression = ct
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) RepositoryOption {
	return func(r *Repository) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewRepository creates a repository on top of store.
func NewRepository(store blobstore.Store, opts ...RepositoryOption) *Repository {
	r := &Repository{
		store:       store,
		compression: CompressionZSTD,
		logger:      slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Save persists set under name and makes it the current version.
// It returns the key of the written container.
func (r *Repository) Save(ctx context.Context, name string, set *rule.Set) (string, error) {
	if err := validateName(name); err != nil {
		return "", err
	}
	data, sum, err := Marshal(set, EncodeOptions{Compression: r.compression})
	if err != nil {
		return "", err
	}

	key := path.Join(name, fmt.Sprintf("%08x%s", sum, Extension))
	if err := r.store.Put(ctx, key, data); err != nil {
		return "", fmt.Errorf("write %s: %w", key, err)
	}
	if err := r.store.Put(ctx, currentKey(name), []byte(key)); err != nil {
		return "", fmt.Errorf("commit %s: %w", key, err)
	}

	r.logger.InfoContext(ctx, "rule set saved",
		"name", name,
		"key", key,
		"members", set.Len(),
		"bytes", len(data),
	)
	return key, nil
}

// Load returns the current version of the named rule set.
func (r *Repository) Load(ctx context.Context, name string) (*rule.Set, error) {
	key, err := r.Current(ctx, name)
	if err != nil {
		return nil, err
	}
	return r.LoadKey(ctx, key)
}

// Current returns the container key the CURRENT pointer of name refers to.
func (r *Repository) Current(ctx context.Context, name string) (string, error) {
	if err := validateName(name); err != nil {
		return "", err
	}
	data, err := r.store.Get(ctx, currentKey(name))
	if err != nil {
		return "", fmt.Errorf("read current pointer of %q: %w", name, err)
	}
	key := strings.TrimSpace(string(data))
	if key == "" {
		return "", fmt.Errorf("%w: empty current pointer of %q", ErrCorrupt, name)
	}
	return key, nil
}

// LoadKey decodes the container stored under key.
func (r *Repository) LoadKey(ctx context.Context, key string) (*rule.Set, error) {
	data, err := r.store.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	set, err := Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", key, err)
	}
	r.logger.DebugContext(ctx, "rule set loaded", "key", key, "members", set.Len())
	return set, nil
}

// Versions lists the container keys stored for name.
func (r *Repository) Versions(ctx context.Context, name string) ([]string, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	names, err := r.store.List(ctx, name+"/")
	if err != nil {
		return nil, err
	}
	out := names[:0]
	for _, n := range names {
		if strings.HasSuffix(n, Extension) && path.Dir(n) == name {
			out = append(out, n)
		}
	}
	return out, nil
}

// Prune deletes every stored version of name except the current one and
// returns the deleted keys.
func (r *Repository) Prune(ctx context.Context, name string) ([]string, error) {
	current, err := r.Current(ctx, name)
	if err != nil {
		return nil, err
	}
	versions, err := r.Versions(ctx, name)
	if err != nil {
		return nil, err
	}
	var deleted []string
	for _, key := range versions {
		if key == current {
			continue
		}
		if err := r.store.Delete(ctx, key); err != nil {
			return deleted, err
		}
		deleted = append(deleted, key)
	}
	return deleted, nil
}

func currentKey(name string) string {
	return path.Join(name, blobstore.CurrentName)
}

func validateName(name string) error {
	if name == "" || strings.HasPrefix(name, "/") || path.Clean(name) != name || name == "." || strings.HasPrefix(name, "..") {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

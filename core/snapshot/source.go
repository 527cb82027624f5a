package snapshot

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"declaration-manager/core/storage"

	"github.com/minio/minio-go/v7"
	"gorm.io/gorm"
)

// Source loads a snapshot.
type Source interface {
	Load(ctx context.Context) (*Map, error)
}

// Saver is implemented by sources that can persist a snapshot.
type Saver interface {
	Save(ctx context.Context, m *Map) error
}

// ErrReadOnly is returned when saving to a source that cannot persist.
var ErrReadOnly = errors.New("snapshot source is read-only")

// Source kinds accepted in configuration.
const (
	SourceNone     = "none"
	SourceFile     = "file"
	SourceStorage  = "storage"
	SourceDatabase = "database"
)

// Config selects and parameterizes the snapshot source.
type Config struct {
	// Source is one of none, file, storage, database.
	Source string `mapstructure:"source" default:"none"`
	// Path is the snapshot document for the file source.
	Path string `mapstructure:"path" default:"snapshot.json"`
	// Object is the object name for the storage source.
	Object string `mapstructure:"object" default:"snapshots/current.json"`
	// CacheTTLSeconds caches loaded snapshots. Zero disables caching.
	CacheTTLSeconds int `mapstructure:"cache_ttl_seconds" default:"0"`
}

// TTL returns the cache lifetime.
func (c Config) TTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

// NewSource builds the source selected by cfg. client and db may be nil when the
// selected source does not need them.
func NewSource(cfg Config, client storage.Client, bucket string, db *gorm.DB) (Source, error) {
	switch cfg.Source {
	case "", SourceNone:
		return Empty{}, nil
	case SourceFile:
		return &FileSource{Path: cfg.Path}, nil
	case SourceStorage:
		if client == nil {
			return nil, fmt.Errorf("snapshot source %q requires a storage client", cfg.Source)
		}
		return &StorageSource{Client: client, Bucket: bucket, Object: cfg.Object}, nil
	case SourceDatabase:
		if db == nil {
			return nil, fmt.Errorf("snapshot source %q requires a database connection", cfg.Source)
		}
		return NewDBSource(db), nil
	default:
		return nil, fmt.Errorf("unknown snapshot source %q", cfg.Source)
	}
}

// Empty is a Source for a device without any managed configuration.
type Empty struct{}

// Load returns an empty Map.
func (Empty) Load(ctx context.Context) (*Map, error) {
	return New(), nil
}

// FileSource reads a snapshot document from disk.
type FileSource struct {
	Path string
}

// Load reads and decodes the file.
func (s *FileSource) Load(ctx context.Context) (*Map, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot: %w", err)
	}
	defer f.Close()
	return Decode(f)
}

// Save writes m as JSON, replacing the file.
func (s *FileSource) Save(ctx context.Context, m *Map) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(s.Path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	return nil
}

// StorageSource reads a snapshot document from object storage.
type StorageSource struct {
	Client storage.Client
	Bucket string
	Object string
}

// Load downloads and decodes the object.
func (s *StorageSource) Load(ctx context.Context) (*Map, error) {
	data, err := storage.ReadObject(ctx, s.Client, s.Bucket, s.Object)
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}

	m, err := Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("snapshot %s: %w", s.Object, err)
	}
	return m, nil
}

// Save uploads m as JSON, replacing the object.
func (s *StorageSource) Save(ctx context.Context, m *Map) error {
	data, err := json.Marshal(m)
	if err != nil {
		return err
	}
	_, err = s.Client.PutObject(ctx, s.Bucket, s.Object, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return fmt.Errorf("failed to put snapshot %s: %w", s.Object, err)
	}
	return nil
}

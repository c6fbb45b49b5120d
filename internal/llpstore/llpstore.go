// Package llpstore persists per-gamma label arrays (the intermediate output
// of one internal/llp.Iterator run) so the gamma orchestrator's combine
// phase can reload them without keeping every gamma's labels resident in
// memory at once, mirroring the reference implementation's
// labels_<gamma_index>.bin temp files.
package llpstore

import (
	"context"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"

	"github.com/llp-go/llp/pkg/compression"
	"github.com/llp-go/llp/pkg/config"
)

// Backend is the storage contract the gamma orchestrator depends on: put,
// get, and delete a named array of uint64 labels. Implementations choose
// their own wire encoding; both backends shipped here use a length-prefixed
// little-endian uint64 array, optionally zstd-compressed.
type Backend interface {
	Put(ctx context.Context, key string, labels []uint64) error
	Get(ctx context.Context, key string) ([]uint64, error)
	Delete(ctx context.Context, key string) error
}

// BackendType selects which Backend implementation NewBackend constructs.
type BackendType string

const (
	BackendTypeLocal BackendType = "local"
	BackendTypeCOS   BackendType = "cos"
)

// NewBackend builds a Backend from storage configuration, defaulting to
// local disk when Type is unset. This mirrors the teacher's
// storage.NewStorage dispatch on StorageConfig.Type.
func NewBackend(cfg *config.StorageConfig) (Backend, error) {
	if cfg == nil {
		return NewLocalBackend("", false)
	}

	switch BackendType(cfg.Type) {
	case BackendTypeCOS:
		return NewCOSBackend(&COSConfig{
			Bucket:    cfg.Bucket,
			Region:    cfg.Region,
			SecretID:  cfg.SecretID,
			SecretKey: cfg.SecretKey,
			Domain:    cfg.Domain,
			Scheme:    cfg.Scheme,
		}, cfg.Compress)
	case BackendTypeLocal, "":
		return NewLocalBackend(cfg.LocalPath, cfg.Compress)
	default:
		return nil, fmt.Errorf("llpstore: unsupported backend type %q", cfg.Type)
	}
}

// encode writes labels as an 8-byte little-endian length prefix followed by
// that many little-endian uint64 values, optionally zstd-compressing the
// result.
func encode(labels []uint64, compress bool) ([]byte, error) {
	raw := make([]byte, 8+8*len(labels))
	binary.LittleEndian.PutUint64(raw[:8], uint64(len(labels)))
	for i, v := range labels {
		binary.LittleEndian.PutUint64(raw[8+8*i:8+8*i+8], v)
	}
	if !compress {
		return raw, nil
	}
	comp, err := compression.NewZstdCompressor(compression.LevelDefault)
	if err != nil {
		return nil, fmt.Errorf("llpstore: creating zstd compressor: %w", err)
	}
	defer comp.Close()
	return comp.Compress(raw)
}

// decode is the inverse of encode. When compress is true the blob is
// zstd-decompressed before the length prefix is parsed; there is no fallback
// to reading it as an uncompressed blob.
func decode(data []byte, compress bool) ([]uint64, error) {
	raw := data
	if compress {
		comp, err := compression.NewZstdCompressor(compression.LevelDefault)
		if err != nil {
			return nil, fmt.Errorf("llpstore: creating zstd compressor: %w", err)
		}
		defer comp.Close()
		decompressed, err := comp.Decompress(data)
		if err != nil {
			return nil, fmt.Errorf("llpstore: decompressing labels: %w", err)
		}
		raw = decompressed
	}

	if len(raw) < 8 {
		return nil, fmt.Errorf("llpstore: truncated labels blob")
	}
	n := binary.LittleEndian.Uint64(raw[:8])
	if uint64(len(raw)) != 8+8*n {
		return nil, fmt.Errorf("llpstore: labels blob length mismatch: header says %d elements", n)
	}
	labels := make([]uint64, n)
	for i := range labels {
		labels[i] = binary.LittleEndian.Uint64(raw[8+8*i : 8+8*i+8])
	}
	return labels, nil
}

// LocalBackend persists labels as files under a base directory (an
// "llp-labels" directory inside os.TempDir() by default, matching the
// reference implementation's use of temp_dir()).
type LocalBackend struct {
	basePath string
	compress bool
}

// NewLocalBackend creates a LocalBackend rooted at basePath (os.TempDir()'s
// "llp-labels" subdirectory when empty), creating the directory if needed.
func NewLocalBackend(basePath string, compress bool) (*LocalBackend, error) {
	if basePath == "" {
		basePath = filepath.Join(os.TempDir(), "llp-labels")
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("llpstore: creating local backend directory: %w", err)
	}
	return &LocalBackend{basePath: basePath, compress: compress}, nil
}

func (b *LocalBackend) path(key string) string {
	return filepath.Join(b.basePath, key)
}

func (b *LocalBackend) Put(ctx context.Context, key string, labels []uint64) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	blob, err := encode(labels, b.compress)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(b.path(key)), 0o755); err != nil {
		return fmt.Errorf("llpstore: creating parent directory: %w", err)
	}
	if err := os.WriteFile(b.path(key), blob, 0o644); err != nil {
		return fmt.Errorf("llpstore: writing %s: %w", key, err)
	}
	return nil
}

func (b *LocalBackend) Get(ctx context.Context, key string) ([]uint64, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	data, err := os.ReadFile(b.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("llpstore: labels not found: %s", key)
		}
		return nil, fmt.Errorf("llpstore: reading %s: %w", key, err)
	}
	return decode(data, b.compress)
}

func (b *LocalBackend) Delete(ctx context.Context, key string) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if err := os.Remove(b.path(key)); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("llpstore: deleting %s: %w", key, err)
	}
	return nil
}

package dataset

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"simvote/domain/core"

	"github.com/google/uuid"
)

// StorageConfig holds configuration for artifact storage
type StorageConfig struct {
	BasePath  string // Output directory
	Overwrite bool   // Keep requested names instead of making them unique
}

// DefaultStorageConfig returns sensible defaults
func DefaultStorageConfig() *StorageConfig {
	return &StorageConfig{BasePath: "out"}
}

// LocalFileStorage writes artifacts into a local output directory
type LocalFileStorage struct {
	config *StorageConfig
}

// NewLocalFileStorage creates a new local file storage instance
func NewLocalFileStorage(config *StorageConfig) *LocalFileStorage {
	if config == nil {
		config = DefaultStorageConfig()
	}
	return &LocalFileStorage{config: config}
}

// NewLocalFileStorageWithPath creates a new local file storage with a simple path
func NewLocalFileStorageWithPath(basePath string, overwrite bool) *LocalFileStorage {
	config := DefaultStorageConfig()
	config.BasePath = basePath
	config.Overwrite = overwrite
	return NewLocalFileStorage(config)
}

// BasePath returns the output directory
func (s *LocalFileStorage) BasePath() string {
	return s.config.BasePath
}

// ArtifactPath returns the path an artifact named filename is written to:
// <base>_<timestamp>_<uuid8><ext> unless overwrite is configured
func (s *LocalFileStorage) ArtifactPath(filename string) string {
	if s.config.Overwrite {
		return filepath.Join(s.config.BasePath, filename)
	}
	ext := filepath.Ext(filename)
	baseName := filename[:len(filename)-len(ext)]
	timestamp := core.Now().Stamp()
	uniqueName := fmt.Sprintf("%s_%s_%s%s", baseName, timestamp, uuid.New().String()[:8], ext)
	return filepath.Join(s.config.BasePath, uniqueName)
}

func (s *LocalFileStorage) ensureDir(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(s.config.BasePath, 0755); err != nil {
		return fmt.Errorf("failed to create storage directory: %w", err)
	}
	return nil
}

// Create opens a new artifact and hands it to write. The file is removed
// when write fails.
func (s *LocalFileStorage) Create(ctx context.Context, filename string, write func(w io.Writer) error) (string, error) {
	if err := s.ensureDir(ctx); err != nil {
		return "", err
	}

	filePath := s.ArtifactPath(filename)
	destFile, err := os.Create(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to create destination file: %w", err)
	}

	if err := write(destFile); err != nil {
		destFile.Close()
		s.Delete(ctx, filePath)
		return "", fmt.Errorf("failed to write %s: %w", filePath, err)
	}
	if err := destFile.Close(); err != nil {
		s.Delete(ctx, filePath)
		return "", fmt.Errorf("failed to close %s: %w", filePath, err)
	}
	return filePath, nil
}

// Save reserves an artifact path and lets save write the file itself, for
// writers that only accept a path. A partially written file is removed when
// save fails.
func (s *LocalFileStorage) Save(ctx context.Context, filename string, save func(path string) error) (string, error) {
	if err := s.ensureDir(ctx); err != nil {
		return "", err
	}

	filePath := s.ArtifactPath(filename)
	if err := save(filePath); err != nil {
		s.Delete(ctx, filePath)
		return "", err
	}
	return filePath, nil
}

// GetReader opens a stored artifact, or any file the caller points it at
func (s *LocalFileStorage) GetReader(ctx context.Context, filePath string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	return file, nil
}

// Delete removes a file; a missing file is not an error. It runs even when
// ctx is done so partial artifacts are always cleaned up.
func (s *LocalFileStorage) Delete(_ context.Context, filePath string) error {
	if err := os.Remove(filePath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

// Exists checks if a file exists in storage
func (s *LocalFileStorage) Exists(ctx context.Context, filePath string) (bool, error) {
	_, err := os.Stat(filePath)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check file existence: %w", err)
	}
	return true, nil
}

// GetFileSize returns the size of a stored file
func (s *LocalFileStorage) GetFileSize(filePath string) (int64, error) {
	info, err := os.Stat(filePath)
	if err != nil {
		return 0, fmt.Errorf("failed to get file info: %w", err)
	}
	return info.Size(), nil
}

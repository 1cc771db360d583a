package ports

import (
	"context"
	"io"
)

// ArtifactStorage places output files in the output directory and reads
// files back for inspection
type ArtifactStorage interface {
	// Create streams an artifact through write
	Create(ctx context.Context, filename string, write func(w io.Writer) error) (string, error)
	// Save reserves a path for writers that need one
	Save(ctx context.Context, filename string, save func(path string) error) (string, error)
	BasePath() string

	Exists(ctx context.Context, path string) (bool, error)
	GetReader(ctx context.Context, path string) (io.ReadCloser, error)
	GetFileSize(path string) (int64, error)
}

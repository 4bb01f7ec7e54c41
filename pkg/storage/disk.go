// Package storage is a small filesystem abstraction with a local driver and
// an S3-compatible driver (AWS S3, MinIO, R2, Spaces). darzi keeps exported
// reports on whichever disk STORAGE_DISK names.
//
//	m, err := storage.Connect(ctx)
//	disk, err := m.Default()
//	err = disk.Put(ctx, "reports/daily-2023-04-20.pdf", data)
//	url := disk.URL("reports/daily-2023-04-20.pdf")
package storage

import (
	"context"
	"errors"
	"time"
)

// ErrNotExist is returned when a file is missing.
var ErrNotExist = errors.New("storage: file does not exist")

// FileInfo describes a stored file.
type FileInfo struct {
	Path         string
	Size         int64
	LastModified time.Time
}

// Disk is implemented by every driver. Paths are slash-separated and
// relative to the disk root.
type Disk interface {
	Put(ctx context.Context, path string, content []byte) error
	Get(ctx context.Context, path string) ([]byte, error)
	Exists(ctx context.Context, path string) (bool, error)
	Delete(ctx context.Context, path string) error
	// Files lists the files under dir, recursively.
	Files(ctx context.Context, dir string) ([]FileInfo, error)
	// URL is the public location of path.
	URL(path string) string
}

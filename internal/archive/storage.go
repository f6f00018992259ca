// Package archive writes bar history exports to local disk or an
// S3-compatible bucket.
package archive

import (
	"context"
	"fmt"
)

// Storage is a flat key/blob store.
type Storage interface {
	Write(ctx context.Context, path string, data []byte) error
	Read(ctx context.Context, path string) ([]byte, error)
	List(ctx context.Context, prefix string) ([]string, error)
	Exists(ctx context.Context, path string) (bool, error)
}

// Drivers
const (
	DriverLocal = "local"
	DriverS3    = "s3"
)

// Options selects and configures a storage driver.
type Options struct {
	Driver string
	Path   string // local driver root
	S3     S3Config
}

// Open returns the storage named by opts.Driver. An empty driver means local.
func Open(opts Options) (Storage, error) {
	switch opts.Driver {
	case "", DriverLocal:
		return NewLocalFS(opts.Path)
	case DriverS3:
		return NewS3(opts.S3)
	default:
		return nil, fmt.Errorf("unknown archive driver %q", opts.Driver)
	}
}

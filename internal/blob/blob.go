// Package blob exposes the object storage contract and selects a backend.
// Only this package imports the infra implementations.
package blob

import (
	"context"
	"fmt"

	"vetclinic/internal/blob/core"
	"vetclinic/internal/infra/blob/fs"
	"vetclinic/internal/infra/blob/memory"
	"vetclinic/internal/infra/blob/s3"
)

type (
	// Driver identifies a blob backend driver.
	Driver = core.Driver
	// PutOptions configures a blob write.
	PutOptions = core.PutOptions
	// Info describes stored object metadata.
	Info = core.Info
	// Store is the interface for blob storage backends.
	Store = core.Store
	// S3Config configures the S3 backend.
	S3Config = s3.Config
)

const (
	DriverFilesystem = core.DriverFilesystem
	DriverS3         = core.DriverS3
	DriverMemory     = core.DriverMemory
)

var (
	// ErrExists is returned by Put when the key is taken.
	ErrExists = core.ErrExists
	// ErrNotFound is returned by Get for a missing key.
	ErrNotFound = core.ErrNotFound
)

// Config selects and configures a backend.
type Config struct {
	Driver Driver
	Root   string
	S3     S3Config
}

// Open returns the Store for cfg.Driver; an empty driver means filesystem.
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Driver {
	case "", DriverFilesystem:
		return fs.New(cfg.Root)
	case DriverMemory:
		return memory.New(), nil
	case DriverS3:
		return s3.New(ctx, cfg.S3)
	default:
		return nil, fmt.Errorf("unknown blob driver %q", cfg.Driver)
	}
}

// NewMemory returns an in-memory Store.
func NewMemory() Store { return memory.New() }

// Package blob is the entry point for fixture storage. It re-exports the
// core abstractions and is the only package allowed to construct the
// infra-backed stores.
package blob

import (
	"context"
	"fmt"

	"usercore/internal/blob/core"
	"usercore/internal/config"
	infraFS "usercore/internal/infra/blob/fs"
	infraMemory "usercore/internal/infra/blob/memory"
	infraS3 "usercore/internal/infra/blob/s3"
)

type (
	Store      = core.Store
	Driver     = core.Driver
	Info       = core.Info
	PutOptions = core.PutOptions
)

const (
	DriverFilesystem = core.DriverFilesystem
	DriverS3         = core.DriverS3
	DriverMemory     = core.DriverMemory
)

var (
	ErrUnsupported = core.ErrUnsupported
	ErrNotFound    = core.ErrNotFound
	ErrExists      = core.ErrExists
)

// Open selects a Store implementation from configuration. An empty driver
// defaults to the filesystem store.
func Open(ctx context.Context, cfg config.Blob) (Store, error) {
	driver := Driver(cfg.Driver)
	if driver == "" {
		driver = DriverFilesystem
	}
	switch driver {
	case DriverFilesystem:
		return NewFilesystem(cfg.FSRoot)
	case DriverS3:
		return NewS3(ctx, cfg.S3)
	case DriverMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("%w: blob driver %q", ErrUnsupported, cfg.Driver)
	}
}

// NewFilesystem returns a store rooted at root (default ./blobdata).
func NewFilesystem(root string) (Store, error) {
	return infraFS.New(root)
}

// NewMemory returns a process-local store.
func NewMemory() Store {
	return infraMemory.New()
}

// NewS3 returns a store for the configured bucket. Static credentials are used
// when an access key is configured, otherwise the default AWS chain.
func NewS3(ctx context.Context, cfg config.S3) (Store, error) {
	return infraS3.New(ctx, infraS3.Config{
		Bucket:    cfg.Bucket,
		Region:    cfg.Region,
		Endpoint:  cfg.Endpoint,
		PathStyle: cfg.PathStyle,

		AccessKeyID:     cfg.AccessKeyID,
		SecretAccessKey: cfg.SecretAccessKey,
		SessionToken:    cfg.SessionToken,
	})
}

// NewS3MockForTests returns an S3 store backed by an in-memory transport.
func NewS3MockForTests() Store {
	return infraS3.NewMockForTests()
}

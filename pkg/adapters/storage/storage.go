// Package storage picks the byte store backend from configuration.
package storage

import (
	"context"
	"fmt"

	"github.com/wadjakorntonsri/labelshare/pkg/adapters/storage/local"
	"github.com/wadjakorntonsri/labelshare/pkg/adapters/storage/minio"
	"github.com/wadjakorntonsri/labelshare/pkg/adapters/storage/s3"
	"github.com/wadjakorntonsri/labelshare/pkg/config"
	"github.com/wadjakorntonsri/labelshare/pkg/ports"
)

const (
	DriverLocal = "local"
	DriverS3    = "s3"
	DriverMinio = "minio"
)

// Open returns the BlobStore named by cfg.StorageDriver.
func Open(ctx context.Context, cfg *config.Config) (ports.BlobStore, error) {
	switch cfg.StorageDriver {
	case DriverLocal, "":
		return local.NewStore(cfg.StorageRoot)
	case DriverS3:
		return s3.NewStore(ctx, s3.Options{
			Bucket:   cfg.S3Bucket,
			Region:   cfg.S3Region,
			Endpoint: cfg.S3Endpoint,
		})
	case DriverMinio:
		return minio.NewStore(ctx, minio.Options{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			UseSSL:    cfg.MinioUseSSL,
		})
	}
	return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
}

package storage

import (
	"context"

	"github.com/dmitrijs2005/pinsync/internal/server/config"
)

// Open picks the backend from configuration: a DSN selects postgres, else a
// bucket selects s3, else the JSON file is used.
func Open(ctx context.Context, c *config.Config) (Store, error) {
	switch {
	case c.DatabaseDSN != "":
		return OpenPostgres(ctx, c.DatabaseDSN)

	case c.S3Bucket != "":
		api, err := NewS3Client(ctx, S3Options{
			Bucket:       c.S3Bucket,
			Key:          c.S3Key,
			Region:       c.S3Region,
			BaseEndpoint: c.S3BaseEndpoint,
			AccessKey:    c.S3RootUser,
			SecretKey:    c.S3RootPassword,
		})
		if err != nil {
			return nil, err
		}
		return NewS3Store(api, c.S3Bucket, c.S3Key), nil

	default:
		return NewFileStore(c.FilePath)
	}
}

// Kind names the backend Open would select.
func Kind(c *config.Config) string {
	switch {
	case c.DatabaseDSN != "":
		return "postgres"
	case c.S3Bucket != "":
		return "s3"
	default:
		return "file"
	}
}

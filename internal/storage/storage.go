// Package storage provides content-addressed object-store endpoints for uploads
package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"strconv"
	"time"

	"github.com/UnendingLoop/ImageDrop/internal/model"
	"github.com/UnendingLoop/ImageDrop/internal/mwlogger"
	"github.com/UnendingLoop/ImageDrop/internal/storage/miniostorage"
	"github.com/UnendingLoop/ImageDrop/internal/uploader"
	"github.com/wb-go/wbf/config"
)

// BlobStore - контракт объектного хранилища, бакет берется из endpoint
type BlobStore interface {
	Exists(ctx context.Context, bucket, key string) (bool, error)
	Put(ctx context.Context, bucket, key string, size int64, contentType string, r io.Reader) error
	URL(bucket, key string) string
}

// Driver puts images to minio://bucket or s3://bucket endpoints under sha256+ext keys.
// An object that is already stored is not uploaded again.
type Driver struct {
	store BlobStore
}

func NewDriver(store BlobStore) *Driver {
	return &Driver{store: store}
}

func (d *Driver) Put(ctx context.Context, ep model.Endpoint, img *model.SanitizedImage, _ model.Credential) (model.Response, error) {
	logger := mwlogger.LoggerFromContext(ctx)

	bucket := ep.Host()
	if bucket == "" {
		return nil, fmt.Errorf("%w: endpoint %q has no bucket", uploader.ErrPermanent, ep)
	}
	key := img.Key()

	exists, err := d.store.Exists(ctx, bucket, key)
	if err != nil {
		logger.Warn().Err(err).Str("bucket", bucket).Str("key", key).Msg("Failed to check object existence, uploading anyway")
	}

	if !exists {
		if err := d.store.Put(ctx, bucket, key, img.Size(), img.ContentType, bytes.NewReader(img.Data)); err != nil {
			return nil, fmt.Errorf("failed to put %q to bucket %q: %w", key, bucket, err)
		}
	}

	return model.Tags{
		{"url", d.store.URL(bucket, key)},
		{"x", img.SHA256},
		{"m", img.ContentType},
		{"size", strconv.FormatInt(img.Size(), 10)},
	}, nil
}

// NewImgStorage blocks until MinIO accepts the connection.
func NewImgStorage(cfg *config.Config, delay time.Duration) *miniostorage.MinioImageStorage {
	for {
		log.Println("Connecting to IMG-storage...")
		client, err := miniostorage.NewMinioClient(cfg)
		if err != nil {
			log.Printf("Failed to init connection to IMG-storage: %v\nNext retry in %v...", err, delay)
			time.Sleep(delay)
			continue
		}
		log.Println("Successfully connected IMG-storage!")
		return client
	}
}

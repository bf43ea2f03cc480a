package storage

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/UnendingLoop/ImageDrop/internal/model"
	"github.com/UnendingLoop/ImageDrop/internal/storage/miniostorage"
	"github.com/UnendingLoop/ImageDrop/internal/storage/s3storage"
	"github.com/UnendingLoop/ImageDrop/internal/uploader"
	"github.com/stretchr/testify/require"
)

type mockStore struct {
	existsFn func(ctx context.Context, bucket, key string) (bool, error)
	putFn    func(ctx context.Context, bucket, key string, size int64, ct string, r io.Reader) error
}

func (m *mockStore) Exists(ctx context.Context, bucket, key string) (bool, error) {
	return m.existsFn(ctx, bucket, key)
}

func (m *mockStore) Put(ctx context.Context, bucket, key string, size int64, ct string, r io.Reader) error {
	return m.putFn(ctx, bucket, key, size, ct, r)
}

func (m *mockStore) URL(bucket, key string) string {
	return "http://cdn/" + bucket + "/" + key
}

func img() *model.SanitizedImage {
	return &model.SanitizedImage{Name: "a.webp", ContentType: model.WEBP, Data: []byte("RIFFdata"), SHA256: "feed"}
}

// PUT - NEW OBJECT
func TestDriver_Put_New(t *testing.T) {
	var put bool
	d := NewDriver(&mockStore{
		existsFn: func(ctx context.Context, bucket, key string) (bool, error) {
			require.Equal(t, "images", bucket)
			require.Equal(t, "feed.webp", key)
			return false, nil
		},
		putFn: func(ctx context.Context, bucket, key string, size int64, ct string, r io.Reader) error {
			put = true
			data, err := io.ReadAll(r)
			require.NoError(t, err)
			require.Equal(t, "RIFFdata", string(data))
			require.Equal(t, int64(8), size)
			require.Equal(t, model.WEBP, ct)
			return nil
		},
	})

	resp, err := d.Put(context.Background(), "minio://images", img(), "")
	require.NoError(t, err)
	require.True(t, put)
	require.Equal(t, model.Tags{
		{"url", "http://cdn/images/feed.webp"},
		{"x", "feed"},
		{"m", model.WEBP},
		{"size", "8"},
	}, resp)
}

// PUT - ALREADY STORED
func TestDriver_Put_Existing(t *testing.T) {
	d := NewDriver(&mockStore{
		existsFn: func(ctx context.Context, bucket, key string) (bool, error) { return true, nil },
		putFn: func(ctx context.Context, bucket, key string, size int64, ct string, r io.Reader) error {
			t.Fatal("put must be skipped")
			return nil
		},
	})

	resp, err := d.Put(context.Background(), "s3://images", img(), "")
	require.NoError(t, err)
	require.Equal(t, "http://cdn/images/feed.webp", resp.(model.Tags)[0][1])
}

// PUT - STORE FAIL
func TestDriver_Put_StoreError(t *testing.T) {
	d := NewDriver(&mockStore{
		existsFn: func(ctx context.Context, bucket, key string) (bool, error) { return false, errors.New("stat failed") },
		putFn: func(ctx context.Context, bucket, key string, size int64, ct string, r io.Reader) error {
			return errors.New("disk full")
		},
	})

	_, err := d.Put(context.Background(), "minio://images", img(), "")
	require.ErrorContains(t, err, "disk full")
}

// PUT - NO BUCKET
func TestDriver_Put_NoBucket(t *testing.T) {
	d := NewDriver(&mockStore{})
	_, err := d.Put(context.Background(), "minio://", img(), "")
	require.ErrorIs(t, err, uploader.ErrPermanent)
}

func TestPublicURLs(t *testing.T) {
	require.Equal(t, "https://media.example", miniostorage.PublicURL("https://media.example/", "minio:9000"))
	require.Equal(t, "http://minio:9000", miniostorage.PublicURL("", "minio:9000"))

	require.Equal(t, "https://cdn.example/k.png", s3storage.ObjectURL("https://cdn.example", "eu-west-1", "b", "k.png"))
	require.Equal(t, "https://b.s3.eu-west-1.amazonaws.com/k.png", s3storage.ObjectURL("", "eu-west-1", "b", "k.png"))
	require.Equal(t, "https://b.s3.amazonaws.com/k.png", s3storage.ObjectURL("", "", "b", "k.png"))
}

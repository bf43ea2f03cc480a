// Package s3storage puts blobs to AWS S3 buckets
package s3storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/wb-go/wbf/config"
)

type S3Storage struct {
	client    *s3.Client
	region    string
	publicURL string
}

// NewS3Storage loads credentials the default AWS way (env, shared config, IAM role).
func NewS3Storage(ctx context.Context, cfg *config.Config) (*S3Storage, error) {
	region := cfg.GetString("S3_REGION")
	opts := make([]func(*awsconfig.LoadOptions) error, 0, 1)
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("error while initializing aws: %w", err)
	}

	return &S3Storage{
		client:    s3.NewFromConfig(awsCfg),
		region:    awsCfg.Region,
		publicURL: strings.TrimRight(cfg.GetString("S3_PUBLIC_URL"), "/"),
	}, nil
}

func (s *S3Storage) Exists(ctx context.Context, bucket, key string) (bool, error) {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err == nil {
		return true, nil
	}
	var nf *types.NotFound
	if errors.As(err, &nf) {
		return false, nil
	}
	return false, err
}

func (s *S3Storage) Put(ctx context.Context, bucket, key string, size int64, contentType string, r io.Reader) error {
	if r == nil {
		return errors.New("nil reader passed to storage.Put")
	}

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(bucket),
		Key:           aws.String(key),
		Body:          r,
		ContentLength: aws.Int64(size),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("couldn't upload object with key: %s, AWS error: %w", key, err)
	}
	return nil
}

func (s *S3Storage) URL(bucket, key string) string {
	return ObjectURL(s.publicURL, s.region, bucket, key)
}

// ObjectURL - публичный адрес объекта, S3_PUBLIC_URL (CDN) имеет приоритет
func ObjectURL(publicURL, region, bucket, key string) string {
	if publicURL != "" {
		return publicURL + "/" + key
	}
	if region == "" {
		return fmt.Sprintf("https://%s.s3.amazonaws.com/%s", bucket, key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", bucket, region, key)
}

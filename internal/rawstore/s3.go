package rawstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"

	"github.com/weedwatch/weedwatch/internal/config"
)

// S3Store keeps raw payloads in an S3-compatible bucket (Akave O3, MinIO, AWS).
type S3Store struct {
	client *s3.Client
	bucket string
	prefix string
	now    func() time.Time
}

// NewS3Store builds a path-style client for cfg.
func NewS3Store(cfg *config.S3Config) (*S3Store, error) {
	if cfg == nil || cfg.Endpoint == "" || cfg.Bucket == "" {
		return nil, errors.New("s3 storage requires endpoint and bucket")
	}
	secret, err := cfg.ResolvedSecretKey()
	if err != nil {
		return nil, err
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	creds := credentials.NewStaticCredentialsProvider(cfg.AccessKey, secret, "")
	client := s3.NewFromConfig(aws.Config{
		Region:      region,
		Credentials: aws.NewCredentialsCache(creds),
	}, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.Endpoint)
		o.UsePathStyle = true
		// S3-compatible gateways do not all accept aws-chunked checksum bodies.
		o.RequestChecksumCalculation = aws.RequestChecksumCalculationWhenRequired
	})
	prefix := cfg.Prefix
	if prefix == "" {
		prefix = "raw"
	}
	return &S3Store{client: client, bucket: cfg.Bucket, prefix: prefix, now: time.Now}, nil
}

// EnsureBucket creates the bucket if HeadBucket fails.
func (s *S3Store) EnsureBucket(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)})
	if err == nil {
		return nil
	}
	_, createErr := s.client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(s.bucket)})
	if createErr != nil {
		var apiErr smithy.APIError
		if errors.As(createErr, &apiErr) {
			switch apiErr.ErrorCode() {
			case "BucketAlreadyOwnedByYou", "BucketAlreadyExists":
				return nil
			}
		}
		return createErr
	}
	return nil
}

// KeyFor returns the object key for name, e.g. raw/2024/06/01/data-<id>.json.
func KeyFor(prefix string, at time.Time, name string) string {
	return path.Join(prefix, at.UTC().Format("2006/01/02"), name)
}

// Put uploads payload under a fresh key. If-None-Match keeps an existing
// object from being replaced on stores that honor it.
func (s *S3Store) Put(ctx context.Context, payload []byte) (RawObject, error) {
	name, err := NewName()
	if err != nil {
		return RawObject{}, err
	}
	key := KeyFor(s.prefix, s.now(), name)
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(payload),
		ContentType: aws.String("application/json"),
		IfNoneMatch: aws.String("*"),
	})
	if err != nil {
		return RawObject{}, fmt.Errorf("put %s: %w", key, err)
	}
	return RawObject{Key: key, Size: int64(len(payload))}, nil
}

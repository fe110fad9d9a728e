// Package objectstore wraps the AWS S3 SDK behind a small interface so
// bronze and gold engines never import aws-sdk-go-v2 directly. Grounded on
// Common/S3Process.py's S3Process class; generalized to accept a custom
// endpoint for S3-compatible deployments (MinIO, etc.) the same way the
// original passes aws_endpoint through.
package objectstore

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ErrNoSuchObject is returned when a requested key does not exist.
var ErrNoSuchObject = errors.New("objectstore: no such object")

// Store is the capability surface the acquisition and publish stages need:
// write a raw payload, list files under a prefix, and read one back.
type Store interface {
	Put(ctx context.Context, bucket, key string, body io.Reader) error
	List(ctx context.Context, bucket, prefix string) ([]string, error)
	Get(ctx context.Context, bucket, key string) (io.ReadCloser, error)
}

// S3Store is the default Store backed by aws-sdk-go-v2.
type S3Store struct {
	client *s3.Client
}

// Options configures the underlying S3 client. Endpoint is optional and,
// when set, targets an S3-compatible endpoint instead of AWS (matching
// aws_endpoint in the original configuration).
type Options struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Endpoint        string
}

// NewS3Store builds an S3Store from Options.
func NewS3Store(ctx context.Context, opts Options) (*S3Store, error) {
	var loadOpts []func(*awsconfig.LoadOptions) error

	if opts.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(opts.Region))
	}

	if opts.AccessKeyID != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, ""),
		))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Store{client: client}, nil
}

// Put uploads body to bucket/key, the equivalent of s3_raw_file_write.
func (s *S3Store) Put(ctx context.Context, bucket, key string, body io.Reader) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
		Body:   body,
	})
	if err != nil {
		return fmt.Errorf("putting s3 object %s/%s: %w", bucket, key, err)
	}

	return nil
}

// List returns every key under prefix, the equivalent of s3_list_files but
// returning an empty slice (rather than a bool false) when nothing matches,
// since Go callers check len() rather than a type-ambiguous falsy return.
func (s *S3Store) List(ctx context.Context, bucket, prefix string) ([]string, error) {
	var keys []string

	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(bucket),
		Prefix: aws.String(prefix),
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("listing s3 objects %s/%s: %w", bucket, prefix, err)
		}

		for _, obj := range page.Contents {
			if obj.Key != nil {
				keys = append(keys, *obj.Key)
			}
		}
	}

	return keys, nil
}

// Get streams bucket/key back to the caller, who must Close it.
func (s *S3Store) Get(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("getting s3 object %s/%s: %w", bucket, key, err)
	}

	return out.Body, nil
}

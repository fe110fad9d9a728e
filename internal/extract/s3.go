package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strings"

	"github.com/henry-richard7/lakehouse-orchestrator/internal/objectstore"
	"github.com/henry-richard7/lakehouse-orchestrator/internal/pattern"
)

// s3ConnectionConfig is the shape acquisition_connection_master.connection_json
// carries for an S3-compatible outbound source.
type s3ConnectionConfig struct {
	Bucket          string `json:"bucket"`
	Region          string `json:"region"`
	Endpoint        string `json:"endpoint"`
	AccessKeyID     string `json:"access_key_id"`
	SecretAccessKey string `json:"secret_access_key"`
}

// S3Extractor copies new objects from an outbound S3-compatible bucket
// into the inbound location, grounded on Extractors/S3Extractor.py's
// list-then-copy loop.
type S3Extractor struct {
	// NewSource builds the source object store from connection config;
	// overridable in tests to avoid a real AWS SDK dial.
	NewSource func(ctx context.Context, cfg s3ConnectionConfig) (objectstore.Store, error)
}

func (e *S3Extractor) Pull(ctx context.Context, req Request, dst objectstore.Store, bucket, prefix string) ([]Pulled, error) {
	var cfg s3ConnectionConfig
	if err := json.Unmarshal([]byte(req.Connection.ConnectionJSON), &cfg); err != nil {
		return nil, fmt.Errorf("extract: parsing S3 connection_json: %w", err)
	}

	newSource := e.NewSource
	if newSource == nil {
		newSource = defaultNewS3Source
	}

	source, err := newSource(ctx, cfg)
	if err != nil {
		return nil, err
	}

	keys, err := source.List(ctx, cfg.Bucket, req.Detail.SourceLocation)
	if err != nil {
		return nil, fmt.Errorf("extract: listing s3://%s/%s: %w", cfg.Bucket, req.Detail.SourceLocation, err)
	}

	var pulled []Pulled

	for _, key := range keys {
		sourceLocation := fmt.Sprintf("s3a://%s/%s", cfg.Bucket, key)
		if req.Dedupe != nil && req.Dedupe.Contains(sourceLocation) {
			continue
		}

		name := path.Base(key)
		if req.Detail.SourceFilePattern != "" {
			ok, err := pattern.Validate(req.Detail.SourceFilePattern, name, false)
			if err != nil {
				return nil, err
			}

			if !ok {
				continue
			}
		}

		body, err := source.Get(ctx, cfg.Bucket, key)
		if err != nil {
			return nil, fmt.Errorf("extract: fetching %s: %w", sourceLocation, err)
		}

		inboundKey := strings.TrimSuffix(prefix, "/") + "/" + name
		if err := dst.Put(ctx, bucket, inboundKey, body); err != nil {
			body.Close()

			return nil, fmt.Errorf("extract: writing inbound object %s: %w", inboundKey, err)
		}

		body.Close()

		pulled = append(pulled, Pulled{SourceLocation: sourceLocation, InboundKey: inboundKey})
	}

	return pulled, nil
}

func defaultNewS3Source(ctx context.Context, cfg s3ConnectionConfig) (objectstore.Store, error) {
	return objectstore.NewS3Store(ctx, objectstore.Options{
		Region:          cfg.Region,
		Endpoint:        cfg.Endpoint,
		AccessKeyID:     cfg.AccessKeyID,
		SecretAccessKey: cfg.SecretAccessKey,
	})
}

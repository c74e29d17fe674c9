package backup

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/arkilian/schemaengine/pkg/types"
)

// S3Config configures S3Archiver, trimmed to what a small JSON snapshot
// needs — no multipart upload settings, since a schema snapshot never
// approaches the size where that would matter.
type S3Config struct {
	Region   string
	Bucket   string
	Prefix   string
	Endpoint string
}

// S3Archiver uploads schema snapshots to S3 (or an S3-compatible
// endpoint such as MinIO/LocalStack) ahead of a file reset.
type S3Archiver struct {
	client *s3.Client
	bucket string
	prefix string
}

// NewS3Archiver builds an archiver against the given bucket, loading AWS
// credentials the standard SDK way.
func NewS3Archiver(ctx context.Context, cfg S3Config) (*S3Archiver, error) {
	var opts []func(*config.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, config.WithRegion(cfg.Region))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("backup: load aws config: %w", err)
	}

	var s3Opts []func(*s3.Options)
	if cfg.Endpoint != "" {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		})
	}

	return &S3Archiver{
		client: s3.NewFromConfig(awsCfg, s3Opts...),
		bucket: cfg.Bucket,
		prefix: cfg.Prefix,
	}, nil
}

func (a *S3Archiver) ArchiveSchema(ctx context.Context, schema types.Schema, reason string) error {
	payload, err := encodeSnapshot(schema, reason)
	if err != nil {
		return fmt.Errorf("backup: encode snapshot: %w", err)
	}

	key := snapshotKey(a.prefix, time.Now())
	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(payload),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("backup: upload snapshot %s: %w", key, err)
	}
	return nil
}

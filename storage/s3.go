package storage

import (
	"bytes"
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/axent-pl/jwtmint/common"
	"github.com/axent-pl/jwtmint/common/logx"
)

// S3Config holds configuration for an S3-compatible bucket
type S3Config struct {
	BucketHost      string
	BucketPort      int
	BucketName      string
	UseSSL          bool
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	// Prefix is prepended to every object key
	Prefix string
}

func (c S3Config) Endpoint() string {
	scheme := "http"
	if c.UseSSL {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s:%d", scheme, c.BucketHost, c.BucketPort)
}

// S3Sink uploads artifacts as objects
type S3Sink struct {
	client     *s3.Client
	bucketName string
	prefix     string
}

// NewS3Sink creates a client for cfg; it does not contact the bucket.
func NewS3Sink(ctx context.Context, cfg S3Config) (*S3Sink, error) {
	if cfg.BucketName == "" {
		return nil, fmt.Errorf("%w: bucket name is required", common.ErrInvalidInput)
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.Endpoint())
		o.UsePathStyle = true
		o.RequestChecksumCalculation = aws.RequestChecksumCalculationWhenRequired
	})

	return &S3Sink{
		client:     client,
		bucketName: cfg.BucketName,
		prefix:     cfg.Prefix,
	}, nil
}

func (s *S3Sink) Key(name string) string {
	return s.prefix + name
}

func (s *S3Sink) Put(ctx context.Context, name string, artifact common.Artifact) error {
	contentType := artifact.MediaType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucketName),
		Key:         aws.String(s.Key(name)),
		Body:        bytes.NewReader(artifact.Bytes),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		logx.L().Debug("s3 upload failed", "bucket", s.bucketName, "key", s.Key(name), "error", err)
		return fmt.Errorf("failed to put %s: %w", s.Key(name), err)
	}
	return nil
}

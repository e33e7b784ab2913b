package materials

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/jengacalc/jengacalc/internal/server/config"
)

// objectPutter is the part of *s3.Client the sink needs.
type objectPutter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Sink writes every entry as its own object. Works against AWS and MinIO.
type S3Sink struct {
	client objectPutter
	bucket string
}

// NewS3Sink builds a client from static credentials and the configured endpoint.
func NewS3Sink(ctx context.Context, cfg *config.Config) (*S3Sink, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.S3RootUser,
			cfg.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("s3 config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3BaseEndpoint)
			o.UsePathStyle = true
		}
	})
	return &S3Sink{client: client, bucket: cfg.S3Bucket}, nil
}

func (s *S3Sink) Append(ctx context.Context, e Entry) error {
	key := objectKey(e, uuid.NewString())
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        strings.NewReader(e.Record),
		ContentType: aws.String("text/plain; charset=utf-8"),
		Metadata:    map[string]string{"calculator": e.Calculator},
	})
	if err != nil {
		return fmt.Errorf("s3 put %s: %w", key, err)
	}
	return nil
}

// NewSink picks the sink named by cfg.MaterialsSink.
func NewSink(ctx context.Context, cfg *config.Config) (Sink, error) {
	switch cfg.MaterialsSink {
	case config.SinkS3:
		return NewS3Sink(ctx, cfg)
	case config.SinkFile, "":
		return NewFileSink(cfg.MaterialsLogPath)
	default:
		return nil, fmt.Errorf("unknown materials sink %q", cfg.MaterialsSink)
	}
}

package archive

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/ManuelReschke/FoxPay/internal/pkg/logging"
	"github.com/ManuelReschke/FoxPay/internal/pkg/payments"
)

type putObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Archiver writes verified webhook payloads to a bucket for audit.
type S3Archiver struct {
	s3Client putObjectAPI
	config   *Config
	now      func() time.Time
}

var _ payments.PayloadArchiver = (*S3Archiver)(nil)

// NewS3Archiver creates the archive client. It fails when the archive is
// disabled so callers can simply skip it.
func NewS3Archiver(ctx context.Context, cfg *Config) (*S3Archiver, error) {
	if !cfg.Enabled {
		return nil, fmt.Errorf("webhook archive is disabled")
	}

	awsConfig, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	s3Client := s3.NewFromConfig(awsConfig, func(o *s3.Options) {
		if cfg.EndpointURL != "" {
			o.BaseEndpoint = aws.String(cfg.EndpointURL)
			o.UsePathStyle = true
		}
	})

	logging.Component("archive").Infof("webhook archive writing to bucket %s", cfg.BucketName)
	return newS3Archiver(s3Client, cfg), nil
}

func newS3Archiver(client putObjectAPI, cfg *Config) *S3Archiver {
	return &S3Archiver{s3Client: client, config: cfg, now: time.Now}
}

// Archive uploads the raw payload exactly as it was verified.
func (a *S3Archiver) Archive(ctx context.Context, ev *payments.Event) error {
	eventID := ev.ID
	if eventID == "" {
		sum := sha256.Sum256(ev.Raw)
		eventID = "hash-" + hex.EncodeToString(sum[:])
	}
	key := a.config.GetObjectKey(eventID, a.now().UTC())

	_, err := a.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.config.BucketName),
		Key:         aws.String(key),
		Body:        bytes.NewReader(ev.Raw),
		ContentType: aws.String("application/json"),
		Metadata: map[string]string{
			"event-type": ev.Type,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", key, err)
	}
	return nil
}

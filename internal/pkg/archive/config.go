package archive

import (
	"errors"
	"fmt"
	"time"

	"github.com/ManuelReschke/FoxPay/internal/pkg/env"
)

// Config holds the S3 settings for the webhook payload archive
type Config struct {
	AccessKeyID     string
	SecretAccessKey string
	Region          string
	BucketName      string
	EndpointURL     string // Optional for S3-compatible services
	Prefix          string
	Enabled         bool
}

// LoadConfig loads S3 configuration from environment variables
func LoadConfig() (*Config, error) {
	config := &Config{
		AccessKeyID:     env.GetEnv("S3_ACCESS_KEY_ID", ""),
		SecretAccessKey: env.GetEnv("S3_SECRET_ACCESS_KEY", ""),
		Region:          env.GetEnv("S3_REGION", "us-east-1"),
		BucketName:      env.GetEnv("S3_BUCKET_NAME", ""),
		EndpointURL:     env.GetEnv("S3_ENDPOINT_URL", ""),
		Prefix:          env.GetEnv("S3_WEBHOOK_PREFIX", "webhooks"),
		Enabled:         env.GetBool("S3_WEBHOOK_ARCHIVE_ENABLED", false),
	}

	// Validate required fields if the archive is enabled
	if config.Enabled {
		if config.AccessKeyID == "" {
			return nil, errors.New("S3_ACCESS_KEY_ID is required when the webhook archive is enabled")
		}
		if config.SecretAccessKey == "" {
			return nil, errors.New("S3_SECRET_ACCESS_KEY is required when the webhook archive is enabled")
		}
		if config.BucketName == "" {
			return nil, errors.New("S3_BUCKET_NAME is required when the webhook archive is enabled")
		}
	}

	return config, nil
}

// GetObjectKey generates the object key for one webhook delivery
func (c *Config) GetObjectKey(eventID string, received time.Time) string {
	// Format: <prefix>/YYYY/MM/DD/<event id>.json
	return fmt.Sprintf("%s/%04d/%02d/%02d/%s.json",
		c.Prefix, received.Year(), int(received.Month()), received.Day(), eventID)
}

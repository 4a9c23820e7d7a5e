package client

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/blogcaster/api/internal/config"
)

// podcastKeyPrefix is the object key prefix for mirrored episodes
const podcastKeyPrefix = "podcasts"

// ObjectPutter is the subset of the S3 API the mirror needs
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// R2Mirror copies finished podcast files to a Cloudflare R2 bucket
type R2Mirror struct {
	s3Client   ObjectPutter
	bucketName string
	publicURL  string
}

// NewR2Mirror creates a new R2 mirror. It returns an error when the
// configuration is incomplete so callers can run without a mirror.
func NewR2Mirror(ctx context.Context, cfg *config.R2Config) (*R2Mirror, error) {
	if cfg.AccountID == "" || cfg.AccessKeyID == "" || cfg.SecretAccessKey == "" || cfg.BucketName == "" {
		return nil, fmt.Errorf("R2 configuration incomplete")
	}

	endpoint := fmt.Sprintf("https://%s.r2.cloudflarestorage.com", cfg.AccountID)

	r2Resolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, options ...interface{}) (aws.Endpoint, error) {
		return aws.Endpoint{
			URL: endpoint,
		}, nil
	})

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithEndpointResolverWithOptions(r2Resolver),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)),
		awsconfig.WithRegion("auto"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return NewR2MirrorWithClient(s3.NewFromConfig(awsCfg), cfg.BucketName, cfg.PublicURL), nil
}

// NewR2MirrorWithClient builds a mirror around an existing S3 client
func NewR2MirrorWithClient(api ObjectPutter, bucket, publicURL string) *R2Mirror {
	return &R2Mirror{
		s3Client:   api,
		bucketName: bucket,
		publicURL:  strings.TrimRight(publicURL, "/"),
	}
}

// Mirror uploads a podcast file and returns its public URL
func (c *R2Mirror) Mirror(ctx context.Context, fileName string, data []byte, contentType string) (string, error) {
	key := path.Join(podcastKeyPrefix, fileName)

	input := &s3.PutObjectInput{
		Bucket:        aws.String(c.bucketName),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(data))),
		CacheControl:  aws.String("public, max-age=31536000, immutable"),
	}

	if _, err := c.s3Client.PutObject(ctx, input); err != nil {
		return "", fmt.Errorf("failed to upload to R2: %w", err)
	}

	return c.PublicURL(key), nil
}

// PublicURL returns the public CDN URL for a key
func (c *R2Mirror) PublicURL(key string) string {
	if c.publicURL != "" {
		return fmt.Sprintf("%s/%s", c.publicURL, key)
	}
	return fmt.Sprintf("https://%s.r2.cloudflarestorage.com/%s", c.bucketName, key)
}

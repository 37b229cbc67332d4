package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog/log"
)

// presignExpiration is how long presigned audio URLs stay valid when the
// bucket has no public base URL configured.
const presignExpiration = 7 * 24 * time.Hour

// Client wraps S3 storage operations for generated audio files
type Client struct {
	s3Client  *s3.Client
	bucket    string
	publicURL string // optional base URL for public bucket (e.g. http://localhost:9000/music-files)
}

// NewClient creates a new S3 storage client
func NewClient(endpoint, region, bucket, accessKey, secretKey string, useSSL bool, publicURL string) (*Client, error) {
	configOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(accessKey, secretKey, "")),
	}

	// Custom endpoint for MinIO/LocalStack
	if endpoint != "" {
		configOpts = append(configOpts, awsconfig.WithBaseEndpoint(endpoint))
	}

	cfg, err := awsconfig.LoadDefaultConfig(context.Background(), configOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	// Path-style addressing plus relaxed checksums so S3-compatible backends
	// (MinIO, Cloudflare R2) that don't fully support CRC32 headers work.
	s3Client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.UsePathStyle = true
		o.RequestChecksumCalculation = aws.RequestChecksumCalculationWhenRequired
		o.ResponseChecksumValidation = aws.ResponseChecksumValidationWhenRequired
	})

	log.Info().
		Str("endpoint", endpoint).
		Str("bucket", bucket).
		Msg("S3 client initialized")

	return &Client{
		s3Client:  s3Client,
		bucket:    bucket,
		publicURL: publicURL,
	}, nil
}

// Upload uploads data to S3. contentLength must be > 0; S3-compatible backends (e.g. R2) require the Content-Length header.
func (c *Client) Upload(ctx context.Context, key string, data io.Reader, contentType string, contentLength int64) error {
	input := &s3.PutObjectInput{
		Bucket:        aws.String(c.bucket),
		Key:           aws.String(key),
		Body:          data,
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(contentLength),
	}
	if _, err := c.s3Client.PutObject(ctx, input); err != nil {
		return fmt.Errorf("failed to upload to S3: %w", err)
	}

	log.Info().
		Str("bucket", c.bucket).
		Str("key", key).
		Int64("size", contentLength).
		Msg("Audio uploaded to S3")

	return nil
}

// ObjectURL returns a dereferenceable URL for an uploaded object: the public
// base URL joined with the key when configured, otherwise a presigned GET URL.
func (c *Client) ObjectURL(ctx context.Context, key string) (string, error) {
	if c.publicURL != "" {
		if c.publicURL[len(c.publicURL)-1] == '/' {
			return c.publicURL + key, nil
		}
		return c.publicURL + "/" + key, nil
	}

	presignClient := s3.NewPresignClient(c.s3Client)
	req, err := presignClient.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = presignExpiration
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned URL: %w", err)
	}

	return req.URL, nil
}

// Package storage is the S3-compatible object store used for candidate files.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Provider is the S3-compatible storage provider.
type Provider string

const (
	ProviderAWS    Provider = "aws"
	ProviderWasabi Provider = "wasabi"
)

// Config holds configuration for S3-compatible storage.
type Config struct {
	Provider        Provider
	AccessKeyID     string
	SecretAccessKey string
	Region          string
	Bucket          string
	// Endpoint overrides the provider endpoint, e.g. "s3.eu-central-1.wasabisys.com".
	Endpoint string
	// PublicBaseURL prefixes object keys in returned URLs. Defaults to the
	// virtual-hosted or path-style bucket URL.
	PublicBaseURL string
}

// WasabiEndpoints maps regions to Wasabi endpoints.
var WasabiEndpoints = map[string]string{
	"us-east-1":      "s3.us-east-1.wasabisys.com",
	"us-east-2":      "s3.us-east-2.wasabisys.com",
	"us-west-1":      "s3.us-west-1.wasabisys.com",
	"eu-central-1":   "s3.eu-central-1.wasabisys.com",
	"eu-west-1":      "s3.eu-west-1.wasabisys.com",
	"eu-west-2":      "s3.eu-west-2.wasabisys.com",
	"ap-northeast-1": "s3.ap-northeast-1.wasabisys.com",
	"ap-southeast-1": "s3.ap-southeast-1.wasabisys.com",
	"ap-southeast-2": "s3.ap-southeast-2.wasabisys.com",
}

// maxDownloadBytes caps remote downloads of arbitrary URLs.
const maxDownloadBytes = 50 << 20

// S3Storage implements upload/download against one bucket.
type S3Storage struct {
	client     *s3.Client
	bucket     string
	baseURL    string
	httpClient *http.Client
}

// NewS3Client creates an S3 client for AWS or Wasabi.
func NewS3Client(ctx context.Context, cfg Config) (*s3.Client, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	endpoint := endpointFor(cfg)
	if endpoint == "" {
		return s3.NewFromConfig(awsCfg), nil
	}
	// Wasabi and other S3-compatible stores need path-style addressing.
	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String("https://" + endpoint)
		o.UsePathStyle = true
	}), nil
}

func endpointFor(cfg Config) string {
	if cfg.Endpoint != "" {
		return strings.TrimPrefix(cfg.Endpoint, "https://")
	}
	if cfg.Provider != ProviderWasabi {
		return ""
	}
	if endpoint, ok := WasabiEndpoints[cfg.Region]; ok {
		return endpoint
	}
	return "s3.ap-southeast-1.wasabisys.com"
}

// New builds the storage. The bucket must be set.
func New(ctx context.Context, cfg Config) (*S3Storage, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("storage: bucket is required")
	}
	client, err := NewS3Client(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &S3Storage{
		client:     client,
		bucket:     cfg.Bucket,
		baseURL:    BaseURL(cfg),
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}, nil
}

// BaseURL is the URL prefix under which object keys are published.
func BaseURL(cfg Config) string {
	if cfg.PublicBaseURL != "" {
		return strings.TrimSuffix(cfg.PublicBaseURL, "/")
	}
	if endpoint := endpointFor(cfg); endpoint != "" {
		return "https://" + endpoint + "/" + cfg.Bucket
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
}

// Upload stores data under path and returns its URL.
func (s *S3Storage) Upload(ctx context.Context, path string, data []byte, contentType string) (string, error) {
	key := strings.TrimPrefix(path, "/")
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return "", fmt.Errorf("storage: put %s: %w", key, err)
	}
	return s.baseURL + "/" + key, nil
}

// Download fetches an object by URL. URLs inside this bucket are read through
// the S3 API; any other http(s) URL is fetched directly.
func (s *S3Storage) Download(ctx context.Context, rawURL string) ([]byte, error) {
	if key, ok := s.KeyFor(rawURL); ok {
		out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(key),
		})
		if err != nil {
			return nil, fmt.Errorf("storage: get %s: %w", key, err)
		}
		defer out.Body.Close()
		return io.ReadAll(io.LimitReader(out.Body, maxDownloadBytes))
	}
	return s.fetch(ctx, rawURL)
}

// KeyFor extracts the object key from a URL produced by Upload or an
// s3://bucket/key reference.
func (s *S3Storage) KeyFor(rawURL string) (string, bool) {
	if strings.HasPrefix(rawURL, s.baseURL+"/") {
		return strings.TrimPrefix(rawURL, s.baseURL+"/"), true
	}
	if u, err := url.Parse(rawURL); err == nil && u.Scheme == "s3" && u.Host == s.bucket {
		return strings.TrimPrefix(u.Path, "/"), true
	}
	return "", false
}

func (s *S3Storage) fetch(ctx context.Context, rawURL string) ([]byte, error) {
	if strings.HasPrefix(rawURL, "//") {
		rawURL = "https:" + rawURL
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("storage: build request: %w", err)
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("storage: fetch: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("storage: fetch %s: status %d", rawURL, resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxDownloadBytes))
}

// Ping checks bucket access.
func (s *S3Storage) Ping(ctx context.Context) error {
	_, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket:  aws.String(s.bucket),
		MaxKeys: aws.Int32(1),
	})
	if err != nil {
		return fmt.Errorf("failed to access bucket %s: %w", s.bucket, err)
	}
	return nil
}

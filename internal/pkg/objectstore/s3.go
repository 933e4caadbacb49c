package objectstore

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/assocsite/portal/internal/config"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3 stores objects in an S3-compatible bucket.
type S3 struct {
	client       *s3.Client
	bucket       string
	prefix       string
	endpoint     *url.URL
	customDomain string
	pathStyle    bool
}

// NewS3 builds an S3 store from cfg. A custom endpoint implies path-style addressing.
func NewS3(cfg config.S3Config) (*S3, error) {
	if cfg.Bucket == "" || cfg.Region == "" || cfg.AccessKeyID == "" || cfg.SecretAccessKey == "" {
		return nil, fmt.Errorf("incomplete s3 config: bucket/region/access_key_id/secret_access_key are required")
	}

	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = fmt.Sprintf("https://s3.%s.amazonaws.com", cfg.Region)
	}
	parsed, err := url.Parse(strings.TrimSuffix(endpoint, "/"))
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("invalid s3 endpoint: %s", endpoint)
	}
	pathStyle := cfg.PathStyle || cfg.Endpoint != ""

	client := s3.New(s3.Options{
		Region:       cfg.Region,
		Credentials:  credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		UsePathStyle: pathStyle,
	}, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(parsed.String())
		}
	})

	return &S3{
		client:       client,
		bucket:       cfg.Bucket,
		prefix:       NormalizeKey(cfg.Prefix),
		endpoint:     parsed,
		customDomain: cfg.CustomDomain,
		pathStyle:    pathStyle,
	}, nil
}

func (s *S3) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error) {
	key = NormalizeKey(key)
	if key == "" {
		return "", fmt.Errorf("invalid object key")
	}
	if s.prefix != "" {
		key = s.prefix + "/" + key
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	input := &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	}
	if size >= 0 {
		input.ContentLength = aws.Int64(size)
	}
	if _, err := s.client.PutObject(ctx, input); err != nil {
		return "", fmt.Errorf("s3 put %q: %w", key, err)
	}
	return s.PublicURL(key), nil
}

// PublicURL returns the URL an object under key is reachable at.
func (s *S3) PublicURL(key string) string {
	encoded := encodeKey(key)
	if s.customDomain != "" {
		return s.customDomain + "/" + encoded
	}

	basePath := strings.TrimSuffix(s.endpoint.Path, "/")
	if s.pathStyle {
		return s.endpoint.Scheme + "://" + s.endpoint.Host + joinURLPath(basePath, s.bucket, encoded)
	}
	host := s.endpoint.Host
	if !strings.HasPrefix(strings.ToLower(host), strings.ToLower(s.bucket)+".") {
		host = s.bucket + "." + host
	}
	return s.endpoint.Scheme + "://" + host + joinURLPath(basePath, encoded)
}

// Package s3store keeps objects in an S3 bucket, or in any S3-compatible
// service reachable through a custom endpoint.
package s3store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"bucketq/internal/store"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

const (
	motoEndpoint = "http://localhost:5000"
	motoRegion   = "us-west-1"
)

func init() {
	store.Register("s3", func(ctx context.Context, u *url.URL) (store.ObjectStore, error) {
		cfg, err := ParseURL(u)
		if err != nil {
			return nil, err
		}
		return open(ctx, cfg)
	})
	// moto://bucket/prefix talks to a local moto server
	store.Register("moto", func(ctx context.Context, u *url.URL) (store.ObjectStore, error) {
		cfg, err := ParseURL(u)
		if err != nil {
			return nil, err
		}
		return open(ctx, cfg)
	})
}

func open(ctx context.Context, cfg Config) (store.ObjectStore, error) {
	st, err := New(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return store.WithPrefix(st, cfg.Prefix), nil
}

// Config locates a bucket and the credentials used to reach it.
type Config struct {
	Bucket   string
	Prefix   string
	Region   string
	Endpoint string
	// PathStyle addresses the bucket in the URL path, which most
	// S3-compatible servers need.
	PathStyle       bool
	AccessKeyID     string
	SecretAccessKey string
}

// ParseURL reads s3://[key:secret@]bucket/prefix?region=..&endpoint=.. and
// moto://bucket/prefix.
func ParseURL(u *url.URL) (Config, error) {
	cfg := Config{
		Bucket: u.Hostname(),
		Prefix: strings.Trim(u.Path, "/"),
	}
	if cfg.Bucket == "" {
		return Config{}, fmt.Errorf("%w: %s url needs a bucket", store.ErrInvalidURL, u.Scheme)
	}
	if u.User != nil {
		cfg.AccessKeyID = u.User.Username()
		cfg.SecretAccessKey, _ = u.User.Password()
	}

	q := u.Query()
	cfg.Region = q.Get("region")
	cfg.Endpoint = q.Get("endpoint")
	cfg.PathStyle = q.Get("path_style") == "true" || cfg.Endpoint != ""

	if strings.EqualFold(u.Scheme, "moto") {
		if cfg.Endpoint == "" {
			cfg.Endpoint = motoEndpoint
		}
		if cfg.Region == "" {
			cfg.Region = motoRegion
		}
		if cfg.AccessKeyID == "" {
			cfg.AccessKeyID, cfg.SecretAccessKey = "testing", "testing"
		}
		cfg.PathStyle = true
	}
	return cfg, nil
}

type Store struct {
	client *s3.Client
	bucket string
	region string
}

var _ store.ObjectStore = (*Store)(nil)

// New builds a client from the default AWS configuration chain, overridden
// by whatever cfg sets.
func New(ctx context.Context, cfg Config) (*Store, error) {
	var loadOpts []func(*config.LoadOptions) error
	if cfg.Region != "" {
		loadOpts = append(loadOpts, config.WithRegion(cfg.Region))
	}
	if cfg.AccessKeyID != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("s3: load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.PathStyle
	})

	return &Store{client: client, bucket: cfg.Bucket, region: awsCfg.Region}, nil
}

// Init creates the bucket when HeadBucket reports it missing.
func (s *Store) Init(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)})
	if err == nil {
		return nil
	}
	if !isNotFound(err) {
		return fmt.Errorf("s3: head bucket %s: %w", s.bucket, err)
	}

	in := &s3.CreateBucketInput{Bucket: aws.String(s.bucket)}
	if s.region != "" && s.region != "us-east-1" {
		in.CreateBucketConfiguration = &types.CreateBucketConfiguration{
			LocationConstraint: types.BucketLocationConstraint(s.region),
		}
	}
	if _, err := s.client.CreateBucket(ctx, in); err != nil {
		var owned *types.BucketAlreadyOwnedByYou
		if errors.As(err, &owned) {
			return nil
		}
		return fmt.Errorf("s3: create bucket %s: %w", s.bucket, err)
	}
	return nil
}

func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	p := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	})

	out := []string{}
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("s3: list %q: %w", prefix, err)
		}
		for _, obj := range page.Contents {
			out = append(out, store.Suffix(aws.ToString(obj.Key), prefix))
		}
	}
	// S3 already lists in UTF-8 binary order; keys here are ASCII
	return out, nil
}

func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	resp, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("s3: get %s: %w", key, err)
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", false, fmt.Errorf("s3: read %s: %w", key, err)
	}
	return string(b), true, nil
}

func (s *Store) Put(ctx context.Context, key, body string) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        strings.NewReader(body),
		ContentType: aws.String("text/plain; charset=utf-8"),
	})
	if err != nil {
		return fmt.Errorf("s3: put %s: %w", key, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil && !isNotFound(err) {
		return fmt.Errorf("s3: delete %s: %w", key, err)
	}
	return nil
}

// Drop deletes every object in the bucket, a thousand keys per request.
func (s *Store) Drop(ctx context.Context) error {
	keys, err := s.List(ctx, "")
	if err != nil {
		return err
	}
	for start := 0; start < len(keys); start += 1000 {
		end := min(start+1000, len(keys))
		ids := make([]types.ObjectIdentifier, 0, end-start)
		for _, k := range keys[start:end] {
			ids = append(ids, types.ObjectIdentifier{Key: aws.String(k)})
		}
		_, err := s.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
			Bucket: aws.String(s.bucket),
			Delete: &types.Delete{Objects: ids, Quiet: aws.Bool(true)},
		})
		if err != nil {
			return fmt.Errorf("s3: drop: %w", err)
		}
	}
	return nil
}

func (s *Store) Close() error { return nil }

func isNotFound(err error) bool {
	var noKey *types.NoSuchKey
	var notFound *types.NotFound
	var noBucket *types.NoSuchBucket
	if errors.As(err, &noKey) || errors.As(err, &notFound) || errors.As(err, &noBucket) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound", "NoSuchBucket", "404":
			return true
		}
	}
	return false
}

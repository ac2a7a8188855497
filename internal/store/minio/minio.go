// Package miniostore keeps objects in a MinIO bucket.
package miniostore

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"

	"bucketq/internal/store"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

func init() {
	store.Register("minio", func(ctx context.Context, u *url.URL) (store.ObjectStore, error) {
		cfg, err := ParseURL(u)
		if err != nil {
			return nil, err
		}
		st, err := New(cfg)
		if err != nil {
			return nil, err
		}
		return store.WithPrefix(st, cfg.Prefix), nil
	})
}

// Config locates a bucket on a MinIO server. Empty credentials fall back to
// the MINIO_ROOT_USER / MINIO_ACCESS_KEY environment variables.
type Config struct {
	Endpoint        string
	Bucket          string
	Prefix          string
	Region          string
	Secure          bool
	AccessKeyID     string
	SecretAccessKey string
}

// ParseURL reads minio://[key:secret@]host:port/bucket/prefix?secure=true.
func ParseURL(u *url.URL) (Config, error) {
	cfg := Config{Endpoint: u.Host}
	if cfg.Endpoint == "" {
		return Config{}, fmt.Errorf("%w: minio url needs host:port", store.ErrInvalidURL)
	}
	bucket, prefix, _ := strings.Cut(strings.Trim(u.Path, "/"), "/")
	if bucket == "" {
		return Config{}, fmt.Errorf("%w: minio url needs a bucket", store.ErrInvalidURL)
	}
	cfg.Bucket, cfg.Prefix = bucket, prefix

	if u.User != nil {
		cfg.AccessKeyID = u.User.Username()
		cfg.SecretAccessKey, _ = u.User.Password()
	}
	q := u.Query()
	cfg.Region = q.Get("region")
	if v := q.Get("secure"); v != "" {
		secure, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("%w: secure=%q", store.ErrInvalidURL, v)
		}
		cfg.Secure = secure
	}
	return cfg, nil
}

type Store struct {
	client *minio.Client
	bucket string
	region string
}

var _ store.ObjectStore = (*Store)(nil)

func New(cfg Config) (*Store, error) {
	creds := credentials.NewEnvMinio()
	if cfg.AccessKeyID != "" {
		creds = credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, "")
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  creds,
		Secure: cfg.Secure,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("minio: create client: %w", err)
	}
	return &Store{client: client, bucket: cfg.Bucket, region: cfg.Region}, nil
}

func (s *Store) Init(ctx context.Context) error {
	ok, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("minio: bucket exists %s: %w", s.bucket, err)
	}
	if ok {
		return nil
	}
	err = s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: s.region})
	if err != nil {
		code := minio.ToErrorResponse(err).Code
		if code == "BucketAlreadyOwnedByYou" || code == "BucketAlreadyExists" {
			return nil
		}
		return fmt.Errorf("minio: make bucket %s: %w", s.bucket, err)
	}
	return nil
}

func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	out := []string{}
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("minio: list %q: %w", prefix, obj.Err)
		}
		out = append(out, store.Suffix(obj.Key, prefix))
	}
	return out, nil
}

func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		if isNoSuchKey(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("minio: get %s: %w", key, err)
	}
	defer obj.Close()

	// the object is fetched lazily, so a missing key surfaces on read
	b, err := io.ReadAll(obj)
	if err != nil {
		if isNoSuchKey(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("minio: read %s: %w", key, err)
	}
	return string(b), true, nil
}

func (s *Store) Put(ctx context.Context, key, body string) error {
	_, err := s.client.PutObject(ctx, s.bucket, key, strings.NewReader(body), int64(len(body)), minio.PutObjectOptions{
		ContentType: "text/plain; charset=utf-8",
	})
	if err != nil {
		return fmt.Errorf("minio: put %s: %w", key, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{})
	if err != nil && !isNoSuchKey(err) {
		return fmt.Errorf("minio: delete %s: %w", key, err)
	}
	return nil
}

func (s *Store) Drop(ctx context.Context) error {
	objects := s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Recursive: true})
	for rerr := range s.client.RemoveObjects(ctx, s.bucket, objects, minio.RemoveObjectsOptions{}) {
		if rerr.Err != nil {
			return fmt.Errorf("minio: drop %s: %w", rerr.ObjectName, rerr.Err)
		}
	}
	return nil
}

func (s *Store) Close() error { return nil }

func isNoSuchKey(err error) bool {
	return minio.ToErrorResponse(err).Code == "NoSuchKey"
}

package objectstore

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/Jistoria/document-service/pkg/resilience"
)

// minioStore is the production Store backed by github.com/minio/minio-go/v7.
type minioStore struct {
	client  *minio.Client
	bucket  string
	breaker *resilience.Manager
}

// MinioConfig is the subset of internal/config.MinioConfig needed to dial
// the object store.
type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Secure    bool
}

// NewMinioStore dials endpoint and returns a Store bound to cfg.Bucket.
// It does not create the bucket; provisioning is an operator concern.
func NewMinioStore(cfg MinioConfig, breaker *resilience.Manager) (Store, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.Secure,
	})
	if err != nil {
		return nil, fmt.Errorf("objectstore: dialing %s: %w", cfg.Endpoint, err)
	}
	return &minioStore{client: client, bucket: cfg.Bucket, breaker: breaker}, nil
}

func (s *minioStore) execute(name string, fn func() (interface{}, error)) (interface{}, error) {
	if s.breaker == nil {
		return fn()
	}
	return s.breaker.Execute(name, fn)
}

func (s *minioStore) Upload(ctx context.Context, data []byte, path, contentType string) (string, error) {
	_, err := s.execute("minio.upload", func() (interface{}, error) {
		return s.client.PutObject(ctx, s.bucket, path, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
			ContentType: contentType,
		})
	})
	if err != nil {
		return "", fmt.Errorf("objectstore: uploading %s: %w", path, err)
	}
	return fmt.Sprintf("%s/%s", s.bucket, path), nil
}

func (s *minioStore) Stream(ctx context.Context, storagePath string) (io.ReadCloser, error) {
	_, path := splitStoragePath(storagePath, s.bucket)
	result, err := s.execute("minio.stream", func() (interface{}, error) {
		return s.client.GetObject(ctx, s.bucket, path, minio.GetObjectOptions{})
	})
	if err != nil {
		return nil, fmt.Errorf("objectstore: streaming %s: %w", storagePath, err)
	}
	return result.(*minio.Object), nil
}

func (s *minioStore) Copy(ctx context.Context, src, dst string) error {
	_, srcPath := splitStoragePath(src, s.bucket)
	_, dstPath := splitStoragePath(dst, s.bucket)

	_, err := s.execute("minio.copy", func() (interface{}, error) {
		return s.client.CopyObject(ctx,
			minio.CopyDestOptions{Bucket: s.bucket, Object: dstPath},
			minio.CopySrcOptions{Bucket: s.bucket, Object: srcPath},
		)
	})
	if err != nil {
		return fmt.Errorf("objectstore: copying %s to %s: %w", src, dst, err)
	}
	return nil
}

func (s *minioStore) Remove(ctx context.Context, path string) error {
	_, objectPath := splitStoragePath(path, s.bucket)
	_, err := s.execute("minio.remove", func() (interface{}, error) {
		return nil, s.client.RemoveObject(ctx, s.bucket, objectPath, minio.RemoveObjectOptions{})
	})
	if err != nil {
		return fmt.Errorf("objectstore: removing %s: %w", path, err)
	}
	return nil
}

// splitStoragePath accepts either a bare object path or a full
// "<bucket>/<path>" storage path and returns the bucket-relative path.
func splitStoragePath(storagePath, bucket string) (string, string) {
	prefix := bucket + "/"
	if len(storagePath) > len(prefix) && storagePath[:len(prefix)] == prefix {
		return bucket, storagePath[len(prefix):]
	}
	return bucket, storagePath
}

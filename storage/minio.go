package storage

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"tunebox/config"
	"tunebox/logger"
	"tunebox/model"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioStore 基于 MinIO/S3 的对象存储，负责上传地址、播放地址和对象回收
type MinioStore struct {
	client *minio.Client
	bucket string
	region string
}

// NewMinioStore 创建 MinIO 客户端
func NewMinioStore(cfg *config.Config) (*MinioStore, error) {
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
		Region: cfg.MinioRegion,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}
	return &MinioStore{client: client, bucket: cfg.MinioBucket, region: cfg.MinioRegion}, nil
}

// Bucket returns the configured bucket name.
func (s *MinioStore) Bucket() string {
	return s.bucket
}

// EnsureBucket 检查存储桶，不存在则创建
func (s *MinioStore) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket %s: %w", s.bucket, err)
	}
	if exists {
		logger.Info("[Storage] bucket exists", logger.String("bucket", s.bucket))
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: s.region}); err != nil {
		return fmt.Errorf("failed to create bucket %s: %w", s.bucket, err)
	}
	logger.Info("[Storage] bucket created", logger.String("bucket", s.bucket))
	return nil
}

// NewUploadURL presigns a one-time PUT for key.
func (s *MinioStore) NewUploadURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	u, err := s.client.PresignedPutObject(ctx, s.bucket, key, ttl)
	if err != nil {
		return "", fmt.Errorf("failed to presign upload for %s: %w", key, err)
	}
	return u.String(), nil
}

// SignedURL presigns a time-limited GET for key.
func (s *MinioStore) SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	u, err := s.client.PresignedGetObject(ctx, s.bucket, key, ttl, url.Values{})
	if err != nil {
		return "", fmt.Errorf("failed to presign download for %s: %w", key, err)
	}
	return u.String(), nil
}

// Exists 判断对象是否已上传完成
func (s *MinioStore) Exists(ctx context.Context, key string) (bool, error) {
	_, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{})
	if err == nil {
		return true, nil
	}
	if isNotFound(err) {
		return false, nil
	}
	return false, fmt.Errorf("failed to stat %s: %w", key, err)
}

// Remove deletes key; a missing object is not an error.
func (s *MinioStore) Remove(ctx context.Context, key string) error {
	err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{})
	if err != nil && !isNotFound(err) {
		return fmt.Errorf("failed to remove %s: %w", key, err)
	}
	return nil
}

// ListObjects 递归列出前缀下的对象
func (s *MinioStore) ListObjects(ctx context.Context, prefix string) ([]model.StoredObject, error) {
	var out []model.StoredObject
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("failed to list objects under %q: %w", prefix, obj.Err)
		}
		out = append(out, model.StoredObject{
			Key:          obj.Key,
			Size:         obj.Size,
			LastModified: obj.LastModified,
		})
	}
	return out, nil
}

func isNotFound(err error) bool {
	var resp minio.ErrorResponse
	if errors.As(err, &resp) {
		return resp.Code == "NoSuchKey" || resp.StatusCode == http.StatusNotFound
	}
	return false
}

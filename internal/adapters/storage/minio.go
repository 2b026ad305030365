// Package storage adapts MinIO object storage for document payloads.
package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"time"

	"crm_viajes_backend/platform/config"
	"crm_viajes_backend/platform/logger"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const presignExpiry = 15 * time.Minute

// Service stores and serves document payloads in a MinIO bucket.
type Service struct {
	client      *minio.Client
	bucket      string
	maxFileSize int64
	logger      *logger.Logger
}

// New connects to MinIO and makes sure the document bucket exists.
func New(ctx context.Context, cfg config.MinIOConfig, log *logger.Logger) (*Service, error) {
	client, err := minio.New(cfg.GetMinIOEndpoint(), &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.GetMinIOAccessKey(), cfg.GetMinIOSecretKey(), ""),
		Secure: cfg.GetMinIOUseSSL(),
	})
	if err != nil {
		return nil, fmt.Errorf("conectar a minio: %w", err)
	}

	bucket := cfg.GetMinioBucketDocuments()
	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("verificar bucket %s: %w", bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("crear bucket %s: %w", bucket, err)
		}
		log.Info("bucket de documentos creado", "bucket", bucket)
	}

	return &Service{
		client:      client,
		bucket:      bucket,
		maxFileSize: cfg.GetMinIOMaxFileSize(),
		logger:      log,
	}, nil
}

// Upload stores an object under the given key.
func (s *Service) Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	if s.maxFileSize > 0 && size > s.maxFileSize {
		return fmt.Errorf("el archivo supera el tamaño máximo de %d bytes", s.maxFileSize)
	}
	_, err := s.client.PutObject(ctx, s.bucket, key, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("subir objeto %s: %w", key, err)
	}
	return nil
}

// PresignedURL returns a short-lived download link that forces the original
// filename on the browser.
func (s *Service) PresignedURL(ctx context.Context, key, downloadName string) (string, error) {
	params := make(url.Values)
	params.Set("response-content-disposition", fmt.Sprintf("attachment; filename=%q", downloadName))

	u, err := s.client.PresignedGetObject(ctx, s.bucket, key, presignExpiry, params)
	if err != nil {
		return "", fmt.Errorf("firmar objeto %s: %w", key, err)
	}
	return u.String(), nil
}

// Remove deletes an object.
func (s *Service) Remove(ctx context.Context, key string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("eliminar objeto %s: %w", key, err)
	}
	return nil
}

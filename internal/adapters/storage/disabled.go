package storage

import (
	"context"
	"io"

	"crm_viajes_backend/platform/apperr"
)

// Disabled rejects every operation. It keeps the document endpoints wired
// when no MinIO endpoint is configured.
type Disabled struct{}

func (Disabled) Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	return apperr.Validation("el almacenamiento de documentos no está configurado")
}

func (Disabled) PresignedURL(ctx context.Context, key, downloadName string) (string, error) {
	return "", apperr.Validation("el almacenamiento de documentos no está configurado")
}

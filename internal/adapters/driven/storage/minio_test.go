package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/similarity-core/internal/core/domain"
)

func TestNewMinioStore_Validation(t *testing.T) {
	_, err := NewMinioStore(MinioConfig{Bucket: "materials"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = NewMinioStore(MinioConfig{Endpoint: "localhost:9000"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	store, err := NewMinioStore(MinioConfig{
		Endpoint:  "localhost:9000",
		AccessKey: "minio",
		SecretKey: "minio123",
		Bucket:    "materials",
	})
	require.NoError(t, err)
	assert.Equal(t, "materials", store.bucket)
}

func TestMapError(t *testing.T) {
	store := &MinioStore{bucket: "materials"}

	err := store.mapError("k", minio.ErrorResponse{Code: "NoSuchKey", StatusCode: 404})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	err = store.mapError("k", minio.ErrorResponse{Code: "AccessDenied", StatusCode: 403})
	assert.False(t, errors.Is(err, domain.ErrNotFound))
	assert.Contains(t, err.Error(), "get object k")

	assert.Equal(t, context.Canceled, store.mapError("k", context.Canceled))
}

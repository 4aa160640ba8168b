package storage

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/shenikar/incident_response_system/internal/apperrors"
	"github.com/sirupsen/logrus"
)

// MinioConfig - настройки MinIO
type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	PublicURL string
	URLExpiry time.Duration
}

// MinioHost загружает файлы в MinIO
type MinioHost struct {
	client    *minio.Client
	bucket    string
	publicURL string
	expiry    time.Duration
	logger    *logrus.Logger
}

// NewMinioHost подключается к MinIO и создает бакет, если его нет
func NewMinioHost(ctx context.Context, cfg MinioConfig, logger *logrus.Logger) (*MinioHost, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("storage: could not create minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("storage: could not check bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("storage: could not create bucket: %w", err)
		}
		logger.WithField("bucket", cfg.Bucket).Info("Created MinIO bucket")
	}

	if cfg.URLExpiry == 0 {
		cfg.URLExpiry = time.Hour
	}
	return &MinioHost{
		client:    client,
		bucket:    cfg.Bucket,
		publicURL: cfg.PublicURL,
		expiry:    cfg.URLExpiry,
		logger:    logger,
	}, nil
}

func (h *MinioHost) Provider() string { return ProviderMinio }

func (h *MinioHost) Upload(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	if err := validateKey(key); err != nil {
		return "", invalidKey("storage.minio.put", key, err)
	}

	_, err := h.client.PutObject(ctx, h.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", classifyMinioError("storage.minio.put", err)
	}

	if h.publicURL != "" {
		return joinURL(h.publicURL, key), nil
	}
	u, err := h.client.PresignedGetObject(ctx, h.bucket, key, h.expiry, url.Values{})
	if err != nil {
		return "", fmt.Errorf("storage: could not presign url: %w", err)
	}
	return u.String(), nil
}

func classifyMinioError(op string, err error) error {
	switch minio.ToErrorResponse(err).Code {
	case "AccessDenied", "InvalidAccessKeyId", "SignatureDoesNotMatch":
		return apperrors.Wrap(apperrors.KindCredential, op, fmt.Errorf("%w: %v", ErrAccessDenied, err))
	}
	return apperrors.Transient(op, err)
}

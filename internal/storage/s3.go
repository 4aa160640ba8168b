package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/shenikar/incident_response_system/internal/apperrors"
	"github.com/sirupsen/logrus"
)

// S3Config - настройки S3-совместимого хранилища
type S3Config struct {
	// Endpoint - адрес API. Пустой при заданном AccountID дает адрес R2.
	Endpoint        string
	AccountID       string
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	// PublicURL - публичный адрес бакета. Если пуст, выдаются подписанные ссылки.
	PublicURL string
	URLExpiry time.Duration
	PathStyle bool
}

// S3Host загружает файлы в S3 или R2
type S3Host struct {
	client        *s3.Client
	presignClient *s3.PresignClient
	bucket        string
	publicURL     string
	expiry        time.Duration
	logger        *logrus.Logger
}

func NewS3Host(cfg S3Config, logger *logrus.Logger) (*S3Host, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("storage: S3 bucket is required")
	}
	region := cfg.Region
	if region == "" {
		region = "auto"
	}
	endpoint := cfg.Endpoint
	if endpoint == "" && cfg.AccountID != "" {
		endpoint = fmt.Sprintf("https://%s.r2.cloudflarestorage.com", cfg.AccountID)
	}
	if cfg.URLExpiry == 0 {
		cfg.URLExpiry = time.Hour
	}

	awsCfg := aws.Config{
		Region:      region,
		Credentials: credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
		o.UsePathStyle = cfg.PathStyle
	})

	logger.WithFields(logrus.Fields{
		"service":  "storage",
		"bucket":   cfg.Bucket,
		"endpoint": endpoint,
	}).Info("Initialized S3 media host")

	return &S3Host{
		client:        client,
		presignClient: s3.NewPresignClient(client),
		bucket:        cfg.Bucket,
		publicURL:     cfg.PublicURL,
		expiry:        cfg.URLExpiry,
		logger:        logger,
	}, nil
}

func (h *S3Host) Provider() string { return ProviderS3 }

func (h *S3Host) Upload(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	if err := validateKey(key); err != nil {
		return "", invalidKey("storage.s3.put", key, err)
	}

	_, err := h.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(h.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		return "", classifyS3Error("storage.s3.put", err)
	}

	if h.publicURL != "" {
		return joinURL(h.publicURL, key), nil
	}
	req, err := h.presignClient.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(h.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(h.expiry))
	if err != nil {
		return "", fmt.Errorf("storage: could not presign url: %w", err)
	}
	return req.URL, nil
}

// classifyS3Error помечает отказы в доступе как ошибки учетных данных
func classifyS3Error(op string, err error) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "AccessDenied", "InvalidAccessKeyId", "SignatureDoesNotMatch":
			return apperrors.Wrap(apperrors.KindCredential, op, fmt.Errorf("%w: %s", ErrAccessDenied, apiErr.ErrorMessage()))
		}
	}
	return apperrors.Transient(op, err)
}

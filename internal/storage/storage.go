// Package storage публикует сгенерированное аудио по адресу, доступному телефонии.
//
// Реализации:
//   - LocalHost: файловая система, файлы раздает сам сервис
//   - S3Host: S3-совместимое хранилище (AWS S3, Cloudflare R2)
//   - MinioHost: MinIO
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shenikar/incident_response_system/internal/apperrors"
)

// Провайдеры хранилища для MEDIA_PROVIDER
const (
	ProviderLocal = "local"
	ProviderS3    = "s3"
	ProviderMinio = "minio"
)

// AudioFolder - папка, в которую складываются сообщения для вызова
const AudioFolder = "sentinel"

var (
	ErrInvalidKey   = errors.New("invalid storage key")
	ErrAccessDenied = errors.New("access denied")
)

// MediaHost загружает данные и возвращает публичный URL
type MediaHost interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) (string, error)
	Provider() string
}

//go:generate mockgen -source=storage.go -destination=mocks/mock_storage.go -package=mocks

// AudioKey возвращает новый ключ вида sentinel/<uuid>.wav
func AudioKey() string {
	return fmt.Sprintf("%s/%s.wav", AudioFolder, uuid.NewString())
}

// validateKey не пускает пустые ключи, абсолютные пути и выход за пределы корня
func validateKey(key string) error {
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, "\\") {
		return ErrInvalidKey
	}
	for _, seg := range strings.Split(key, "/") {
		if seg == "" || seg == "." || seg == ".." {
			return ErrInvalidKey
		}
	}
	return nil
}

// invalidKey помечает отказ по ключу как ошибку входных данных
func invalidKey(op, key string, err error) error {
	return apperrors.Wrap(apperrors.KindValidation, op, fmt.Errorf("%w: %q", err, key))
}

// joinURL склеивает базовый адрес и ключ
func joinURL(base, key string) string {
	return strings.TrimRight(base, "/") + "/" + key
}

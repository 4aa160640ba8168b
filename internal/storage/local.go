package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/shenikar/incident_response_system/internal/apperrors"
	"github.com/sirupsen/logrus"
)

// LocalHost хранит файлы на диске. Сервис раздает их по BaseURL.
type LocalHost struct {
	root    string
	baseURL string
	logger  *logrus.Logger
}

// NewLocalHost создает каталог root, если его нет
func NewLocalHost(root, baseURL string, logger *logrus.Logger) (*LocalHost, error) {
	if root == "" {
		return nil, fmt.Errorf("storage: local root path is required")
	}
	if baseURL == "" {
		return nil, fmt.Errorf("storage: MEDIA_BASE_URL is required for local media host")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("storage: could not create media directory: %w", err)
	}
	return &LocalHost{root: root, baseURL: baseURL, logger: logger}, nil
}

func (h *LocalHost) Provider() string { return ProviderLocal }

// Root - каталог, который нужно раздавать по BaseURL
func (h *LocalHost) Root() string { return h.root }

func (h *LocalHost) Upload(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	const op = "storage.local.put"
	if err := validateKey(key); err != nil {
		return "", invalidKey(op, key, err)
	}
	if err := ctx.Err(); err != nil {
		return "", apperrors.Transient(op, err)
	}

	path := filepath.Join(h.root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", apperrors.Transient(op, fmt.Errorf("could not create directory: %w", err))
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", apperrors.Transient(op, fmt.Errorf("could not write file: %w", err))
	}

	url := joinURL(h.baseURL, key)
	h.logger.WithFields(logrus.Fields{
		"service": "storage",
		"method":  "Upload",
		"key":     key,
		"size":    len(data),
	}).Info("Media stored locally")
	return url, nil
}

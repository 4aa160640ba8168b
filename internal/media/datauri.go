// Package media работает с медиа в виде data URI (data:<mime>;base64,<payload>).
package media

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

var (
	ErrNotDataURI  = errors.New("media: not a data URI")
	ErrNotBase64   = errors.New("media: data URI payload is not base64")
	ErrEmptyMedia  = errors.New("media: empty payload")
	ErrUnsupported = errors.New("media: unsupported media type")
)

// Media - декодированное содержимое data URI
type Media struct {
	MIMEType string
	Data     []byte
}

// Parse разбирает data URI в base64
func Parse(uri string) (*Media, error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return nil, ErrNotDataURI
	}
	header, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, ErrNotDataURI
	}
	mimeType, params, _ := strings.Cut(header, ";")
	if !strings.Contains(params, "base64") {
		return nil, ErrNotBase64
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotBase64, err)
	}
	if len(data) == 0 {
		return nil, ErrEmptyMedia
	}
	if mimeType == "" {
		mimeType = mimetype.Detect(data).String()
	}
	return &Media{MIMEType: mimeType, Data: data}, nil
}

// Encode собирает data URI из байтов. Пустой mimeType определяется по содержимому.
func Encode(mimeType string, data []byte) string {
	if mimeType == "" {
		mimeType = Detect(data)
	}
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// String возвращает data URI
func (m *Media) String() string {
	return Encode(m.MIMEType, m.Data)
}

// Detect определяет MIME-тип по содержимому, без параметров
func Detect(data []byte) string {
	mt := mimetype.Detect(data).String()
	base, _, _ := strings.Cut(mt, ";")
	return base
}

// FromUpload проверяет, что загрузка - изображение или видео, и кодирует ее в data URI
func FromUpload(data []byte) (string, error) {
	if len(data) == 0 {
		return "", ErrEmptyMedia
	}
	mt := Detect(data)
	if !IsVisual(mt) {
		return "", fmt.Errorf("%w: %s", ErrUnsupported, mt)
	}
	return Encode(mt, data), nil
}

// IsVisual сообщает, подходит ли тип для анализа сцены
func IsVisual(mimeType string) bool {
	return strings.HasPrefix(mimeType, "image/") || strings.HasPrefix(mimeType, "video/")
}

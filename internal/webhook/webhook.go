// Package webhook доставляет события сессии на внешний HTTP-эндпоинт с HMAC-подписью.
package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shenikar/incident_response_system/internal/config"
	"github.com/shenikar/incident_response_system/internal/notify"
	"github.com/sirupsen/logrus"
)

// SignatureHeader - заголовок с HMAC-SHA256 подписью тела запроса
const SignatureHeader = "X-Webhook-Signature"

// Event - тело запроса вебхука
type Event struct {
	notify.Message
	Timestamp time.Time `json:"timestamp"`
}

// Notifier отправляет события вебхуком
type Notifier struct {
	url        string
	secret     string
	maxRetries int
	baseDelay  time.Duration
	logger     *logrus.Logger
	httpClient *http.Client
}

// NewNotifier создает новый Notifier
func NewNotifier(cfg *config.Config, logger *logrus.Logger) *Notifier {
	maxRetries := cfg.WebhookMaxRetries
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &Notifier{
		url:        cfg.WebhookURL,
		secret:     cfg.WebhookSecret,
		maxRetries: maxRetries,
		baseDelay:  cfg.WebhookBaseDelay,
		logger:     logger,
		httpClient: &http.Client{
			Timeout: cfg.WebhookTimeout,
		},
	}
}

func (n *Notifier) Name() string { return "webhook" }

// Notify отправляет событие, повторяя попытки с экспоненциальной задержкой
func (n *Notifier) Notify(ctx context.Context, msg notify.Message) error {
	log := n.logger.WithFields(logrus.Fields{
		"service":    "webhook",
		"method":     "Notify",
		"session_id": msg.SessionID,
		"title":      msg.Notification.Title,
	})

	if n.url == "" {
		log.Warn("Webhook URL is not configured. Skipping webhook delivery.")
		return nil
	}

	payload, err := json.Marshal(Event{Message: msg, Timestamp: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("webhook: failed to marshal event: %w", err)
	}

	delay := n.baseDelay
	var lastErr error
	for i := 0; i < n.maxRetries; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return fmt.Errorf("webhook: delivery cancelled: %w", ctx.Err())
			case <-time.After(delay):
			}
			delay *= 2
		}

		lastErr = n.send(ctx, payload)
		if lastErr == nil {
			log.Info("Webhook delivered successfully.")
			return nil
		}
		log.WithError(lastErr).Warnf("Webhook delivery failed. Retries left: %d", n.maxRetries-1-i)
	}

	return fmt.Errorf("webhook: failed to deliver after %d attempts: %w", n.maxRetries, lastErr)
}

func (n *Notifier) send(ctx context.Context, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	// Добавляем HMAC подпись, если WEBHOOK_SECRET задан
	if n.secret != "" {
		req.Header.Set(SignatureHeader, Sign(payload, n.secret))
	}

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status code %d", resp.StatusCode)
	}
	return nil
}

// Sign генерирует HMAC-SHA256 подпись для данных
func Sign(data []byte, secret string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Verify проверяет подпись, пришедшую в SignatureHeader
func Verify(data []byte, signature, secret string) bool {
	expected, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}
	h := hmac.New(sha256.New, []byte(secret))
	h.Write(data)
	return hmac.Equal(h.Sum(nil), expected)
}

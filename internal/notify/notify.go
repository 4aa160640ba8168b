// Package notify рассылает важные события сессии во внешние каналы.
package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shenikar/incident_response_system/internal/metrics"
	"github.com/shenikar/incident_response_system/internal/models"
	"github.com/sirupsen/logrus"
)

// Message - событие для внешних каналов
type Message struct {
	SessionID    uuid.UUID              `json:"session_id"`
	Notification models.Notification    `json:"notification"`
	Location     models.Location        `json:"location"`
	Incident     *models.IncidentReport `json:"incident,omitempty"`
}

// Body возвращает текст сообщения для чатов и почты
func (m Message) Body() string {
	var b strings.Builder
	b.WriteString(m.Notification.Description)
	if m.Incident != nil {
		fmt.Fprintf(&b, "\nSeverity: %s", m.Incident.Severity.Label())
		if m.Incident.SituationAnalysis != "" {
			fmt.Fprintf(&b, "\n%s", m.Incident.SituationAnalysis)
		}
	}
	if m.Location.City != "" {
		fmt.Fprintf(&b, "\nLocation: %s (%.4f, %.4f)", m.Location.City, m.Location.Latitude, m.Location.Longitude)
	}
	return b.String()
}

// Notifier - внешний канал уведомлений
type Notifier interface {
	Notify(ctx context.Context, msg Message) error
	Name() string
}

// Nop ничего не отправляет
type Nop struct{}

func (Nop) Notify(context.Context, Message) error { return nil }
func (Nop) Name() string                          { return "nop" }

// Multi отправляет сообщение во все каналы по очереди.
// Ошибка одного канала не мешает остальным.
type Multi struct {
	notifiers []Notifier
	logger    *logrus.Logger
}

func NewMulti(logger *logrus.Logger, notifiers ...Notifier) *Multi {
	return &Multi{notifiers: notifiers, logger: logger}
}

func (m *Multi) Name() string { return "multi" }

// Len возвращает число подключенных каналов
func (m *Multi) Len() int { return len(m.notifiers) }

func (m *Multi) Notify(ctx context.Context, msg Message) error {
	var errs []error
	for _, n := range m.notifiers {
		log := m.logger.WithFields(logrus.Fields{
			"service":    "notify",
			"method":     "Notify",
			"channel":    n.Name(),
			"session_id": msg.SessionID,
			"title":      msg.Notification.Title,
		})
		err := n.Notify(ctx, msg)
		metrics.NotificationsSentTotal.WithLabelValues(n.Name(), metrics.Status(err)).Inc()
		if err != nil {
			log.WithError(err).Error("Failed to deliver notification")
			errs = append(errs, fmt.Errorf("%s: %w", n.Name(), err))
			continue
		}
		log.Debug("Notification delivered")
	}
	return errors.Join(errs...)
}

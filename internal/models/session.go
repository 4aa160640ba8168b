package models

import (
	"time"

	"github.com/google/uuid"
)

// SessionState - состояние конвейера инцидента
type SessionState string

const (
	StateIdle        SessionState = "idle"
	StateUploading   SessionState = "uploading"
	StateClassifying SessionState = "classifying"
	StateActive      SessionState = "active"
	StateTranslating SessionState = "translating"
)

// Режимы языка, которые предлагает панель
const (
	LanguageModeRegional = "Regional Language"
	LanguageModeHindi    = "Hindi"
	LanguageModeEnglish  = "English"
)

// SessionSnapshot - копия состояния сессии для отдачи наружу
type SessionSnapshot struct {
	ID           uuid.UUID         `json:"id"`
	State        SessionState      `json:"state"`
	Progress     int               `json:"progress"`
	Location     Location          `json:"location"`
	LanguageMode string            `json:"language_mode"`
	Incident     *IncidentReport   `json:"incident,omitempty"`
	Translation  *TranslatedBundle `json:"translation,omitempty"`
	HasMedia     bool              `json:"has_media"`
	Speaking     bool              `json:"speaking"`
	Dispatching  bool              `json:"dispatching"`
	LogCount     int               `json:"log_count"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

type EventType string

const (
	EventState        EventType = "state"
	EventProgress     EventType = "progress"
	EventNotification EventType = "notification"
	EventTranslation  EventType = "translation"
)

// SessionEvent - событие, которое получают подписчики сессии
type SessionEvent struct {
	Type         EventType         `json:"type"`
	SessionID    uuid.UUID         `json:"session_id"`
	State        SessionState      `json:"state,omitempty"`
	Progress     int               `json:"progress,omitempty"`
	Notification *Notification     `json:"notification,omitempty"`
	Translation  *TranslatedBundle `json:"translation,omitempty"`
	Timestamp    time.Time         `json:"timestamp"`
}

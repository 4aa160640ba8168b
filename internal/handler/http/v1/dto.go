package v1

import (
	"time"

	"github.com/google/uuid"
	"github.com/shenikar/incident_response_system/internal/models"
)

// LocationRequest DTO для смены местоположения
// @Description fixed - пресет, gps - координаты, manual - город из списка или координаты
type LocationRequest struct {
	Mode      string   `json:"mode" validate:"required,oneof=fixed gps manual"`
	Preset    string   `json:"preset,omitempty"`
	City      string   `json:"city,omitempty"`
	State     string   `json:"state,omitempty"`
	Country   string   `json:"country,omitempty"`
	Latitude  *float64 `json:"latitude,omitempty" validate:"omitempty,latitude"`
	Longitude *float64 `json:"longitude,omitempty" validate:"omitempty,longitude"`
}

// LanguageRequest DTO для смены языка
// @Description Regional Language, Hindi, English или название языка
type LanguageRequest struct {
	Mode string `json:"mode" validate:"required,max=64"`
}

// UploadRequest DTO для загрузки медиа в виде data URI
// @Description Медиа в виде data:<mime>;base64,<payload>
type UploadRequest struct {
	MediaDataURI string `json:"media_data_uri" validate:"required,datauri"`
}

// SettingsRequest DTO настроек вызова. Имена полей совпадают с sentinel_dispatch_config
// @Description Настройки вызова
type SettingsRequest struct {
	AccountSID   string `json:"accountSid" validate:"omitempty,startswith=AC"`
	AuthToken    string `json:"authToken"`
	From         string `json:"from" validate:"omitempty,e164"`
	To           string `json:"to" validate:"omitempty,e164"`
	GoogleAPIKey string `json:"googleApiKey"`
	GeminiAPIKey string `json:"geminiApiKey"`
}

// SpeechResponse DTO с озвученным текстом
// @Description WAV в виде data URI
type SpeechResponse struct {
	Media string `json:"media"`
}

// LanguageResponse DTO выбранного языка
// @Description Язык для региона
type LanguageResponse struct {
	Language string `json:"language"`
}

// KnowledgeResponse DTO справочника инцидентов
// @Description Рекомендации по категории
type KnowledgeResponse struct {
	IncidentType string `json:"incident_type"`
	Known        bool   `json:"known"`
	models.IncidentDefaults
}

// PresetResponse DTO пресета местоположения
// @Description Пресет местоположения
type PresetResponse struct {
	Name     string          `json:"name"`
	Location models.Location `json:"location"`
}

// CommunityReportResponse DTO для ответа с сообщением из ленты
// @Description Сообщение из ленты сообщества
type CommunityReportResponse struct {
	ID            uuid.UUID `json:"id"`
	Reporter      string    `json:"reporter"`
	LocationName  string    `json:"location_name"`
	Latitude      float64   `json:"latitude"`
	Longitude     float64   `json:"longitude"`
	IncidentType  string    `json:"incident_type"`
	Severity      string    `json:"severity"`
	SeverityLabel string    `json:"severity_label"`
	Description   string    `json:"description"`
	ImageURL      string    `json:"image_url"`
	ReportedAt    time.Time `json:"reported_at"`
}

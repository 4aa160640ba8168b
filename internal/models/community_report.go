package models

import (
	"time"

	"github.com/google/uuid"
)

// CommunityReport - сообщение из ленты сообщества
type CommunityReport struct {
	ID           uuid.UUID `json:"id"`
	Reporter     string    `json:"reporter"`
	LocationName string    `json:"location_name"`
	Latitude     float64   `json:"latitude"`
	Longitude    float64   `json:"longitude"`
	IncidentType string    `json:"incident_type"`
	Severity     Severity  `json:"severity"`
	Description  string    `json:"description"`
	ImageURL     string    `json:"image_url"`
	ReportedAt   time.Time `json:"reported_at"`
}

// Location возвращает местоположение сообщения для ручного выбора
func (r *CommunityReport) Location() Location {
	return Location{
		Latitude:  r.Latitude,
		Longitude: r.Longitude,
		City:      r.LocationName,
		Mode:      LocationModeManual,
	}
}

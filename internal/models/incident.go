package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Severity - уровень опасности инцидента
type Severity string

const (
	SeverityLow    Severity = "Low"
	SeverityMedium Severity = "Medium"
	SeverityHigh   Severity = "High"
)

// ParseSeverity принимает как "High", так и вариант модели с эмодзи ("🔴 High")
func ParseSeverity(s string) (Severity, bool) {
	s = strings.TrimSpace(s)
	if i := strings.LastIndex(s, " "); i >= 0 {
		s = s[i+1:]
	}
	switch Severity(s) {
	case SeverityLow, SeverityMedium, SeverityHigh:
		return Severity(s), true
	}
	return "", false
}

// Label возвращает вариант с эмодзи, как его показывает панель
func (s Severity) Label() string {
	switch s {
	case SeverityLow:
		return "🟢 Low"
	case SeverityMedium:
		return "🟡 Medium"
	case SeverityHigh:
		return "🔴 High"
	}
	return string(s)
}

// IncidentDefaults - справочный текст по категории инцидента
type IncidentDefaults struct {
	SituationAnalysis            string `json:"situation_analysis"`
	Precautions                  string `json:"precautions"`
	WhatToDoNow                  string `json:"what_to_do_now"`
	AuthorityAlertRecommendation string `json:"authority_alert_recommendation"`
}

// NearbyService - ближайшая экстренная служба
type NearbyService struct {
	Name           string  `json:"name"`
	Kind           string  `json:"kind"`
	Latitude       float64 `json:"latitude"`
	Longitude      float64 `json:"longitude"`
	DistanceMeters float64 `json:"distance_meters"`
	Distance       string  `json:"distance"`
}

// IncidentReport создается один раз на успешную классификацию и больше не меняется
type IncidentReport struct {
	ID                     uuid.UUID        `json:"id"`
	IncidentType           string           `json:"incident_type"`
	Severity               Severity         `json:"severity"`
	SituationAnalysis      string           `json:"situation_analysis"`
	Precautions            string           `json:"precautions"`
	WhatToDoNow            string           `json:"what_to_do_now"`
	AuthoritiesToBeAlerted string           `json:"authorities_to_be_alerted"`
	NearbyFireStations     string           `json:"nearby_fire_stations"`
	NearbyHospitals        string           `json:"nearby_hospitals"`
	NearbyPoliceStations   string           `json:"nearby_police_stations"`
	NearbyServices         []NearbyService  `json:"nearby_services"`
	Reference              IncidentDefaults `json:"reference"`
	BaseLatitude           float64          `json:"base_latitude"`
	BaseLongitude          float64          `json:"base_longitude"`
	CreatedAt              time.Time        `json:"created_at"`
}

// TranslatedBundle - перевод рекомендаций на язык региона
type TranslatedBundle struct {
	TranslatedSituationAnalysis string `json:"translated_situation_analysis"`
	TranslatedPrecautions       string `json:"translated_precautions"`
	TranslatedWhatToDoNow       string `json:"translated_what_to_do_now"`
	Language                    string `json:"language"`
}

// LogEntry - запись журнала сессии, только добавляется
type LogEntry struct {
	ID        uuid.UUID      `json:"id"`
	Report    IncidentReport `json:"report"`
	Media     string         `json:"media"`
	Location  Location       `json:"location"`
	Timestamp time.Time      `json:"timestamp"`
}

// AuthoritySummary - голосовое сообщение для диспетчера
type AuthoritySummary struct {
	Summary  string `json:"summary"`
	Language string `json:"language"`
}

// DispatchResult - результат голосового вызова
type DispatchResult struct {
	Success  bool   `json:"success"`
	CallSID  string `json:"call_sid"`
	AudioURL string `json:"audio_url,omitempty"`
}

// Package gateway описывает удаленные возможности модели: анализ медиа, перевод,
// синтез речи и сводку для диспетчера.
package gateway

import (
	"context"

	"github.com/shenikar/incident_response_system/internal/models"
)

//go:generate mockgen -source=gateway.go -destination=mocks/mock_gateway.go -package=mocks

// Capability - имя удаленной возможности
type Capability string

const (
	CapabilityClassify  Capability = "classify-media"
	CapabilityTranslate Capability = "translate"
	CapabilitySpeech    Capability = "synthesize-speech"
	CapabilitySummarize Capability = "summarize-for-authority"
)

// Gateway - единственная точка обращения к модели.
// Непустой apiKey перекрывает ключ по умолчанию только для этого вызова.
type Gateway interface {
	ClassifyMedia(ctx context.Context, in ClassifyInput, apiKey string) (*ClassifyOutput, error)
	Translate(ctx context.Context, in TranslateInput, apiKey string) (*TranslateOutput, error)
	SynthesizeSpeech(ctx context.Context, in SpeechInput, apiKey string) (*SpeechOutput, error)
	SummarizeForAuthority(ctx context.Context, in SummaryInput, apiKey string) (*SummaryOutput, error)
}

// ClassifyInput - медиа и координаты пользователя
type ClassifyInput struct {
	MediaDataURI string  `json:"mediaDataUri" validate:"required,datauri"`
	Latitude     float64 `json:"userLatitude" validate:"latitude"`
	Longitude    float64 `json:"userLongitude" validate:"longitude"`
}

// ClassifyOutput - ответ модели по медиа
type ClassifyOutput struct {
	IncidentType           string          `json:"incidentType" validate:"required"`
	Severity               models.Severity `json:"severity" validate:"required,severity"`
	NearbyFireStations     string          `json:"nearbyFireStations" validate:"required"`
	NearbyHospitals        string          `json:"nearbyHospitals" validate:"required"`
	NearbyPoliceStations   string          `json:"nearbyPoliceStations" validate:"required"`
	SituationAnalysis      string          `json:"situationAnalysis" validate:"required"`
	Precautions            string          `json:"precautions" validate:"required"`
	WhatToDoNow            string          `json:"whatToDoNow" validate:"required"`
	AuthoritiesToBeAlerted string          `json:"authoritiesToBeAlerted" validate:"required"`
}

type TranslateInput struct {
	Language          string `json:"language" validate:"required"`
	SituationAnalysis string `json:"situationAnalysis" validate:"required"`
	Precautions       string `json:"precautions"`
	WhatToDoNow       string `json:"whatToDoNow"`
}

type TranslateOutput struct {
	TranslatedSituationAnalysis string `json:"translatedSituationAnalysis" validate:"required"`
	TranslatedPrecautions       string `json:"translatedPrecautions" validate:"required"`
	TranslatedWhatToDoNow       string `json:"translatedWhatToDoNow" validate:"required"`
	Language                    string `json:"language" validate:"required"`
}

type SpeechInput struct {
	Text     string `json:"text" validate:"required"`
	Language string `json:"language" validate:"required"`
}

// SpeechOutput - WAV и он же в виде data:audio/wav;base64,...
type SpeechOutput struct {
	WAV     []byte `json:"-"`
	DataURI string `json:"media"`
}

type SummaryInput struct {
	IncidentType            string `json:"incidentType" validate:"required"`
	Location                string `json:"location" validate:"required"`
	City                    string `json:"city,omitempty"`
	State                   string `json:"state,omitempty"`
	Country                 string `json:"country,omitempty"`
	Severity                string `json:"severity" validate:"required"`
	SituationAnalysis       string `json:"situationAnalysis" validate:"required"`
	AuthorityRecommendation string `json:"authorityRecommendation,omitempty"`
}

type SummaryOutput struct {
	Summary  string `json:"summary" validate:"required"`
	Language string `json:"language"`
}

package v1

import (
	"fmt"

	"github.com/shenikar/incident_response_system/internal/apperrors"
	"github.com/shenikar/incident_response_system/internal/models"
)

// DTOToLocation преобразует запрос в местоположение
func DTOToLocation(req LocationRequest) (models.Location, error) {
	switch models.LocationMode(req.Mode) {
	case models.LocationModeFixed:
		name := req.Preset
		if name == "" {
			name = models.DefaultPreset
		}
		loc, ok := models.Preset(name)
		if !ok {
			return models.Location{}, apperrors.Validation("handler", fmt.Sprintf("unknown preset %q", name))
		}
		return loc, nil
	case models.LocationModeGPS:
		if req.Latitude == nil || req.Longitude == nil {
			return models.Location{}, apperrors.Validation("handler", "latitude and longitude are required for gps mode")
		}
		return models.GPSLocation(*req.Latitude, *req.Longitude), nil
	case models.LocationModeManual:
		if req.Latitude == nil || req.Longitude == nil {
			city, ok := models.FindCity(req.City)
			if !ok {
				return models.Location{}, apperrors.Validation("handler", fmt.Sprintf("unknown city %q", req.City))
			}
			return city.Location(), nil
		}
		country := req.Country
		if country == "" {
			country = "Global"
		}
		return models.Location{
			Latitude:  *req.Latitude,
			Longitude: *req.Longitude,
			City:      req.City,
			State:     req.State,
			Country:   country,
			Mode:      models.LocationModeManual,
		}, nil
	}
	return models.Location{}, apperrors.Validation("handler", fmt.Sprintf("unknown location mode %q", req.Mode))
}

// DTOToCredentials преобразует запрос настроек в модель
func DTOToCredentials(req SettingsRequest) *models.DispatchCredentials {
	return &models.DispatchCredentials{
		AccountSID:   req.AccountSID,
		AuthToken:    req.AuthToken,
		From:         req.From,
		To:           req.To,
		GoogleAPIKey: req.GoogleAPIKey,
		GeminiAPIKey: req.GeminiAPIKey,
	}
}

// ModelToReportResponse преобразует сообщение ленты в DTO для ответа
func ModelToReportResponse(model *models.CommunityReport) *CommunityReportResponse {
	return &CommunityReportResponse{
		ID:            model.ID,
		Reporter:      model.Reporter,
		LocationName:  model.LocationName,
		Latitude:      model.Latitude,
		Longitude:     model.Longitude,
		IncidentType:  model.IncidentType,
		Severity:      string(model.Severity),
		SeverityLabel: model.Severity.Label(),
		Description:   model.Description,
		ImageURL:      model.ImageURL,
		ReportedAt:    model.ReportedAt,
	}
}

// ModelsToReportResponses преобразует слайс моделей в слайс DTO
func ModelsToReportResponses(models []*models.CommunityReport) []*CommunityReportResponse {
	responses := make([]*CommunityReportResponse, len(models))
	for i, model := range models {
		responses[i] = ModelToReportResponse(model)
	}
	return responses
}

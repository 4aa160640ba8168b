package pipeline

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shenikar/incident_response_system/internal/apperrors"
	"github.com/shenikar/incident_response_system/internal/models"
)

// LoadSettings возвращает то, что пользователь сохранил в диалоге настроек.
// Значения сервера по умолчанию наружу не отдаются.
func (p *service) LoadSettings(ctx context.Context, id uuid.UUID) (*models.DispatchCredentials, error) {
	if _, err := p.session(id); err != nil {
		return nil, err
	}
	creds, err := p.settings.Load(ctx, id)
	if err != nil {
		// Испорченные настройки заменяются пустыми
		p.log("LoadSettings", id).WithError(err).Warn("Failed to load settings, resetting to defaults")
		empty := &models.DispatchCredentials{}
		if serr := p.settings.Save(ctx, id, empty); serr != nil {
			return nil, apperrors.Transient(op, fmt.Errorf("could not reset settings: %w", serr))
		}
		return empty, nil
	}
	if creds == nil {
		creds = &models.DispatchCredentials{}
	}
	return creds, nil
}

// SaveSettings перезаписывает настройки сессии целиком
func (p *service) SaveSettings(ctx context.Context, id uuid.UUID, creds *models.DispatchCredentials) error {
	s, err := p.session(id)
	if err != nil {
		return err
	}
	if creds == nil {
		creds = &models.DispatchCredentials{}
	}
	if err := p.settings.Save(ctx, id, creds); err != nil {
		p.log("SaveSettings", id).WithError(err).Error("Failed to save settings")
		return apperrors.Transient(op, fmt.Errorf("could not save settings: %w", err))
	}
	s.mu.Lock()
	s.noteLocked(models.NotificationInfo, "COMMAND PROTOCOLS UPDATED", "Tactical credentials synchronized with matrix core successfully.")
	s.mu.Unlock()
	p.log("SaveSettings", id).Info("Settings saved")
	return nil
}

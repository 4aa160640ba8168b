package pipeline

import (
	"context"

	"github.com/google/uuid"
	"github.com/shenikar/incident_response_system/internal/apperrors"
	"github.com/shenikar/incident_response_system/internal/gateway"
	"github.com/shenikar/incident_response_system/internal/language"
	"github.com/shenikar/incident_response_system/internal/metrics"
	"github.com/shenikar/incident_response_system/internal/models"
	"github.com/sirupsen/logrus"
)

// translateLocked запрашивает перевод активного инцидента. Требует удержания s.mu.
// Применяется только результат последнего запроса и только пока инцидент тот же.
func (p *service) translateLocked(ctx context.Context, s *session) {
	s.translateSeq++
	seq := s.translateSeq
	incidentID := s.incident.ID
	target := language.ForMode(s.location, s.languageMode)
	in := gateway.TranslateInput{
		Language:          target,
		SituationAnalysis: s.incident.SituationAnalysis,
		Precautions:       s.incident.Precautions,
		WhatToDoNow:       s.incident.WhatToDoNow,
	}
	s.setStateLocked(models.StateTranslating)

	p.background(ctx, func(ctx context.Context) {
		p.translate(ctx, s, seq, incidentID, in)
	})
}

func (p *service) translate(ctx context.Context, s *session, seq uint64, incidentID uuid.UUID, in gateway.TranslateInput) {
	log := p.log("translate", s.id).WithFields(logrus.Fields{
		"language": in.Language,
		"seq":      seq,
	})

	key, err := p.modelKey(ctx, s.id)
	var out *gateway.TranslateOutput
	if err == nil {
		out, err = p.gateway.Translate(ctx, in, key)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if seq != s.translateSeq || s.incident == nil || s.incident.ID != incidentID {
		metrics.TranslationsTotal.WithLabelValues("superseded").Inc()
		log.Debug("Translation superseded, result dropped")
		return
	}
	s.setStateLocked(models.StateActive)

	if err != nil {
		metrics.TranslationsTotal.WithLabelValues("error").Inc()
		log.WithError(err).Error("Translation failed")
		if apperrors.IsCredential(err) {
			s.noteLocked(models.NotificationError, "TRANSLATION CREDENTIAL ERROR", "Invalid API Key in settings. Please update your Command protocols.")
		} else {
			s.noteLocked(models.NotificationError, "TRANSLATION ERROR", "Matrix failed to localize data.")
		}
		return
	}

	lang := out.Language
	if lang == "" {
		lang = in.Language
	}
	s.translation = &models.TranslatedBundle{
		TranslatedSituationAnalysis: out.TranslatedSituationAnalysis,
		TranslatedPrecautions:       out.TranslatedPrecautions,
		TranslatedWhatToDoNow:       out.TranslatedWhatToDoNow,
		Language:                    lang,
	}
	tr := *s.translation
	s.publishLocked(models.SessionEvent{Type: models.EventTranslation, Translation: &tr})
	metrics.TranslationsTotal.WithLabelValues("success").Inc()
	log.Info("Translation applied")
}

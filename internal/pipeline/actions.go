package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shenikar/incident_response_system/internal/apperrors"
	"github.com/shenikar/incident_response_system/internal/dispatch"
	"github.com/shenikar/incident_response_system/internal/gateway"
	"github.com/shenikar/incident_response_system/internal/models"
	"github.com/sirupsen/logrus"
)

var (
	errNoIncident    = apperrors.Precondition(op, "no active incident")
	errNoTranslation = apperrors.Precondition(op, "translation is not ready")
)

// Speak озвучивает переведенные анализ и меры предосторожности
func (p *service) Speak(ctx context.Context, id uuid.UUID) (*gateway.SpeechOutput, error) {
	s, err := p.session(id)
	if err != nil {
		return nil, err
	}
	log := p.log("Speak", id)

	s.mu.Lock()
	if s.incident == nil {
		s.mu.Unlock()
		return nil, errNoIncident
	}
	if s.translation == nil {
		s.mu.Unlock()
		return nil, errNoTranslation
	}
	in := gateway.SpeechInput{
		Text:     fmt.Sprintf("%s. %s", s.translation.TranslatedSituationAnalysis, s.translation.TranslatedPrecautions),
		Language: s.translation.Language,
	}
	s.mu.Unlock()

	if !s.speaking.CompareAndSwap(false, true) {
		log.Warn("Speech already in progress")
		return nil, ErrInFlight
	}
	defer s.speaking.Store(false)

	key, err := p.modelKey(ctx, id)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, p.cfg.GatewayTimeout)
	defer cancel()
	out, err := p.gateway.SynthesizeSpeech(ctx, in, key)
	if err != nil {
		log.WithError(err).Error("Speech synthesis failed")
		s.mu.Lock()
		if apperrors.IsCredential(err) {
			s.noteLocked(models.NotificationError, "VOICE CREDENTIAL ERROR", "Check your Gemini/GenAI key in settings.")
		} else {
			s.noteLocked(models.NotificationError, "AUDIO ERROR", apperrors.Message(err))
		}
		s.mu.Unlock()
		return nil, fmt.Errorf("pipeline: could not synthesize speech: %w", err)
	}

	log.WithField("language", in.Language).Info("Speech synthesized")
	return out, nil
}

// Dispatch звонит экстренному контакту. Настройки читаются в момент вызова.
func (p *service) Dispatch(ctx context.Context, id uuid.UUID) (*models.DispatchResult, error) {
	s, err := p.session(id)
	if err != nil {
		return nil, err
	}
	log := p.log("Dispatch", id)

	s.mu.Lock()
	if s.incident == nil {
		s.mu.Unlock()
		return nil, errNoIncident
	}
	message, lang := dispatchMessage(s.incident, s.translation, s.location)
	incident := *s.incident
	loc := s.location
	s.mu.Unlock()

	if !s.dispatching.CompareAndSwap(false, true) {
		log.Warn("Dispatch already in progress")
		return nil, ErrInFlight
	}
	defer s.dispatching.Store(false)

	user, err := p.settings.Load(ctx, id)
	if err != nil {
		return nil, apperrors.Transient(op, fmt.Errorf("could not load settings: %w", err))
	}
	creds := models.Merge(user, p.cfg.Defaults)

	ctx, cancel := context.WithTimeout(ctx, p.cfg.GatewayTimeout)
	defer cancel()
	result, err := p.dispatcher.Dispatch(ctx, message, lang, creds)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		log.WithError(err).Error("Dispatch failed")
		title := "DISPATCH FAILED"
		if apperrors.Message(err) == dispatch.MsgNoCredentials {
			title = "CONFIG MISSING"
		}
		n := s.noteLocked(models.NotificationError, title, apperrors.Message(err))
		if apperrors.KindOf(err) != apperrors.KindPrecondition {
			p.alert(ctx, s, n, &incident, loc)
		}
		return nil, err
	}
	n := s.noteLocked(models.NotificationInfo, "DISPATCH SUCCESS", "Emergency voice uplink established with regional dispatcher.")
	p.alert(ctx, s, n, &incident, loc)
	log.WithFields(logrus.Fields{"call_sid": result.CallSID, "language": lang}).Info("Dispatch completed")
	return result, nil
}

// dispatchMessage собирает текст звонка: перевод, если он есть, иначе исходный анализ
func dispatchMessage(incident *models.IncidentReport, tr *models.TranslatedBundle, loc models.Location) (string, string) {
	situation := incident.SituationAnalysis
	lang := "English"
	if tr != nil {
		if tr.TranslatedSituationAnalysis != "" {
			situation = tr.TranslatedSituationAnalysis
		}
		if tr.Language != "" {
			lang = tr.Language
		}
	}
	msg := fmt.Sprintf("%s. Emergency Location: %s. Incident Type: %s.", situation, loc.City, incident.IncidentType)
	return msg, lang
}

// Summarize готовит сводку для диспетчера на языке региона
func (p *service) Summarize(ctx context.Context, id uuid.UUID) (*models.AuthoritySummary, error) {
	s, err := p.session(id)
	if err != nil {
		return nil, err
	}
	log := p.log("Summarize", id)

	s.mu.Lock()
	if s.incident == nil {
		s.mu.Unlock()
		return nil, errNoIncident
	}
	loc := s.location
	in := gateway.SummaryInput{
		IncidentType:            s.incident.IncidentType,
		Location:                describeLocation(loc),
		City:                    loc.City,
		State:                   loc.State,
		Country:                 loc.Country,
		Severity:                string(s.incident.Severity),
		SituationAnalysis:       s.incident.SituationAnalysis,
		AuthorityRecommendation: s.incident.Reference.AuthorityAlertRecommendation,
	}
	s.mu.Unlock()

	key, err := p.modelKey(ctx, id)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, p.cfg.GatewayTimeout)
	defer cancel()
	out, err := p.gateway.SummarizeForAuthority(ctx, in, key)
	if err != nil {
		log.WithError(err).Error("Authority summary failed")
		return nil, fmt.Errorf("pipeline: could not summarize incident: %w", err)
	}

	log.WithField("language", out.Language).Info("Authority summary prepared")
	return &models.AuthoritySummary{Summary: out.Summary, Language: out.Language}, nil
}

func describeLocation(loc models.Location) string {
	parts := make([]string, 0, 3)
	for _, v := range []string{loc.City, loc.State, loc.Country} {
		if v != "" {
			parts = append(parts, v)
		}
	}
	if len(parts) == 0 {
		return fmt.Sprintf("%.4f, %.4f", loc.Latitude, loc.Longitude)
	}
	return strings.Join(parts, ", ")
}

package pipeline

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shenikar/incident_response_system/internal/apperrors"
	"github.com/shenikar/incident_response_system/internal/gateway"
	"github.com/shenikar/incident_response_system/internal/knowledge"
	"github.com/shenikar/incident_response_system/internal/media"
	"github.com/shenikar/incident_response_system/internal/metrics"
	"github.com/shenikar/incident_response_system/internal/models"
	"github.com/shenikar/incident_response_system/internal/nearby"
	"github.com/sirupsen/logrus"
)

const (
	progressStep = 25.0
	progressCap  = 95.0
)

func defaultRandom() float64 { return rand.Float64() }

// Upload принимает медиа и запускает анализ в фоне.
// Возвращаемый канал закрывается, когда результат анализа применен к сессии.
func (p *service) Upload(ctx context.Context, id uuid.UUID, mediaDataURI string) (<-chan struct{}, error) {
	m, err := media.Parse(mediaDataURI)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindValidation, op, err)
	}
	if !media.IsVisual(m.MIMEType) {
		return nil, apperrors.Validation(op, fmt.Sprintf("unsupported media type %s", m.MIMEType))
	}

	s, err := p.session(id)
	if err != nil {
		return nil, err
	}
	log := p.log("Upload", id).WithField("mime", m.MIMEType)

	s.mu.Lock()
	if s.state == models.StateUploading || s.state == models.StateClassifying {
		s.mu.Unlock()
		log.Warn("Upload rejected, analysis already running")
		return nil, apperrors.Precondition(op, "media analysis already in progress")
	}
	s.clearLocked()
	s.media = mediaDataURI
	s.setStateLocked(models.StateUploading)
	generation := s.generation
	loc := s.location
	s.setStateLocked(models.StateClassifying)
	s.mu.Unlock()

	log.Info("Media accepted, starting analysis")

	done := make(chan struct{})
	p.background(ctx, func(ctx context.Context) {
		defer close(done)
		p.classify(ctx, s, generation, loc, mediaDataURI)
	})
	return done, nil
}

func (p *service) classify(ctx context.Context, s *session, generation uint64, loc models.Location, mediaDataURI string) {
	log := p.log("classify", s.id)

	key, err := p.modelKey(ctx, s.id)
	var out *gateway.ClassifyOutput
	if err == nil {
		stop := p.startProgress(s, generation)
		out, err = p.gateway.ClassifyMedia(ctx, gateway.ClassifyInput{
			MediaDataURI: mediaDataURI,
			Latitude:     loc.Latitude,
			Longitude:    loc.Longitude,
		}, key)
		stop()
	}
	metrics.ClassificationsTotal.WithLabelValues(metrics.Status(err)).Inc()

	if err != nil {
		log.WithError(err).Error("Media analysis failed")
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.generation != generation {
			return
		}
		s.media = ""
		s.progress = 0
		s.setStateLocked(models.StateIdle)
		if apperrors.IsCredential(err) {
			s.noteLocked(models.NotificationError, "CREDENTIAL FAILURE", "The API key in settings is invalid or expired.")
		} else {
			s.noteLocked(models.NotificationError, "SCAN FAILED", "Failed to decrypt sector data.")
		}
		return
	}

	services, lerr := p.locator.Locate(ctx, loc)
	if lerr != nil || len(services) == 0 {
		if lerr != nil {
			log.WithError(lerr).Warn("Nearby services lookup failed, using offsets")
		}
		services, _ = nearby.OffsetLocator{}.Locate(ctx, loc)
	}

	now := time.Now().UTC()
	report := &models.IncidentReport{
		ID:                     uuid.New(),
		IncidentType:           out.IncidentType,
		Severity:               out.Severity,
		SituationAnalysis:      out.SituationAnalysis,
		Precautions:            out.Precautions,
		WhatToDoNow:            out.WhatToDoNow,
		AuthoritiesToBeAlerted: out.AuthoritiesToBeAlerted,
		NearbyFireStations:     out.NearbyFireStations,
		NearbyHospitals:        out.NearbyHospitals,
		NearbyPoliceStations:   out.NearbyPoliceStations,
		NearbyServices:         services,
		Reference:              knowledge.Lookup(out.IncidentType),
		BaseLatitude:           loc.Latitude,
		BaseLongitude:          loc.Longitude,
		CreatedAt:              now,
	}
	metrics.IncidentsDetected.WithLabelValues(category(out.IncidentType), string(out.Severity)).Inc()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation != generation {
		log.Info("Session changed during analysis, result dropped")
		return
	}
	s.incident = report
	s.progress = 100
	s.logs = append([]models.LogEntry{{
		ID:        uuid.New(),
		Report:    *report,
		Media:     mediaDataURI,
		Location:  loc,
		Timestamp: now,
	}}, s.logs...)
	s.setStateLocked(models.StateActive)
	n := s.noteLocked(models.NotificationInfo, "THREAT CONFIRMED", fmt.Sprintf("%s detected in sector.", report.IncidentType))
	log.WithFields(logrus.Fields{
		"incident_type": report.IncidentType,
		"severity":      report.Severity,
	}).Info("Incident detected")

	p.alert(ctx, s, n, report, loc)
	p.translateLocked(ctx, s)
}

// startProgress двигает прогресс случайным шагом до 95, пока анализ не завершится.
// Возвращенная функция останавливает горутину и ждет ее выхода.
func (p *service) startProgress(s *session, generation uint64) func() {
	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(p.cfg.ProgressInterval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				s.mu.Lock()
				if s.generation == generation && s.state == models.StateClassifying {
					s.progress = min(s.progress+p.random()*progressStep, progressCap)
					s.publishLocked(models.SessionEvent{Type: models.EventProgress, State: s.state, Progress: s.progressValue()})
				}
				s.mu.Unlock()
			}
		}
	}()
	return func() {
		close(stop)
		<-done
	}
}

// modelKey читает настройки сессии заново; пустой ключ означает ключ сервера
func (p *service) modelKey(ctx context.Context, id uuid.UUID) (string, error) {
	creds, err := p.settings.Load(ctx, id)
	if err != nil {
		return "", apperrors.Transient(op, fmt.Errorf("could not load settings: %w", err))
	}
	return creds.ModelAPIKey(), nil
}

func category(incidentType string) string {
	if !knowledge.Known(incidentType) {
		return "other"
	}
	first, _, _ := strings.Cut(strings.TrimSpace(incidentType), " ")
	return first
}

// Package pipeline ведет сессию панели от загрузки медиа до вызова диспетчера:
// анализ, ближайшие службы, перевод, озвучивание и звонок.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shenikar/incident_response_system/internal/apperrors"
	"github.com/shenikar/incident_response_system/internal/dispatch"
	"github.com/shenikar/incident_response_system/internal/gateway"
	"github.com/shenikar/incident_response_system/internal/models"
	"github.com/shenikar/incident_response_system/internal/nearby"
	"github.com/shenikar/incident_response_system/internal/notify"
	"github.com/shenikar/incident_response_system/internal/settings"
	"github.com/sirupsen/logrus"
)

//go:generate mockgen -source=pipeline.go -destination=mocks/mock_pipeline.go -package=mocks

const op = "pipeline"

var (
	// ErrSessionNotFound - сессии нет или она истекла
	ErrSessionNotFound = errors.New("pipeline: session not found")
	// ErrInFlight - озвучивание или вызов уже выполняется
	ErrInFlight = apperrors.Precondition(op, "operation already in progress")
)

// Pipeline - контракт для обработчиков HTTP
type Pipeline interface {
	CreateSession(ctx context.Context) models.SessionSnapshot
	Session(ctx context.Context, id uuid.UUID) (models.SessionSnapshot, error)
	DeleteSession(ctx context.Context, id uuid.UUID) error

	Upload(ctx context.Context, id uuid.UUID, mediaDataURI string) (<-chan struct{}, error)
	Reset(ctx context.Context, id uuid.UUID) (models.SessionSnapshot, error)
	SetLocation(ctx context.Context, id uuid.UUID, loc models.Location) (models.SessionSnapshot, error)
	FocusLocation(ctx context.Context, id uuid.UUID, loc models.Location) (models.SessionSnapshot, error)
	SetLanguageMode(ctx context.Context, id uuid.UUID, mode string) (models.SessionSnapshot, error)

	Speak(ctx context.Context, id uuid.UUID) (*gateway.SpeechOutput, error)
	Dispatch(ctx context.Context, id uuid.UUID) (*models.DispatchResult, error)
	Summarize(ctx context.Context, id uuid.UUID) (*models.AuthoritySummary, error)

	Logs(ctx context.Context, id uuid.UUID) ([]models.LogEntry, error)
	Notifications(ctx context.Context, id uuid.UUID) ([]models.Notification, error)
	Subscribe(ctx context.Context, id uuid.UUID) (<-chan models.SessionEvent, func(), error)

	LoadSettings(ctx context.Context, id uuid.UUID) (*models.DispatchCredentials, error)
	SaveSettings(ctx context.Context, id uuid.UUID, creds *models.DispatchCredentials) error

	Close()
}

// Config - параметры конвейера
type Config struct {
	ProgressInterval time.Duration
	GatewayTimeout   time.Duration
	SessionTTL       time.Duration
	CleanupInterval  time.Duration
	// Defaults - настройки вызова сервера, пользовательские значения их перекрывают
	Defaults *models.DispatchCredentials
}

type service struct {
	gateway    gateway.Gateway
	dispatcher dispatch.Dispatcher
	locator    nearby.Locator
	settings   settings.Store
	notifier   notify.Notifier
	cfg        Config
	logger     *logrus.Logger

	sessions *sessionStore
	wg       sync.WaitGroup
	random   func() float64
}

func NewPipeline(
	gw gateway.Gateway,
	dispatcher dispatch.Dispatcher,
	locator nearby.Locator,
	store settings.Store,
	notifier notify.Notifier,
	cfg Config,
	logger *logrus.Logger,
) Pipeline {
	if cfg.ProgressInterval <= 0 {
		cfg.ProgressInterval = 150 * time.Millisecond
	}
	if cfg.GatewayTimeout <= 0 {
		cfg.GatewayTimeout = 60 * time.Second
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 2 * time.Hour
	}
	if locator == nil {
		locator = nearby.OffsetLocator{}
	}
	if notifier == nil {
		notifier = notify.Nop{}
	}
	return &service{
		gateway:    gw,
		dispatcher: dispatcher,
		locator:    locator,
		settings:   store,
		notifier:   notifier,
		cfg:        cfg,
		logger:     logger,
		sessions:   newSessionStore(cfg.SessionTTL, cfg.CleanupInterval),
		random:     defaultRandom,
	}
}

func (p *service) log(method string, id uuid.UUID) *logrus.Entry {
	return p.logger.WithFields(logrus.Fields{
		"service":    "pipeline",
		"method":     method,
		"session_id": id,
	})
}

func (p *service) session(id uuid.UUID) (*session, error) {
	s, ok := p.sessions.get(id)
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// background запускает работу, не зависящую от запроса, с таймаутом шлюза.
// Новый запрос не прерывает уже идущий вызов, его результат просто игнорируется.
func (p *service) background(ctx context.Context, fn func(ctx context.Context)) {
	bg, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.cfg.GatewayTimeout)
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer cancel()
		fn(bg)
	}()
}

// CreateSession открывает сессию на пресете штаба
func (p *service) CreateSession(ctx context.Context) models.SessionSnapshot {
	loc, _ := models.Preset(models.DefaultPreset)
	s := newSession(loc)
	p.sessions.add(s)
	p.log("CreateSession", s.id).Info("Session created")
	return s.snapshot()
}

func (p *service) Session(ctx context.Context, id uuid.UUID) (models.SessionSnapshot, error) {
	s, err := p.session(id)
	if err != nil {
		return models.SessionSnapshot{}, err
	}
	return s.snapshot(), nil
}

// DeleteSession закрывает сессию и удаляет ее настройки
func (p *service) DeleteSession(ctx context.Context, id uuid.UUID) error {
	log := p.log("DeleteSession", id)
	if !p.sessions.delete(id) {
		return ErrSessionNotFound
	}
	if err := p.settings.Delete(ctx, id); err != nil {
		log.WithError(err).Warn("Failed to delete session settings")
	}
	log.Info("Session deleted")
	return nil
}

// Reset возвращает сессию в ожидание. Журнал сохраняется.
func (p *service) Reset(ctx context.Context, id uuid.UUID) (models.SessionSnapshot, error) {
	s, err := p.session(id)
	if err != nil {
		return models.SessionSnapshot{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearLocked()
	s.setStateLocked(models.StateIdle)
	s.noteLocked(models.NotificationInfo, "GRID REFRESHED", "Tactical data cleared.")
	p.log("Reset", id).Info("Session reset")
	return s.snapshotLocked(), nil
}

// clearLocked убирает инцидент, перевод и медиа; идущие анализ и перевод становятся устаревшими
func (s *session) clearLocked() {
	s.generation++
	s.translateSeq++
	s.incident = nil
	s.translation = nil
	s.media = ""
	s.progress = 0
}

// SetLocation заменяет местоположение. При активном инциденте перевод запрашивается заново.
func (p *service) SetLocation(ctx context.Context, id uuid.UUID, loc models.Location) (models.SessionSnapshot, error) {
	if err := validateLocation(loc); err != nil {
		return models.SessionSnapshot{}, err
	}
	s, err := p.session(id)
	if err != nil {
		return models.SessionSnapshot{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.location = loc
	s.updatedAt = time.Now().UTC()
	switch loc.Mode {
	case models.LocationModeGPS:
		s.noteLocked(models.NotificationInfo, "GPS ACQUIRED", "Centering on live coordinates.")
	case models.LocationModeFixed:
		s.noteLocked(models.NotificationInfo, "HQ GRID LOCKED", "Defaulting to HQ sector.")
	default:
		s.noteLocked(models.NotificationInfo, "GLOBAL RELOCATION", fmt.Sprintf("SustAInex focus shifted to %s.", loc.City))
	}
	p.log("SetLocation", id).WithFields(logrus.Fields{"mode": loc.Mode, "city": loc.City}).Info("Location updated")
	if s.incident != nil {
		p.translateLocked(ctx, s)
	}
	return s.snapshotLocked(), nil
}

// FocusLocation переводит карту на сообщение из ленты и снимает активный инцидент
func (p *service) FocusLocation(ctx context.Context, id uuid.UUID, loc models.Location) (models.SessionSnapshot, error) {
	if err := validateLocation(loc); err != nil {
		return models.SessionSnapshot{}, err
	}
	s, err := p.session(id)
	if err != nil {
		return models.SessionSnapshot{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.location = loc
	s.clearLocked()
	s.setStateLocked(models.StateIdle)
	s.noteLocked(models.NotificationInfo, "SECTOR SHIFT", fmt.Sprintf("Viewing activity in %s.", loc.City))
	p.log("FocusLocation", id).WithField("city", loc.City).Info("Location focused")
	return s.snapshotLocked(), nil
}

// SetLanguageMode меняет язык рекомендаций: Regional Language, Hindi, English или явный язык
func (p *service) SetLanguageMode(ctx context.Context, id uuid.UUID, mode string) (models.SessionSnapshot, error) {
	if mode == "" {
		return models.SessionSnapshot{}, apperrors.Validation(op, "language mode is required")
	}
	s, err := p.session(id)
	if err != nil {
		return models.SessionSnapshot{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.languageMode = mode
	s.updatedAt = time.Now().UTC()
	p.log("SetLanguageMode", id).WithField("mode", mode).Info("Language mode updated")
	if s.incident != nil {
		p.translateLocked(ctx, s)
	}
	return s.snapshotLocked(), nil
}

func (p *service) Logs(ctx context.Context, id uuid.UUID) ([]models.LogEntry, error) {
	s, err := p.session(id)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.LogEntry(nil), s.logs...), nil
}

func (p *service) Notifications(ctx context.Context, id uuid.UUID) ([]models.Notification, error) {
	s, err := p.session(id)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Notification(nil), s.notes...), nil
}

// Subscribe возвращает поток событий сессии и функцию отписки
func (p *service) Subscribe(ctx context.Context, id uuid.UUID) (<-chan models.SessionEvent, func(), error) {
	s, err := p.session(id)
	if err != nil {
		return nil, nil, err
	}
	ch, cancel := s.subscribe()
	return ch, cancel, nil
}

// Close дожидается фоновой работы и закрывает все сессии
func (p *service) Close() {
	p.wg.Wait()
	p.sessions.flush()
}

func validateLocation(loc models.Location) error {
	if !loc.Mode.Valid() {
		return apperrors.Validation(op, fmt.Sprintf("unknown location mode %q", loc.Mode))
	}
	if loc.Latitude < -90 || loc.Latitude > 90 || loc.Longitude < -180 || loc.Longitude > 180 {
		return apperrors.Validation(op, "coordinates out of range")
	}
	return nil
}

// alert рассылает событие во внешние каналы, не задерживая сессию
func (p *service) alert(ctx context.Context, s *session, n models.Notification, incident *models.IncidentReport, loc models.Location) {
	msg := notify.Message{SessionID: s.id, Notification: n, Location: loc, Incident: incident}
	p.background(ctx, func(ctx context.Context) {
		if err := p.notifier.Notify(ctx, msg); err != nil {
			p.log("alert", s.id).WithError(err).Warn("Failed to deliver external notification")
		}
	})
}

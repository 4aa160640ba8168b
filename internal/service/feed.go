package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shenikar/incident_response_system/internal/models"
	"github.com/sirupsen/logrus"
)

// ErrReportNotFound возвращается, если сообщения с таким ID нет
var ErrReportNotFound = errors.New("community report not found")

// Радиус поиска по умолчанию и его предел, в метрах
const (
	DefaultFeedRadius = 5000
	MaxFeedRadius     = 50000
)

// FeedRepository определяет контракт для работы с бд ленты сообщества
type FeedRepository interface {
	ListReports(ctx context.Context, page, pageSize int) ([]*models.CommunityReport, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.CommunityReport, error)
	FindNear(ctx context.Context, lat, lon, radiusMeters float64) ([]*models.CommunityReport, error)
	GetReportFromCache(ctx context.Context, id uuid.UUID) (*models.CommunityReport, error)
	SetReportCache(ctx context.Context, report *models.CommunityReport) error
}

// FeedService определяет контракт для чтения ленты сообщества
type FeedService interface {
	ListReports(ctx context.Context, page, pageSize int) ([]*models.CommunityReport, error)
	GetReport(ctx context.Context, id uuid.UUID) (*models.CommunityReport, error)
	ReportsNear(ctx context.Context, lat, lon, radiusMeters float64) ([]*models.CommunityReport, error)
}

type feedService struct {
	repo   FeedRepository
	logger *logrus.Logger
}

func NewFeedService(repo FeedRepository, logger *logrus.Logger) FeedService {
	return &feedService{
		repo:   repo,
		logger: logger,
	}
}

// ListReports возвращает ленту с пагинацией, новые сообщения первыми
func (s *feedService) ListReports(ctx context.Context, page, pageSize int) ([]*models.CommunityReport, error) {
	if page < 1 {
		page = 1
	}

	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	log := s.logger.WithFields(logrus.Fields{
		"service":   "feed",
		"method":    "ListReports",
		"page":      page,
		"page_size": pageSize,
	})
	log.Info("Listing community reports")

	reports, err := s.repo.ListReports(ctx, page, pageSize)
	if err != nil {
		log.WithError(err).Error("Failed to list reports from repository")
		return nil, fmt.Errorf("service: could not list reports: %w", err)
	}

	log.WithField("count", len(reports)).Info("Reports listed successfully")
	return reports, nil
}

// GetReport получает сообщение по ID, сначала из кеша
func (s *feedService) GetReport(ctx context.Context, id uuid.UUID) (*models.CommunityReport, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service":   "feed",
		"method":    "GetReport",
		"report_id": id,
	})
	log.Info("Fetching report by ID")

	cached, err := s.repo.GetReportFromCache(ctx, id)
	if err != nil {
		log.WithError(err).Warn("Failed to read report from cache")
	}
	if cached != nil {
		log.Info("Report fetched from cache")
		return cached, nil
	}

	report, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrReportNotFound) {
			log.Warn("Report not found")
		} else {
			log.WithError(err).Error("Failed to get report in repository")
		}
		return nil, fmt.Errorf("service: could not get report: %w", err)
	}

	if err := s.repo.SetReportCache(ctx, report); err != nil {
		log.WithError(err).Warn("Failed to cache report")
	}

	log.Info("Report fetched successfully")
	return report, nil
}

// ReportsNear находит сообщения в радиусе от точки
func (s *feedService) ReportsNear(ctx context.Context, lat, lon, radiusMeters float64) ([]*models.CommunityReport, error) {
	if radiusMeters <= 0 {
		radiusMeters = DefaultFeedRadius
	}
	if radiusMeters > MaxFeedRadius {
		radiusMeters = MaxFeedRadius
	}

	log := s.logger.WithFields(logrus.Fields{
		"service": "feed",
		"method":  "ReportsNear",
		"lat":     lat,
		"lon":     lon,
		"radius":  radiusMeters,
	})
	log.Info("Searching reports near location")

	reports, err := s.repo.FindNear(ctx, lat, lon, radiusMeters)
	if err != nil {
		log.WithError(err).Error("Failed to find reports by location")
		return nil, fmt.Errorf("service: failed to find reports near location: %w", err)
	}

	log.WithField("count", len(reports)).Info("Nearby reports search completed")
	return reports, nil
}

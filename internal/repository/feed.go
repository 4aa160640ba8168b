package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/shenikar/incident_response_system/internal/models"
	"github.com/shenikar/incident_response_system/internal/service"
)

// Срок жизни сообщения в кеше
const reportCacheTTL = 5 * time.Minute

type FeedRepository struct {
	db          *pgxpool.Pool
	redisClient *redis.Client
}

func NewFeedRepository(db *pgxpool.Pool, redisClient *redis.Client) service.FeedRepository {
	return &FeedRepository{
		db:          db,
		redisClient: redisClient,
	}
}

const reportColumns = `
			id,
			reporter,
			location_name,
			ST_Y(location::geometry) as latitude,
			ST_X(location::geometry) as longitude,
			incident_type,
			severity,
			description,
			image_url,
			reported_at`

func scanReport(row pgx.Row) (*models.CommunityReport, error) {
	report := &models.CommunityReport{}
	err := row.Scan(
		&report.ID,
		&report.Reporter,
		&report.LocationName,
		&report.Latitude,
		&report.Longitude,
		&report.IncidentType,
		&report.Severity,
		&report.Description,
		&report.ImageURL,
		&report.ReportedAt,
	)
	return report, err
}

func collectReports(rows pgx.Rows, op string) ([]*models.CommunityReport, error) {
	defer rows.Close()
	reports := make([]*models.CommunityReport, 0)
	for rows.Next() {
		report, err := scanReport(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan report row in %s: %w", op, err)
		}
		reports = append(reports, report)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error list iteration in %s: %w", op, err)
	}
	return reports, nil
}

// GetByID возвращает сообщение по его UUID
func (r *FeedRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.CommunityReport, error) {
	query := `SELECT` + reportColumns + `
		FROM community_reports
		WHERE id = $1;
	`
	report, err := scanReport(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("report with id %s: %w", id, service.ErrReportNotFound)
		}
		return nil, fmt.Errorf("failed to get report by id: %w", err)
	}
	return report, nil
}

// ListReports возвращает ленту с пагинацией
func (r *FeedRepository) ListReports(ctx context.Context, page, pageSize int) ([]*models.CommunityReport, error) {
	// рассчитываем смещение
	offset := (page - 1) * pageSize

	query := `SELECT` + reportColumns + `
		FROM community_reports
		ORDER BY reported_at DESC
		LIMIT $1 OFFSET $2;
	`
	rows, err := r.db.Query(ctx, query, pageSize, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	return collectReports(rows, "ListReports")
}

// FindNear находит сообщения в радиусе от точки, ближайшие первыми
func (r *FeedRepository) FindNear(ctx context.Context, lat, lon, radiusMeters float64) ([]*models.CommunityReport, error) {
	query := `SELECT` + reportColumns + `
		FROM community_reports
		WHERE ST_DWithin(
			location,
			ST_SetSRID(ST_MakePoint($1, $2), 4326)::geography,
			$3
		)
		ORDER BY ST_Distance(location, ST_SetSRID(ST_MakePoint($1, $2), 4326)::geography);
	`
	rows, err := r.db.Query(ctx, query, lon, lat, radiusMeters)
	if err != nil {
		return nil, fmt.Errorf("failed to find reports by location: %w", err)
	}
	return collectReports(rows, "FindNear")
}

func reportCacheKey(id uuid.UUID) string {
	return fmt.Sprintf("community_report:%s", id.String())
}

// GetReportFromCache пытается получить сообщение из Redis
func (r *FeedRepository) GetReportFromCache(ctx context.Context, id uuid.UUID) (*models.CommunityReport, error) {
	val, err := r.redisClient.Get(ctx, reportCacheKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get report from cache: %w", err)
	}

	report := &models.CommunityReport{}
	if err := json.Unmarshal(val, report); err != nil {
		return nil, fmt.Errorf("failed to unmarshal report from cache: %w", err)
	}
	return report, nil
}

// SetReportCache сохраняет сообщение в Redis
func (r *FeedRepository) SetReportCache(ctx context.Context, report *models.CommunityReport) error {
	val, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal report for cache: %w", err)
	}
	if err := r.redisClient.Set(ctx, reportCacheKey(report.ID), val, reportCacheTTL).Err(); err != nil {
		return fmt.Errorf("failed to set report in cache: %w", err)
	}
	return nil
}

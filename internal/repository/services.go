package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shenikar/incident_response_system/internal/models"
	"github.com/shenikar/incident_response_system/internal/nearby"
)

// ServiceLocator ищет экстренные службы в таблице emergency_services.
// Для каждого вида берется ближайшая служба в радиусе.
type ServiceLocator struct {
	db           *pgxpool.Pool
	radiusMeters float64
}

func NewServiceLocator(db *pgxpool.Pool, radiusMeters float64) nearby.Locator {
	return &ServiceLocator{
		db:           db,
		radiusMeters: radiusMeters,
	}
}

func (l *ServiceLocator) Locate(ctx context.Context, loc models.Location) ([]models.NearbyService, error) {
	query := `
		SELECT DISTINCT ON (kind)
			name,
			kind,
			ST_Y(location::geometry) as latitude,
			ST_X(location::geometry) as longitude,
			ST_Distance(location, ST_SetSRID(ST_MakePoint($1, $2), 4326)::geography) as distance
		FROM emergency_services
		WHERE ST_DWithin(
			location,
			ST_SetSRID(ST_MakePoint($1, $2), 4326)::geography,
			$3
		)
		ORDER BY kind, distance;
	`
	rows, err := l.db.Query(ctx, query, loc.Longitude, loc.Latitude, l.radiusMeters)
	if err != nil {
		return nil, fmt.Errorf("failed to find emergency services: %w", err)
	}
	defer rows.Close()

	services := make([]models.NearbyService, 0)
	for rows.Next() {
		var s models.NearbyService
		if err := rows.Scan(&s.Name, &s.Kind, &s.Latitude, &s.Longitude, &s.DistanceMeters); err != nil {
			return nil, fmt.Errorf("failed to scan emergency service row: %w", err)
		}
		s.Distance = nearby.FormatDistance(s.DistanceMeters)
		services = append(services, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error list iteration in Locate: %w", err)
	}
	return services, nil
}

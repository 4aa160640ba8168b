// Package nearby находит экстренные службы рядом с местом инцидента.
package nearby

import (
	"context"
	"fmt"

	"github.com/shenikar/incident_response_system/internal/models"
	"github.com/sirupsen/logrus"
)

// Виды служб
const (
	KindDisasterManagement = "disaster_management"
	KindFire               = "fire"
	KindHospital           = "hospital"
	KindPolice             = "police"
)

// Источники для NEARBY_SOURCE
const (
	SourceStatic   = "static"
	SourcePostgres = "postgres"
)

// Locator - источник ближайших служб
type Locator interface {
	Locate(ctx context.Context, loc models.Location) ([]models.NearbyService, error)
}

type offset struct {
	name     string
	kind     string
	lat, lng float64
	meters   float64
}

// Фиксированные смещения, которыми панель размечает карту
var offsets = []offset{
	{"DM CENTER", KindDisasterManagement, 0.0035, -0.0035, 800},
	{"FIRE STATION", KindFire, -0.0042, 0.0051, 1200},
	{"HOSPITAL", KindHospital, 0.0051, -0.0068, 1500},
	{"POLICE HUB", KindPolice, -0.0028, -0.0044, 500},
}

// OffsetLocator ставит службы на фиксированных смещениях от точки. Реальной геолокации нет.
type OffsetLocator struct{}

func (OffsetLocator) Locate(_ context.Context, loc models.Location) ([]models.NearbyService, error) {
	services := make([]models.NearbyService, 0, len(offsets))
	for _, o := range offsets {
		services = append(services, models.NearbyService{
			Name:           o.name,
			Kind:           o.kind,
			Latitude:       loc.Latitude + o.lat,
			Longitude:      loc.Longitude + o.lng,
			DistanceMeters: o.meters,
			Distance:       FormatDistance(o.meters),
		})
	}
	return services, nil
}

// FallbackLocator спрашивает основной источник, а при ошибке или пустом ответе - запасной.
// Ошибка поиска служб никогда не должна срывать классификацию.
type FallbackLocator struct {
	primary  Locator
	fallback Locator
	logger   *logrus.Logger
}

func NewFallbackLocator(primary, fallback Locator, logger *logrus.Logger) *FallbackLocator {
	return &FallbackLocator{primary: primary, fallback: fallback, logger: logger}
}

func (l *FallbackLocator) Locate(ctx context.Context, loc models.Location) ([]models.NearbyService, error) {
	services, err := l.primary.Locate(ctx, loc)
	if err == nil && len(services) > 0 {
		return services, nil
	}
	log := l.logger.WithFields(logrus.Fields{
		"service": "nearby",
		"method":  "Locate",
		"lat":     loc.Latitude,
		"lon":     loc.Longitude,
	})
	if err != nil {
		log.WithError(err).Warn("Primary locator failed, using fallback")
	} else {
		log.Info("No services found nearby, using fallback")
	}
	return l.fallback.Locate(ctx, loc)
}

// FormatDistance печатает расстояние как на карте: 0.8km
func FormatDistance(meters float64) string {
	return fmt.Sprintf("%.1fkm", meters/1000)
}

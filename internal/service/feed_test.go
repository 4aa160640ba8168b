package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/shenikar/incident_response_system/internal/models"
	"github.com/shenikar/incident_response_system/internal/service/mocks"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

// newTestFeedService - вспомогательная функция для создания инстанса сервиса с моками.
func newTestFeedService(t *testing.T) (*feedService, *mocks.MockFeedRepository) {
	ctrl := gomock.NewController(t)
	repoMock := mocks.NewMockFeedRepository(ctrl)

	logger := logrus.New()
	logger.SetOutput(&bytes.Buffer{}) // Отключаем вывод логов в тестах

	service := NewFeedService(repoMock, logger)
	return service.(*feedService), repoMock
}

func TestGetReport_Success_FromCache(t *testing.T) {
	// Подготовка
	service, repoMock, ctx := newCtx(t)
	reportID := uuid.New()
	expected := &models.CommunityReport{ID: reportID, Reporter: "Ram"}

	// Ожидания
	repoMock.EXPECT().
		GetReportFromCache(ctx, reportID).
		Return(expected, nil).
		Times(1)

	// Действие
	report, err := service.GetReport(ctx, reportID)

	// Проверки
	require.NoError(t, err)
	assert.Equal(t, expected, report)
}

func TestGetReport_Success_FromDB(t *testing.T) {
	// Подготовка
	service, repoMock, ctx := newCtx(t)
	reportID := uuid.New()
	expected := &models.CommunityReport{ID: reportID, Reporter: "Reshma"}

	// Ожидания
	// 1. Промах кеша
	repoMock.EXPECT().GetReportFromCache(ctx, reportID).Return(nil, nil).Times(1)
	// 2. Попадание в БД
	repoMock.EXPECT().GetByID(ctx, reportID).Return(expected, nil).Times(1)
	// 3. Запись в кеш
	repoMock.EXPECT().SetReportCache(ctx, expected).Return(nil).Times(1)

	// Действие
	report, err := service.GetReport(ctx, reportID)

	// Проверки
	require.NoError(t, err)
	assert.Equal(t, expected, report)
}

func TestGetReport_CacheErrorsAreNotFatal(t *testing.T) {
	service, repoMock, ctx := newCtx(t)
	reportID := uuid.New()
	expected := &models.CommunityReport{ID: reportID}

	repoMock.EXPECT().GetReportFromCache(ctx, reportID).Return(nil, errors.New("redis down"))
	repoMock.EXPECT().GetByID(ctx, reportID).Return(expected, nil)
	repoMock.EXPECT().SetReportCache(ctx, expected).Return(errors.New("redis down"))

	report, err := service.GetReport(ctx, reportID)

	require.NoError(t, err)
	assert.Equal(t, expected, report)
}

func TestGetReport_NotFound(t *testing.T) {
	// Подготовка
	service, repoMock, ctx := newCtx(t)
	reportID := uuid.New()

	// Ожидания
	repoMock.EXPECT().GetReportFromCache(ctx, reportID).Return(nil, nil).Times(1)
	repoMock.EXPECT().
		GetByID(ctx, reportID).
		Return(nil, fmt.Errorf("report %s: %w", reportID, ErrReportNotFound)).
		Times(1)

	// Действие
	report, err := service.GetReport(ctx, reportID)

	// Проверки
	require.Error(t, err)
	assert.Nil(t, report)
	assert.ErrorIs(t, err, ErrReportNotFound)
	assert.ErrorContains(t, err, "could not get report")
}

func TestListReports_Pagination(t *testing.T) {
	tests := []struct {
		name             string
		page, pageSize   int
		wantPage, wantPS int
	}{
		{"defaults for zero values", 0, 0, 1, 20},
		{"page size over limit", 2, 500, 2, 20},
		{"valid values", 3, 50, 3, 50},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, repoMock, ctx := newCtx(t)
			reports := []*models.CommunityReport{{ID: uuid.New()}}

			repoMock.EXPECT().
				ListReports(ctx, tt.wantPage, tt.wantPS).
				Return(reports, nil).
				Times(1)

			got, err := service.ListReports(ctx, tt.page, tt.pageSize)

			require.NoError(t, err)
			assert.Len(t, got, 1)
		})
	}
}

func TestListReports_RepositoryError(t *testing.T) {
	service, repoMock, ctx := newCtx(t)

	repoMock.EXPECT().ListReports(ctx, 1, 20).Return(nil, errors.New("db error"))

	reports, err := service.ListReports(ctx, 1, 20)

	require.Error(t, err)
	assert.Nil(t, reports)
	assert.ErrorContains(t, err, "could not list reports")
}

func TestReportsNear_RadiusBounds(t *testing.T) {
	tests := []struct {
		name   string
		radius float64
		want   float64
	}{
		{"default radius", 0, DefaultFeedRadius},
		{"clamped radius", 1e6, MaxFeedRadius},
		{"as requested", 1500, 1500},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, repoMock, ctx := newCtx(t)

			repoMock.EXPECT().
				FindNear(ctx, 13.0827, 80.2707, tt.want).
				Return([]*models.CommunityReport{}, nil).
				Times(1)

			reports, err := service.ReportsNear(ctx, 13.0827, 80.2707, tt.radius)

			require.NoError(t, err)
			assert.Empty(t, reports)
		})
	}
}

func TestReportsNear_RepositoryError(t *testing.T) {
	service, repoMock, ctx := newCtx(t)

	repoMock.EXPECT().FindNear(ctx, 1.0, 2.0, float64(DefaultFeedRadius)).Return(nil, errors.New("db error"))

	_, err := service.ReportsNear(ctx, 1, 2, 0)

	require.Error(t, err)
	assert.ErrorContains(t, err, "failed to find reports near location")
}

func newCtx(t *testing.T) (*feedService, *mocks.MockFeedRepository, context.Context) {
	service, repoMock := newTestFeedService(t)
	return service, repoMock, context.Background()
}

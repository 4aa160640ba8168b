package ws

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/shenikar/incident_response_system/internal/models"
	"github.com/shenikar/incident_response_system/internal/pipeline"
	"github.com/shenikar/incident_response_system/internal/pipeline/mocks"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func newTestServer(t *testing.T) (*mocks.MockPipeline, *httptest.Server) {
	ctrl := gomock.NewController(t)
	mockPipeline := mocks.NewMockPipeline(ctrl)

	logger := logrus.New()
	logger.SetOutput(&bytes.Buffer{})

	gin.SetMode(gin.TestMode)
	router := gin.New()
	NewEventsHandler(mockPipeline, logger).RegisterRoutes(router.Group("/api/v1"))

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return mockPipeline, srv
}

func wsURL(srv *httptest.Server, id string) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/sessions/" + id + "/events"
}

func TestStream_DeliversEventsUntilSessionCloses(t *testing.T) {
	// Подготовка
	mockPipeline, srv := newTestServer(t)
	id := uuid.New()
	events := make(chan models.SessionEvent, 4)
	var cancelled atomic.Bool

	// Ожидания
	mockPipeline.EXPECT().Subscribe(gomock.Any(), id).
		Return((<-chan models.SessionEvent)(events), func() { cancelled.Store(true) }, nil)
	mockPipeline.EXPECT().Session(gomock.Any(), id).
		Return(models.SessionSnapshot{ID: id, State: models.StateIdle, UpdatedAt: time.Now()}, nil)

	// Действие
	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv, id.String()), nil)
	require.NoError(t, err)
	defer conn.Close()

	// Проверки
	var first models.SessionEvent
	require.NoError(t, conn.ReadJSON(&first))
	assert.Equal(t, models.EventState, first.Type)
	assert.Equal(t, models.StateIdle, first.State)

	events <- models.SessionEvent{Type: models.EventProgress, SessionID: id, Progress: 42}
	var progress models.SessionEvent
	require.NoError(t, conn.ReadJSON(&progress))
	assert.Equal(t, models.EventProgress, progress.Type)
	assert.Equal(t, 42, progress.Progress)

	close(events)
	_, _, err = conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure))

	assert.Eventually(t, cancelled.Load, time.Second, 10*time.Millisecond)
}

func TestStream_UnknownSession(t *testing.T) {
	mockPipeline, srv := newTestServer(t)
	id := uuid.New()

	mockPipeline.EXPECT().Subscribe(gomock.Any(), id).Return(nil, nil, pipeline.ErrSessionNotFound)

	_, resp, err := websocket.DefaultDialer.Dial(wsURL(srv, id.String()), nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestStream_InvalidID(t *testing.T) {
	_, srv := newTestServer(t)

	_, resp, err := websocket.DefaultDialer.Dial(wsURL(srv, "nope"), nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

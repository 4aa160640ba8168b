package pipeline

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shenikar/incident_response_system/internal/apperrors"
	"github.com/shenikar/incident_response_system/internal/dispatch"
	dispatchmocks "github.com/shenikar/incident_response_system/internal/dispatch/mocks"
	"github.com/shenikar/incident_response_system/internal/gateway"
	gatewaymocks "github.com/shenikar/incident_response_system/internal/gateway/mocks"
	"github.com/shenikar/incident_response_system/internal/knowledge"
	"github.com/shenikar/incident_response_system/internal/models"
	"github.com/shenikar/incident_response_system/internal/nearby"
	"github.com/shenikar/incident_response_system/internal/notify"
	"github.com/shenikar/incident_response_system/internal/settings"
	settingsmocks "github.com/shenikar/incident_response_system/internal/settings/mocks"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/mock/gomock"
)

const testMedia = "data:image/png;base64,iVBORw0KGgo="

type recordingNotifier struct {
	mu     sync.Mutex
	titles []string
}

func (r *recordingNotifier) Name() string { return "recording" }

func (r *recordingNotifier) Notify(_ context.Context, msg notify.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.titles = append(r.titles, msg.Notification.Title)
	return nil
}

func (r *recordingNotifier) Titles() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.titles...)
}

type testDeps struct {
	gateway    *gatewaymocks.MockGateway
	dispatcher *dispatchmocks.MockDispatcher
	store      *settings.MemoryStore
	notifier   *recordingNotifier
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(&bytes.Buffer{}) // Отключаем вывод логов в тестах
	return logger
}

func testConfig() Config {
	return Config{
		ProgressInterval: time.Hour,
		GatewayTimeout:   5 * time.Second,
		SessionTTL:       time.Hour,
		Defaults: &models.DispatchCredentials{
			AccountSID: "ACdefault",
			AuthToken:  "default-token",
			From:       "+15550001111",
		},
	}
}

// newTestPipeline создает конвейер с моками шлюза и диспетчера и настройками в памяти
func newTestPipeline(t *testing.T, opts ...func(*Config)) (*service, testDeps) {
	ctrl := gomock.NewController(t)
	deps := testDeps{
		gateway:    gatewaymocks.NewMockGateway(ctrl),
		dispatcher: dispatchmocks.NewMockDispatcher(ctrl),
		store:      settings.NewMemoryStore(),
		notifier:   &recordingNotifier{},
	}
	cfg := testConfig()
	for _, o := range opts {
		o(&cfg)
	}
	p := NewPipeline(deps.gateway, deps.dispatcher, nearby.OffsetLocator{}, deps.store, deps.notifier, cfg, testLogger())
	return p.(*service), deps
}

func fireOutput() *gateway.ClassifyOutput {
	return &gateway.ClassifyOutput{
		IncidentType:           "Fire Outbreak",
		Severity:               models.SeverityHigh,
		SituationAnalysis:      "Smoke rising from a warehouse.",
		Precautions:            "Stay upwind.",
		WhatToDoNow:            "Evacuate the block.",
		AuthoritiesToBeAlerted: "Fire and Rescue",
	}
}

func translated(lang string) *gateway.TranslateOutput {
	return &gateway.TranslateOutput{
		TranslatedSituationAnalysis: lang + " situation",
		TranslatedPrecautions:       lang + " precautions",
		TranslatedWhatToDoNow:       lang + " steps",
		Language:                    lang,
	}
}

// activate проводит сессию через анализ и первый перевод
func activate(t *testing.T, p *service, deps testDeps, id uuid.UUID) {
	t.Helper()
	deps.gateway.EXPECT().ClassifyMedia(gomock.Any(), gomock.Any(), "").Return(fireOutput(), nil)
	deps.gateway.EXPECT().
		Translate(gomock.Any(), gomock.Any(), "").
		DoAndReturn(func(_ context.Context, in gateway.TranslateInput, _ string) (*gateway.TranslateOutput, error) {
			return translated(in.Language), nil
		})

	done, err := p.Upload(context.Background(), id, testMedia)
	require.NoError(t, err)
	<-done
	p.wg.Wait()
}

func titles(notes []models.Notification) []string {
	out := make([]string, 0, len(notes))
	for _, n := range notes {
		out = append(out, n.Title)
	}
	return out
}

func TestCreateSession_Defaults(t *testing.T) {
	p, _ := newTestPipeline(t)
	ctx := context.Background()

	snap := p.CreateSession(ctx)

	assert.Equal(t, models.StateIdle, snap.State)
	assert.Equal(t, "Chennai", snap.Location.City)
	assert.Equal(t, models.LocationModeFixed, snap.Location.Mode)
	assert.Equal(t, models.LanguageModeRegional, snap.LanguageMode)

	got, err := p.Session(ctx, snap.ID)
	require.NoError(t, err)
	assert.Equal(t, snap.ID, got.ID)

	_, err = p.Session(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestUpload_Success(t *testing.T) {
	p, deps := newTestPipeline(t)
	ctx := context.Background()
	id := p.CreateSession(ctx).ID

	deps.gateway.EXPECT().
		ClassifyMedia(gomock.Any(), gateway.ClassifyInput{MediaDataURI: testMedia, Latitude: 13.0827, Longitude: 80.2707}, "").
		Return(fireOutput(), nil)
	deps.gateway.EXPECT().
		Translate(gomock.Any(), gateway.TranslateInput{
			Language:          "Tamil",
			SituationAnalysis: "Smoke rising from a warehouse.",
			Precautions:       "Stay upwind.",
			WhatToDoNow:       "Evacuate the block.",
		}, "").
		Return(translated("Tamil"), nil)

	done, err := p.Upload(ctx, id, testMedia)
	require.NoError(t, err)
	<-done
	p.wg.Wait()

	snap, err := p.Session(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.StateActive, snap.State)
	assert.Equal(t, 100, snap.Progress)
	require.NotNil(t, snap.Incident)
	assert.Equal(t, "Fire Outbreak", snap.Incident.IncidentType)
	assert.Equal(t, knowledge.Lookup("Fire").Precautions, snap.Incident.Reference.Precautions)
	assert.Len(t, snap.Incident.NearbyServices, 4)
	require.NotNil(t, snap.Translation)
	assert.Equal(t, "Tamil", snap.Translation.Language)
	assert.True(t, snap.HasMedia)

	logs, err := p.Logs(ctx, id)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, testMedia, logs[0].Media)
	assert.Equal(t, "Chennai", logs[0].Location.City)

	notes, err := p.Notifications(ctx, id)
	require.NoError(t, err)
	require.NotEmpty(t, notes)
	assert.Equal(t, "THREAT CONFIRMED", notes[0].Title)
	assert.Equal(t, "Fire Outbreak detected in sector.", notes[0].Description)
	assert.Equal(t, []string{"THREAT CONFIRMED"}, deps.notifier.Titles())
}

func TestUpload_Failures(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantTitle string
	}{
		{"credential", apperrors.Credential("gateway.classify-media", "API key not valid"), "CREDENTIAL FAILURE"},
		{"untagged key error", errors.New("invalid api key"), "CREDENTIAL FAILURE"},
		{"transient", apperrors.Transient("gateway.classify-media", errors.New("503")), "SCAN FAILED"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, deps := newTestPipeline(t)
			ctx := context.Background()
			id := p.CreateSession(ctx).ID

			deps.gateway.EXPECT().ClassifyMedia(gomock.Any(), gomock.Any(), "").Return(nil, tt.err)

			done, err := p.Upload(ctx, id, testMedia)
			require.NoError(t, err)
			<-done

			snap, _ := p.Session(ctx, id)
			assert.Equal(t, models.StateIdle, snap.State)
			assert.Equal(t, 0, snap.Progress)
			assert.False(t, snap.HasMedia)
			assert.Nil(t, snap.Incident)

			notes, _ := p.Notifications(ctx, id)
			require.NotEmpty(t, notes)
			assert.Equal(t, tt.wantTitle, notes[0].Title)
			assert.Equal(t, models.NotificationError, notes[0].Level)
		})
	}
}

func TestUpload_InvalidMedia(t *testing.T) {
	p, _ := newTestPipeline(t)
	ctx := context.Background()
	id := p.CreateSession(ctx).ID

	_, err := p.Upload(ctx, id, "not a data uri")
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))

	_, err = p.Upload(ctx, id, "data:text/plain;base64,aGVsbG8=")
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))

	_, err = p.Upload(ctx, uuid.New(), testMedia)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestUpload_RejectedWhileClassifying(t *testing.T) {
	p, deps := newTestPipeline(t)
	ctx := context.Background()
	id := p.CreateSession(ctx).ID

	release := make(chan struct{})
	deps.gateway.EXPECT().
		ClassifyMedia(gomock.Any(), gomock.Any(), "").
		DoAndReturn(func(context.Context, gateway.ClassifyInput, string) (*gateway.ClassifyOutput, error) {
			<-release
			return nil, errors.New("scan failed")
		})

	done, err := p.Upload(ctx, id, testMedia)
	require.NoError(t, err)

	snap, _ := p.Session(ctx, id)
	assert.Equal(t, models.StateClassifying, snap.State)

	_, err = p.Upload(ctx, id, testMedia)
	assert.Equal(t, apperrors.KindPrecondition, apperrors.KindOf(err))

	close(release)
	<-done
}

func TestUpload_ProgressCappedAndTickerStopped(t *testing.T) {
	defer goleak.VerifyNone(t)

	p, deps := newTestPipeline(t, func(c *Config) { c.ProgressInterval = time.Millisecond })
	p.random = func() float64 { return 1 }
	ctx := context.Background()
	id := p.CreateSession(ctx).ID

	events, cancel, err := p.Subscribe(ctx, id)
	require.NoError(t, err)
	defer cancel()

	release := make(chan struct{})
	deps.gateway.EXPECT().
		ClassifyMedia(gomock.Any(), gomock.Any(), "").
		DoAndReturn(func(context.Context, gateway.ClassifyInput, string) (*gateway.ClassifyOutput, error) {
			<-release
			return fireOutput(), nil
		})
	deps.gateway.EXPECT().Translate(gomock.Any(), gomock.Any(), "").Return(translated("Tamil"), nil)

	done, err := p.Upload(ctx, id, testMedia)
	require.NoError(t, err)

	var progress []int
	timeout := time.After(5 * time.Second)
	for len(progress) < 6 {
		select {
		case ev := <-events:
			if ev.Type == models.EventProgress {
				require.LessOrEqual(t, ev.Progress, 95)
				progress = append(progress, ev.Progress)
			}
		case <-timeout:
			t.Fatal("no progress events")
		}
	}
	close(release)
	<-done
	p.wg.Wait()

	assert.Equal(t, []int{25, 50, 75, 95, 95, 95}, progress)
	snap, _ := p.Session(ctx, id)
	assert.Equal(t, 100, snap.Progress)

	p.Close()
}

func TestReset_ThenFreshUpload(t *testing.T) {
	p, deps := newTestPipeline(t)
	ctx := context.Background()
	id := p.CreateSession(ctx).ID
	activate(t, p, deps, id)

	snap, err := p.Reset(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.StateIdle, snap.State)
	assert.Nil(t, snap.Incident)
	assert.Nil(t, snap.Translation)
	assert.False(t, snap.HasMedia)
	assert.Equal(t, 1, snap.LogCount)

	release := make(chan struct{})
	deps.gateway.EXPECT().
		ClassifyMedia(gomock.Any(), gomock.Any(), "").
		DoAndReturn(func(context.Context, gateway.ClassifyInput, string) (*gateway.ClassifyOutput, error) {
			<-release
			return nil, errors.New("scan failed")
		})
	done, err := p.Upload(ctx, id, testMedia)
	require.NoError(t, err)

	snap, _ = p.Session(ctx, id)
	assert.Equal(t, models.StateClassifying, snap.State)
	assert.Equal(t, 0, snap.Progress)

	close(release)
	<-done
	notes, _ := p.Notifications(ctx, id)
	assert.Contains(t, titles(notes), "GRID REFRESHED")
}

func TestTranslation_LastRequestWins(t *testing.T) {
	p, deps := newTestPipeline(t)
	ctx := context.Background()
	id := p.CreateSession(ctx).ID
	activate(t, p, deps, id)

	release := make(chan struct{})
	deps.gateway.EXPECT().
		Translate(gomock.Any(), gomock.Any(), "").
		DoAndReturn(func(_ context.Context, in gateway.TranslateInput, _ string) (*gateway.TranslateOutput, error) {
			if in.Language == "Hindi" {
				<-release
			}
			return translated(in.Language), nil
		}).
		Times(2)

	_, err := p.SetLanguageMode(ctx, id, models.LanguageModeHindi)
	require.NoError(t, err)
	snap, err := p.SetLanguageMode(ctx, id, models.LanguageModeEnglish)
	require.NoError(t, err)
	assert.Equal(t, models.StateTranslating, snap.State)

	require.Eventually(t, func() bool {
		snap, _ := p.Session(ctx, id)
		return snap.Translation != nil && snap.Translation.Language == "English"
	}, 2*time.Second, time.Millisecond)

	close(release)
	p.wg.Wait()

	snap, _ = p.Session(ctx, id)
	assert.Equal(t, "English", snap.Translation.Language)
	assert.Equal(t, models.StateActive, snap.State)
}

func TestTranslation_DroppedAfterReset(t *testing.T) {
	p, deps := newTestPipeline(t)
	ctx := context.Background()
	id := p.CreateSession(ctx).ID
	activate(t, p, deps, id)

	release := make(chan struct{})
	deps.gateway.EXPECT().
		Translate(gomock.Any(), gomock.Any(), "").
		DoAndReturn(func(_ context.Context, in gateway.TranslateInput, _ string) (*gateway.TranslateOutput, error) {
			<-release
			return translated(in.Language), nil
		})

	mumbai, _ := models.Preset("Mumbai West")
	_, err := p.SetLocation(ctx, id, mumbai)
	require.NoError(t, err)
	_, err = p.Reset(ctx, id)
	require.NoError(t, err)

	close(release)
	p.wg.Wait()

	snap, _ := p.Session(ctx, id)
	assert.Nil(t, snap.Translation)
	assert.Equal(t, models.StateIdle, snap.State)
}

func TestTranslation_FailureNotifications(t *testing.T) {
	p, deps := newTestPipeline(t)
	ctx := context.Background()
	id := p.CreateSession(ctx).ID
	activate(t, p, deps, id)

	deps.gateway.EXPECT().Translate(gomock.Any(), gomock.Any(), "").Return(nil, apperrors.Credential("gateway.translate", "bad key"))
	_, err := p.SetLanguageMode(ctx, id, models.LanguageModeHindi)
	require.NoError(t, err)
	p.wg.Wait()

	deps.gateway.EXPECT().Translate(gomock.Any(), gomock.Any(), "").Return(nil, apperrors.Transient("gateway.translate", errors.New("timeout")))
	_, err = p.SetLanguageMode(ctx, id, models.LanguageModeEnglish)
	require.NoError(t, err)
	p.wg.Wait()

	notes, _ := p.Notifications(ctx, id)
	assert.Equal(t, "TRANSLATION ERROR", notes[0].Title)
	assert.Equal(t, "TRANSLATION CREDENTIAL ERROR", notes[1].Title)

	snap, _ := p.Session(ctx, id)
	assert.Equal(t, models.StateActive, snap.State)
	assert.Equal(t, "Tamil", snap.Translation.Language)
}

func TestSetLocation(t *testing.T) {
	p, _ := newTestPipeline(t)
	ctx := context.Background()
	id := p.CreateSession(ctx).ID

	snap, err := p.SetLocation(ctx, id, models.GPSLocation(12.5, 77.1))
	require.NoError(t, err)
	assert.Equal(t, models.LocationModeGPS, snap.Location.Mode)

	city, _ := models.FindCity("Tokyo")
	_, err = p.SetLocation(ctx, id, city.Location())
	require.NoError(t, err)

	notes, _ := p.Notifications(ctx, id)
	assert.Equal(t, []string{"GLOBAL RELOCATION", "GPS ACQUIRED"}, titles(notes))
	assert.Equal(t, "SustAInex focus shifted to Tokyo.", notes[0].Description)

	_, err = p.SetLocation(ctx, id, models.Location{Latitude: 120, Mode: models.LocationModeManual})
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
	_, err = p.SetLocation(ctx, id, models.Location{Mode: "satellite"})
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
}

func TestFocusLocation_ClearsIncident(t *testing.T) {
	p, deps := newTestPipeline(t)
	ctx := context.Background()
	id := p.CreateSession(ctx).ID
	activate(t, p, deps, id)

	report := models.CommunityReport{Reporter: "Fazil", LocationName: "Beijing", Latitude: 39.9042, Longitude: 116.4074}
	snap, err := p.FocusLocation(ctx, id, report.Location())

	require.NoError(t, err)
	assert.Nil(t, snap.Incident)
	assert.Equal(t, models.StateIdle, snap.State)
	assert.Equal(t, "Beijing", snap.Location.City)
	notes, _ := p.Notifications(ctx, id)
	assert.Equal(t, "Viewing activity in Beijing.", notes[0].Description)
}

func TestSpeak(t *testing.T) {
	p, deps := newTestPipeline(t)
	ctx := context.Background()
	id := p.CreateSession(ctx).ID

	_, err := p.Speak(ctx, id)
	assert.ErrorIs(t, err, errNoIncident)

	activate(t, p, deps, id)
	deps.gateway.EXPECT().
		SynthesizeSpeech(gomock.Any(), gateway.SpeechInput{Text: "Tamil situation. Tamil precautions", Language: "Tamil"}, "").
		Return(&gateway.SpeechOutput{DataURI: "data:audio/wav;base64,UklGRg=="}, nil)

	out, err := p.Speak(ctx, id)

	require.NoError(t, err)
	assert.Equal(t, "data:audio/wav;base64,UklGRg==", out.DataURI)
}

func TestSpeak_ReentrancyGuard(t *testing.T) {
	p, deps := newTestPipeline(t)
	ctx := context.Background()
	id := p.CreateSession(ctx).ID
	activate(t, p, deps, id)

	started := make(chan struct{})
	release := make(chan struct{})
	deps.gateway.EXPECT().
		SynthesizeSpeech(gomock.Any(), gomock.Any(), "").
		DoAndReturn(func(context.Context, gateway.SpeechInput, string) (*gateway.SpeechOutput, error) {
			close(started)
			<-release
			return &gateway.SpeechOutput{DataURI: "data:audio/wav;base64,UklGRg=="}, nil
		}).
		Times(1)

	var wg sync.WaitGroup
	var firstErr error
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, firstErr = p.Speak(ctx, id)
	}()
	<-started

	_, err := p.Speak(ctx, id)
	assert.ErrorIs(t, err, ErrInFlight)

	close(release)
	wg.Wait()
	assert.NoError(t, firstErr)
}

func TestSpeak_Failures(t *testing.T) {
	p, deps := newTestPipeline(t)
	ctx := context.Background()
	id := p.CreateSession(ctx).ID
	activate(t, p, deps, id)

	deps.gateway.EXPECT().SynthesizeSpeech(gomock.Any(), gomock.Any(), "").Return(nil, apperrors.Credential("gateway.synthesize-speech", "bad key"))
	_, err := p.Speak(ctx, id)
	require.Error(t, err)

	deps.gateway.EXPECT().SynthesizeSpeech(gomock.Any(), gomock.Any(), "").Return(nil, apperrors.Validation("gateway.synthesize-speech", "no audio returned"))
	_, err = p.Speak(ctx, id)
	require.Error(t, err)

	notes, _ := p.Notifications(ctx, id)
	assert.Equal(t, "AUDIO ERROR", notes[0].Title)
	assert.Equal(t, "no audio returned", notes[0].Description)
	assert.Equal(t, "VOICE CREDENTIAL ERROR", notes[1].Title)

	snap, _ := p.Session(ctx, id)
	assert.False(t, snap.Speaking)
}

func TestDispatch_UsesFreshMergedSettings(t *testing.T) {
	p, deps := newTestPipeline(t)
	ctx := context.Background()
	id := p.CreateSession(ctx).ID
	activate(t, p, deps, id)

	require.NoError(t, p.SaveSettings(ctx, id, &models.DispatchCredentials{To: "+919800000000", GeminiAPIKey: "user-key"}))

	deps.dispatcher.EXPECT().
		Dispatch(gomock.Any(),
			"Tamil situation. Emergency Location: Chennai. Incident Type: Fire Outbreak.",
			"Tamil",
			&models.DispatchCredentials{
				AccountSID:   "ACdefault",
				AuthToken:    "default-token",
				From:         "+15550001111",
				To:           "+919800000000",
				GeminiAPIKey: "user-key",
			}).
		Return(&models.DispatchResult{Success: true, CallSID: "CA123"}, nil)

	result, err := p.Dispatch(ctx, id)
	p.wg.Wait()

	require.NoError(t, err)
	assert.Equal(t, "CA123", result.CallSID)
	notes, _ := p.Notifications(ctx, id)
	assert.Equal(t, "DISPATCH SUCCESS", notes[0].Title)
	assert.Equal(t, []string{"THREAT CONFIRMED", "DISPATCH SUCCESS"}, deps.notifier.Titles())
}

func TestDispatch_Failures(t *testing.T) {
	p, deps := newTestPipeline(t, func(c *Config) { c.Defaults = nil })
	ctx := context.Background()
	id := p.CreateSession(ctx).ID

	_, err := p.Dispatch(ctx, id)
	assert.ErrorIs(t, err, errNoIncident)

	activate(t, p, deps, id)

	deps.dispatcher.EXPECT().
		Dispatch(gomock.Any(), gomock.Any(), "Tamil", (*models.DispatchCredentials)(nil)).
		Return(nil, apperrors.Precondition("dispatch", dispatch.MsgNoCredentials))
	_, err = p.Dispatch(ctx, id)
	assert.Equal(t, apperrors.KindPrecondition, apperrors.KindOf(err))

	deps.dispatcher.EXPECT().
		Dispatch(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, apperrors.Credential("twilio.call", "authentication failed"))
	_, err = p.Dispatch(ctx, id)
	assert.Equal(t, apperrors.KindCredential, apperrors.KindOf(err))
	p.wg.Wait()

	notes, _ := p.Notifications(ctx, id)
	assert.Equal(t, "DISPATCH FAILED", notes[0].Title)
	assert.Equal(t, "CONFIG MISSING", notes[1].Title)
	assert.Equal(t, dispatch.MsgNoCredentials, notes[1].Description)
	assert.Equal(t, []string{"THREAT CONFIRMED", "DISPATCH FAILED"}, deps.notifier.Titles())
}

func TestDispatch_ReentrancyGuard(t *testing.T) {
	p, deps := newTestPipeline(t)
	ctx := context.Background()
	id := p.CreateSession(ctx).ID
	activate(t, p, deps, id)

	started := make(chan struct{})
	release := make(chan struct{})
	deps.dispatcher.EXPECT().
		Dispatch(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(context.Context, string, string, *models.DispatchCredentials) (*models.DispatchResult, error) {
			close(started)
			<-release
			return &models.DispatchResult{Success: true, CallSID: "CA1"}, nil
		}).
		Times(1)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, _ = p.Dispatch(ctx, id)
	}()
	<-started

	_, err := p.Dispatch(ctx, id)
	assert.ErrorIs(t, err, ErrInFlight)

	close(release)
	wg.Wait()
	p.wg.Wait()
}

func TestDispatchMessage_WithoutTranslation(t *testing.T) {
	incident := &models.IncidentReport{IncidentType: "Flood", SituationAnalysis: "Water rising"}
	msg, lang := dispatchMessage(incident, nil, models.Location{City: "Mumbai"})
	assert.Equal(t, "Water rising. Emergency Location: Mumbai. Incident Type: Flood.", msg)
	assert.Equal(t, "English", lang)
}

func TestSummarize(t *testing.T) {
	p, deps := newTestPipeline(t)
	ctx := context.Background()
	id := p.CreateSession(ctx).ID

	_, err := p.Summarize(ctx, id)
	assert.ErrorIs(t, err, errNoIncident)

	activate(t, p, deps, id)
	deps.gateway.EXPECT().
		SummarizeForAuthority(gomock.Any(), gateway.SummaryInput{
			IncidentType:            "Fire Outbreak",
			Location:                "Chennai, Tamil Nadu, India",
			City:                    "Chennai",
			State:                   "Tamil Nadu",
			Country:                 "India",
			Severity:                "High",
			SituationAnalysis:       "Smoke rising from a warehouse.",
			AuthorityRecommendation: knowledge.Lookup("Fire").AuthorityAlertRecommendation,
		}, "").
		Return(&gateway.SummaryOutput{Summary: "தீ விபத்து", Language: "Tamil"}, nil)

	summary, err := p.Summarize(ctx, id)

	require.NoError(t, err)
	assert.Equal(t, "Tamil", summary.Language)
}

func TestSettings_Lifecycle(t *testing.T) {
	p, _ := newTestPipeline(t)
	ctx := context.Background()
	id := p.CreateSession(ctx).ID

	creds, err := p.LoadSettings(ctx, id)
	require.NoError(t, err)
	assert.True(t, creds.IsZero())

	saved := &models.DispatchCredentials{AccountSID: "AC1", GoogleAPIKey: "g-key"}
	require.NoError(t, p.SaveSettings(ctx, id, saved))

	creds, err = p.LoadSettings(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, saved, creds)

	notes, _ := p.Notifications(ctx, id)
	assert.Equal(t, "COMMAND PROTOCOLS UPDATED", notes[0].Title)
}

func TestSettings_UserKeyOverridesModelKey(t *testing.T) {
	p, deps := newTestPipeline(t)
	ctx := context.Background()
	id := p.CreateSession(ctx).ID
	require.NoError(t, p.SaveSettings(ctx, id, &models.DispatchCredentials{GoogleAPIKey: "g-key", GeminiAPIKey: "ignored"}))

	deps.gateway.EXPECT().ClassifyMedia(gomock.Any(), gomock.Any(), "g-key").Return(nil, errors.New("scan failed"))

	done, err := p.Upload(ctx, id, testMedia)
	require.NoError(t, err)
	<-done
}

func TestSettings_CorruptedAreReset(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := settingsmocks.NewMockStore(ctrl)
	p := NewPipeline(gatewaymocks.NewMockGateway(ctrl), dispatchmocks.NewMockDispatcher(ctrl), nil, store, nil, testConfig(), testLogger())
	ctx := context.Background()
	id := p.CreateSession(ctx).ID

	store.EXPECT().Load(ctx, id).Return(nil, errors.New("failed to unmarshal settings"))
	store.EXPECT().Save(ctx, id, &models.DispatchCredentials{}).Return(nil)

	creds, err := p.LoadSettings(ctx, id)

	require.NoError(t, err)
	assert.True(t, creds.IsZero())
}

func TestDeleteSession_ClosesSubscribers(t *testing.T) {
	p, deps := newTestPipeline(t)
	ctx := context.Background()
	id := p.CreateSession(ctx).ID
	require.NoError(t, deps.store.Save(ctx, id, &models.DispatchCredentials{To: "+1"}))

	events, cancel, err := p.Subscribe(ctx, id)
	require.NoError(t, err)
	defer cancel()

	require.NoError(t, p.DeleteSession(ctx, id))

	_, open := <-events
	assert.False(t, open)
	stored, _ := deps.store.Load(ctx, id)
	assert.Nil(t, stored)
	assert.ErrorIs(t, p.DeleteSession(ctx, id), ErrSessionNotFound)
}

func TestSessionExpiry(t *testing.T) {
	p, _ := newTestPipeline(t, func(c *Config) { c.SessionTTL = 20 * time.Millisecond })
	ctx := context.Background()
	id := p.CreateSession(ctx).ID

	time.Sleep(40 * time.Millisecond)

	_, err := p.Session(ctx, id)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

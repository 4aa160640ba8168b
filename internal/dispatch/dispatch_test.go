package dispatch

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/shenikar/incident_response_system/internal/apperrors"
	"github.com/shenikar/incident_response_system/internal/dispatch/mocks"
	"github.com/shenikar/incident_response_system/internal/dispatch/twilio"
	"github.com/shenikar/incident_response_system/internal/gateway"
	gatewaymocks "github.com/shenikar/incident_response_system/internal/gateway/mocks"
	"github.com/shenikar/incident_response_system/internal/models"
	storagemocks "github.com/shenikar/incident_response_system/internal/storage/mocks"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type testDeps struct {
	gateway *gatewaymocks.MockGateway
	host    *storagemocks.MockMediaHost
	caller  *mocks.MockCaller
}

// newTestDispatcher создает диспетчер с моками шлюза, хранилища и телефонии
func newTestDispatcher(t *testing.T) (Dispatcher, testDeps) {
	ctrl := gomock.NewController(t)
	deps := testDeps{
		gateway: gatewaymocks.NewMockGateway(ctrl),
		host:    storagemocks.NewMockMediaHost(ctrl),
		caller:  mocks.NewMockCaller(ctrl),
	}
	deps.host.EXPECT().Provider().Return("local").AnyTimes()

	logger := logrus.New()
	logger.SetOutput(&bytes.Buffer{}) // Отключаем вывод логов в тестах

	return NewDispatcher(deps.gateway, deps.host, deps.caller, logger), deps
}

func fullCredentials() *models.DispatchCredentials {
	return &models.DispatchCredentials{
		AccountSID:   "AC123",
		AuthToken:    "secret",
		From:         "+15550001111",
		To:           "+919800000000",
		GoogleAPIKey: "user-model-key",
	}
}

func TestCheckCredentials_Order(t *testing.T) {
	tests := []struct {
		name  string
		creds *models.DispatchCredentials
		want  string
	}{
		{"nil", nil, MsgNoCredentials},
		{"missing token", &models.DispatchCredentials{AccountSID: "AC1", From: "+1", To: "+2"}, MsgIncomplete},
		{"missing everything", &models.DispatchCredentials{}, MsgIncomplete},
		{"numbers missing", &models.DispatchCredentials{AccountSID: "AC1", AuthToken: "t"}, MsgPhoneNumbersUnset},
		{"to missing", &models.DispatchCredentials{AccountSID: "AC1", AuthToken: "t", From: "+1"}, MsgPhoneNumbersUnset},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckCredentials(tt.creds)
			require.Error(t, err)
			assert.Equal(t, apperrors.KindPrecondition, apperrors.KindOf(err))
			assert.Equal(t, tt.want, apperrors.Message(err))
		})
	}
	assert.NoError(t, CheckCredentials(fullCredentials()))
}

func TestDispatch_PreconditionStopsBeforeRemoteCalls(t *testing.T) {
	d, deps := newTestDispatcher(t)
	deps.gateway.EXPECT().SynthesizeSpeech(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
	deps.host.EXPECT().Upload(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
	deps.caller.EXPECT().CreateCall(gomock.Any(), gomock.Any()).Times(0)

	_, err := d.Dispatch(context.Background(), "Fire.", "Tamil", &models.DispatchCredentials{AccountSID: "AC1", AuthToken: "t"})

	assert.Equal(t, MsgPhoneNumbersUnset, apperrors.Message(err))
}

func TestDispatch_Success(t *testing.T) {
	d, deps := newTestDispatcher(t)
	ctx := context.Background()
	wav := []byte("RIFF....WAVE")

	gomock.InOrder(
		deps.gateway.EXPECT().
			SynthesizeSpeech(ctx, gateway.SpeechInput{Text: "Fire. Emergency Location: Chennai.", Language: "Tamil"}, "user-model-key").
			Return(&gateway.SpeechOutput{WAV: wav, DataURI: "data:audio/wav;base64,UklGRg=="}, nil),
		deps.host.EXPECT().
			Upload(ctx, gomock.Any(), wav, "audio/wav").
			DoAndReturn(func(_ context.Context, key string, _ []byte, _ string) (string, error) {
				assert.True(t, strings.HasPrefix(key, "sentinel/"))
				return "https://cdn.example/" + key + "?a=1&b=2", nil
			}),
		deps.caller.EXPECT().
			CreateCall(ctx, gomock.Any()).
			DoAndReturn(func(_ context.Context, p twilio.CallParams) (*twilio.Call, error) {
				assert.Equal(t, "AC123", p.AccountSID)
				assert.Equal(t, "+15550001111", p.From)
				assert.Equal(t, "+919800000000", p.To)
				assert.True(t, strings.HasPrefix(p.TwiML, "<Response><Play>https://cdn.example/sentinel/"))
				assert.Contains(t, p.TwiML, "?a=1&amp;b=2</Play></Response>")
				return &twilio.Call{SID: "CA42"}, nil
			}),
	)

	res, err := d.Dispatch(ctx, "Fire. Emergency Location: Chennai.", "Tamil", fullCredentials())

	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "CA42", res.CallSID)
}

func TestDispatch_SpeechFailureAborts(t *testing.T) {
	d, deps := newTestDispatcher(t)
	deps.gateway.EXPECT().SynthesizeSpeech(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, apperrors.Validation("gateway.synthesize-speech", "no audio returned from speech model"))
	deps.host.EXPECT().Upload(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
	deps.caller.EXPECT().CreateCall(gomock.Any(), gomock.Any()).Times(0)

	_, err := d.Dispatch(context.Background(), "Fire.", "", fullCredentials())

	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
}

func TestDispatch_DefaultsLanguageToEnglish(t *testing.T) {
	d, deps := newTestDispatcher(t)
	deps.gateway.EXPECT().
		SynthesizeSpeech(gomock.Any(), gateway.SpeechInput{Text: "Flood.", Language: "English"}, gomock.Any()).
		Return(nil, errors.New("boom"))

	_, err := d.Dispatch(context.Background(), "Flood.", "", fullCredentials())

	assert.Error(t, err)
}

func TestDispatch_UploadAndCallFailures(t *testing.T) {
	t.Run("upload", func(t *testing.T) {
		d, deps := newTestDispatcher(t)
		deps.gateway.EXPECT().SynthesizeSpeech(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(&gateway.SpeechOutput{WAV: []byte("RIFF")}, nil)
		deps.host.EXPECT().Upload(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return("", apperrors.Transient("storage.s3.put", errors.New("timeout")))
		deps.caller.EXPECT().CreateCall(gomock.Any(), gomock.Any()).Times(0)

		_, err := d.Dispatch(context.Background(), "Fire.", "Tamil", fullCredentials())
		assert.Equal(t, apperrors.KindTransient, apperrors.KindOf(err))
	})

	t.Run("call", func(t *testing.T) {
		d, deps := newTestDispatcher(t)
		deps.gateway.EXPECT().SynthesizeSpeech(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(&gateway.SpeechOutput{WAV: []byte("RIFF")}, nil)
		deps.host.EXPECT().Upload(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return("https://cdn.example/a.wav", nil)
		deps.caller.EXPECT().CreateCall(gomock.Any(), gomock.Any()).
			Return(nil, apperrors.Credential("twilio.call", "Authenticate"))

		_, err := d.Dispatch(context.Background(), "Fire.", "Tamil", fullCredentials())
		assert.True(t, apperrors.IsCredential(err))
	})
}

func TestTwiML(t *testing.T) {
	assert.Equal(t, "<Response><Play>https://x.test/a.wav</Play></Response>", TwiML("https://x.test/a.wav"))
}

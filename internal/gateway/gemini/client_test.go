package gemini

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/shenikar/incident_response_system/internal/apperrors"
	"github.com/shenikar/incident_response_system/internal/audio"
	"github.com/shenikar/incident_response_system/internal/gateway"
	"github.com/shenikar/incident_response_system/internal/models"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testBaseURL  = "https://gemini.test"
	textEndpoint = `=~^https://gemini\.test/v1beta/models/gemini-2\.5-flash:generateContent$`
	ttsEndpoint  = `=~^https://gemini\.test/v1beta/models/gemini-2\.5-flash-preview-tts:generateContent$`
	testMediaURI = "data:image/jpeg;base64,anBlZy1ieXRlcw=="
)

// newTestClient создает клиент с перехваченным HTTP-транспортом
func newTestClient(t *testing.T, defaultKey string) *Client {
	logger := logrus.New()
	logger.SetOutput(&bytes.Buffer{}) // Отключаем вывод логов в тестах

	c := New(Config{BaseURL: testBaseURL, APIKey: defaultKey}, logger)
	httpmock.ActivateNonDefault(c.httpClient)
	t.Cleanup(httpmock.DeactivateAndReset)
	return c
}

func textResponse(t *testing.T, v any) *generateResponse {
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	return &generateResponse{Candidates: []candidate{{Content: content{Role: "model", Parts: []part{{Text: string(raw)}}}}}}
}

func classifyJSON() map[string]string {
	return map[string]string{
		"incidentType":           "Fire in residential block",
		"severity":               "🔴 High",
		"nearbyFireStations":     "Egmore Fire Station",
		"nearbyHospitals":        "Government General Hospital",
		"nearbyPoliceStations":   "Egmore Police Station",
		"situationAnalysis":      "Thick smoke from third floor.",
		"precautions":            "Stay low.",
		"whatToDoNow":            "Evacuate.",
		"authoritiesToBeAlerted": "Fire & Rescue",
	}
}

func TestClassifyMedia_Success(t *testing.T) {
	c := newTestClient(t, "default-key")

	var gotKey string
	var gotReq generateRequest
	httpmock.RegisterResponder(http.MethodPost, textEndpoint, func(req *http.Request) (*http.Response, error) {
		gotKey = req.Header.Get("x-goog-api-key")
		require.NoError(t, json.NewDecoder(req.Body).Decode(&gotReq))
		return httpmock.NewJsonResponse(http.StatusOK, textResponse(t, classifyJSON()))
	})

	out, err := c.ClassifyMedia(context.Background(), gateway.ClassifyInput{
		MediaDataURI: testMediaURI, Latitude: 13.0827, Longitude: 80.2707,
	}, "")

	require.NoError(t, err)
	assert.Equal(t, "default-key", gotKey)
	assert.Equal(t, "Fire in residential block", out.IncidentType)
	assert.Equal(t, models.SeverityHigh, out.Severity)
	require.Len(t, gotReq.Contents, 1)
	require.Len(t, gotReq.Contents[0].Parts, 2)
	assert.Contains(t, gotReq.Contents[0].Parts[0].Text, "Lat: 13.0827")
	assert.Equal(t, "image/jpeg", gotReq.Contents[0].Parts[1].InlineData.MIMEType)
	assert.Equal(t, "application/json", gotReq.GenerationConfig.ResponseMIMEType)
}

func TestClassifyMedia_UserKeyOverridesDefault(t *testing.T) {
	c := newTestClient(t, "default-key")

	var gotKey string
	httpmock.RegisterResponder(http.MethodPost, textEndpoint, func(req *http.Request) (*http.Response, error) {
		gotKey = req.Header.Get("x-goog-api-key")
		return httpmock.NewJsonResponse(http.StatusOK, textResponse(t, classifyJSON()))
	})

	_, err := c.ClassifyMedia(context.Background(), gateway.ClassifyInput{MediaDataURI: testMediaURI}, "user-key")

	require.NoError(t, err)
	assert.Equal(t, "user-key", gotKey)
}

func TestClassifyMedia_NoKeyIsCredential(t *testing.T) {
	c := newTestClient(t, "")

	_, err := c.ClassifyMedia(context.Background(), gateway.ClassifyInput{MediaDataURI: testMediaURI}, "")

	assert.Equal(t, apperrors.KindCredential, apperrors.KindOf(err))
	assert.Equal(t, 0, httpmock.GetTotalCallCount())
}

func TestClassifyMedia_InvalidInput(t *testing.T) {
	c := newTestClient(t, "default-key")

	_, err := c.ClassifyMedia(context.Background(), gateway.ClassifyInput{MediaDataURI: "file:///tmp/a.jpg"}, "")

	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
	assert.Equal(t, 0, httpmock.GetTotalCallCount())
}

func TestClassifyMedia_ErrorTagging(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   apperrors.Kind
	}{
		{
			name:   "invalid key reason",
			status: http.StatusBadRequest,
			body:   `{"error":{"code":400,"message":"API key not valid. Please pass a valid API key.","status":"INVALID_ARGUMENT","details":[{"@type":"type.googleapis.com/google.rpc.ErrorInfo","reason":"API_KEY_INVALID"}]}}`,
			want:   apperrors.KindCredential,
		},
		{name: "forbidden", status: http.StatusForbidden, body: `{"error":{"code":403,"message":"Permission denied"}}`, want: apperrors.KindCredential},
		{name: "rate limited", status: http.StatusTooManyRequests, body: `{"error":{"code":429,"message":"Resource exhausted"}}`, want: apperrors.KindTransient},
		{name: "unavailable", status: http.StatusServiceUnavailable, body: `{"error":{"code":503,"message":"The model is overloaded"}}`, want: apperrors.KindTransient},
		{name: "bad request", status: http.StatusBadRequest, body: `{"error":{"code":400,"message":"Invalid JSON payload"}}`, want: apperrors.KindValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, "default-key")
			httpmock.RegisterResponder(http.MethodPost, textEndpoint, httpmock.NewStringResponder(tt.status, tt.body))

			_, err := c.ClassifyMedia(context.Background(), gateway.ClassifyInput{MediaDataURI: testMediaURI}, "")

			require.Error(t, err)
			assert.Equal(t, tt.want, apperrors.KindOf(err))
		})
	}
}

func TestClassifyMedia_EmptyOrInvalidResult(t *testing.T) {
	t.Run("no candidates", func(t *testing.T) {
		c := newTestClient(t, "default-key")
		httpmock.RegisterResponder(http.MethodPost, textEndpoint, httpmock.NewStringResponder(http.StatusOK, `{"candidates":[]}`))

		_, err := c.ClassifyMedia(context.Background(), gateway.ClassifyInput{MediaDataURI: testMediaURI}, "")
		assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
	})

	t.Run("unknown severity", func(t *testing.T) {
		c := newTestClient(t, "default-key")
		body := classifyJSON()
		body["severity"] = "Extreme"
		httpmock.RegisterResponder(http.MethodPost, textEndpoint, func(*http.Request) (*http.Response, error) {
			return httpmock.NewJsonResponse(http.StatusOK, textResponse(t, body))
		})

		_, err := c.ClassifyMedia(context.Background(), gateway.ClassifyInput{MediaDataURI: testMediaURI}, "")
		assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
	})
}

func TestClassifyMedia_MissingGuidanceField(t *testing.T) {
	fields := []string{
		"nearbyFireStations", "nearbyHospitals", "nearbyPoliceStations",
		"precautions", "whatToDoNow", "authoritiesToBeAlerted",
	}
	for _, field := range fields {
		t.Run(field, func(t *testing.T) {
			c := newTestClient(t, "default-key")
			body := classifyJSON()
			delete(body, field)
			httpmock.RegisterResponder(http.MethodPost, textEndpoint, func(*http.Request) (*http.Response, error) {
				return httpmock.NewJsonResponse(http.StatusOK, textResponse(t, body))
			})

			out, err := c.ClassifyMedia(context.Background(), gateway.ClassifyInput{MediaDataURI: testMediaURI}, "")

			assert.Nil(t, out)
			assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
		})
	}
}

func TestTranslate_MissingField(t *testing.T) {
	for _, field := range []string{"translatedPrecautions", "translatedWhatToDoNow", "language"} {
		t.Run(field, func(t *testing.T) {
			c := newTestClient(t, "default-key")
			body := map[string]string{
				"translatedSituationAnalysis": "தீ விபத்து",
				"translatedPrecautions":       "தாழ்வாக இருங்கள்",
				"translatedWhatToDoNow":       "வெளியேறுங்கள்",
				"language":                    "ta",
			}
			delete(body, field)
			httpmock.RegisterResponder(http.MethodPost, textEndpoint, func(*http.Request) (*http.Response, error) {
				return httpmock.NewJsonResponse(http.StatusOK, textResponse(t, body))
			})

			out, err := c.Translate(context.Background(), gateway.TranslateInput{
				Language: "Tamil", SituationAnalysis: "Fire", Precautions: "Stay low", WhatToDoNow: "Evacuate",
			}, "")

			assert.Nil(t, out)
			assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
		})
	}
}

func TestTranslate_KeepsRequestedLanguage(t *testing.T) {
	c := newTestClient(t, "default-key")

	var prompt string
	httpmock.RegisterResponder(http.MethodPost, textEndpoint, func(req *http.Request) (*http.Response, error) {
		var r generateRequest
		require.NoError(t, json.NewDecoder(req.Body).Decode(&r))
		prompt = r.Contents[0].Parts[0].Text
		return httpmock.NewJsonResponse(http.StatusOK, textResponse(t, map[string]string{
			"translatedSituationAnalysis": "தீ விபத்து",
			"translatedPrecautions":       "தாழ்வாக இருங்கள்",
			"translatedWhatToDoNow":       "வெளியேறுங்கள்",
			"language":                    "ta",
		}))
	})

	out, err := c.Translate(context.Background(), gateway.TranslateInput{
		Language: "Tamil", SituationAnalysis: "Fire", Precautions: "Stay low", WhatToDoNow: "Evacuate",
	}, "")

	require.NoError(t, err)
	assert.Equal(t, "Tamil", out.Language)
	assert.Equal(t, "தீ விபத்து", out.TranslatedSituationAnalysis)
	assert.Contains(t, prompt, "native script of Tamil")
	assert.Contains(t, prompt, "Do NOT use Romanized characters")
}

func TestSynthesizeSpeech_WrapsPCMInWAV(t *testing.T) {
	c := newTestClient(t, "default-key")
	pcm := []byte{0x01, 0x00, 0xff, 0x7f, 0x00, 0x80, 0x10, 0x20}

	var voice string
	httpmock.RegisterResponder(http.MethodPost, ttsEndpoint, func(req *http.Request) (*http.Response, error) {
		var r generateRequest
		require.NoError(t, json.NewDecoder(req.Body).Decode(&r))
		voice = r.GenerationConfig.SpeechConfig.VoiceConfig.PrebuiltVoiceConfig.VoiceName
		return httpmock.NewJsonResponse(http.StatusOK, generateResponse{Candidates: []candidate{{Content: content{Parts: []part{{
			InlineData: &inlineData{MIMEType: "audio/L16;codec=pcm;rate=24000", Data: base64.StdEncoding.EncodeToString(pcm)},
		}}}}}})
	})

	out, err := c.SynthesizeSpeech(context.Background(), gateway.SpeechInput{Text: "தீ விபத்து", Language: "Tamil"}, "")

	require.NoError(t, err)
	assert.Equal(t, "Algenib", voice)
	assert.True(t, strings.HasPrefix(out.DataURI, "data:audio/wav;base64,"))
	decoded, err := audio.DecodeWAV(out.WAV)
	require.NoError(t, err)
	assert.Equal(t, pcm, decoded)
}

func TestSynthesizeSpeech_NoAudio(t *testing.T) {
	c := newTestClient(t, "default-key")
	httpmock.RegisterResponder(http.MethodPost, ttsEndpoint,
		httpmock.NewStringResponder(http.StatusOK, `{"candidates":[{"content":{"parts":[{"text":"sorry"}]}}]}`))

	_, err := c.SynthesizeSpeech(context.Background(), gateway.SpeechInput{Text: "hello", Language: "English"}, "")

	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
}

func TestSummarizeForAuthority_ResolvesLanguage(t *testing.T) {
	c := newTestClient(t, "default-key")

	var system string
	httpmock.RegisterResponder(http.MethodPost, textEndpoint, func(req *http.Request) (*http.Response, error) {
		var r generateRequest
		require.NoError(t, json.NewDecoder(req.Body).Decode(&r))
		system = r.SystemInstruction.Parts[0].Text
		return httpmock.NewJsonResponse(http.StatusOK, textResponse(t, map[string]string{
			"summary":  "இது ஒரு அவசர எச்சரிக்கை.",
			"language": "English",
		}))
	})

	out, err := c.SummarizeForAuthority(context.Background(), gateway.SummaryInput{
		IncidentType:      "Fire",
		Location:          "Chennai, Tamil Nadu",
		City:              "Chennai",
		State:             "Tamil Nadu",
		Country:           "India",
		Severity:          "High",
		SituationAnalysis: "Smoke visible",
	}, "")

	require.NoError(t, err)
	assert.Equal(t, "Tamil", out.Language)
	assert.Equal(t, "இது ஒரு அவசர எச்சரிக்கை.", out.Summary)
	assert.Contains(t, system, "native script of Tamil")
}

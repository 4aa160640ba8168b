// Package gemini реализует gateway.Gateway поверх Google Generative Language REST API.
package gemini

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shenikar/incident_response_system/internal/apperrors"
	"github.com/shenikar/incident_response_system/internal/audio"
	"github.com/shenikar/incident_response_system/internal/gateway"
	"github.com/shenikar/incident_response_system/internal/language"
	"github.com/shenikar/incident_response_system/internal/media"
	"github.com/shenikar/incident_response_system/internal/metrics"
	"github.com/shenikar/incident_response_system/internal/models"
	"github.com/sirupsen/logrus"
)

const (
	DefaultBaseURL  = "https://generativelanguage.googleapis.com"
	DefaultModel    = "gemini-2.5-flash"
	DefaultTTSModel = "gemini-2.5-flash-preview-tts"
	DefaultVoice    = "Algenib"

	maxResponseBytes = 32 << 20
)

var severityEnum = []string{"🟢 Low", "🟡 Medium", "🔴 High"}

// Config - настройки клиента модели
type Config struct {
	BaseURL  string
	APIKey   string
	Model    string
	TTSModel string
	Voice    string
	Timeout  time.Duration
}

// Client - клиент модели. Повторов нет: каждая ошибка сразу возвращается вызывающему.
type Client struct {
	cfg        Config
	httpClient *http.Client
	logger     *logrus.Logger
	validate   *validator.Validate
}

var _ gateway.Gateway = (*Client)(nil)

// New создает клиент. Пустой APIKey допустим: ключ может прийти из настроек пользователя.
func New(cfg Config, logger *logrus.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.TTSModel == "" {
		cfg.TTSModel = DefaultTTSModel
	}
	if cfg.Voice == "" {
		cfg.Voice = DefaultVoice
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
		validate:   gateway.NewValidator(),
	}
}

// ClassifyMedia определяет тип и опасность инцидента по фото или видео
func (c *Client) ClassifyMedia(ctx context.Context, in gateway.ClassifyInput, apiKey string) (*gateway.ClassifyOutput, error) {
	capability := gateway.CapabilityClassify
	if err := gateway.Validate(c.validate, capability, in); err != nil {
		return nil, err
	}
	m, err := media.Parse(in.MediaDataURI)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindValidation, op(capability), err)
	}

	req := generateRequest{
		Contents: []content{{
			Role: "user",
			Parts: []part{
				{Text: classifyPrompt(in)},
				{InlineData: &inlineData{MIMEType: m.MIMEType, Data: base64.StdEncoding.EncodeToString(m.Data)}},
			},
		}},
		GenerationConfig: &generationConfig{
			ResponseMIMEType: "application/json",
			ResponseSchema: objectSchema(
				[]string{"incidentType", "severity", "nearbyFireStations", "nearbyHospitals", "nearbyPoliceStations",
					"situationAnalysis", "precautions", "whatToDoNow", "authoritiesToBeAlerted"},
				map[string]any{
					"incidentType":           stringSchema(),
					"severity":               map[string]any{"type": "STRING", "enum": severityEnum},
					"nearbyFireStations":     stringSchema(),
					"nearbyHospitals":        stringSchema(),
					"nearbyPoliceStations":   stringSchema(),
					"situationAnalysis":      stringSchema(),
					"precautions":            stringSchema(),
					"whatToDoNow":            stringSchema(),
					"authoritiesToBeAlerted": stringSchema(),
				}),
		},
	}

	var out gateway.ClassifyOutput
	if err := c.generateJSON(ctx, capability, c.cfg.Model, apiKey, req, &out); err != nil {
		return nil, err
	}
	out.Severity, _ = models.ParseSeverity(string(out.Severity))
	return &out, nil
}

// Translate переводит рекомендации на заданный язык в его собственной письменности
func (c *Client) Translate(ctx context.Context, in gateway.TranslateInput, apiKey string) (*gateway.TranslateOutput, error) {
	capability := gateway.CapabilityTranslate
	if err := gateway.Validate(c.validate, capability, in); err != nil {
		return nil, err
	}

	req := generateRequest{
		Contents: []content{{Role: "user", Parts: []part{{Text: translatePrompt(in)}}}},
		GenerationConfig: &generationConfig{
			ResponseMIMEType: "application/json",
			ResponseSchema: objectSchema(
				[]string{"translatedSituationAnalysis", "translatedPrecautions", "translatedWhatToDoNow", "language"},
				map[string]any{
					"translatedSituationAnalysis": stringSchema(),
					"translatedPrecautions":       stringSchema(),
					"translatedWhatToDoNow":       stringSchema(),
					"language":                    stringSchema(),
				}),
		},
	}

	var out gateway.TranslateOutput
	if err := c.generateJSON(ctx, capability, c.cfg.Model, apiKey, req, &out); err != nil {
		return nil, err
	}
	out.Language = in.Language
	return &out, nil
}

// SynthesizeSpeech озвучивает текст и возвращает WAV
func (c *Client) SynthesizeSpeech(ctx context.Context, in gateway.SpeechInput, apiKey string) (*gateway.SpeechOutput, error) {
	capability := gateway.CapabilitySpeech
	if err := gateway.Validate(c.validate, capability, in); err != nil {
		return nil, err
	}

	req := generateRequest{
		Contents: []content{{Role: "user", Parts: []part{{Text: speechPrompt(in)}}}},
		GenerationConfig: &generationConfig{
			ResponseModalities: []string{"AUDIO"},
			SpeechConfig: &speechConfig{
				VoiceConfig: voiceConfig{PrebuiltVoiceConfig: prebuiltVoiceConfig{VoiceName: c.cfg.Voice}},
			},
		},
	}

	resp, err := c.generate(ctx, capability, c.cfg.TTSModel, apiKey, req)
	if err != nil {
		return nil, err
	}
	data := resp.inline()
	if data == nil {
		return nil, apperrors.Validation(op(capability), "no audio returned from speech model")
	}
	pcm, err := base64.StdEncoding.DecodeString(data.Data)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindValidation, op(capability), fmt.Errorf("decode audio: %w", err))
	}
	wav, err := audio.EncodeWAV(pcm)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindValidation, op(capability), err)
	}
	return &gateway.SpeechOutput{WAV: wav, DataURI: media.Encode("audio/wav", wav)}, nil
}

// SummarizeForAuthority готовит короткое голосовое сообщение для диспетчера
func (c *Client) SummarizeForAuthority(ctx context.Context, in gateway.SummaryInput, apiKey string) (*gateway.SummaryOutput, error) {
	capability := gateway.CapabilitySummarize
	if err := gateway.Validate(c.validate, capability, in); err != nil {
		return nil, err
	}
	lang := language.Resolve(in.City, in.State, in.Country, "")

	req := generateRequest{
		SystemInstruction: &content{Parts: []part{{Text: summarySystemPrompt(lang)}}},
		Contents:          []content{{Role: "user", Parts: []part{{Text: summaryPrompt(in, lang)}}}},
		GenerationConfig: &generationConfig{
			ResponseMIMEType: "application/json",
			ResponseSchema: objectSchema([]string{"summary", "language"}, map[string]any{
				"summary":  stringSchema(),
				"language": stringSchema(),
			}),
		},
	}

	var out gateway.SummaryOutput
	if err := c.generateJSON(ctx, capability, c.cfg.Model, apiKey, req, &out); err != nil {
		return nil, err
	}
	out.Language = lang
	return &out, nil
}

// generateJSON выполняет вызов в режиме JSON, разбирает и проверяет результат
func (c *Client) generateJSON(ctx context.Context, capability gateway.Capability, model, apiKey string, req generateRequest, out any) error {
	resp, err := c.generate(ctx, capability, model, apiKey, req)
	if err != nil {
		return err
	}
	text := resp.text()
	if strings.TrimSpace(text) == "" {
		return apperrors.Validation(op(capability), "empty result from model")
	}
	if err := json.Unmarshal([]byte(text), out); err != nil {
		return apperrors.Wrap(apperrors.KindValidation, op(capability), fmt.Errorf("parse model output: %w", err))
	}
	return gateway.Validate(c.validate, capability, out)
}

// generate - единая точка вызова generateContent. Считает вызовы и помечает ошибки.
func (c *Client) generate(ctx context.Context, capability gateway.Capability, model, apiKey string, req generateRequest) (resp *generateResponse, err error) {
	log := c.logger.WithFields(logrus.Fields{
		"service": "gateway",
		"method":  string(capability),
		"model":   model,
	})
	start := time.Now()
	defer func() {
		status := "success"
		if err != nil {
			status = string(apperrors.KindOf(err))
			log.WithError(err).Warn("Model call failed")
		} else {
			log.WithField("duration", time.Since(start)).Info("Model call completed")
		}
		metrics.GatewayCallsTotal.WithLabelValues(string(capability), status).Inc()
		metrics.GatewayCallDuration.WithLabelValues(string(capability)).Observe(time.Since(start).Seconds())
	}()

	key := apiKey
	if key == "" {
		key = c.cfg.APIKey
	}
	if key == "" {
		return nil, apperrors.Credential(op(capability), "no model API key configured")
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("gateway: could not marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.cfg.BaseURL, url.PathEscape(model))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("gateway: could not create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", key)

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, apperrors.Transient(op(capability), err)
	}
	defer httpResp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseBytes))
	if err != nil {
		return nil, apperrors.Transient(op(capability), fmt.Errorf("read response body: %w", err))
	}
	if httpResp.StatusCode != http.StatusOK {
		return nil, mapHTTPError(capability, httpResp.StatusCode, raw)
	}

	resp = &generateResponse{}
	if err := json.Unmarshal(raw, resp); err != nil {
		return nil, apperrors.Wrap(apperrors.KindValidation, op(capability), fmt.Errorf("unmarshal response: %w", err))
	}
	if len(resp.Candidates) == 0 {
		if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
			return nil, apperrors.Validation(op(capability), "request blocked: "+resp.PromptFeedback.BlockReason)
		}
		return nil, apperrors.Validation(op(capability), "no candidates returned")
	}
	return resp, nil
}

// mapHTTPError переводит ответ API в помеченную ошибку
func mapHTTPError(capability gateway.Capability, status int, body []byte) error {
	var errResp apiErrorResponse
	_ = json.Unmarshal(body, &errResp)
	msg := errResp.Error.Message
	if msg == "" {
		msg = http.StatusText(status)
	}

	if status == http.StatusUnauthorized || status == http.StatusForbidden || isKeyError(errResp) {
		return apperrors.Credential(op(capability), msg)
	}
	switch {
	case status == http.StatusTooManyRequests, status >= 500:
		return apperrors.Transient(op(capability), fmt.Errorf("status %d: %s", status, msg))
	default:
		return apperrors.Wrap(apperrors.KindValidation, op(capability), fmt.Errorf("status %d: %s", status, msg))
	}
}

func isKeyError(resp apiErrorResponse) bool {
	for _, d := range resp.Error.Details {
		if d.Reason == "API_KEY_INVALID" {
			return true
		}
	}
	return strings.Contains(strings.ToLower(resp.Error.Message), "api key")
}

func op(capability gateway.Capability) string {
	return "gateway." + string(capability)
}


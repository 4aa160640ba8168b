// Package dispatch размещает автоматический голосовой вызов экстренному контакту:
// синтез речи, публикация аудио, вызов через телефонию.
package dispatch

import (
	"context"
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/shenikar/incident_response_system/internal/apperrors"
	"github.com/shenikar/incident_response_system/internal/dispatch/twilio"
	"github.com/shenikar/incident_response_system/internal/gateway"
	"github.com/shenikar/incident_response_system/internal/metrics"
	"github.com/shenikar/incident_response_system/internal/models"
	"github.com/shenikar/incident_response_system/internal/storage"
	"github.com/sirupsen/logrus"
)

//go:generate mockgen -source=dispatch.go -destination=mocks/mock_dispatch.go -package=mocks

const op = "dispatch"

// Сообщения проверок, в порядке проверки
const (
	MsgNoCredentials     = "Set Twilio credentials in command settings."
	MsgIncomplete        = "Twilio credentials incomplete. Configure Account SID and Auth Token in settings."
	MsgPhoneNumbersUnset = "Phone numbers missing. Set 'From Number' and 'Alert Recipient' in command settings."
)

// Caller - телефония, размещающая вызов
type Caller interface {
	CreateCall(ctx context.Context, p twilio.CallParams) (*twilio.Call, error)
}

// Dispatcher - контракт для конвейера
type Dispatcher interface {
	Dispatch(ctx context.Context, message, language string, creds *models.DispatchCredentials) (*models.DispatchResult, error)
}

type dispatcher struct {
	gateway gateway.Gateway
	host    storage.MediaHost
	caller  Caller
	logger  *logrus.Logger
}

func NewDispatcher(gw gateway.Gateway, host storage.MediaHost, caller Caller, logger *logrus.Logger) Dispatcher {
	return &dispatcher{
		gateway: gw,
		host:    host,
		caller:  caller,
		logger:  logger,
	}
}

// CheckCredentials проверяет настройки по порядку и возвращает первую проблему
func CheckCredentials(creds *models.DispatchCredentials) error {
	if creds == nil {
		return apperrors.Precondition(op, MsgNoCredentials)
	}
	if creds.AccountSID == "" || creds.AuthToken == "" {
		return apperrors.Precondition(op, MsgIncomplete)
	}
	if creds.From == "" || creds.To == "" {
		return apperrors.Precondition(op, MsgPhoneNumbersUnset)
	}
	return nil
}

// Dispatch делает не больше одной попытки вызова. Любой сбой прерывает оставшиеся шаги.
func (d *dispatcher) Dispatch(ctx context.Context, message, language string, creds *models.DispatchCredentials) (result *models.DispatchResult, err error) {
	log := d.logger.WithFields(logrus.Fields{
		"service":  "dispatch",
		"method":   "Dispatch",
		"language": language,
	})
	defer func() {
		metrics.DispatchCallsTotal.WithLabelValues(dispatchStatus(err)).Inc()
	}()

	if err := CheckCredentials(creds); err != nil {
		log.WithError(err).Warn("Dispatch preconditions not met")
		return nil, err
	}
	if strings.TrimSpace(message) == "" {
		return nil, apperrors.Validation(op, "empty dispatch message")
	}
	if language == "" {
		language = "English"
	}

	speech, err := d.gateway.SynthesizeSpeech(ctx, gateway.SpeechInput{Text: message, Language: language}, creds.ModelAPIKey())
	if err != nil {
		log.WithError(err).Error("Failed to synthesize dispatch audio")
		return nil, fmt.Errorf("dispatch: could not synthesize speech: %w", err)
	}

	audioURL, err := d.host.Upload(ctx, storage.AudioKey(), speech.WAV, "audio/wav")
	metrics.MediaUploadsTotal.WithLabelValues(d.host.Provider(), metrics.Status(err)).Inc()
	if err != nil {
		log.WithError(err).Error("Failed to upload dispatch audio")
		return nil, fmt.Errorf("dispatch: could not upload audio: %w", err)
	}

	call, err := d.caller.CreateCall(ctx, twilio.CallParams{
		AccountSID: creds.AccountSID,
		AuthToken:  creds.AuthToken,
		From:       creds.From,
		To:         creds.To,
		TwiML:      TwiML(audioURL),
	})
	if err != nil {
		log.WithError(err).Error("Failed to place dispatch call")
		return nil, fmt.Errorf("dispatch: could not place call: %w", err)
	}

	log.WithField("call_sid", call.SID).Info("Dispatch call placed")
	return &models.DispatchResult{Success: true, CallSID: call.SID, AudioURL: audioURL}, nil
}

// TwiML возвращает инструкцию проиграть аудио по URL
func TwiML(audioURL string) string {
	var b strings.Builder
	b.WriteString("<Response><Play>")
	_ = xml.EscapeText(&b, []byte(audioURL))
	b.WriteString("</Play></Response>")
	return b.String()
}

func dispatchStatus(err error) string {
	if err == nil {
		return "success"
	}
	return string(apperrors.KindOf(err))
}

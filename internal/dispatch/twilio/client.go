// Package twilio - минимальный клиент Twilio Voice REST API для исходящих вызовов.
package twilio

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shenikar/incident_response_system/internal/apperrors"
	"github.com/sirupsen/logrus"
)

const DefaultBaseURL = "https://api.twilio.com"

// CallParams - параметры исходящего вызова
type CallParams struct {
	AccountSID string
	AuthToken  string
	From       string
	To         string
	TwiML      string
}

// Call - ответ API на создание вызова
type Call struct {
	SID    string `json:"sid"`
	Status string `json:"status"`
	To     string `json:"to"`
	From   string `json:"from"`
}

type apiError struct {
	Code     int    `json:"code"`
	Message  string `json:"message"`
	MoreInfo string `json:"more_info"`
	Status   int    `json:"status"`
}

// Client создает вызовы. Учетные данные передаются на каждый вызов.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *logrus.Logger
}

func NewClient(baseURL string, timeout time.Duration, logger *logrus.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// CreateCall - POST /2010-04-01/Accounts/{sid}/Calls.json
func (c *Client) CreateCall(ctx context.Context, p CallParams) (*Call, error) {
	const op = "twilio.call"
	log := c.logger.WithFields(logrus.Fields{
		"service": "twilio",
		"method":  "CreateCall",
		"to":      p.To,
	})

	form := url.Values{}
	form.Set("To", p.To)
	form.Set("From", p.From)
	form.Set("Twiml", p.TwiML)

	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Calls.json", c.baseURL, url.PathEscape(p.AccountSID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("twilio: could not create request: %w", err)
	}
	req.SetBasicAuth(p.AccountSID, p.AuthToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.WithError(err).Error("Failed to reach telephony API")
		return nil, apperrors.Transient(op, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, apperrors.Transient(op, fmt.Errorf("read response body: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		err := mapError(op, resp.StatusCode, body)
		log.WithError(err).WithField("status", resp.StatusCode).Warn("Telephony API rejected call")
		return nil, err
	}

	var call Call
	if err := json.Unmarshal(body, &call); err != nil {
		return nil, apperrors.Transient(op, fmt.Errorf("unmarshal response: %w", err))
	}
	log.WithField("call_sid", call.SID).Info("Call created")
	return &call, nil
}

func mapError(op string, status int, body []byte) error {
	var e apiError
	_ = json.Unmarshal(body, &e)
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(status)
	}
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return apperrors.Credential(op, msg)
	case status == http.StatusTooManyRequests || status >= 500:
		return apperrors.Transient(op, fmt.Errorf("status %d: %s", status, msg))
	default:
		return apperrors.Wrap(apperrors.KindValidation, op, fmt.Errorf("status %d (code %d): %s", status, e.Code, msg))
	}
}

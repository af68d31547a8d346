package notify

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tickd/tickd/config"
	"github.com/tickd/tickd/logger"
	"go.uber.org/zap"
)

const TWILIO_BASE_URL string = "https://api.twilio.com"

// SmsSender sends a text message and returns the provider message
// sid. Unlike Mailer it raises on failure; the wrapping step decides
// the retry policy.
type SmsSender interface {
	Send(to string, body string) (string, error)
}

var _ SmsSender = new(TwilioSms)

type TwilioSms struct {
	httpClient *http.Client
	accountSid string
	authToken  string
	fromNumber string
	baseUrl    string
}

func NewTwilioSms(conf config.SmsConfig) *TwilioSms {
	baseUrl := conf.BaseUrl
	if baseUrl == "" {
		baseUrl = TWILIO_BASE_URL
	}
	return &TwilioSms{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		accountSid: conf.AccountSid,
		authToken:  conf.AuthToken,
		fromNumber: conf.FromNumber,
		baseUrl:    baseUrl,
	}
}

func (t *TwilioSms) Send(to string, body string) (string, error) {
	form := url.Values{}
	form.Set("To", to)
	form.Set("From", t.fromNumber)
	form.Set("Body", body)

	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", t.baseUrl, t.accountSid)
	req, err := http.NewRequest(http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(t.accountSid, t.authToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		logger.Error("error sending sms", zap.String("to", to), zap.Error(err))
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		logger.Error("error sending sms", zap.String("to", to), zap.Int("status", resp.StatusCode))
		return "", fmt.Errorf("sms provider returned status %d", resp.StatusCode)
	}
	var result struct {
		Sid string `json:"sid"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", err
	}
	logger.Info("sms sent", zap.String("to", to), zap.String("sid", result.Sid))
	return result.Sid, nil
}

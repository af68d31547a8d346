package notify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/tickd/tickd/config"
	"github.com/tickd/tickd/logger"
	"go.uber.org/zap"
)

const SENDGRID_BASE_URL string = "https://api.sendgrid.com"

type MailResult struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// Mailer sends a plain-text mail. Send reports failure through the
// result, never through a raised error.
type Mailer interface {
	Send(to string, subject string, body string) MailResult
}

var _ Mailer = new(SendGridMailer)

type SendGridMailer struct {
	httpClient  *http.Client
	apiKey      string
	senderEmail string
	baseUrl     string
}

func NewSendGridMailer(conf config.MailerConfig) *SendGridMailer {
	baseUrl := conf.BaseUrl
	if baseUrl == "" {
		baseUrl = SENDGRID_BASE_URL
	}
	return &SendGridMailer{
		httpClient:  &http.Client{Timeout: 15 * time.Second},
		apiKey:      conf.ApiKey,
		senderEmail: conf.SenderEmail,
		baseUrl:     baseUrl,
	}
}

type sendGridAddress struct {
	Email string `json:"email"`
}

type sendGridRequest struct {
	Personalizations []struct {
		To []sendGridAddress `json:"to"`
	} `json:"personalizations"`
	From    sendGridAddress `json:"from"`
	Subject string          `json:"subject"`
	Content []struct {
		Type  string `json:"type"`
		Value string `json:"value"`
	} `json:"content"`
}

func (m *SendGridMailer) Send(to string, subject string, body string) MailResult {
	req := sendGridRequest{
		From:    sendGridAddress{Email: m.senderEmail},
		Subject: subject,
	}
	req.Personalizations = []struct {
		To []sendGridAddress `json:"to"`
	}{{To: []sendGridAddress{{Email: to}}}}
	req.Content = []struct {
		Type  string `json:"type"`
		Value string `json:"value"`
	}{{Type: "text/plain", Value: body}}

	data, err := json.Marshal(req)
	if err != nil {
		return MailResult{Success: false, Error: err.Error()}
	}
	httpReq, err := http.NewRequest(http.MethodPost, m.baseUrl+"/v3/mail/send", bytes.NewReader(data))
	if err != nil {
		return MailResult{Success: false, Error: err.Error()}
	}
	httpReq.Header.Set("Authorization", "Bearer "+m.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")
	resp, err := m.httpClient.Do(httpReq)
	if err != nil {
		logger.Error("error sending mail", zap.String("to", to), zap.Error(err))
		return MailResult{Success: false, Error: err.Error()}
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		msg := fmt.Sprintf("mail provider returned status %d", resp.StatusCode)
		logger.Error("error sending mail", zap.String("to", to), zap.Int("status", resp.StatusCode))
		return MailResult{Success: false, Error: msg}
	}
	logger.Info("mail sent", zap.String("to", to), zap.String("subject", subject))
	return MailResult{Success: true}
}

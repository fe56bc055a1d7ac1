package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/garethbreeze1993/MCQ-Generator-AI/internal/config"
)

type Mailer interface {
	Send(ctx context.Context, msg Email) error
}

type Email struct {
	From    string
	To      []string
	Subject string
	Text    string
}

type Config struct {
	APIKey     string
	BaseURL    string
	FromEmail  string
	Timeout    time.Duration
	MaxRetries int
}

func ConfigFrom(cfg config.NotifyConfig) Config {
	return Config{
		APIKey:    cfg.SendGridKey,
		BaseURL:   cfg.SendGridBaseURL,
		FromEmail: cfg.FromEmail,
	}
}

type SendGrid struct {
	cfg        Config
	httpClient *http.Client
	backoff    time.Duration
}

func NewSendGrid(cfg Config) (*SendGrid, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("missing SENDGRID_API_KEY")
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = "https://api.sendgrid.com"
	}
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	return &SendGrid{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		backoff:    time.Second,
	}, nil
}

type address struct {
	Email string `json:"email"`
}

type personalization struct {
	To []address `json:"to"`
}

type content struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type mailSendRequest struct {
	Personalizations []personalization `json:"personalizations"`
	From             address           `json:"from"`
	Subject          string            `json:"subject"`
	Content          []content         `json:"content"`
}

func (s *SendGrid) Send(ctx context.Context, msg Email) error {
	from := strings.TrimSpace(msg.From)
	if from == "" {
		from = s.cfg.FromEmail
	}
	if from == "" {
		return fmt.Errorf("sendgrid: from address required")
	}
	if len(msg.To) == 0 {
		return fmt.Errorf("sendgrid: at least one recipient required")
	}
	if strings.TrimSpace(msg.Subject) == "" {
		return fmt.Errorf("sendgrid: subject required")
	}

	to := make([]address, 0, len(msg.To))
	for _, addr := range msg.To {
		to = append(to, address{Email: strings.TrimSpace(addr)})
	}

	return s.do(ctx, mailSendRequest{
		Personalizations: []personalization{{To: to}},
		From:             address{Email: from},
		Subject:          strings.TrimSpace(msg.Subject),
		Content:          []content{{Type: "text/plain", Value: msg.Text}},
	})
}

type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	msg := strings.TrimSpace(e.Body)
	if msg == "" {
		msg = "<empty body>"
	}
	return fmt.Sprintf("sendgrid http %d: %s", e.StatusCode, msg)
}

func (e *HTTPError) retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

func (s *SendGrid) do(ctx context.Context, body mailSendRequest) error {
	backoff := s.backoff
	for attempt := 0; ; attempt++ {
		err := s.doOnce(ctx, body)
		if err == nil {
			return nil
		}

		var httpErr *HTTPError
		if (errors.As(err, &httpErr) && !httpErr.retryable()) || attempt >= s.cfg.MaxRetries {
			return err
		}

		slog.Warn("sendgrid request retrying", "attempt", attempt+1, "max_retries", s.cfg.MaxRetries, "error", err)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}
}

func (s *SendGrid) doOnce(ctx context.Context, body mailSendRequest) error {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return fmt.Errorf("encode mail: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.BaseURL+"/v3/mail/send", &buf)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &HTTPError{StatusCode: resp.StatusCode, Body: string(raw)}
	}
	return nil
}

// LogMailer writes messages to the log instead of sending them. Used when no
// SendGrid key is configured.
type LogMailer struct{}

func (LogMailer) Send(ctx context.Context, msg Email) error {
	slog.Info("email not sent, no mail provider configured", "to", msg.To, "subject", msg.Subject, "body", msg.Text)
	return nil
}

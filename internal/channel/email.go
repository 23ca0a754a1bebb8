package channel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultSendGridBase = "https://api.sendgrid.com"

// EmailMessage is the rendered input to the email sender.
type EmailMessage struct {
	To      string
	Subject string
	HTML    string
	Text    string
}

// EmailSender delivers email through the SendGrid v3 mail/send API. It is a
// non-throwing boundary: Send always yields an Outcome, even for network
// errors or malformed-address rejections.
type EmailSender struct {
	apiKey   string
	from     string
	fromName string
	apiBase  string
	client   *http.Client
}

// NewEmailSender constructs a sender with explicitly-owned provider
// configuration. No process-wide client state is involved.
func NewEmailSender(apiKey, from, fromName string) *EmailSender {
	return &EmailSender{
		apiKey:   apiKey,
		from:     from,
		fromName: fromName,
		apiBase:  defaultSendGridBase,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

// SetAPIBase points the sender at an alternate endpoint (tests).
func (s *EmailSender) SetAPIBase(base string) {
	s.apiBase = strings.TrimRight(base, "/")
}

// Send posts one message to the provider and reports the outcome.
func (s *EmailSender) Send(ctx context.Context, msg EmailMessage) Outcome {
	text := msg.Text
	if text == "" {
		text = msg.Subject
	}
	payload := map[string]any{
		"personalizations": []map[string]any{
			{"to": []map[string]string{{"email": msg.To}}},
		},
		"from":    map[string]string{"email": s.from, "name": s.fromName},
		"subject": msg.Subject,
		"content": []map[string]string{
			{"type": "text/plain", "value": text},
			{"type": "text/html", "value": msg.HTML},
		},
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return Failed(Email, fmt.Errorf("encode request: %w", err))
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.apiBase+"/v3/mail/send", bytes.NewReader(b))
	if err != nil {
		return Failed(Email, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return Failed(Email, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return Failed(Email, fmt.Errorf("sendgrid returned status %d: %s", resp.StatusCode, readErrorBody(resp.Body)))
	}
	return Sent(Email, resp.Header.Get("X-Message-Id"))
}

// readErrorBody extracts a short error detail from a provider response body.
func readErrorBody(r io.Reader) string {
	b, err := io.ReadAll(io.LimitReader(r, 512))
	if err != nil || len(b) == 0 {
		return "no detail"
	}
	return strings.TrimSpace(string(b))
}

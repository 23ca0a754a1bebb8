package channel

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultTwilioBase = "https://api.twilio.com"

// SMSSender delivers short messages through the Twilio Messages API. Like the
// email sender it never returns an error; every attempt yields an Outcome.
// The dispatcher guarantees it is never invoked without a destination number.
type SMSSender struct {
	accountSID string
	authToken  string
	from       string
	apiBase    string
	client     *http.Client
}

// NewSMSSender constructs a sender with injected provider credentials.
func NewSMSSender(accountSID, authToken, from string) *SMSSender {
	return &SMSSender{
		accountSID: accountSID,
		authToken:  authToken,
		from:       from,
		apiBase:    defaultTwilioBase,
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

// SetAPIBase points the sender at an alternate endpoint (tests).
func (s *SMSSender) SetAPIBase(base string) {
	s.apiBase = strings.TrimRight(base, "/")
}

// Send posts one message to the provider and reports the outcome. The
// provider message SID is carried in the outcome detail on success.
func (s *SMSSender) Send(ctx context.Context, to, body string) Outcome {
	form := url.Values{}
	form.Set("To", to)
	form.Set("From", s.from)
	form.Set("Body", body)

	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", s.apiBase, s.accountSID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return Failed(SMS, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(s.accountSID, s.authToken)

	resp, err := s.client.Do(req)
	if err != nil {
		return Failed(SMS, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var apiErr struct {
			Message string `json:"message"`
		}
		if decodeErr := json.NewDecoder(resp.Body).Decode(&apiErr); decodeErr == nil && apiErr.Message != "" {
			return Failed(SMS, fmt.Errorf("twilio returned status %d: %s", resp.StatusCode, apiErr.Message))
		}
		return Failed(SMS, fmt.Errorf("twilio returned status %d", resp.StatusCode))
	}

	var created struct {
		SID string `json:"sid"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		// Accepted by the provider; only the SID extraction failed.
		return Sent(SMS, "")
	}
	return Sent(SMS, created.SID)
}

// Package source provides the event and attendee boundary the scheduler scans.
// The canonical implementation talks to the core events API; an in-memory
// implementation backs tests and local runs without that API.
package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/balkirat0001/eventcraft2/internal/intent"
	"github.com/balkirat0001/eventcraft2/internal/scheduler"
)

// HTTP reads published events and registrations from the core events API.
type HTTP struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewHTTP builds a source against the events API at baseURL. token may be
// empty when the API does not require service auth.
func NewHTTP(baseURL, token string) *HTTP {
	return &HTTP{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

// UpcomingPublished lists published events starting in [from, until).
func (s *HTTP) UpcomingPublished(ctx context.Context, from, until time.Time) ([]scheduler.Event, error) {
	q := url.Values{}
	q.Set("status", "published")
	q.Set("from", from.UTC().Format(time.RFC3339))
	q.Set("until", until.UTC().Format(time.RFC3339))

	var events []scheduler.Event
	if err := s.getJSON(ctx, s.baseURL+"/api/events?"+q.Encode(), &events); err != nil {
		return nil, fmt.Errorf("listing upcoming events: %w", err)
	}
	return events, nil
}

// Attendees lists the registered recipients for an event.
func (s *HTTP) Attendees(ctx context.Context, eventID string) ([]intent.Recipient, error) {
	var attendees []intent.Recipient
	u := s.baseURL + "/api/events/" + url.PathEscape(eventID) + "/attendees"
	if err := s.getJSON(ctx, u, &attendees); err != nil {
		return nil, fmt.Errorf("listing attendees for %s: %w", eventID, err)
	}
	return attendees, nil
}

func (s *HTTP) getJSON(ctx context.Context, u string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("events api returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

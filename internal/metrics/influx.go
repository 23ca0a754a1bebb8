package metrics

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/balkirat0001/eventcraft2/internal/logging"
)

// StartInfluxPusher starts a background loop that pushes the metrics snapshot
// to InfluxDB using the line protocol.
func StartInfluxPusher(ctx context.Context, url, token, org, bucket string, interval time.Duration) {
	if url == "" || bucket == "" {
		return
	}
	logging.Get().Info().Str("url", url).Dur("interval", interval).Msg("starting influxdb pusher")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	client := &http.Client{Timeout: 5 * time.Second}
	writeURL := fmt.Sprintf("%s/api/v2/write?org=%s&bucket=%s&precision=s", strings.TrimRight(url, "/"), org, bucket)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pushToInflux(client, writeURL, token)
		}
	}
}

func pushToInflux(client *http.Client, url, token string) {
	s := GetSnapshot()

	line := fmt.Sprintf(
		"notifyd dispatches=%di,channel_sent=%di,channel_skipped=%di,channel_failed=%di,reminders_fired=%di,scan_errors=%di,hub_sessions=%di,hub_dropped=%di,last_scan=%di %d",
		s.Dispatches, s.ChannelSent, s.ChannelSkipped, s.ChannelFailed, s.RemindersFired, s.ScanErrors, s.HubSessions, s.HubDropped, s.LastScan, time.Now().Unix(),
	)

	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader([]byte(line)))
	if err != nil {
		logging.Get().Error().Err(err).Msg("influxdb request creation failed")
		return
	}
	req.Header.Set("Authorization", "Token "+token)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")

	resp, err := client.Do(req)
	if err != nil {
		logging.Get().Error().Err(err).Msg("influxdb push failed")
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		logging.Get().Warn().Int("status", resp.StatusCode).Msg("influxdb rejected metrics")
	}
}

package history

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"

	"github.com/balkirat0001/eventcraft2/internal/channel"
	"github.com/balkirat0001/eventcraft2/internal/logging"
)

const historyKey = "notifyd:dispatch_history"

// Redis keeps the recent-results list in a Redis list so history survives
// restarts and is shared across replicas.
type Redis struct {
	client *redis.Client
	cap    int64
}

// NewRedis builds a Redis-backed history capped at capacity entries.
func NewRedis(client *redis.Client, capacity int) *Redis {
	if capacity < 1 {
		capacity = 1
	}
	return &Redis{client: client, cap: int64(capacity)}
}

// Record pushes the result and trims the list to capacity. Storage errors are
// logged and swallowed so a Redis outage never fails a dispatch.
func (r *Redis) Record(ctx context.Context, result channel.DispatchResult) {
	data, err := json.Marshal(result)
	if err != nil {
		logging.Get().Error().Err(err).Str("intent", result.IntentID).Msg("failed encoding dispatch result")
		return
	}
	pipe := r.client.Pipeline()
	pipe.LPush(ctx, historyKey, data)
	pipe.LTrim(ctx, historyKey, 0, r.cap-1)
	if _, err := pipe.Exec(ctx); err != nil {
		logging.Get().Warn().Err(err).Str("intent", result.IntentID).Msg("failed recording dispatch history")
	}
}

// Recent returns up to n results, newest first.
func (r *Redis) Recent(ctx context.Context, n int) ([]channel.DispatchResult, error) {
	if n <= 0 || int64(n) > r.cap {
		n = int(r.cap)
	}
	raw, err := r.client.LRange(ctx, historyKey, 0, int64(n)-1).Result()
	if err != nil {
		return nil, err
	}
	out := make([]channel.DispatchResult, 0, len(raw))
	for _, item := range raw {
		var res channel.DispatchResult
		if err := json.Unmarshal([]byte(item), &res); err != nil {
			logging.Get().Warn().Err(err).Msg("skipping malformed history entry")
			continue
		}
		out = append(out, res)
	}
	return out, nil
}

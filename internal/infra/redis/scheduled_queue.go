package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"

	"ai-video-orchestrator/internal/domain/model"
	"ai-video-orchestrator/internal/domain/ports/repository"
	"ai-video-orchestrator/internal/infra/metrics"
)

var _ repository.ScheduledUploadQueue = (*ScheduledQueue)(nil)

// ScheduledQueue keeps waiting items as JSON in a Redis list, front = oldest.
type ScheduledQueue struct {
	cli *redis.Client
	key string
	log *zerolog.Logger
}

func NewScheduledQueue(c *Client, key string, logger *zerolog.Logger) *ScheduledQueue {
	if key == "" {
		key = "scheduled_uploads"
	}
	l := logger.With().Str("component", "redis_scheduled_queue").Logger()
	return &ScheduledQueue{cli: c.cli, key: key, log: &l}
}

// luaDrain reads and clears the list in one step so a concurrent RPUSH is either
// returned now or left for the next drain.
var luaDrain = redis.NewScript(`
local items = redis.call("LRANGE", KEYS[1], 0, -1)
redis.call("DEL", KEYS[1])
return items`)

func (q *ScheduledQueue) Enqueue(ctx context.Context, item *model.ScheduledUploadItem) error {
	data, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("encode scheduled upload %s: %w", item.ID, err)
	}
	err = q.cli.RPush(ctx, q.key, data).Err()
	metrics.IncStoreOp("redis", "enqueue", err)
	return err
}

func (q *ScheduledQueue) DrainAll(ctx context.Context) ([]*model.ScheduledUploadItem, error) {
	raw, err := luaDrain.Run(ctx, q.cli, []string{q.key}).StringSlice()
	if err == redis.Nil {
		err = nil
	}
	metrics.IncStoreOp("redis", "drain", err)
	if err != nil {
		return nil, err
	}
	return q.decode(raw), nil
}

func (q *ScheduledQueue) List(ctx context.Context) ([]*model.ScheduledUploadItem, error) {
	raw, err := q.cli.LRange(ctx, q.key, 0, -1).Result()
	if err != nil {
		return nil, err
	}
	return q.decode(raw), nil
}

func (q *ScheduledQueue) Count(ctx context.Context) (int, error) {
	n, err := q.cli.LLen(ctx, q.key).Result()
	return int(n), err
}

// decode skips entries that no longer parse; they are logged with their raw payload.
func (q *ScheduledQueue) decode(raw []string) []*model.ScheduledUploadItem {
	out := make([]*model.ScheduledUploadItem, 0, len(raw))
	for _, s := range raw {
		var it model.ScheduledUploadItem
		if err := json.Unmarshal([]byte(s), &it); err != nil {
			q.log.Error().Err(err).Str("payload", s).Msg("undecodable scheduled upload dropped")
			continue
		}
		out = append(out, &it)
	}
	return out
}

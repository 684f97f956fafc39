package workers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strconv"

	"match-ticket-system/models"
	"match-ticket-system/monitoring"

	"github.com/redis/go-redis/v9"
)

// AvailabilityKey is the redis hash holding match id -> tickets left.
const AvailabilityKey = "match:availability"

// ErrAvailabilityMiss means the hash is absent. Redis drops empty hashes,
// so an empty read cannot be told apart from a missing one.
var ErrAvailabilityMiss = errors.New("availability cache empty")

// lowerOnlySrc writes each field only when it lowers the stored value.
// Availability never grows, so a publish that lost a race against a newer
// commit cannot overwrite the smaller count.
const lowerOnlySrc = `
for i = 1, #ARGV, 2 do
  local cur = redis.call('HGET', KEYS[1], ARGV[i])
  if (not cur) or tonumber(ARGV[i + 1]) < tonumber(cur) then
    redis.call('HSET', KEYS[1], ARGV[i], ARGV[i + 1])
  end
end
return 0
`

var lowerOnly = redis.NewScript(lowerOnlySrc)

// AvailabilityCache mirrors remaining tickets into redis and the
// match_available_tickets gauge. A nil cache or nil client only updates the gauge.
type AvailabilityCache struct {
	Redis *redis.Client
}

func NewAvailabilityCache(rdb *redis.Client) *AvailabilityCache {
	return &AvailabilityCache{Redis: rdb}
}

// Publish records the current availability of matches. Redis failures are logged, not returned.
// A stored value is only ever lowered; Replace is the one way to reset it.
func (c *AvailabilityCache) Publish(ctx context.Context, matches ...*models.Match) {
	if len(matches) == 0 {
		return
	}
	fields := make([]interface{}, 0, 2*len(matches))
	for _, m := range matches {
		monitoring.SetMatchAvailability(m.ID, m.AvailableTickets)
		fields = append(fields, matchField(m.ID), m.AvailableTickets)
	}
	if c == nil || c.Redis == nil {
		return
	}
	if err := lowerOnly.Eval(ctx, c.Redis, []string{AvailabilityKey}, fields...).Err(); err != nil {
		log.Printf("[Availability] failed to publish %d matches: %v", len(matches), err)
	}
}

func (c *AvailabilityCache) Forget(ctx context.Context, matchID uint) {
	monitoring.ForgetMatch(matchID)
	if c == nil || c.Redis == nil {
		return
	}
	if err := c.Redis.HDel(ctx, AvailabilityKey, matchField(matchID)).Err(); err != nil {
		log.Printf("[Availability] failed to forget match %d: %v", matchID, err)
	}
}

// Snapshot reads the whole hash back. A missing hash is ErrAvailabilityMiss.
func (c *AvailabilityCache) Snapshot(ctx context.Context) (map[uint]int, error) {
	if c == nil || c.Redis == nil {
		return nil, fmt.Errorf("availability cache not configured")
	}
	raw, err := c.Redis.HGetAll(ctx, AvailabilityKey).Result()
	if err != nil {
		return nil, fmt.Errorf("read availability: %w", err)
	}
	if len(raw) == 0 {
		return nil, ErrAvailabilityMiss
	}
	out := make(map[uint]int, len(raw))
	for field, value := range raw {
		id, err := strconv.ParseUint(field, 10, 64)
		if err != nil {
			continue
		}
		n, err := strconv.Atoi(value)
		if err != nil {
			continue
		}
		out[uint(id)] = n
	}
	return out, nil
}

// Replace swaps the hash for exactly the given availability in one MULTI block,
// so deleted matches drop out.
func (c *AvailabilityCache) Replace(ctx context.Context, availability map[uint]int) error {
	ids := make([]uint, 0, len(availability))
	for id := range availability {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	fields := make([]interface{}, 0, 2*len(ids))
	for _, id := range ids {
		monitoring.SetMatchAvailability(id, availability[id])
		fields = append(fields, matchField(id), availability[id])
	}
	if c == nil || c.Redis == nil {
		return nil
	}

	_, err := c.Redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, AvailabilityKey)
		if len(fields) > 0 {
			pipe.HSet(ctx, AvailabilityKey, fields...)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("replace availability: %w", err)
	}
	return nil
}

func matchField(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

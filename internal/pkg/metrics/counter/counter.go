package counter

import (
	"context"
	"sort"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"
)

const webhookOutcomesKey = "webhook:counters:outcomes"

// WebhookCounter tallies webhook outcomes per event type in a Redis hash so
// every instance contributes to the same totals.
type WebhookCounter struct {
	rdb *redis.Client
}

func NewWebhookCounter(rdb *redis.Client) *WebhookCounter {
	return &WebhookCounter{rdb: rdb}
}

// Add increments the counter for eventType and outcome.
func (c *WebhookCounter) Add(ctx context.Context, eventType, outcome string) error {
	return c.rdb.HIncrBy(ctx, webhookOutcomesKey, field(eventType, outcome), 1).Err()
}

// OutcomeCount is one row of Snapshot.
type OutcomeCount struct {
	EventType string `json:"event_type"`
	Outcome   string `json:"outcome"`
	Count     int64  `json:"count"`
}

// Snapshot returns all counters sorted by event type, then outcome.
func (c *WebhookCounter) Snapshot(ctx context.Context) ([]OutcomeCount, error) {
	data, err := c.rdb.HGetAll(ctx, webhookOutcomesKey).Result()
	if err != nil {
		return nil, err
	}

	counts := make([]OutcomeCount, 0, len(data))
	for k, v := range data {
		eventType, outcome, ok := strings.Cut(k, "|")
		if !ok {
			continue
		}
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			continue
		}
		counts = append(counts, OutcomeCount{EventType: eventType, Outcome: outcome, Count: n})
	}
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].EventType != counts[j].EventType {
			return counts[i].EventType < counts[j].EventType
		}
		return counts[i].Outcome < counts[j].Outcome
	})
	return counts, nil
}

func field(eventType, outcome string) string {
	eventType = strings.ReplaceAll(strings.TrimSpace(eventType), "|", "_")
	if eventType == "" {
		eventType = "unknown"
	}
	return eventType + "|" + outcome
}

package records

import (
	"context"
	"encoding/json"

	"github.com/go-redis/redis"

	"ticketmister-backend/logger"
)

const (
	journalKey = "ticketmister:records"
	channel    = "ticketmister:records:live"
)

// RedisSink appends every record to a redis list journal and publishes
// it on a channel for live observers. Failures are logged and dropped;
// the journal is an observer, not a source of truth.
type RedisSink struct {
	ctx    context.Context
	client *redis.Client
}

func NewRedisSink(ctx context.Context, client *redis.Client) *RedisSink {
	return &RedisSink{ctx: ctx, client: client}
}

func (s *RedisSink) Publish(records ...Record) {
	for _, r := range records {
		payload, err := marshalRecord(r)
		if err != nil {
			logger.Errorf(s.ctx, "redisSink: unable to marshal %s record: %+v", r.Kind(), err)
			continue
		}
		if err := s.client.RPush(journalKey, payload).Err(); err != nil {
			logger.Errorf(s.ctx, "redisSink: unable to append %s record to journal: %+v", r.Kind(), err)
			continue
		}
		if err := s.client.Publish(channel, payload).Err(); err != nil {
			logger.Errorf(s.ctx, "redisSink: unable to publish %s record: %+v", r.Kind(), err)
		}
	}
}

type envelope struct {
	Kind   string `json:"kind"`
	Record Record `json:"record"`
}

func marshalRecord(r Record) ([]byte, error) {
	return json.Marshal(envelope{Kind: r.Kind(), Record: r})
}

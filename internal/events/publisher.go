// Package events publishes swipe failures to a Redis channel so that other
// processes can observe and replay them.
package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spigell/jobswipe/internal/logger"
	"github.com/spigell/jobswipe/internal/swipe"
)

const (
	DefaultChannel  = "EVENT_SWIPE_FAILED"
	TypeSwipeFailed = "EVENT_SWIPE_FAILED"
)

type publisher interface {
	Publish(ctx context.Context, channel string, message any) *redis.IntCmd
}

// Event is the JSON payload sent on the channel.
type Event struct {
	Type string `json:"type"`
	swipe.Failure
}

// Publisher is a swipe.FailureSink backed by Redis PUBLISH.
type Publisher struct {
	rdb     publisher
	channel string
	logger  *zap.Logger
}

func NewPublisher(rdb publisher, channel string, log *zap.Logger) *Publisher {
	if channel == "" {
		channel = DefaultChannel
	}
	return &Publisher{
		rdb:     rdb,
		channel: channel,
		logger:  logger.WithFields(log, zap.String("component", "events"), zap.String("channel", channel)),
	}
}

func (p *Publisher) Report(ctx context.Context, f swipe.Failure) error {
	payload, err := json.Marshal(Event{Type: TypeSwipeFailed, Failure: f})
	if err != nil {
		return fmt.Errorf("marshal swipe failure: %w", err)
	}

	receivers, err := p.rdb.Publish(ctx, p.channel, payload).Result()
	if err != nil {
		return fmt.Errorf("publish %s: %w", p.channel, err)
	}

	p.logger.Debug("swipe failure published",
		append(logger.UserFields(f.UserID, f.JobID), zap.Int64("receivers", receivers))...,
	)
	return nil
}

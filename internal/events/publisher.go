package events

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Publisher broadcasts recorded-evaluation events locally and, when a redis
// stream or NATS subject is configured, across nodes. Either backend may be
// nil; the in-process broker always works.
type Publisher struct {
	broker      *Broker
	redis       *redis.Client
	redisStream string
	nats        *nats.Conn
	natsSubject string
	logger      zerolog.Logger
	nodeID      string
}

// NewPublisher constructs a publisher. channelBase names the shared channel,
// e.g. "evalia:prod" becomes redis stream "evalia:prod:results" and NATS
// subject "evalia.prod.results".
func NewPublisher(broker *Broker, redisClient *redis.Client, natsConn *nats.Conn, channelBase string, logger zerolog.Logger) *Publisher {
	stream := ""
	subject := ""
	if channelBase != "" {
		stream = channelBase + ":results"
		subject = strings.ReplaceAll(channelBase, ":", ".") + ".results"
	}

	return &Publisher{
		broker:      broker,
		redis:       redisClient,
		redisStream: stream,
		nats:        natsConn,
		natsSubject: subject,
		logger:      logger.With().Str("component", "events_publisher").Logger(),
		nodeID:      uuid.NewString(),
	}
}

// Start launches the cross-node consumers. Events published by this node
// are recognized by Source and not re-broadcast.
func (p *Publisher) Start(ctx context.Context) {
	if p.redis != nil && p.redisStream != "" {
		go p.consumeRedis(ctx)
	}
	if p.nats != nil && p.natsSubject != "" {
		go p.consumeNATS(ctx)
	}
}

// Publish fans the event out. Local delivery always happens; backend
// failures are reported to the caller for logging but never affect the
// recorded evaluation.
func (p *Publisher) Publish(ctx context.Context, event Event) error {
	event.Source = p.nodeID
	if event.SentAt.IsZero() {
		event.SentAt = time.Now().UTC()
	}

	p.broker.Broadcast(event)

	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	if p.redis != nil && p.redisStream != "" {
		if err := p.redis.XAdd(ctx, &redis.XAddArgs{
			Stream: p.redisStream,
			MaxLen: 1024,
			Approx: true,
			Values: map[string]interface{}{"event": payload},
		}).Err(); err != nil {
			return err
		}
	}

	if p.nats != nil && p.natsSubject != "" {
		if err := p.nats.Publish(p.natsSubject, payload); err != nil {
			return err
		}
	}

	return nil
}

// Subscribe exposes the in-process broker for read-side consumers.
func (p *Publisher) Subscribe(targetType string, targetID uint) (<-chan Event, func()) {
	return p.broker.Subscribe(TargetKey(targetType, targetID))
}

func (p *Publisher) consumeRedis(ctx context.Context) {
	lastID := "$"
	for {
		if ctx.Err() != nil {
			return
		}

		streams, err := p.redis.XRead(ctx, &redis.XReadArgs{
			Streams: []string{p.redisStream, lastID},
			Block:   5 * time.Second,
			Count:   64,
		}).Result()
		if err != nil {
			if err == redis.Nil || ctx.Err() != nil {
				continue
			}
			p.logger.Warn().Err(err).Msg("redis stream read failed")
			time.Sleep(time.Second)
			continue
		}

		for _, stream := range streams {
			for _, message := range stream.Messages {
				lastID = message.ID
				raw, ok := message.Values["event"].(string)
				if !ok {
					continue
				}
				p.rebroadcast([]byte(raw))
			}
		}
	}
}

func (p *Publisher) consumeNATS(ctx context.Context) {
	sub, err := p.nats.Subscribe(p.natsSubject, func(msg *nats.Msg) {
		p.rebroadcast(msg.Data)
	})
	if err != nil {
		p.logger.Warn().Err(err).Msg("nats subscribe failed")
		return
	}

	<-ctx.Done()
	if err := sub.Unsubscribe(); err != nil {
		p.logger.Debug().Err(err).Msg("nats unsubscribe failed")
	}
}

func (p *Publisher) rebroadcast(payload []byte) {
	var event Event
	if err := json.Unmarshal(payload, &event); err != nil {
		p.logger.Debug().Err(err).Msg("failed to decode result event")
		return
	}
	if event.Source == p.nodeID {
		return
	}
	p.broker.Broadcast(event)
}

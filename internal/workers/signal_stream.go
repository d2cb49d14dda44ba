package workers

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/open-builders/giveaway-bot/internal/common/logger"
	"github.com/open-builders/giveaway-bot/internal/metrics"
)

// Signal actions carried in the "action" field of a stream entry.
const (
	ActionAdded   = "added"
	ActionRemoved = "removed"
)

const (
	readBlock    = 5 * time.Second
	readCount    = 16
	errorBackoff = time.Second
	streamMaxLen = 100_000
)

// ParticipantHandler applies a participant signal.
type ParticipantHandler interface {
	Join(ctx context.Context, messageID, userID string) (bool, error)
	Leave(ctx context.Context, messageID, userID string) (bool, error)
}

// StreamConfig names the stream and the consumer identity.
type StreamConfig struct {
	Stream   string
	Group    string
	Consumer string
}

// SignalPublisher appends participant signals to the stream.
type SignalPublisher struct {
	rdb    *redis.Client
	stream string
}

func NewSignalPublisher(rdb *redis.Client, stream string) *SignalPublisher {
	return &SignalPublisher{rdb: rdb, stream: stream}
}

func (p *SignalPublisher) Publish(ctx context.Context, messageID, userID, action string) error {
	return p.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		MaxLen: streamMaxLen,
		Approx: true,
		Values: map[string]interface{}{
			"message_id": messageID,
			"user_id":    userID,
			"action":     action,
		},
	}).Err()
}

// SignalStreamWorker consumes participant signals from a Redis stream
// through a consumer group and applies them in order.
type SignalStreamWorker struct {
	rdb     *redis.Client
	cfg     StreamConfig
	handler ParticipantHandler
	metrics *metrics.Metrics
	log     zerolog.Logger
}

func NewSignalStreamWorker(rdb *redis.Client, cfg StreamConfig, handler ParticipantHandler, m *metrics.Metrics) *SignalStreamWorker {
	return &SignalStreamWorker{
		rdb:     rdb,
		cfg:     cfg,
		handler: handler,
		metrics: m,
		log:     logger.Component("signals"),
	}
}

// Start blocks until ctx is done. Entries left unacknowledged by a previous
// run of this consumer are replayed first. A failed entry stops the batch and
// is retried from the pending list, ahead of anything newer, until it is
// applied.
func (w *SignalStreamWorker) Start(ctx context.Context) {
	err := w.rdb.XGroupCreateMkStream(ctx, w.cfg.Stream, w.cfg.Group, "0").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		w.log.Error().Err(err).Str("stream", w.cfg.Stream).Msg("Error creating consumer group")
	}

	w.log.Info().Str("stream", w.cfg.Stream).Str("group", w.cfg.Group).Msg("Starting signal stream worker")
	backlog := !w.drainPending(ctx)

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping signal stream worker")
			return
		default:
		}

		if backlog {
			sleep(ctx, errorBackoff)
			backlog = !w.drainPending(ctx)
			continue
		}

		streams, err := w.rdb.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    w.cfg.Group,
			Consumer: w.cfg.Consumer,
			Streams:  []string{w.cfg.Stream, ">"},
			Count:    readCount,
			Block:    readBlock,
		}).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) || ctx.Err() != nil {
				continue
			}
			w.log.Error().Err(err).Msg("Error reading from stream")
			sleep(ctx, errorBackoff)
			continue
		}
		backlog = !w.processStreams(ctx, streams)
	}
}

// drainPending replays this consumer's pending entries in id order and
// reports whether none are left.
func (w *SignalStreamWorker) drainPending(ctx context.Context) bool {
	for ctx.Err() == nil {
		streams, err := w.rdb.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    w.cfg.Group,
			Consumer: w.cfg.Consumer,
			Streams:  []string{w.cfg.Stream, "0"},
			Count:    readCount,
		}).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return true
			}
			w.log.Error().Err(err).Msg("Error reading pending signals")
			return false
		}
		if len(streams) == 0 || len(streams[0].Messages) == 0 {
			return true
		}
		if !w.processStreams(ctx, streams) {
			return false
		}
	}
	return false
}

// processStreams handles entries in order and stops at the first one that
// is not acked, so later signals for the same user cannot overtake it.
func (w *SignalStreamWorker) processStreams(ctx context.Context, streams []redis.XStream) bool {
	for _, stream := range streams {
		for _, msg := range stream.Messages {
			if !w.processMessage(ctx, msg.Values) {
				return false
			}
			if err := w.rdb.XAck(ctx, w.cfg.Stream, w.cfg.Group, msg.ID).Err(); err != nil {
				w.log.Error().Err(err).Str("entry_id", msg.ID).Msg("Failed to ack signal")
				return false
			}
		}
	}
	return true
}

// processMessage returns false when the entry should stay pending for a retry.
func (w *SignalStreamWorker) processMessage(ctx context.Context, values map[string]interface{}) bool {
	messageID, _ := values["message_id"].(string)
	userID, _ := values["user_id"].(string)
	action, _ := values["action"].(string)
	if messageID == "" || userID == "" {
		w.log.Warn().Interface("values", values).Msg("Dropping malformed signal")
		w.metrics.ObserveSignal(action, "malformed")
		return true
	}

	var (
		changed bool
		err     error
	)
	switch action {
	case ActionAdded:
		changed, err = w.handler.Join(ctx, messageID, userID)
	case ActionRemoved:
		changed, err = w.handler.Leave(ctx, messageID, userID)
	default:
		w.log.Warn().Str("action", action).Msg("Dropping signal with unknown action")
		w.metrics.ObserveSignal(action, "malformed")
		return true
	}

	if err != nil {
		w.log.Error().
			Err(err).
			Str("message_id", messageID).
			Str("user_id", userID).
			Str("action", action).
			Msg("Failed to apply signal")
		w.metrics.ObserveSignal(action, "error")
		return false
	}

	result := "noop"
	if changed {
		result = "applied"
	}
	w.metrics.ObserveSignal(action, result)
	return true
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

package queue

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/vibast-solutions/ms-go-mailings/app/service"
)

// Dispatcher runs one occurrence of a mailing.
type Dispatcher interface {
	Dispatch(ctx context.Context, mailingID int64, occurrence time.Time) (service.DispatchResult, error)
}

type DispatchConsumer struct {
	client       *redis.Client
	dispatcher   Dispatcher
	consumerName string
	logger       logrus.FieldLogger
}

// NewDispatchConsumer constructs a Redis stream consumer.
func NewDispatchConsumer(client *redis.Client, dispatcher Dispatcher, consumerName string, logger logrus.FieldLogger) *DispatchConsumer {
	return &DispatchConsumer{
		client:       client,
		dispatcher:   dispatcher,
		consumerName: consumerName,
		logger:       logger.WithField("consumer", consumerName),
	}
}

// Run starts the consumer loop and blocks until context cancellation.
func (c *DispatchConsumer) Run(ctx context.Context) error {
	if err := c.ensureGroup(ctx); err != nil {
		return err
	}

	c.logger.Infof("consumer started on stream %s", StreamName)

	// First drain pending messages, then switch to reading new ones.
	startID := "0"
	for {
		select {
		case <-ctx.Done():
			c.logger.Info("consumer shutting down")
			return nil
		default:
		}

		streams, err := c.client.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    ConsumerGroup,
			Consumer: c.consumerName,
			Streams:  []string{StreamName, startID},
			Count:    1,
			Block:    5 * time.Second,
		}).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				if startID == "0" {
					startID = ">"
				}
				continue
			}
			if ctx.Err() != nil {
				c.logger.Info("consumer shutting down")
				return nil
			}
			c.logger.WithError(err).Error("XReadGroup failed")
			time.Sleep(time.Second)
			continue
		}

		for _, stream := range streams {
			if len(stream.Messages) == 0 && startID == "0" {
				// No more pending messages, switch to reading new.
				startID = ">"
				continue
			}
			for _, msg := range stream.Messages {
				c.processMessage(ctx, msg)
			}
		}
	}
}

// processMessage dispatches one occurrence. The message is acked when the
// occurrence was handled here or elsewhere, and stays pending otherwise.
func (c *DispatchConsumer) processMessage(ctx context.Context, msg redis.XMessage) {
	log := c.logger.WithField("message_id", msg.ID)

	dm, err := parseDispatchMessage(msg.Values)
	if err != nil {
		log.WithError(err).Error("dropping malformed message")
		c.ack(ctx, msg.ID)
		return
	}
	log = log.WithField("mailing_id", dm.MailingID)

	res, err := c.dispatcher.Dispatch(ctx, dm.MailingID, dm.Occurrence)
	switch {
	case errors.Is(err, service.ErrNotClaimed):
		log.Debug("occurrence not claimed, acking")
	case err != nil:
		log.WithError(err).Warn("dispatch failed, message stays pending")
		return
	default:
		log.WithField("status", res.Status).Info("occurrence handled")
	}

	c.ack(ctx, msg.ID)
}

func (c *DispatchConsumer) ack(ctx context.Context, id string) {
	if err := c.client.XAck(ctx, StreamName, ConsumerGroup, id).Err(); err != nil {
		c.logger.WithError(err).Errorf("XAck failed for message %s", id)
	}
}

// ensureGroup creates the stream and consumer group if missing.
func (c *DispatchConsumer) ensureGroup(ctx context.Context) error {
	err := c.client.XGroupCreateMkStream(ctx, StreamName, ConsumerGroup, "0").Err()
	if err != nil && err.Error() != "BUSYGROUP Consumer Group name already exists" {
		return err
	}
	return nil
}

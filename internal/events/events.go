// Package events defines the message lifecycle events published to the broker.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/messagely/apiserver/internal/logger"
	"github.com/messagely/apiserver/internal/mq"
	"github.com/messagely/apiserver/types"
)

const (
	TypeMessageCreated = "message.created"
	TypeMessageRead    = "message.read"

	attrType = "type"
)

// Channels lists every channel an event can be published on.
var Channels = []string{TypeMessageCreated, TypeMessageRead}

// MessageEvent is the payload published when a message changes state.
type MessageEvent struct {
	Type         string    `json:"type"`
	MessageID    int64     `json:"message_id"`
	FromUsername string    `json:"from_username"`
	ToUsername   string    `json:"to_username"`
	At           time.Time `json:"at"`
}

// Created builds the event for a newly stored message.
func Created(msg types.Message) MessageEvent {
	return MessageEvent{
		Type:         TypeMessageCreated,
		MessageID:    msg.ID,
		FromUsername: msg.FromUsername,
		ToUsername:   msg.ToUsername,
		At:           msg.SentAt,
	}
}

// Read builds the event for a message its recipient has read.
func Read(detail types.MessageDetail, receipt types.ReadReceipt) MessageEvent {
	return MessageEvent{
		Type:         TypeMessageRead,
		MessageID:    receipt.ID,
		FromUsername: detail.FromUser.Username,
		ToUsername:   detail.ToUser.Username,
		At:           receipt.ReadAt,
	}
}

// Decode parses an event received from the broker.
func Decode(msg mq.Message) (MessageEvent, error) {
	var event MessageEvent
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		return MessageEvent{}, fmt.Errorf("decode message event: %w", err)
	}
	if event.Type == "" {
		event.Type = msg.Attributes[attrType]
	}
	return event, nil
}

// Broker is the publishing side of mq.MQ.
type Broker interface {
	Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error)
}

// Publisher sends message events to a broker, one channel per event type.
type Publisher struct {
	broker Broker
}

func NewPublisher(broker Broker) *Publisher {
	return &Publisher{broker: broker}
}

// Notify publishes event on the channel named after its type.
func (p *Publisher) Notify(ctx context.Context, event MessageEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	if _, err := p.broker.Publish(ctx, event.Type, data, map[string]string{attrType: event.Type}); err != nil {
		return fmt.Errorf("publish %s: %w", event.Type, err)
	}
	return nil
}

// LogHandler returns an mq.Handler that logs each delivered event.
// Undecodable payloads are logged and acknowledged so they are not redelivered.
func LogHandler(log *logger.Logger) mq.Handler {
	return func(ctx context.Context, msg mq.Message) error {
		event, err := Decode(msg)
		if err != nil {
			log.WarnContext(ctx, "dropping malformed event", "id", msg.ID, "error", err)
			return nil
		}
		log.InfoContext(ctx, "message event",
			"type", event.Type,
			"message_id", event.MessageID,
			"from", event.FromUsername,
			"to", event.ToUsername,
			"at", event.At)
		return nil
	}
}

package mq

import (
	"context"
	"fmt"

	"github.com/obotesoftech/prisonreturns/config"
)

// Channels carried by the bus. Every subscriber of a channel receives every
// message published to it.
const (
	ChannelChat    = "chat.messages"
	ChannelReturns = "returns.submitted"
)

// AttrEvent names the event type carried in a message's attributes.
const AttrEvent = "event"

// Message represents a broker-agnostic payload delivered to subscribers.
type Message struct {
	ID         string
	Data       []byte
	Attributes map[string]string
}

// Handler processes a message. Return an error to signal a retry/nack.
type Handler func(ctx context.Context, msg Message) error

// Backend defines the broker-agnostic operations used by the app.
// Subscribe blocks until ctx is done or the backend fails.
type Backend interface {
	Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error)
	Subscribe(ctx context.Context, channel string, handler Handler) error
	Close() error
}

// New builds the backend selected by cfg.Backend.
func New(ctx context.Context, cfg config.MQConfig) (Backend, error) {
	switch cfg.Backend {
	case "", "memory":
		return NewMemory(), nil
	case "rabbitmq":
		return NewRabbitMQClient(cfg.RabbitMQ)
	case "pubsub":
		return NewPubSubClient(ctx, cfg.PubSub)
	default:
		return nil, fmt.Errorf("unknown mq backend %q", cfg.Backend)
	}
}

package messaging

import (
	"context"
	"errors"
	"io"
)

var (
	// ErrClosed is returned by operations on a closed client.
	ErrClosed = errors.New("messaging: client closed")
	// ErrDestinationRequired is returned when the topic or subject is empty.
	ErrDestinationRequired = errors.New("messaging: destination is required")
	// ErrHandlerRequired is returned when Consume is called with a nil handler.
	ErrHandlerRequired = errors.New("messaging: handler is required")
	// ErrGroupRequired is returned when a driver needs a consumer group and none was given.
	ErrGroupRequired = errors.New("messaging: consumer group is required")
)

// Messaging publishes and consumes messages on one broker.
type Messaging interface {
	io.Closer

	Publisher
	Consumer
}

// Publisher publishes messages to a destination (topic/subject).
type Publisher interface {
	Publish(ctx context.Context, destination string, msg OutgoingMessage) error
}

// Consumer blocks delivering messages from source to handler until ctx is done.
type Consumer interface {
	Consume(ctx context.Context, source string, handler Handler, opts ...ConsumeOption) error
}

// Handler processes a received message.
type Handler func(ctx context.Context, msg Message) error

// OutgoingMessage is a message to publish.
type OutgoingMessage struct {
	// Body is the message payload.
	Body []byte
	// Key is used by Kafka for partitioning.
	Key []byte
	// Headers are carried as headers or attributes where the broker supports them.
	Headers []Header
}

// Header is a key/value pair attached to a message.
type Header struct {
	Key   string
	Value []byte
}

// Message is a received message.
type Message interface {
	Body() []byte
	// Header returns the first value of key, or "".
	Header(key string) string
	// Ack settles the message as processed. Only the first Ack or Nack counts.
	Ack(ctx context.Context) error
	// Nack asks the broker to redeliver the message.
	Nack(ctx context.Context) error
}

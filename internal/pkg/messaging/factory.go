package messaging

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
)

// Driver names, also used as the driver label in consumer logs.
const (
	DriverNSQ          = "nsq"
	DriverNATS         = "nats"
	DriverKafka        = "kafka"
	DriverGooglePubSub = "google-pubsub"
)

var ErrUnknownDriver = errors.New("messaging: unknown driver")

// Drivers holds the settings of every backend; Open reads only the one it
// builds.
type Drivers struct {
	NSQ    NSQConfig
	Kafka  KafkaConfig
	NATS   NATSConfig
	PubSub PubSubConfig
}

type opener func(ctx context.Context, d Drivers) (Messaging, error)

var openers = map[string]opener{
	DriverNATS: func(_ context.Context, d Drivers) (Messaging, error) {
		return NewNATS(d.NATS)
	},
	DriverKafka: func(_ context.Context, d Drivers) (Messaging, error) {
		return NewKafka(d.Kafka)
	},
	DriverNSQ: func(_ context.Context, d Drivers) (Messaging, error) {
		return NewNSQ(d.NSQ)
	},
	DriverGooglePubSub: func(ctx context.Context, d Drivers) (Messaging, error) {
		return NewPubSub(ctx, d.PubSub)
	},
}

func init() {
	openers["pubsub"] = openers[DriverGooglePubSub]
}

// DriverNames lists the accepted driver names, sorted.
func DriverNames() []string {
	return slices.Sorted(maps.Keys(openers))
}

// Open builds the client named by driver. Names are case insensitive.
func Open(ctx context.Context, driver string, d Drivers) (Messaging, error) {
	open, ok := openers[strings.ToLower(strings.TrimSpace(driver))]
	if !ok {
		return nil, fmt.Errorf("%w: %q (want one of %s)", ErrUnknownDriver, driver, strings.Join(DriverNames(), ", "))
	}
	return open(ctx, d)
}

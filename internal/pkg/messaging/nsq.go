package messaging

import (
	"context"
	"errors"
	"fmt"
	"sync"

	nsq "github.com/nsqio/go-nsq"
)

var (
	// ErrNSQProducerAddrRequired is returned when publishing without a producer address.
	ErrNSQProducerAddrRequired = errors.New("messaging: nsq producer address is required")
	// ErrNSQConsumerAddrsRequired is returned when no nsqd or lookupd address is configured.
	ErrNSQConsumerAddrsRequired = errors.New("messaging: nsq consumer nsqd/lookupd addresses are required")
)

// NSQConfig configures the NSQ implementation.
type NSQConfig struct {
	ProducerAddr         string
	ConsumerNSQDAddrs    []string
	ConsumerLookupdAddrs []string
	ProducerConfig       *nsq.Config
	ConsumerConfig       *nsq.Config
}

// NSQ is a messaging implementation backed by NSQ. NSQ has no message
// headers, so OutgoingMessage.Headers are dropped.
type NSQ struct {
	producer *nsq.Producer
	cfg      NSQConfig

	mu     sync.Mutex
	closed bool
}

// NewNSQ constructs an NSQ client.
func NewNSQ(cfg NSQConfig) (*NSQ, error) {
	if cfg.ConsumerConfig == nil {
		cfg.ConsumerConfig = nsq.NewConfig()
	}

	n := &NSQ{cfg: cfg}
	if cfg.ProducerAddr == "" {
		return n, nil
	}

	pcfg := cfg.ProducerConfig
	if pcfg == nil {
		pcfg = nsq.NewConfig()
	}
	p, err := nsq.NewProducer(cfg.ProducerAddr, pcfg)
	if err != nil {
		return nil, fmt.Errorf("messaging: nsq new producer: %w", err)
	}
	p.SetLoggerLevel(nsq.LogLevelError)
	n.producer = p

	return n, nil
}

// Close stops the producer. Consumers stop when their Consume context ends.
func (n *NSQ) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed {
		return nil
	}
	n.closed = true
	if n.producer != nil {
		n.producer.Stop()
	}
	return nil
}

// Publish sends msg.Body to a topic.
func (n *NSQ) Publish(ctx context.Context, destination string, msg OutgoingMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if destination == "" {
		return ErrDestinationRequired
	}
	if n.producer == nil {
		return ErrNSQProducerAddrRequired
	}
	if n.isClosed() {
		return ErrClosed
	}

	if err := n.producer.Publish(destination, msg.Body); err != nil {
		return fmt.Errorf("messaging: nsq publish: %w", err)
	}
	return nil
}

// Consume reads a topic on the WithGroup channel until ctx is done.
func (n *NSQ) Consume(ctx context.Context, source string, handler Handler, opts ...ConsumeOption) error {
	if source == "" {
		return ErrDestinationRequired
	}
	if handler == nil {
		return ErrHandlerRequired
	}
	if len(n.cfg.ConsumerNSQDAddrs) == 0 && len(n.cfg.ConsumerLookupdAddrs) == 0 {
		return ErrNSQConsumerAddrsRequired
	}
	if n.isClosed() {
		return ErrClosed
	}

	co := newConsumeOptions(opts...)
	if co.group == "" {
		return ErrGroupRequired
	}

	c, err := nsq.NewConsumer(source, co.group, n.cfg.ConsumerConfig)
	if err != nil {
		return fmt.Errorf("messaging: nsq new consumer: %w", err)
	}
	c.SetLoggerLevel(nsq.LogLevelError)

	c.AddConcurrentHandlers(nsq.HandlerFunc(func(m *nsq.Message) error {
		m.DisableAutoResponse()
		d := newDelivery(m.Body, nil,
			func(context.Context) error { m.Finish(); return nil },
			func(context.Context) error { m.Requeue(-1); return nil },
		)
		return dispatch(ctx, DriverNSQ, d, handler, co.autoAck)
	}), co.concurrency)

	if len(n.cfg.ConsumerLookupdAddrs) > 0 {
		err = c.ConnectToNSQLookupds(n.cfg.ConsumerLookupdAddrs)
	} else {
		err = c.ConnectToNSQDs(n.cfg.ConsumerNSQDAddrs)
	}
	if err != nil {
		c.Stop()
		<-c.StopChan
		return fmt.Errorf("messaging: nsq connect: %w", err)
	}

	<-ctx.Done()
	c.Stop()
	<-c.StopChan
	return ctx.Err()
}

func (n *NSQ) isClosed() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.closed
}

package messaging

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

type settleCounter struct {
	acks  int
	nacks int
}

func (c *settleCounter) delivery(headers map[string]string) *delivery {
	return newDelivery([]byte("payload"), headers,
		func(context.Context) error { c.acks++; return nil },
		func(context.Context) error { c.nacks++; return nil },
	)
}

func TestDispatch_AutoAck(t *testing.T) {
	tests := []struct {
		name      string
		autoAck   bool
		handler   Handler
		wantErr   bool
		wantAcks  int
		wantNacks int
	}{
		{
			name:     "success acks",
			autoAck:  true,
			handler:  func(context.Context, Message) error { return nil },
			wantAcks: 1,
		},
		{
			name:      "failure nacks",
			autoAck:   true,
			handler:   func(context.Context, Message) error { return errors.New("boom") },
			wantNacks: 1,
		},
		{
			name:      "panic is recovered and nacked",
			autoAck:   true,
			handler:   func(context.Context, Message) error { panic("bad message") },
			wantNacks: 1,
		},
		{
			name:    "manual mode returns handler error",
			handler: func(context.Context, Message) error { return errors.New("boom") },
			wantErr: true,
		},
		{
			name:    "handler settles itself",
			autoAck: true,
			handler: func(ctx context.Context, m Message) error {
				if err := m.Nack(ctx); err != nil {
					return err
				}
				return errors.New("ignored after nack")
			},
			wantErr:   true,
			wantNacks: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			c := &settleCounter{}
			d := c.delivery(nil)

			// Act
			err := dispatch(context.Background(), "test", d, tt.handler, tt.autoAck)

			// Assert
			if (err != nil) != tt.wantErr {
				t.Fatalf("dispatch() error = %v, wantErr %v", err, tt.wantErr)
			}
			if c.acks != tt.wantAcks || c.nacks != tt.wantNacks {
				t.Fatalf("acks/nacks = %d/%d, want %d/%d", c.acks, c.nacks, tt.wantAcks, tt.wantNacks)
			}
		})
	}
}

func TestDelivery_SettlesOnce(t *testing.T) {
	// Arrange
	c := &settleCounter{}
	d := c.delivery(map[string]string{"cID": "abc"})
	ctx := context.Background()

	// Act
	_ = d.Ack(ctx)
	_ = d.Ack(ctx)
	_ = d.Nack(ctx)

	// Assert
	if c.acks != 1 || c.nacks != 0 {
		t.Fatalf("acks/nacks = %d/%d, want 1/0", c.acks, c.nacks)
	}
	if got := d.Header("cID"); got != "abc" {
		t.Fatalf("Header(cID) = %q, want abc", got)
	}
	if got := d.Header("missing"); got != "" {
		t.Fatalf("Header(missing) = %q, want empty", got)
	}
}

func TestDelivery_CanceledContext(t *testing.T) {
	// Arrange
	c := &settleCounter{}
	d := c.delivery(nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// Act
	err := d.Ack(ctx)

	// Assert
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Ack() error = %v, want context.Canceled", err)
	}
	if c.acks != 0 {
		t.Fatalf("acks = %d, want 0", c.acks)
	}
}

func TestHeaderMap_FirstValueWins(t *testing.T) {
	// Arrange
	headers := []Header{
		{Key: "cID", Value: []byte("first")},
		{Key: "cID", Value: []byte("second")},
		{Key: "", Value: []byte("dropped")},
	}

	// Act
	got := headerMap(headers)

	// Assert
	if len(got) != 1 || got["cID"] != "first" {
		t.Fatalf("headerMap() = %v, want map[cID:first]", got)
	}
	if headerMap(nil) != nil {
		t.Fatalf("headerMap(nil) should be nil")
	}
}

func TestNewConsumeOptions(t *testing.T) {
	// Act
	co := newConsumeOptions(WithConcurrency(-3), WithGroup("vault"), nil, WithAutoAck(true))

	// Assert
	if co.concurrency != 1 || co.group != "vault" || !co.autoAck {
		t.Fatalf("newConsumeOptions() = %+v", co)
	}
}

func TestOpen_Validation(t *testing.T) {
	tests := []struct {
		name    string
		driver  string
		opts    Drivers
		wantErr error
	}{
		{name: "unknown", driver: "rabbit", wantErr: ErrUnknownDriver},
		{name: "nats without url", driver: " NATS ", wantErr: ErrNATSURLRequired},
		{name: "kafka without brokers", driver: "kafka", wantErr: ErrKafkaBrokersRequired},
		{name: "pubsub without project", driver: "google-pubsub", wantErr: ErrPubSubProjectIDRequired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Act
			_, err := Open(context.Background(), tt.driver, tt.opts)

			// Assert
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Open() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestKafka_ConsumeRequiresGroup(t *testing.T) {
	// Arrange
	k, err := NewKafka(KafkaConfig{Brokers: []string{"localhost:9092"}})
	if err != nil {
		t.Fatalf("NewKafka() error = %v", err)
	}
	t.Cleanup(func() { _ = k.Close() })

	// Act
	err = k.Consume(context.Background(), "vault.changed", func(context.Context, Message) error { return nil })

	// Assert
	if !errors.Is(err, ErrGroupRequired) {
		t.Fatalf("Consume() error = %v, want ErrGroupRequired", err)
	}
}

func TestNSQ_PublishWithoutProducer(t *testing.T) {
	// Arrange
	n, err := NewNSQ(NSQConfig{})
	if err != nil {
		t.Fatalf("NewNSQ() error = %v", err)
	}

	// Act
	err = n.Publish(context.Background(), "vault.changed", OutgoingMessage{Body: []byte("{}")})

	// Assert
	if !errors.Is(err, ErrNSQProducerAddrRequired) {
		t.Fatalf("Publish() error = %v, want ErrNSQProducerAddrRequired", err)
	}
}

func TestDriverNames(t *testing.T) {
	// Act
	got := DriverNames()

	// Assert
	want := []string{"google-pubsub", "kafka", "nats", "nsq", "pubsub"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("DriverNames() mismatch (-want +got):\n%s", diff)
	}
}

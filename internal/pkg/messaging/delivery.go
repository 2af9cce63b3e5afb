package messaging

import (
	"context"

	"go.uber.org/atomic"
)

// delivery adapts a broker message to Message.
type delivery struct {
	body    []byte
	headers map[string]string
	ack     func(ctx context.Context) error
	nack    func(ctx context.Context) error
	settled *atomic.Bool
}

func newDelivery(body []byte, headers map[string]string, ack, nack func(ctx context.Context) error) *delivery {
	return &delivery{
		body:    body,
		headers: headers,
		ack:     ack,
		nack:    nack,
		settled: atomic.NewBool(false),
	}
}

func (d *delivery) Body() []byte { return d.body }

func (d *delivery) Header(key string) string { return d.headers[key] }

func (d *delivery) Ack(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if d.settled.Swap(true) {
		return nil
	}
	return d.ack(ctx)
}

func (d *delivery) Nack(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if d.settled.Swap(true) {
		return nil
	}
	return d.nack(ctx)
}

// dispatch runs handler with panic recovery. With autoAck the message is
// acked on success and nacked on failure unless the handler settled it.
func dispatch(ctx context.Context, kind string, d *delivery, handler Handler, autoAck bool) error {
	herr := callHandlerWithRecover(ctx, kind, func() error {
		return handler(ctx, d)
	})
	if !autoAck || d.settled.Load() {
		return herr
	}
	if herr != nil {
		return d.Nack(ctx)
	}
	return d.Ack(ctx)
}

func headerMap(headers []Header) map[string]string {
	if len(headers) == 0 {
		return nil
	}
	m := make(map[string]string, len(headers))
	for _, h := range headers {
		if h.Key == "" {
			continue
		}
		if _, ok := m[h.Key]; !ok {
			m[h.Key] = string(h.Value)
		}
	}
	return m
}

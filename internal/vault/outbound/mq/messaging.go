package mq

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/PrzemekSkw/totp-sync/internal/pkg/instrument"
	"github.com/PrzemekSkw/totp-sync/internal/pkg/messaging"
	"github.com/PrzemekSkw/totp-sync/internal/shared/event"
	"github.com/PrzemekSkw/totp-sync/internal/vault/usecase"
)

const keyOfCorrelationID string = "cID"

// Messaging publishes vault events. A nil client turns every publish into
// a no-op so the module works without a broker.
type Messaging struct {
	client messaging.Messaging
	ins    instrument.Instrumentation
}

func NewMessaging(client messaging.Messaging, ins instrument.Instrumentation) *Messaging {
	return &Messaging{client: client, ins: ins}
}

func (m *Messaging) PublishVaultChanged(ctx context.Context, msg usecase.VaultChangedEvent) error {
	if m.client == nil {
		return nil
	}

	ctx, span := m.ins.Tracer("vault.outbound.mq").Start(ctx, "PublishVaultChanged")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("user_id", msg.UserID),
		attribute.String("source", msg.Source),
		attribute.Int("changed", msg.Changed),
	)

	body, err := json.Marshal(event.VaultChangedMessage{
		UserID:   msg.UserID,
		DeviceID: msg.DeviceID,
		Source:   msg.Source,
		Changed:  msg.Changed,
		At:       msg.At.UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	cID := instrument.GetCorrelationID(ctx)
	if err := m.client.Publish(ctx, event.VaultChangedDestination, messaging.OutgoingMessage{
		Body:    body,
		Key:     []byte(strconv.FormatInt(msg.UserID, 10)),
		Headers: []messaging.Header{{Key: keyOfCorrelationID, Value: []byte(cID)}},
	}); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}

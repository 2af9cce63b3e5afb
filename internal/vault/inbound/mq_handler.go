package inbound

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/PrzemekSkw/totp-sync/internal/pkg/instrument"
	"github.com/PrzemekSkw/totp-sync/internal/pkg/messaging"
	"github.com/PrzemekSkw/totp-sync/internal/pkg/uid"
	"github.com/PrzemekSkw/totp-sync/internal/shared/event"
	"github.com/PrzemekSkw/totp-sync/internal/vault/usecase"
)

const keyOfCorrelationID string = "cID"

// MQHandler consumes owner lifecycle events. Malformed payloads are logged
// and acked so they are never redelivered.
type MQHandler struct {
	uc   uc
	uuid uid.StringID
	ins  instrument.Instrumentation
}

func (h *MQHandler) ensureCorrelationID(ctx context.Context, msg messaging.Message) context.Context {
	if cID := msg.Header(keyOfCorrelationID); cID != "" {
		return instrument.SetCorrelationID(ctx, cID)
	}
	return instrument.SetCorrelationID(ctx, h.uuid.Generate())
}

func (h *MQHandler) OwnerRegistered(ctx context.Context, msg messaging.Message) error {
	ctx = h.ensureCorrelationID(ctx, msg)

	ctx, span := h.ins.Tracer("vault.inbound.mq").Start(ctx, "OwnerRegistered")
	defer span.End()

	body := msg.Body()
	slog.InfoContext(ctx, "consume: user registered", "msg_body", string(body))

	var payload event.UserRegisteredMessage
	if err := json.Unmarshal(body, &payload); err != nil || payload.UserID <= 0 {
		slog.ErrorContext(ctx, "failed to parse message body of user registered", "msg_body", string(body), "error", err)
		return nil
	}

	if err := h.uc.OwnerUpsert(ctx, usecase.OwnerUpsertInput{ID: payload.UserID, Email: payload.Email}); err != nil {
		slog.ErrorContext(ctx, "failed to upsert owner", "user_id", payload.UserID, "error", err)
		return err
	}

	return nil
}

func (h *MQHandler) OwnerDeleted(ctx context.Context, msg messaging.Message) error {
	ctx = h.ensureCorrelationID(ctx, msg)

	ctx, span := h.ins.Tracer("vault.inbound.mq").Start(ctx, "OwnerDeleted")
	defer span.End()

	body := msg.Body()
	slog.InfoContext(ctx, "consume: user deleted", "msg_body", string(body))

	var payload event.UserDeletedMessage
	if err := json.Unmarshal(body, &payload); err != nil || payload.UserID <= 0 {
		slog.ErrorContext(ctx, "failed to parse message body of user deleted", "msg_body", string(body), "error", err)
		return nil
	}

	if err := h.uc.OwnerPurge(ctx, usecase.OwnerPurgeInput{ID: payload.UserID}); err != nil {
		slog.ErrorContext(ctx, "failed to purge owner", "user_id", payload.UserID, "error", err)
		return err
	}

	return nil
}

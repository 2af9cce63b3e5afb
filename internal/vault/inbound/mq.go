package inbound

import (
	"context"
	"log/slog"
	"slices"

	"github.com/PrzemekSkw/totp-sync/internal/pkg/config"
	"github.com/PrzemekSkw/totp-sync/internal/pkg/goroutine"
	"github.com/PrzemekSkw/totp-sync/internal/pkg/instrument"
	"github.com/PrzemekSkw/totp-sync/internal/pkg/messaging"
	"github.com/PrzemekSkw/totp-sync/internal/pkg/uid"
	"github.com/PrzemekSkw/totp-sync/internal/shared/event"
)

// RegisterMQConsumer starts the owner lifecycle consumers listed in
// modules.vault.consumer_names. An empty list starts none.
func RegisterMQConsumer(
	ctx context.Context,
	cfg config.Config,
	routine *goroutine.Manager,
	messenger messaging.Messaging,
	uuid uid.StringID,
	uc uc,
	ins instrument.Instrumentation,
) {
	if messenger == nil {
		return
	}

	mqHandler := &MQHandler{uc: uc, uuid: uuid, ins: ins}

	enableConsumerNames := cfg.GetArray("modules.vault.consumer_names")
	concurrency := cfg.GetInt("modules.vault.consumer_concurrency")

	consumers := []struct {
		name    string
		topic   string
		handler messaging.Handler
	}{
		{
			name:    event.UserRegisteredConsumerVault,
			topic:   event.UserRegisteredDestination,
			handler: mqHandler.OwnerRegistered,
		},
		{
			name:    event.UserDeletedConsumerVault,
			topic:   event.UserDeletedDestination,
			handler: mqHandler.OwnerDeleted,
		},
	}

	for _, consumer := range consumers {
		if !slices.Contains(enableConsumerNames, consumer.name) {
			continue
		}

		err := routine.Go(ctx, consumer.name, func(pCtx context.Context) error {
			slog.InfoContext(pCtx, "consumer started", "consumer", consumer.name, "topic", consumer.topic)
			return messenger.Consume(pCtx,
				consumer.topic,
				consumer.handler,
				messaging.WithGroup(consumer.name),
				messaging.WithAutoAck(true),
				messaging.WithConcurrency(concurrency),
			)
		})
		if err != nil {
			slog.ErrorContext(ctx, "consumer not started", "consumer", consumer.name, "error", err)
		}
	}
}

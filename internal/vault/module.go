// Package vault wires the TOTP seed vault: store, usecases, HTTP endpoints
// and owner lifecycle consumers.
package vault

import (
	"context"

	"github.com/PrzemekSkw/totp-sync/internal/pkg/clock"
	"github.com/PrzemekSkw/totp-sync/internal/pkg/config"
	"github.com/PrzemekSkw/totp-sync/internal/pkg/envelope"
	"github.com/PrzemekSkw/totp-sync/internal/pkg/goroutine"
	"github.com/PrzemekSkw/totp-sync/internal/pkg/idempotency"
	"github.com/PrzemekSkw/totp-sync/internal/pkg/instrument"
	"github.com/PrzemekSkw/totp-sync/internal/pkg/messaging"
	"github.com/PrzemekSkw/totp-sync/internal/pkg/otp"
	"github.com/PrzemekSkw/totp-sync/internal/pkg/router"
	"github.com/PrzemekSkw/totp-sync/internal/pkg/storage"
	"github.com/PrzemekSkw/totp-sync/internal/pkg/uid"
	"github.com/PrzemekSkw/totp-sync/internal/pkg/validator"
	"github.com/PrzemekSkw/totp-sync/internal/vault/inbound"
	"github.com/PrzemekSkw/totp-sync/internal/vault/outbound/blob"
	"github.com/PrzemekSkw/totp-sync/internal/vault/outbound/mq"
	"github.com/PrzemekSkw/totp-sync/internal/vault/usecase"
)

// Dependency lists what the vault needs. Messaging, Storage and Idempotency
// are optional: without them change events are not published, backups answer
// 503 and pushes run without replay protection.
type Dependency struct {
	Ctx        context.Context            `validate:"required"`
	Store      usecase.VaultStore         `validate:"required"`
	Router     *router.Router             `validate:"required"`
	Goroutine  *goroutine.Manager         `validate:"required"`
	Config     config.Config              `validate:"required"`
	Instrument instrument.Instrumentation `validate:"required"`
	UID        uid.NumberID               `validate:"required"`
	UUID       uid.StringID               `validate:"required"`
	Cipher     envelope.Sealer            `validate:"required"`
	Totp       otp.Generator              `validate:"required"`
	Clock      clock.Clocker              `validate:"required"`
	Validator  validator.Validator        `validate:"required"`

	Messaging    messaging.Messaging
	Storage      storage.Storage
	Idempotency  idempotency.Idempotency
	BackupBucket string
}

func New(dep Dependency) error {
	if err := dep.Validator.Validate(dep); err != nil {
		return err
	}

	uc := usecase.New(usecase.Dependency{
		Store:         dep.Store,
		RepoMessaging: mq.NewMessaging(dep.Messaging, dep.Instrument),
		RepoBlob:      blob.NewBlob(dep.Storage, dep.BackupBucket, dep.Instrument),
		Idempotency:   dep.Idempotency,
		Cipher:        dep.Cipher,
		Totp:          dep.Totp,
		Validator:     dep.Validator,
		UID:           dep.UID,
		Clock:         dep.Clock,
		Instrument:    dep.Instrument,
	})

	inbound.RegisterHTTPEndpoint(dep.Router, uc)
	inbound.RegisterMQConsumer(dep.Ctx, dep.Config, dep.Goroutine, dep.Messaging, dep.UUID, uc, dep.Instrument)

	return nil
}

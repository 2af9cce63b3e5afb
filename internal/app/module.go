package app

import (
	"github.com/PrzemekSkw/totp-sync/internal/vault"
)

func (a *App) initModules() {
	if !a.config.GetBool("modules.vault.enabled") {
		return
	}

	if err := vault.New(vault.Dependency{
		Ctx:          a.ctx,
		Store:        a.store,
		Router:       a.router,
		Goroutine:    a.goroutine,
		Config:       a.config,
		Instrument:   a.ins,
		UID:          a.uid,
		UUID:         a.uuid,
		Cipher:       a.cipher,
		Totp:         a.totp,
		Clock:        a.clock,
		Validator:    a.validator,
		Messaging:    a.messaging,
		Storage:      a.storage,
		Idempotency:  a.idemp,
		BackupBucket: a.config.GetString("storage.bucket"),
	}); err != nil {
		fatal("failed to init module vault", "error", err)
	}
}

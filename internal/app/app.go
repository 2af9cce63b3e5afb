// Package app builds the totp-sync process: configuration, telemetry, the
// vault store, optional brokers and object storage, and the HTTP server.
package app

import (
	"context"
	"net/http"

	"github.com/redis/go-redis/v9"

	"github.com/PrzemekSkw/totp-sync/internal/pkg/clock"
	"github.com/PrzemekSkw/totp-sync/internal/pkg/config"
	"github.com/PrzemekSkw/totp-sync/internal/pkg/envelope"
	"github.com/PrzemekSkw/totp-sync/internal/pkg/goroutine"
	"github.com/PrzemekSkw/totp-sync/internal/pkg/idempotency"
	"github.com/PrzemekSkw/totp-sync/internal/pkg/instrument"
	"github.com/PrzemekSkw/totp-sync/internal/pkg/jwt"
	"github.com/PrzemekSkw/totp-sync/internal/pkg/messaging"
	"github.com/PrzemekSkw/totp-sync/internal/pkg/otp"
	"github.com/PrzemekSkw/totp-sync/internal/pkg/router"
	"github.com/PrzemekSkw/totp-sync/internal/pkg/storage"
	"github.com/PrzemekSkw/totp-sync/internal/pkg/uid"
	"github.com/PrzemekSkw/totp-sync/internal/pkg/validator"
	"github.com/PrzemekSkw/totp-sync/internal/vault/usecase"
)

// App wires dependencies and manages service lifecycle.
type App struct {
	ctx    context.Context
	cancel context.CancelFunc

	// configuration
	config config.Config
	ins    instrument.Instrumentation

	// libraries
	goroutine *goroutine.Manager
	validator validator.Validator
	clock     clock.Clocker
	uid       uid.NumberID
	uuid      uid.StringID
	totp      otp.Generator
	cipher    envelope.Sealer
	jwt       jwt.JWT

	// resources
	store     usecase.VaultStore
	cacheConn *redis.Client
	idemp     idempotency.Idempotency
	messaging messaging.Messaging
	storage   storage.Storage
	health    map[string]router.HealthCheck

	// server
	router     *router.Router
	httpServer *http.Server

	closers []closer
}

type closer struct {
	name string
	fn   func(context.Context) error
}

// New initializes the application and returns it ready to Start. Any failure
// is fatal: the process logs it and exits.
func New() *App {
	ctx, cancel := context.WithCancel(context.Background())
	app := &App{
		ctx:    ctx,
		cancel: cancel,
		health: make(map[string]router.HealthCheck),
	}

	app.initConfig()
	app.initInstrument()
	app.initLibraries()
	app.initCipher()
	app.initJWT()
	app.initStore()
	app.initCache()
	app.initStorage()
	app.initMessaging()
	app.initHTTPServer()
	app.initModules()
	app.initClosers()

	return app
}

func (a *App) addCloser(name string, fn func(context.Context) error) {
	a.closers = append(a.closers, closer{name: name, fn: fn})
}

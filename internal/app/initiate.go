package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go"
	"github.com/nsqio/go-nsq"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	"github.com/segmentio/kafka-go"
	"github.com/sethvargo/go-retry"

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
	"github.com/PrzemekSkw/totp-sync/internal/vault/outbound/postgres"
	"github.com/PrzemekSkw/totp-sync/internal/vault/outbound/sqlite"
)

const (
	storePostgres = "postgres"
	storeSQLite   = "sqlite"
)

func fatal(msg string, args ...any) {
	slog.Error(msg, args...)
	os.Exit(1)
}

func (a *App) initConfig() {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "/config/config.yaml"
		if os.Getenv("LOCAL") == "true" {
			path = "./config/config.yaml"
		}
	}

	cfg, err := config.NewViper(path)
	if err != nil {
		fatal("failed to init config", "error", err)
	}

	if tz := cfg.GetString("app.tz"); tz != "" {
		//nolint:errcheck,gosec // TZ is advisory
		os.Setenv("TZ", tz)
	}

	a.config = cfg
}

func (a *App) initInstrument() {
	ins, err := instrument.New(a.ctx, &instrument.Config{
		Enabled:          a.config.GetBool("telemetry.enabled"),
		ServiceName:      a.config.GetString("telemetry.service_name"),
		ServiceVersion:   a.config.GetString("telemetry.service_version"),
		Environment:      a.config.GetString("telemetry.env"),
		OTLPEndpoint:     a.config.GetString("telemetry.otlp_endpoint"),
		OTLPSecure:       a.config.GetBool("telemetry.otlp_secure"),
		TraceSampleRatio: a.config.GetFloat64("telemetry.trace_sample_ratio"),
		MetricsInterval:  a.config.GetSecond("telemetry.metric_interval_seconds"),
		MaskFields:       a.config.GetArray("telemetry.log_mask_fields"),
	})
	if err != nil {
		fatal("failed to init instrumentation", "error", err)
	}

	a.ins = ins
	a.addCloser("Instrumentation", a.ins.Shutdown)
}

func (a *App) initLibraries() {
	a.clock = clock.New()
	a.uuid = uid.NewUUID()
	a.totp = otp.NewTOTP()
	a.goroutine = goroutine.NewManager(a.config.GetInt("app.server.max_goroutine"))

	v, err := validator.NewV10Validator()
	if err != nil {
		fatal("failed to init validator", "error", err)
	}
	a.validator = v

	snow, err := uid.NewSnowflake(a.config.GetInt64("app.node_id"))
	if err != nil {
		fatal("failed to init snowflake", "error", err)
	}
	a.uid = snow
}

// initCipher aborts startup on a missing or malformed key: running with the
// wrong key would seal secrets nobody can open later.
func (a *App) initCipher() {
	c, err := envelope.NewFromBase64(a.config.GetString("vault.encryption_key"))
	if err != nil {
		fatal("invalid vault.encryption_key", "error", err)
	}

	a.cipher = c
}

func (a *App) initJWT() {
	verifier, err := jwt.NewHS512(jwt.Config{
		Secret:    []byte(a.config.GetString("jwt.hs512_secret")),
		Issuer:    a.config.GetString("jwt.issuer"),
		Audiences: a.config.GetArray("jwt.audiences"),
		Clock:     a.clock,
	})
	if err != nil {
		fatal("failed to init jwt verifier", "error", err)
	}

	a.jwt = verifier
}

func (a *App) initStore() {
	switch kind := strings.ToLower(strings.TrimSpace(a.config.GetString("vault.store"))); kind {
	case storePostgres:
		a.initPostgres()
	case storeSQLite, "":
		a.initSQLite()
	default:
		fatal("unknown vault.store", "store", kind)
	}
}

func (a *App) initPostgres() {
	pcfg, err := pgxpool.ParseConfig(a.config.GetString("database.url"))
	if err != nil {
		fatal("failed to parse database.url", "error", err)
	}

	pcfg.MaxConns = a.config.GetInt32("database.pool.max_conns")
	pcfg.MinConns = a.config.GetInt32("database.pool.min_conns")
	pcfg.MaxConnLifetime = a.config.GetSecond("database.pool.max_conn_lifetime_seconds")
	pcfg.MaxConnIdleTime = a.config.GetSecond("database.pool.max_conn_idle_seconds")
	pcfg.HealthCheckPeriod = a.config.GetSecond("database.pool.health_check_period_seconds")

	pool, err := pgxpool.NewWithConfig(a.ctx, pcfg)
	if err != nil {
		fatal("failed to create database pool", "error", err)
	}

	// The database often starts alongside the service.
	backoff := retry.WithMaxRetries(5, retry.NewExponential(500*time.Millisecond))
	if err := retry.Do(a.ctx, backoff, func(ctx context.Context) error {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := pool.Ping(pingCtx); err != nil {
			slog.WarnContext(ctx, "database not ready", "error", err)
			return retry.RetryableError(err)
		}
		return nil
	}); err != nil {
		fatal("failed to ping database", "error", err)
	}

	store := postgres.NewDB(pool, a.ins)
	if err := store.Migrate(a.ctx); err != nil {
		fatal("failed to migrate postgres", "error", err)
	}

	a.store = store
	a.health["database"] = pool.Ping
	a.addCloser("Database", func(context.Context) error {
		pool.Close()
		return nil
	})
}

func (a *App) initSQLite() {
	dsn := a.config.GetString("sqlite.dsn")
	if dsn == "" {
		dsn = "file:totp-sync.db?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)"
	}

	conn, err := sqlite.Open(dsn)
	if err != nil {
		fatal("failed to open sqlite", "error", err)
	}

	store := sqlite.NewDB(conn, a.ins)
	if err := store.Migrate(a.ctx); err != nil {
		fatal("failed to migrate sqlite", "error", err)
	}

	a.store = store
	a.health["database"] = conn.PingContext
	a.addCloser("Database", func(context.Context) error { return conn.Close() })
}

// initCache connects Redis for push idempotency. Without redis.url pushes are
// accepted without replay protection.
func (a *App) initCache() {
	url := strings.TrimSpace(a.config.GetString("redis.url"))
	if url == "" {
		slog.Info("redis not configured, push idempotency disabled")
		return
	}

	opt, err := redis.ParseURL(url)
	if err != nil {
		fatal("failed to parse redis.url", "error", err)
	}

	rdb := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(a.ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		fatal("failed to ping redis", "error", err)
	}

	a.cacheConn = rdb
	a.idemp = idempotency.New(rdb)
	a.health["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	a.addCloser("Redis", func(context.Context) error { return rdb.Close() })
}

func (a *App) initStorage() {
	driver := strings.TrimSpace(a.config.GetString("storage.driver"))
	if driver == "" {
		slog.Info("object storage not configured, backups disabled")
		return
	}

	stg, err := storage.Open(a.ctx, driver, storage.Drivers{
		S3: storage.S3Options{
			Region:       strings.TrimSpace(a.config.GetString("storage.s3.region")),
			Endpoint:     strings.TrimSpace(a.config.GetString("storage.s3.endpoint")),
			AccessKey:    strings.TrimSpace(a.config.GetString("storage.s3.access_key")),
			SecretKey:    strings.TrimSpace(a.config.GetString("storage.s3.secret_key")),
			SessionToken: strings.TrimSpace(a.config.GetString("storage.s3.session_token")),
			UsePathStyle: a.config.GetBool("storage.s3.use_path_style"),
		},
		GCS: storage.GCSOptions{
			CredentialsFile: strings.TrimSpace(a.config.GetString("storage.gcs.credentials_file")),
			CredentialsJSON: a.config.GetBinary("storage.gcs.credentials_json"),
			Endpoint:        strings.TrimSpace(a.config.GetString("storage.gcs.endpoint")),
			WithoutAuth:     a.config.GetBool("storage.gcs.without_auth"),
			GoogleAccessID:  strings.TrimSpace(a.config.GetString("storage.gcs.signer_access_id")),
			PrivateKey:      a.config.GetBinary("storage.gcs.signer_private_key"),
		},
		MinIO: storage.MinIOOptions{
			Region:       strings.TrimSpace(a.config.GetString("storage.minio.region")),
			Endpoint:     strings.TrimSpace(a.config.GetString("storage.minio.endpoint")),
			AccessKey:    strings.TrimSpace(a.config.GetString("storage.minio.access_key")),
			SecretKey:    strings.TrimSpace(a.config.GetString("storage.minio.secret_key")),
			SessionToken: strings.TrimSpace(a.config.GetString("storage.minio.session_token")),
			UseSSL:       a.config.GetBool("storage.minio.use_ssl"),
		},
	})
	if err != nil {
		fatal("failed to init storage", "error", err, "driver", driver)
	}

	a.storage = stg
	a.addCloser("Storage", func(context.Context) error { return stg.Close() })
}

func (a *App) initMessaging() {
	driver := strings.TrimSpace(a.config.GetString("messaging.driver"))
	if driver == "" {
		slog.Info("messaging not configured, vault events disabled")
		return
	}

	client, err := messaging.Open(a.ctx, driver, messaging.Drivers{
		NSQ: messaging.NSQConfig{
			ProducerAddr:         a.config.GetString("messaging.nsq.producer_addr"),
			ConsumerNSQDAddrs:    a.config.GetArray("messaging.nsq.consumer_nsqd_addrs"),
			ConsumerLookupdAddrs: a.config.GetArray("messaging.nsq.consumer_lookupd_addrs"),
			ProducerConfig:       nsq.NewConfig(),
			ConsumerConfig: func() *nsq.Config {
				cfg := nsq.NewConfig()
				if v := a.config.GetInt("messaging.nsq.max_in_flight"); v > 0 {
					cfg.MaxInFlight = v
				}
				if v := a.config.GetUint16("messaging.nsq.max_attempts"); v > 0 {
					cfg.MaxAttempts = v
				}
				return cfg
			}(),
		},
		NATS: messaging.NATSConfig{
			URL: a.config.GetString("messaging.nats.url"),
			Options: []nats.Option{
				nats.Name(a.config.GetString("app.name")),
				nats.MaxReconnects(a.config.GetInt("messaging.nats.max_reconnects")),
				nats.ReconnectWait(a.config.GetSecond("messaging.nats.reconnect_wait_seconds")),
				nats.RetryOnFailedConnect(a.config.GetBool("messaging.nats.retry_on_failed_connect")),
			},
		},
		Kafka: messaging.KafkaConfig{
			Brokers: a.config.GetArray("messaging.kafka.brokers"),
			Dialer: &kafka.Dialer{
				ClientID:  a.config.GetString("app.name"),
				Timeout:   a.config.GetSecond("messaging.kafka.dial_timeout_seconds"),
				DualStack: true,
			},
		},
		PubSub: messaging.PubSubConfig{
			ProjectID:       a.config.GetString("messaging.pubsub.project_id"),
			CredentialsFile: a.config.GetString("messaging.pubsub.credentials_file"),
			Endpoint:        a.config.GetString("messaging.pubsub.endpoint"),
		},
	})
	if err != nil {
		fatal("failed to init messaging", "error", err, "driver", driver)
	}

	a.messaging = client
}

func (a *App) initHTTPServer() {
	a.router = router.NewRouter(router.Config{
		Config:     a.config,
		UUID:       a.uuid,
		JWT:        a.jwt,
		Instrument: a.ins,
	})
	a.router.Health(a.health)

	handler := cors.New(cors.Options{
		AllowedOrigins:   a.config.GetArray("app.cors.allowed_origins"),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "Idempotency-Key", router.HeaderCorrelationID},
		ExposedHeaders:   []string{router.HeaderCorrelationID},
		AllowCredentials: a.config.GetBool("app.cors.allow_credentials"),
		MaxAge:           a.config.GetInt("app.cors.max_age_seconds"),
	}).Handler(a.router)

	a.httpServer = &http.Server{
		Addr:              a.config.GetString("app.server.address"),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       a.config.GetSecond("app.server.read_timeout_seconds"),
		WriteTimeout:      a.config.GetSecond("app.server.write_timeout_seconds"),
		IdleTimeout:       a.config.GetSecond("app.server.idle_timeout_seconds"),
	}
}

func (a *App) initClosers() {
	if a.messaging != nil {
		a.addCloser("Messaging", func(context.Context) error {
			if err := a.messaging.Close(); err != nil && !errors.Is(err, messaging.ErrClosed) {
				return err
			}
			return nil
		})
	}
	a.addCloser("Config", func(context.Context) error { return a.config.Close() })
}

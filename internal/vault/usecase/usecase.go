package usecase

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/PrzemekSkw/totp-sync/internal/pkg/clock"
	"github.com/PrzemekSkw/totp-sync/internal/pkg/envelope"
	"github.com/PrzemekSkw/totp-sync/internal/pkg/goerror"
	"github.com/PrzemekSkw/totp-sync/internal/pkg/idempotency"
	"github.com/PrzemekSkw/totp-sync/internal/pkg/instrument"
	"github.com/PrzemekSkw/totp-sync/internal/pkg/jwt"
	"github.com/PrzemekSkw/totp-sync/internal/pkg/otp"
	"github.com/PrzemekSkw/totp-sync/internal/pkg/uid"
	"github.com/PrzemekSkw/totp-sync/internal/pkg/validator"
	"github.com/PrzemekSkw/totp-sync/internal/vault/entity"
)

// VaultStore is the persistence contract. Every method is scoped to an owner;
// implementations must treat a foreign id exactly like a missing one.
type VaultStore interface {
	EnsureOwner(ctx context.Context, owner entity.Owner) error
	UpsertOwner(ctx context.Context, owner entity.Owner) error
	PurgeOwner(ctx context.Context, userID int64) error

	// ListActiveEntries orders by position ascending, then newest first.
	ListActiveEntries(ctx context.Context, userID int64) ([]entity.Entry, error)
	// ListEntriesChangedSince returns active and deleted rows with
	// updated_at > since, oldest change first.
	ListEntriesChangedSince(ctx context.Context, userID int64, since time.Time) ([]entity.Entry, error)
	// GetActiveEntry returns goerror.ErrNotFound for missing, deleted or foreign rows.
	GetActiveEntry(ctx context.Context, id, userID int64) (*entity.Entry, error)

	// InsertEntry stores a new row and returns its generated id.
	InsertEntry(ctx context.Context, in entity.NewEntry) (int64, error)
	// UpdateEntry reports false when no active owner row matched.
	UpdateEntry(ctx context.Context, in entity.UpdateEntry) (bool, error)
	// PatchEntry reports false when no active owner row matched.
	PatchEntry(ctx context.Context, in entity.PatchEntry) (bool, error)
	TombstoneEntry(ctx context.Context, id, userID int64, deletedAt, now time.Time) (entity.TombstoneResult, error)
	TombstoneAllEntries(ctx context.Context, userID int64, now time.Time) (int64, error)
	// ReorderEntries sets position to the index of each id in ids.
	ReorderEntries(ctx context.Context, userID int64, ids []int64, now time.Time) (int64, error)

	AppendSyncLog(ctx context.Context, rec entity.SyncLog) error
}

// VaultChangedEvent notifies other services that an owner's vault changed.
type VaultChangedEvent struct {
	UserID   int64
	DeviceID string
	Source   string
	Changed  int
	At       time.Time
}

type repoMessaging interface {
	PublishVaultChanged(ctx context.Context, msg VaultChangedEvent) error
}

type repoBlob interface {
	Enabled() bool
	PutBackup(ctx context.Context, key string, body []byte) (int64, error)
	ListBackups(ctx context.Context, prefix string) ([]entity.Backup, error)
	PresignBackup(ctx context.Context, key string, ttl time.Duration) (string, error)
}

type Usecase struct {
	store         VaultStore
	repoMessaging repoMessaging
	repoBlob      repoBlob
	idemp         idempotency.Idempotency
	cipher        envelope.Sealer
	totp          otp.Generator
	validator     validator.Validator
	uid           uid.NumberID
	clock         clock.Clocker
	ins           instrument.Instrumentation
}

type Dependency struct {
	Store         VaultStore
	RepoMessaging repoMessaging
	RepoBlob      repoBlob
	Idempotency   idempotency.Idempotency
	Cipher        envelope.Sealer
	Totp          otp.Generator
	Validator     validator.Validator
	UID           uid.NumberID
	Clock         clock.Clocker
	Instrument    instrument.Instrumentation
}

func New(dep Dependency) *Usecase {
	return &Usecase{
		store:         dep.Store,
		repoMessaging: dep.RepoMessaging,
		repoBlob:      dep.RepoBlob,
		idemp:         dep.Idempotency,
		cipher:        dep.Cipher,
		totp:          dep.Totp,
		validator:     dep.Validator,
		uid:           dep.UID,
		clock:         dep.Clock,
		ins:           dep.Instrument,
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("vault.usecase").Start(ctx, name)
}

// now is truncated to microseconds so every store keeps the same instant.
func (s *Usecase) now() time.Time {
	return s.clock.Now().UTC().Truncate(time.Microsecond)
}

func (s *Usecase) authenticated(ctx context.Context) (*jwt.Claims, error) {
	clm := jwt.GetAuth(ctx)
	if clm == nil || clm.UserID <= 0 {
		return nil, goerror.NewBusiness("Authentication required", goerror.CodeUnauthorized)
	}

	return clm, nil
}

// authenticatedWriter also makes sure the owner row exists before rows that
// reference it are written.
func (s *Usecase) authenticatedWriter(ctx context.Context) (*jwt.Claims, error) {
	clm, err := s.authenticated(ctx)
	if err != nil {
		return nil, err
	}

	owner := entity.Owner{ID: clm.UserID, Email: clm.UserEmail, CreatedAt: s.now()}
	if err := s.store.EnsureOwner(ctx, owner); err != nil {
		slog.ErrorContext(ctx, "failed to ensure owner", "user_id", clm.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return clm, nil
}

func (s *Usecase) appendSyncLog(ctx context.Context, userID int64, deviceID string, typ entity.SyncType, at time.Time) error {
	rec := entity.SyncLog{
		ID:       s.uid.Generate(),
		UserID:   userID,
		DeviceID: deviceID,
		Type:     typ,
		SyncedAt: at,
	}
	if err := s.store.AppendSyncLog(ctx, rec); err != nil {
		slog.ErrorContext(ctx, "failed to append sync log", "user_id", userID, "device_id", deviceID, "sync_type", typ, "error", err)
		return goerror.NewServer(err)
	}

	return nil
}

func (s *Usecase) publishChanged(ctx context.Context, ev VaultChangedEvent) {
	if ev.Changed == 0 {
		return
	}
	if err := s.repoMessaging.PublishVaultChanged(ctx, ev); err != nil {
		slog.WarnContext(ctx, "failed to publish vault changed", "user_id", ev.UserID, "source", ev.Source, "error", err)
	}
}

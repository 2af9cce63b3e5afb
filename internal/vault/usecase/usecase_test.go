package usecase_test

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

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
	"github.com/PrzemekSkw/totp-sync/internal/vault/outbound/sqlite"
	"github.com/PrzemekSkw/totp-sync/internal/vault/usecase"
)

type fakeMessaging struct {
	mu     sync.Mutex
	events []usecase.VaultChangedEvent
	err    error
}

func (f *fakeMessaging) PublishVaultChanged(_ context.Context, msg usecase.VaultChangedEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, msg)
	return f.err
}

func (f *fakeMessaging) sources() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.events))
	for _, ev := range f.events {
		out = append(out, ev.Source)
	}
	return out
}

type fakeBlob struct {
	enabled bool
	objects map[string][]byte
	putErr  error
}

func (f *fakeBlob) Enabled() bool { return f.enabled }

func (f *fakeBlob) PutBackup(_ context.Context, key string, body []byte) (int64, error) {
	if f.putErr != nil {
		return 0, f.putErr
	}
	f.objects[key] = bytes.Clone(body)
	return int64(len(body)), nil
}

func (f *fakeBlob) ListBackups(_ context.Context, prefix string) ([]entity.Backup, error) {
	out := make([]entity.Backup, 0)
	for key, body := range f.objects {
		if strings.HasPrefix(key, prefix) {
			out = append(out, entity.Backup{Key: key, Size: int64(len(body))})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (f *fakeBlob) PresignBackup(_ context.Context, key string, ttl time.Duration) (string, error) {
	return "https://blob.example.com/" + key + "?ttl=" + ttl.String(), nil
}

// fakeIdempotency remembers finished keys the way the redis tracker does.
type fakeIdempotency struct {
	mu   sync.Mutex
	done map[string]bool
}

func (f *fakeIdempotency) Exec(ctx context.Context, key string, fn func(context.Context) error, _ ...idempotency.Option) error {
	f.mu.Lock()
	if f.done[key] {
		f.mu.Unlock()
		return idempotency.ErrAlreadyCompleted
	}
	f.done[key] = true
	f.mu.Unlock()

	return fn(ctx)
}

type fixture struct {
	uc     *usecase.Usecase
	store  *sqlite.DB
	clock  *clock.Fixed
	mq     *fakeMessaging
	blob   *fakeBlob
	cipher *envelope.Cipher
}

func newFixture(t *testing.T, start time.Time) *fixture {
	t.Helper()

	return newFixtureWithStore(t, start, func(db *sqlite.DB) usecase.VaultStore { return db })
}

// newFixtureWithStore lets a test put a decorator between the usecase and the
// sqlite store.
func newFixtureWithStore(t *testing.T, start time.Time, wrap func(*sqlite.DB) usecase.VaultStore) *fixture {
	t.Helper()

	conn, err := sqlite.Open("file:" + filepath.Join(t.TempDir(), "vault.db") + "?_pragma=foreign_keys(1)")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	store := sqlite.NewDB(conn, instrument.NewNoop())
	if err := store.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	cipher, err := envelope.New(bytes.Repeat([]byte{7}, 32))
	if err != nil {
		t.Fatalf("cipher: %v", err)
	}
	v, err := validator.NewV10Validator()
	if err != nil {
		t.Fatalf("validator: %v", err)
	}
	sf, err := uid.NewSnowflake(1)
	if err != nil {
		t.Fatalf("snowflake: %v", err)
	}

	f := &fixture{
		store:  store,
		clock:  clock.NewFixed(start),
		mq:     &fakeMessaging{},
		blob:   &fakeBlob{enabled: true, objects: map[string][]byte{}},
		cipher: cipher,
	}
	f.uc = usecase.New(usecase.Dependency{
		Store:         wrap(store),
		RepoMessaging: f.mq,
		RepoBlob:      f.blob,
		Idempotency:   &fakeIdempotency{done: map[string]bool{}},
		Cipher:        cipher,
		Totp:          otp.NewTOTP(),
		Validator:     v,
		UID:           sf,
		Clock:         f.clock,
		Instrument:    instrument.NewNoop(),
	})

	return f
}

func ownerCtx(userID int64) context.Context {
	return jwt.SetAuth(context.Background(), jwt.Claims{UserID: userID, UserEmail: "owner@example.com"})
}

func (f *fixture) create(t *testing.T, ctx context.Context, name, secret string) *entity.Entry {
	t.Helper()

	e, err := f.uc.EntryCreate(ctx, usecase.EntryCreateInput{Name: name, Secret: secret})
	if err != nil {
		t.Fatalf("EntryCreate(%s) error = %v", name, err)
	}

	return e
}

func assertCode(t *testing.T, err error, want goerror.Code) {
	t.Helper()

	var ge *goerror.Error
	if !errors.As(err, &ge) {
		t.Fatalf("error = %v, want *goerror.Error with code %v", err, want)
	}
	if ge.Code() != want {
		t.Fatalf("error code = %v (%v), want %v", ge.Code(), err, want)
	}
}

func TestUsecase_RequiresAuthentication(t *testing.T) {
	f := newFixture(t, time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC))

	// Act
	_, err := f.uc.EntryList(context.Background())

	// Assert
	assertCode(t, err, goerror.CodeUnauthorized)
}

func entityUpdateWithEnvelope(id, userID int64, env string) entity.UpdateEntry {
	return entity.UpdateEntry{
		ID:              id,
		UserID:          userID,
		Name:            "bad",
		SecretEncrypted: env,
		Algorithm:       "sha1",
		Digits:          6,
		Period:          30,
		Now:             time.Unix(60, 0).UTC(),
	}
}

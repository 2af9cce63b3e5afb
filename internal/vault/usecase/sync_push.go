package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/PrzemekSkw/totp-sync/internal/pkg/goerror"
	"github.com/PrzemekSkw/totp-sync/internal/pkg/idempotency"
	"github.com/PrzemekSkw/totp-sync/internal/vault/entity"
	"github.com/PrzemekSkw/totp-sync/internal/vault/normalizer"
)

// Push actions reported per applied item.
const (
	PushActionCreated = "created"
	PushActionUpdated = "updated"
	PushActionDeleted = "deleted"
	PushActionNoop    = "unchanged"
)

const pushIdempotencyTTL = 24 * time.Hour

type (
	// PushItem is one change sent by a device. DeletedAt marks a tombstone;
	// an ID without DeletedAt is an update; no ID is a new entry. Zero
	// Algorithm, Digits or Period on an update keep the stored values.
	PushItem struct {
		// Malformed is set by a transport that could not decode the item. The
		// item is reported as failed with this reason.
		Malformed string

		ID        *int64
		Name      string
		Issuer    string
		Secret    string
		Algorithm string
		Digits    int
		Period    int
		Icon      string
		Color     string
		Position  int
		DeletedAt *time.Time
	}

	SyncPushInput struct {
		DeviceID       string     `validate:"max=255"`
		IdempotencyKey string     `validate:"max=128"`
		Items          []PushItem `validate:"max=10000"`
	}

	PushResult struct {
		Index  int
		ID     int64
		Action string
	}

	PushFailure struct {
		Index  int
		ID     *int64
		Name   string
		Reason string
	}

	SyncPushOutput struct {
		Updated  int
		Failed   int
		Results  []PushResult
		Failures []PushFailure
		SyncTime time.Time
	}
)

// SyncPush applies a batch of device changes item by item. A failing item is
// reported and the rest of the batch still applies. Concurrent pushes touching
// the same entry resolve by statement order: the last write wins.
func (s *Usecase) SyncPush(ctx context.Context, in SyncPushInput) (*SyncPushOutput, error) {
	ctx, span := s.startSpan(ctx, "SyncPush")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	clm, err := s.authenticatedWriter(ctx)
	if err != nil {
		return nil, err
	}

	if in.IdempotencyKey == "" || s.idemp == nil {
		return s.push(ctx, clm.UserID, in)
	}

	var out *SyncPushOutput
	key := "vault:push:" + strconv.FormatInt(clm.UserID, 10) + ":" + in.IdempotencyKey
	err = s.idemp.Exec(ctx, key, func(ctx context.Context) error {
		var perr error
		out, perr = s.push(ctx, clm.UserID, in)
		return perr
	}, idempotency.WithStateTTL(pushIdempotencyTTL))
	switch {
	case errors.Is(err, idempotency.ErrAlreadyInProgress):
		return nil, goerror.NewBusiness("Push with this idempotency key is in progress", goerror.CodeConflict)
	case errors.Is(err, idempotency.ErrAlreadyCompleted):
		return nil, goerror.NewBusiness("Push already processed", goerror.CodeConflict)
	case err != nil:
		var ge *goerror.Error
		if errors.As(err, &ge) {
			return nil, err
		}
		slog.ErrorContext(ctx, "failed to run idempotent push", "user_id", clm.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return out, nil
}

func (s *Usecase) push(ctx context.Context, userID int64, in SyncPushInput) (*SyncPushOutput, error) {
	out := &SyncPushOutput{
		Results:  make([]PushResult, 0, len(in.Items)),
		Failures: make([]PushFailure, 0),
	}

	changed := 0
	for i, item := range in.Items {
		res, err := s.pushItem(ctx, userID, item)
		if err != nil {
			out.Failures = append(out.Failures, PushFailure{
				Index:  i,
				ID:     item.ID,
				Name:   item.Name,
				Reason: goerror.Message(err, "Failed to apply change"),
			})
			continue
		}

		res.Index = i
		out.Results = append(out.Results, res)
		if res.Action != PushActionNoop {
			changed++
		}
	}

	out.Updated = len(out.Results)
	out.Failed = len(out.Failures)
	out.SyncTime = s.now()

	if err := s.appendSyncLog(ctx, userID, in.DeviceID, entity.SyncTypePush, out.SyncTime); err != nil {
		return nil, err
	}

	s.publishChanged(ctx, VaultChangedEvent{UserID: userID, DeviceID: in.DeviceID, Source: "sync_push", Changed: changed, At: out.SyncTime})

	return out, nil
}

func (s *Usecase) pushItem(ctx context.Context, userID int64, item PushItem) (PushResult, error) {
	switch {
	case item.Malformed != "":
		return PushResult{}, goerror.NewInvalidFormat(item.Malformed)
	case item.DeletedAt != nil:
		return s.pushTombstone(ctx, userID, item)
	case item.ID != nil:
		return s.pushUpdate(ctx, userID, item)
	default:
		return s.pushInsert(ctx, userID, item)
	}
}

func (s *Usecase) pushTombstone(ctx context.Context, userID int64, item PushItem) (PushResult, error) {
	if item.ID == nil {
		return PushResult{}, goerror.NewValidation("Missing id for deleted entry")
	}

	res, err := s.store.TombstoneEntry(ctx, *item.ID, userID, item.DeletedAt.UTC().Truncate(time.Microsecond), s.now())
	if err != nil {
		slog.ErrorContext(ctx, "failed to tombstone pushed entry", "entry_id", *item.ID, "user_id", userID, "error", err)
		return PushResult{}, goerror.NewServer(err)
	}

	switch res {
	case entity.TombstoneApplied:
		return PushResult{ID: *item.ID, Action: PushActionDeleted}, nil
	case entity.TombstoneAlready:
		return PushResult{ID: *item.ID, Action: PushActionNoop}, nil
	default:
		slog.WarnContext(ctx, "pushed tombstone for unknown entry", "entry_id", *item.ID, "user_id", userID)
		return PushResult{}, goerror.NewNotFound("Entry not found")
	}
}

func (s *Usecase) pushUpdate(ctx context.Context, userID int64, item PushItem) (PushResult, error) {
	name := strings.TrimSpace(item.Name)
	if name == "" {
		return PushResult{}, goerror.NewValidation("Missing name field")
	}

	algorithm, digits, period := item.Algorithm, item.Digits, item.Period
	if strings.TrimSpace(algorithm) == "" || digits == 0 || period == 0 {
		cur, err := s.store.GetActiveEntry(ctx, *item.ID, userID)
		if errors.Is(err, goerror.ErrNotFound) {
			slog.WarnContext(ctx, "pushed update for unknown entry", "entry_id", *item.ID, "user_id", userID)
			return PushResult{}, goerror.NewNotFound(fmt.Sprintf("Entry %d not found", *item.ID))
		}
		if err != nil {
			slog.ErrorContext(ctx, "failed to load pushed entry", "entry_id", *item.ID, "user_id", userID, "error", err)
			return PushResult{}, goerror.NewServer(err)
		}

		// Omitted parameters keep their stored values, like the secret does.
		algorithm = lo.CoalesceOrEmpty(strings.TrimSpace(algorithm), cur.Algorithm)
		digits = lo.CoalesceOrEmpty(digits, cur.Digits)
		period = lo.CoalesceOrEmpty(period, cur.Period)
	}

	params, err := normalizeParams(algorithm, digits, period)
	if err != nil {
		return PushResult{}, err
	}

	upd := entity.UpdateEntry{
		ID:        *item.ID,
		UserID:    userID,
		Name:      name,
		Issuer:    strings.TrimSpace(item.Issuer),
		Algorithm: params.Algorithm,
		Digits:    params.Digits,
		Period:    params.Period,
		Icon:      item.Icon,
		Color:     item.Color,
		Position:  item.Position,
		Now:       s.now(),
	}

	if strings.TrimSpace(item.Secret) != "" {
		c := normalizer.Canonical{Name: name, Secret: normalizer.CleanSecret(item.Secret), Algorithm: params.Algorithm, Digits: params.Digits, Period: params.Period}
		env, err := s.seal(c)
		if err != nil {
			return PushResult{}, err
		}
		upd.SecretEncrypted = env
	}

	ok, err := s.store.UpdateEntry(ctx, upd)
	if err != nil {
		slog.ErrorContext(ctx, "failed to update pushed entry", "entry_id", upd.ID, "user_id", userID, "error", err)
		return PushResult{}, goerror.NewServer(err)
	}
	if !ok {
		slog.WarnContext(ctx, "pushed update for unknown entry", "entry_id", upd.ID, "user_id", userID)
		return PushResult{}, goerror.NewNotFound(fmt.Sprintf("Entry %d not found", upd.ID))
	}

	return PushResult{ID: upd.ID, Action: PushActionUpdated}, nil
}

func (s *Usecase) pushInsert(ctx context.Context, userID int64, item PushItem) (PushResult, error) {
	c, err := normalizer.ValidateCanonical(normalizer.Canonical{
		Name:      item.Name,
		Issuer:    item.Issuer,
		Secret:    item.Secret,
		Algorithm: item.Algorithm,
		Digits:    item.Digits,
		Period:    item.Period,
		Icon:      item.Icon,
		Color:     item.Color,
	})
	if err != nil {
		return PushResult{}, err
	}

	id, err := s.insertCanonical(ctx, userID, c, item.Position)
	if err != nil {
		return PushResult{}, err
	}

	return PushResult{ID: id, Action: PushActionCreated}, nil
}

// insertCanonical seals and stores one validated entry.
func (s *Usecase) insertCanonical(ctx context.Context, userID int64, c normalizer.Canonical, position int) (int64, error) {
	env, err := s.seal(c)
	if err != nil {
		return 0, err
	}

	id, err := s.store.InsertEntry(ctx, entity.NewEntry{
		UserID:          userID,
		Name:            c.Name,
		Issuer:          c.Issuer,
		SecretEncrypted: env,
		Algorithm:       c.Algorithm,
		Digits:          c.Digits,
		Period:          c.Period,
		Icon:            c.Icon,
		Color:           c.Color,
		Position:        position,
		Now:             s.now(),
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to insert entry", "user_id", userID, "name", c.Name, "error", err)
		return 0, goerror.NewServer(err)
	}

	return id, nil
}

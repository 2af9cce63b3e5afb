package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/PrzemekSkw/totp-sync/internal/pkg/goerror"
	"github.com/PrzemekSkw/totp-sync/internal/vault/entity"
)

const (
	backupType       = "totp-sync-backup"
	backupURLExpiry  = 15 * time.Minute
	backupKeyLayout  = "20060102T150405.000000Z"
	backupPrefixBase = "backups/"
)

type (
	backupEntry struct {
		ID              int64     `json:"id"`
		Name            string    `json:"name"`
		Issuer          string    `json:"issuer"`
		SecretEncrypted string    `json:"secret_encrypted"`
		Algorithm       string    `json:"algorithm"`
		Digits          int       `json:"digits"`
		Period          int       `json:"period"`
		Icon            string    `json:"icon,omitempty"`
		Color           string    `json:"color,omitempty"`
		Position        int       `json:"position"`
		CreatedAt       time.Time `json:"created_at"`
		UpdatedAt       time.Time `json:"updated_at"`
	}

	backupDocument struct {
		Version   string        `json:"version"`
		Type      string        `json:"type"`
		UserID    int64         `json:"user_id,string"`
		CreatedAt time.Time     `json:"created_at"`
		Entries   []backupEntry `json:"entries"`
	}

	BackupListOutput struct {
		Backups []entity.Backup
	}
)

// BackupCreate archives the owner's active rows to object storage. Secrets
// stay sealed; the archive is only readable with the process key.
func (s *Usecase) BackupCreate(ctx context.Context) (*entity.Backup, error) {
	ctx, span := s.startSpan(ctx, "BackupCreate")
	defer span.End()

	if !s.repoBlob.Enabled() {
		return nil, goerror.NewBusiness("Backup storage not configured", goerror.CodeUnavailable)
	}

	clm, err := s.authenticated(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := s.store.ListActiveEntries(ctx, clm.UserID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to list entries for backup", "user_id", clm.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	now := s.now()
	doc := backupDocument{
		Version:   ExportVersion,
		Type:      backupType,
		UserID:    clm.UserID,
		CreatedAt: now,
		Entries: lo.Map(rows, func(e entity.Entry, _ int) backupEntry {
			return backupEntry{
				ID:              e.ID,
				Name:            e.Name,
				Issuer:          e.Issuer,
				SecretEncrypted: e.SecretEncrypted,
				Algorithm:       e.Algorithm,
				Digits:          e.Digits,
				Period:          e.Period,
				Icon:            e.Icon,
				Color:           e.Color,
				Position:        e.Position,
				CreatedAt:       e.CreatedAt,
				UpdatedAt:       e.UpdatedAt,
			}
		}),
	}

	body, err := json.Marshal(doc)
	if err != nil {
		slog.ErrorContext(ctx, "failed to marshal backup", "user_id", clm.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	key := backupPrefix(clm.UserID) + now.Format(backupKeyLayout) + ".json"
	size, err := s.repoBlob.PutBackup(ctx, key, body)
	if err != nil {
		slog.ErrorContext(ctx, "failed to upload backup", "user_id", clm.UserID, "key", key, "error", err)
		return nil, goerror.NewServer(err)
	}

	return &entity.Backup{Key: key, Size: size, CreatedAt: now}, nil
}

// BackupList lists the owner's archives, newest first, each with a short-lived
// download URL.
func (s *Usecase) BackupList(ctx context.Context) (*BackupListOutput, error) {
	ctx, span := s.startSpan(ctx, "BackupList")
	defer span.End()

	if !s.repoBlob.Enabled() {
		return nil, goerror.NewBusiness("Backup storage not configured", goerror.CodeUnavailable)
	}

	clm, err := s.authenticated(ctx)
	if err != nil {
		return nil, err
	}

	backups, err := s.repoBlob.ListBackups(ctx, backupPrefix(clm.UserID))
	if err != nil {
		slog.ErrorContext(ctx, "failed to list backups", "user_id", clm.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	for i := range backups {
		url, err := s.repoBlob.PresignBackup(ctx, backups[i].Key, backupURLExpiry)
		if err != nil {
			slog.WarnContext(ctx, "failed to presign backup", "user_id", clm.UserID, "key", backups[i].Key, "error", err)
			continue
		}
		backups[i].URL = url
	}

	// Keys embed a sortable timestamp.
	slices.SortFunc(backups, func(a, b entity.Backup) int { return strings.Compare(b.Key, a.Key) })

	return &BackupListOutput{Backups: backups}, nil
}

func backupPrefix(userID int64) string {
	return fmt.Sprintf("%s%d/", backupPrefixBase, userID)
}

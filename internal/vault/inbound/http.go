package inbound

import (
	"context"

	"github.com/PrzemekSkw/totp-sync/internal/pkg/router"
	"github.com/PrzemekSkw/totp-sync/internal/vault/entity"
	"github.com/PrzemekSkw/totp-sync/internal/vault/usecase"
)

type uc interface {
	EntryList(ctx context.Context) (*usecase.EntryListOutput, error)
	EntryGet(ctx context.Context, in usecase.EntryGetInput) (*entity.Entry, error)
	EntryCreate(ctx context.Context, in usecase.EntryCreateInput) (*entity.Entry, error)
	EntryUpdate(ctx context.Context, in usecase.EntryUpdateInput) (*entity.Entry, error)
	EntryDelete(ctx context.Context, in usecase.EntryDeleteInput) error
	EntryReorder(ctx context.Context, in usecase.EntryReorderInput) (*usecase.EntryReorderOutput, error)

	CodeGenerate(ctx context.Context, in usecase.CodeGenerateInput) (*usecase.CodeOutput, error)
	CodeList(ctx context.Context) (*usecase.CodeListOutput, error)

	SyncPull(ctx context.Context, in usecase.SyncPullInput) (*usecase.SyncPullOutput, error)
	SyncPush(ctx context.Context, in usecase.SyncPushInput) (*usecase.SyncPushOutput, error)

	ImportBulk(ctx context.Context, in usecase.ImportBulkInput) (*usecase.ImportOutput, error)
	ImportURIs(ctx context.Context, in usecase.ImportURIsInput) (*usecase.ImportOutput, error)
	ExportJSON(ctx context.Context) (*usecase.ExportJSONOutput, error)
	ExportURIs(ctx context.Context) (*usecase.ExportURIsOutput, error)

	BackupCreate(ctx context.Context) (*entity.Backup, error)
	BackupList(ctx context.Context) (*usecase.BackupListOutput, error)

	OwnerUpsert(ctx context.Context, in usecase.OwnerUpsertInput) error
	OwnerPurge(ctx context.Context, in usecase.OwnerPurgeInput) error
}

// RegisterHTTPEndpoint mounts the vault API. Every route needs a bearer token.
func RegisterHTTPEndpoint(r *router.Router, uc uc) {
	end := &HTTPEndpoint{uc: uc}

	// Entries
	r.GET("/api/v1/vault/entries", end.EntryList)
	r.POST("/api/v1/vault/entries", end.EntryCreate)
	r.GET("/api/v1/vault/entries/:id", end.EntryGet)
	r.PATCH("/api/v1/vault/entries/:id", end.EntryUpdate)
	r.DELETE("/api/v1/vault/entries/:id", end.EntryDelete)
	r.PUT("/api/v1/vault/entries-order", end.EntryReorder)

	// Codes
	r.GET("/api/v1/vault/entries/:id/code", end.CodeGenerate)
	r.GET("/api/v1/vault/codes", end.CodeList)

	// Sync
	r.GET("/api/v1/vault/sync/pull", end.SyncPull)
	r.POST("/api/v1/vault/sync/push", end.SyncPush)

	// Import & export
	r.POST("/api/v1/vault/import/json", end.ImportJSON)
	r.POST("/api/v1/vault/import/uri", end.ImportURI)
	r.GET("/api/v1/vault/export/json", end.ExportJSON)
	r.GET("/api/v1/vault/export/uri", end.ExportURI)

	// Backups
	r.POST("/api/v1/vault/backups", end.BackupCreate)
	r.GET("/api/v1/vault/backups", end.BackupList)
}

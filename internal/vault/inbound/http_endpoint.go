package inbound

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/PrzemekSkw/totp-sync/internal/pkg/goerror"
	"github.com/PrzemekSkw/totp-sync/internal/pkg/router"
	"github.com/PrzemekSkw/totp-sync/internal/vault/entity"
	"github.com/PrzemekSkw/totp-sync/internal/vault/normalizer"
	"github.com/PrzemekSkw/totp-sync/internal/vault/usecase"
)

const (
	headerIdempotencyKey = "Idempotency-Key"
	maxImportBodyBytes   = 5 << 20
)

// HTTPEndpoint exposes HTTP handlers for the vault.
type HTTPEndpoint struct {
	uc uc
}

// EntryList returns the caller's active entries without secrets.
func (h *HTTPEndpoint) EntryList(r *router.Request) (any, error) {
	resp, err := h.uc.EntryList(r.Context())
	if err != nil {
		return nil, err
	}

	entries := make([]EntryResponse, 0, len(resp.Entries))
	for _, e := range resp.Entries {
		entries = append(entries, toEntryResponse(e))
	}

	return EntriesResponse{Entries: entries}, nil
}

func (h *HTTPEndpoint) EntryGet(r *router.Request) (any, error) {
	id, err := r.GetParamInt64("id")
	if err != nil {
		return nil, err
	}

	resp, err := h.uc.EntryGet(r.Context(), usecase.EntryGetInput{ID: id})
	if err != nil {
		return nil, err
	}

	return toEntryResponse(*resp), nil
}

func (h *HTTPEndpoint) EntryCreate(r *router.Request) (any, error) {
	var req EntryCreateRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.EntryCreate(r.Context(), usecase.EntryCreateInput{
		Name:      req.Name,
		Issuer:    req.Issuer,
		Secret:    req.Secret,
		Algorithm: req.Algorithm,
		Digits:    req.Digits,
		Period:    req.Period,
		Icon:      req.Icon,
		Color:     req.Color,
		Position:  req.Position,
	})
	if err != nil {
		return nil, err
	}

	return EntryCreateResponse{EntryResponse: toEntryResponse(*resp)}, nil
}

// EntryUpdate applies a partial update of display fields.
func (h *HTTPEndpoint) EntryUpdate(r *router.Request) (any, error) {
	id, err := r.GetParamInt64("id")
	if err != nil {
		return nil, err
	}

	var req EntryUpdateRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.EntryUpdate(r.Context(), usecase.EntryUpdateInput{
		ID:       id,
		Name:     req.Name,
		Issuer:   req.Issuer,
		Icon:     req.Icon,
		Color:    req.Color,
		Position: req.Position,
	})
	if err != nil {
		return nil, err
	}

	return toEntryResponse(*resp), nil
}

func (h *HTTPEndpoint) EntryDelete(r *router.Request) (any, error) {
	id, err := r.GetParamInt64("id")
	if err != nil {
		return nil, err
	}

	if err := h.uc.EntryDelete(r.Context(), usecase.EntryDeleteInput{ID: id}); err != nil {
		return nil, err
	}

	return nil, nil
}

func (h *HTTPEndpoint) EntryReorder(r *router.Request) (any, error) {
	var req EntryReorderRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.EntryReorder(r.Context(), usecase.EntryReorderInput{IDs: req.IDs})
	if err != nil {
		return nil, err
	}

	return EntryReorderResponse{Updated: resp.Updated}, nil
}

func (h *HTTPEndpoint) CodeGenerate(r *router.Request) (any, error) {
	id, err := r.GetParamInt64("id")
	if err != nil {
		return nil, err
	}

	resp, err := h.uc.CodeGenerate(r.Context(), usecase.CodeGenerateInput{ID: id})
	if err != nil {
		return nil, err
	}

	return toCodeResponse(*resp), nil
}

// CodeList returns the current code of every entry whose secret could be
// opened.
func (h *HTTPEndpoint) CodeList(r *router.Request) (any, error) {
	resp, err := h.uc.CodeList(r.Context())
	if err != nil {
		return nil, err
	}

	codes := make([]CodeResponse, 0, len(resp.Codes))
	for _, c := range resp.Codes {
		codes = append(codes, toCodeResponse(c))
	}

	return CodesResponse{Codes: codes}, nil
}

// SyncPull returns a changelog when since is given, else a snapshot.
func (h *HTTPEndpoint) SyncPull(r *router.Request) (any, error) {
	sinceAt, err := r.GetQueryDate("since", time.RFC3339Nano)
	if err != nil {
		return nil, err
	}

	var since *time.Time
	if !sinceAt.IsZero() {
		since = &sinceAt
	}

	resp, err := h.uc.SyncPull(r.Context(), usecase.SyncPullInput{
		DeviceID: r.GetQuery("device_id"),
		Since:    since,
	})
	if err != nil {
		return nil, err
	}

	entries := make([]SyncEntryResponse, 0, len(resp.Entries))
	for _, e := range resp.Entries {
		entries = append(entries, SyncEntryResponse{
			ID:        e.ID,
			Name:      e.Name,
			Issuer:    e.Issuer,
			Secret:    e.Secret,
			Algorithm: e.Algorithm,
			Digits:    e.Digits,
			Period:    e.Period,
			Icon:      e.Icon,
			Color:     e.Color,
			Position:  e.Position,
			CreatedAt: e.CreatedAt,
			UpdatedAt: e.UpdatedAt,
			DeletedAt: e.DeletedAt,
		})
	}

	return SyncPullResponse{Entries: entries, SyncTime: resp.SyncTime}, nil
}

// SyncPush applies a device batch. An Idempotency-Key header makes retries
// of the same batch safe.
func (h *HTTPEndpoint) SyncPush(r *router.Request) (any, error) {
	var req SyncPushRequest
	if err := r.DecodeBodyLenient(&req); err != nil {
		return nil, err
	}

	items := make([]usecase.PushItem, 0, len(req.Entries))
	for _, raw := range req.Entries {
		items = append(items, decodePushItem(raw))
	}

	resp, err := h.uc.SyncPush(r.Context(), usecase.SyncPushInput{
		DeviceID:       req.DeviceID,
		IdempotencyKey: strings.TrimSpace(r.Header.Get(headerIdempotencyKey)),
		Items:          items,
	})
	if err != nil {
		return nil, err
	}

	out := SyncPushResponse{
		Updated:  resp.Updated,
		Failed:   resp.Failed,
		Results:  make([]SyncPushResultResponse, 0, len(resp.Results)),
		Failures: make([]SyncPushFailureResponse, 0, len(resp.Failures)),
		SyncTime: resp.SyncTime,
	}
	for _, res := range resp.Results {
		out.Results = append(out.Results, SyncPushResultResponse{Index: res.Index, ID: res.ID, Action: res.Action})
	}
	for _, f := range resp.Failures {
		var id *string
		if f.ID != nil {
			s := strconv.FormatInt(*f.ID, 10)
			id = &s
		}
		out.Failures = append(out.Failures, SyncPushFailureResponse{Index: f.Index, ID: id, Name: f.Name, Reason: f.Reason})
	}

	return out, nil
}

// ImportJSON takes the export document as the request body. A top-level
// "replaceAll": true or ?replace_all=true clears the vault first.
func (h *HTTPEndpoint) ImportJSON(r *router.Request) (any, error) {
	payload, err := r.ReadBody(maxImportBodyBytes)
	if err != nil {
		return nil, err
	}

	replaceAll, err := replaceAllQuery(r)
	if err != nil {
		return nil, err
	}

	resp, err := h.uc.ImportBulk(r.Context(), usecase.ImportBulkInput{
		Payload:    payload,
		ReplaceAll: replaceAll || normalizer.ReplaceAll(payload),
	})
	if err != nil {
		return nil, err
	}

	return toImportResponse(resp), nil
}

func (h *HTTPEndpoint) ImportURI(r *router.Request) (any, error) {
	var req ImportURIRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	var uris []string
	for _, block := range req.URIs {
		uris = append(uris, normalizer.ParseURIList(block)...)
	}

	resp, err := h.uc.ImportURIs(r.Context(), usecase.ImportURIsInput{URIs: uris, ReplaceAll: req.ReplaceAll})
	if err != nil {
		return nil, err
	}

	return toImportResponse(resp), nil
}

// ExportJSON returns plaintext secrets; the response must not be cached.
func (h *HTTPEndpoint) ExportJSON(r *router.Request) (any, error) {
	resp, err := h.uc.ExportJSON(r.Context())
	if err != nil {
		return nil, err
	}

	entries := make([]ExportEntryResponse, 0, len(resp.Entries))
	for _, e := range resp.Entries {
		entries = append(entries, ExportEntryResponse{
			Name:      e.Name,
			Issuer:    e.Issuer,
			Secret:    e.Secret,
			Algorithm: e.Algorithm,
			Digits:    e.Digits,
			Period:    e.Period,
			Type:      e.Type,
			Icon:      e.Icon,
			Color:     e.Color,
		})
	}

	return ExportJSONResponse{
		Version:    resp.Version,
		Type:       resp.Type,
		ExportDate: resp.ExportDate,
		Entries:    entries,
	}, nil
}

func (h *HTTPEndpoint) ExportURI(r *router.Request) (any, error) {
	resp, err := h.uc.ExportURIs(r.Context())
	if err != nil {
		return nil, err
	}

	return ExportURIResponse{URIs: resp.URIs, Count: resp.Count}, nil
}

func (h *HTTPEndpoint) BackupCreate(r *router.Request) (any, error) {
	resp, err := h.uc.BackupCreate(r.Context())
	if err != nil {
		return nil, err
	}

	return BackupCreateResponse{BackupResponse: toBackupResponse(*resp)}, nil
}

func (h *HTTPEndpoint) BackupList(r *router.Request) (any, error) {
	resp, err := h.uc.BackupList(r.Context())
	if err != nil {
		return nil, err
	}

	backups := make([]BackupResponse, 0, len(resp.Backups))
	for _, b := range resp.Backups {
		backups = append(backups, toBackupResponse(b))
	}

	return BackupsResponse{Backups: backups}, nil
}

func replaceAllQuery(r *router.Request) (bool, error) {
	v := r.GetQuery("replace_all")
	if v == "" {
		return false, nil
	}

	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, goerror.NewInvalidFormat("Invalid query replace_all")
	}

	return b, nil
}

func toEntryResponse(e entity.Entry) EntryResponse {
	return EntryResponse{
		ID:        e.ID,
		Name:      e.Name,
		Issuer:    e.Issuer,
		Algorithm: e.Algorithm,
		Digits:    e.Digits,
		Period:    e.Period,
		Icon:      e.Icon,
		Color:     e.Color,
		Position:  e.Position,
		CreatedAt: e.CreatedAt,
		UpdatedAt: e.UpdatedAt,
	}
}

func toCodeResponse(c usecase.CodeOutput) CodeResponse {
	return CodeResponse{
		EntryID:       c.EntryID,
		Token:         c.Token,
		TimeRemaining: c.TimeRemaining,
		Period:        c.Period,
	}
}

func toBackupResponse(b entity.Backup) BackupResponse {
	return BackupResponse{Key: b.Key, Size: b.Size, CreatedAt: b.CreatedAt, URL: b.URL}
}

func toImportResponse(resp *usecase.ImportOutput) ImportResponse {
	out := ImportResponse{
		Imported: resp.Imported,
		Failed:   resp.Failed,
		Variant:  resp.Variant,
		Details: ImportDetailsResponse{
			Imported: make([]ImportedEntryResponse, 0, len(resp.Entries)),
			Failed:   make([]ImportFailureResponse, 0, len(resp.Failures)),
		},
	}
	for _, e := range resp.Entries {
		out.Details.Imported = append(out.Details.Imported, ImportedEntryResponse{ID: e.ID, Name: e.Name, Issuer: e.Issuer})
	}
	for _, f := range resp.Failures {
		out.Details.Failed = append(out.Details.Failed, ImportFailureResponse{Name: f.Name, URI: f.URI, Reason: f.Reason})
	}

	return out
}

// decodePushItem never fails: an item that cannot be read is handed to the
// usecase as malformed and reported at its index.
func decodePushItem(raw json.RawMessage) usecase.PushItem {
	var e SyncPushItemRequest
	if err := json.Unmarshal(raw, &e); err != nil {
		return usecase.PushItem{Name: e.Name, Malformed: "Invalid entry format"}
	}

	item := usecase.PushItem{
		Name:      e.Name,
		Issuer:    e.Issuer,
		Secret:    e.Secret,
		Algorithm: e.Algorithm,
		Digits:    e.Digits,
		Period:    e.Period,
		Icon:      e.Icon,
		Color:     e.Color,
		Position:  e.Position,
		DeletedAt: e.DeletedAt,
	}
	id, ok := parsePushID(e.ID)
	if !ok {
		item.Malformed = "Invalid id"
		return item
	}
	item.ID = id

	return item
}

// parsePushID reads an id sent as a JSON number or numeric string. Absent or
// null means a new entry.
func parsePushID(raw json.RawMessage) (*int64, bool) {
	text := strings.TrimSpace(string(raw))
	if text == "" || text == "null" {
		return nil, true
	}
	if unq, err := strconv.Unquote(text); err == nil {
		text = strings.TrimSpace(unq)
	}

	id, err := strconv.ParseInt(text, 10, 64)
	if err != nil || id <= 0 {
		return nil, false
	}
	return &id, true
}

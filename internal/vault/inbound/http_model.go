package inbound

import (
	"encoding/json"
	"net/http"
	"time"
)

type EntryResponse struct {
	ID        int64     `json:"id,string"`
	Name      string    `json:"name"`
	Issuer    string    `json:"issuer"`
	Algorithm string    `json:"algorithm"`
	Digits    int       `json:"digits"`
	Period    int       `json:"period"`
	Icon      string    `json:"icon"`
	Color     string    `json:"color"`
	Position  int       `json:"position"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type EntriesResponse struct {
	Entries []EntryResponse `json:"entries"`
}

type EntryCreateRequest struct {
	Name      string `json:"name"`
	Issuer    string `json:"issuer"`
	Secret    string `json:"secret"`
	Algorithm string `json:"algorithm"`
	Digits    int    `json:"digits"`
	Period    int    `json:"period"`
	Icon      string `json:"icon"`
	Color     string `json:"color"`
	Position  int    `json:"position"`
}

type EntryCreateResponse struct {
	EntryResponse
}

func (EntryCreateResponse) StatusCode() int { return http.StatusCreated }

func (EntryCreateResponse) Message() string { return "Entry created" }

type EntryUpdateRequest struct {
	Name     *string `json:"name"`
	Issuer   *string `json:"issuer"`
	Icon     *string `json:"icon"`
	Color    *string `json:"color"`
	Position *int    `json:"position"`
}

type EntryReorderRequest struct {
	IDs []int64 `json:"ids"`
}

type EntryReorderResponse struct {
	Updated int64 `json:"updated"`
}

type CodeResponse struct {
	EntryID       int64  `json:"entry_id,string"`
	Token         string `json:"token"`
	TimeRemaining int    `json:"time_remaining"`
	Period        int    `json:"period"`
}

type CodesResponse struct {
	Codes []CodeResponse `json:"codes"`
}

type SyncEntryResponse struct {
	ID        int64      `json:"id,string"`
	Name      string     `json:"name"`
	Issuer    string     `json:"issuer"`
	Secret    *string    `json:"secret"`
	Algorithm string     `json:"algorithm"`
	Digits    int        `json:"digits"`
	Period    int        `json:"period"`
	Icon      string     `json:"icon"`
	Color     string     `json:"color"`
	Position  int        `json:"position"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at"`
}

type SyncPullResponse struct {
	Entries  []SyncEntryResponse `json:"entries"`
	SyncTime time.Time           `json:"sync_time"`
}

type SyncPushItemRequest struct {
	// ID accepts both a JSON number and a numeric string.
	ID        json.RawMessage `json:"id"`
	Name      string          `json:"name"`
	Issuer    string          `json:"issuer"`
	Secret    string          `json:"secret"`
	Algorithm string          `json:"algorithm"`
	Digits    int             `json:"digits"`
	Period    int             `json:"period"`
	Icon      string          `json:"icon"`
	Color     string          `json:"color"`
	Position  int             `json:"position"`
	DeletedAt *time.Time      `json:"deleted_at"`
}

// SyncPushRequest keeps entries raw so one undecodable item fails alone.
// Unknown fields such as created_at or user_id are ignored.
type SyncPushRequest struct {
	DeviceID string            `json:"device_id"`
	Entries  []json.RawMessage `json:"entries"`
}

type SyncPushResultResponse struct {
	Index  int    `json:"index"`
	ID     int64  `json:"id,string"`
	Action string `json:"action"`
}

type SyncPushFailureResponse struct {
	Index  int     `json:"index"`
	ID     *string `json:"id"`
	Name   string  `json:"name,omitempty"`
	Reason string  `json:"reason"`
}

type SyncPushResponse struct {
	Updated  int                       `json:"updated"`
	Failed   int                       `json:"failed"`
	Results  []SyncPushResultResponse  `json:"results"`
	Failures []SyncPushFailureResponse `json:"failures"`
	SyncTime time.Time                 `json:"sync_time"`
}

func (SyncPushResponse) Message() string { return "Push completed" }

type ImportURIRequest struct {
	// URIs may hold several otpauth URIs per element, one per line.
	URIs       []string `json:"uris"`
	ReplaceAll bool     `json:"replace_all"`
}

type ImportedEntryResponse struct {
	ID     int64  `json:"id,string"`
	Name   string `json:"name"`
	Issuer string `json:"issuer"`
}

type ImportFailureResponse struct {
	Name   string `json:"name,omitempty"`
	URI    string `json:"uri,omitempty"`
	Reason string `json:"reason"`
}

type ImportDetailsResponse struct {
	Imported []ImportedEntryResponse `json:"imported"`
	Failed   []ImportFailureResponse `json:"failed"`
}

type ImportResponse struct {
	Imported int                   `json:"imported"`
	Failed   int                   `json:"failed"`
	Variant  string                `json:"variant,omitempty"`
	Details  ImportDetailsResponse `json:"details"`
}

func (ImportResponse) Message() string { return "Import completed" }

type ExportEntryResponse struct {
	Name      string `json:"name"`
	Issuer    string `json:"issuer"`
	Secret    string `json:"secret"`
	Algorithm string `json:"algorithm"`
	Digits    int    `json:"digits"`
	Period    int    `json:"period"`
	Type      string `json:"type"`
	Icon      string `json:"icon,omitempty"`
	Color     string `json:"color,omitempty"`
}

type ExportJSONResponse struct {
	Version    string                `json:"version"`
	Type       string                `json:"type"`
	ExportDate time.Time             `json:"exportDate"`
	Entries    []ExportEntryResponse `json:"entries"`
}

type ExportURIResponse struct {
	URIs  []string `json:"uris"`
	Count int      `json:"count"`
}

type BackupResponse struct {
	Key       string    `json:"key"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"created_at"`
	URL       string    `json:"url,omitempty"`
}

type BackupCreateResponse struct {
	BackupResponse
}

func (BackupCreateResponse) StatusCode() int { return http.StatusCreated }

func (BackupCreateResponse) Message() string { return "Backup created" }

type BackupsResponse struct {
	Backups []BackupResponse `json:"backups"`
}

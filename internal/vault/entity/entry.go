package entity

import "time"

// Entry is a stored vault row. SecretEncrypted is an envelope, never plaintext.
type Entry struct {
	ID              int64
	UserID          int64
	Name            string
	Issuer          string
	SecretEncrypted string
	Algorithm       string
	Digits          int
	Period          int
	Icon            string
	Color           string
	Position        int
	CreatedAt       time.Time
	UpdatedAt       time.Time
	DeletedAt       *time.Time
}

// IsDeleted reports whether the entry is a tombstone.
func (e Entry) IsDeleted() bool {
	return e.DeletedAt != nil
}

// NewEntry is the insert payload for a fresh entry.
type NewEntry struct {
	UserID          int64
	Name            string
	Issuer          string
	SecretEncrypted string
	Algorithm       string
	Digits          int
	Period          int
	Icon            string
	Color           string
	Position        int
	Now             time.Time
}

// UpdateEntry overwrites the mutable fields of an owner's active entry.
// An empty SecretEncrypted keeps the stored envelope.
type UpdateEntry struct {
	ID              int64
	UserID          int64
	Name            string
	Issuer          string
	SecretEncrypted string
	Algorithm       string
	Digits          int
	Period          int
	Icon            string
	Color           string
	Position        int
	Now             time.Time
}

// PatchEntry changes only the display fields that are set.
type PatchEntry struct {
	ID       int64
	UserID   int64
	Name     *string
	Issuer   *string
	Icon     *string
	Color    *string
	Position *int
	Now      time.Time
}

// IsEmpty reports whether the patch sets no field.
func (p PatchEntry) IsEmpty() bool {
	return p.Name == nil && p.Issuer == nil && p.Icon == nil && p.Color == nil && p.Position == nil
}

// TombstoneResult describes the outcome of a soft delete.
type TombstoneResult int

const (
	// TombstoneMissing means no owner row has the id.
	TombstoneMissing TombstoneResult = iota
	// TombstoneApplied means the row was active and is now deleted.
	TombstoneApplied
	// TombstoneAlready means the row was already deleted and was left untouched.
	TombstoneAlready
)

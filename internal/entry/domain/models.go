// Package domain contains the persistence model binding a shop source to
// its remote Acumulus counterpart.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// AcumulusEntry is the durable record for one source. There is at most
// one row per (SourceType, SourceID); resends update the row in place.
// ConceptID is set while the remote invoice is a draft; EntryID and Token
// are both set once the invoice is accepted, and are always set together
// (the token is required for pdf retrieval).
type AcumulusEntry struct {
	ID snowflake.ID `gorm:"primaryKey"`

	SourceType string `gorm:"type:text;not null;uniqueIndex:ux_acumulus_entries_source"`
	SourceID   int64  `gorm:"not null;uniqueIndex:ux_acumulus_entries_source"`

	ConceptID *int64  `gorm:""`
	EntryID   *int64  `gorm:"index"`
	Token     *string `gorm:"type:text"`

	// LastStatus and LastMessages summarize the most recent send attempt
	// for the order-page status overview.
	LastStatus   string            `gorm:"type:text;not null;default:''"`
	LastMessages datatypes.JSONMap

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (AcumulusEntry) TableName() string { return "acumulus_entries" }

// IsConcept reports whether the entry still points at a draft.
func (e *AcumulusEntry) IsConcept() bool {
	return e.ConceptID != nil && e.EntryID == nil
}

// IsAccepted reports whether the remote system finalized the invoice.
func (e *AcumulusEntry) IsAccepted() bool {
	return e.EntryID != nil && e.Token != nil
}

package domain

import (
	"fmt"
	"strings"
	"time"
)

// SourceKind identifies which occupancy table an index entry mirrors.
type SourceKind string

const (
	SourceSubscription SourceKind = "SUBSCRIPTION"
	SourceOneOff       SourceKind = "ONE_OFF"
)

// ParseSourceKind is lenient about case and separators ("one-off", "oneoff").
func ParseSourceKind(s string) (SourceKind, bool) {
	norm := strings.NewReplacer("-", "", "_", "", " ", "").Replace(strings.ToUpper(strings.TrimSpace(s)))
	switch norm {
	case "SUBSCRIPTION", "ABONNEMENT":
		return SourceSubscription, true
	case "ONEOFF", "PONCTUELLE", "RESERVATION":
		return SourceOneOff, true
	}
	return "", false
}

const OneOffDescription = "One-off booking"

// SubscriptionDescription is the index description of a subscription slot.
func SubscriptionDescription(wd time.Weekday) string {
	return fmt.Sprintf("Subscription - %s", wd)
}

// UnavailabilityEntry is a derived, read-optimised record of an occupied range.
// Only the reconciler and the inbound sync consumer write these rows.
type UnavailabilityEntry struct {
	ID          int64      `json:"id" gorm:"primaryKey"`
	StableID    string     `json:"stable_id" gorm:"size:36;uniqueIndex"`
	VenueID     int64      `json:"venue_id" gorm:"uniqueIndex:idx_unavailability_source;index:idx_unavailability_venue_date"`
	Date        time.Time  `json:"date" gorm:"type:date;index:idx_unavailability_venue_date"`
	StartTime   Clock      `json:"start_time" gorm:"type:varchar(8)"`
	EndTime     Clock      `json:"end_time" gorm:"type:varchar(8)"`
	SourceKind  SourceKind `json:"source_kind" gorm:"size:16;uniqueIndex:idx_unavailability_source"`
	SourceID    *int64     `json:"source_id,omitempty" gorm:"uniqueIndex:idx_unavailability_source"`
	Description string     `json:"description"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (UnavailabilityEntry) TableName() string { return "unavailability_entries" }

// SourceKey identifies the occupancy row an entry mirrors.
type SourceKey struct {
	Kind SourceKind
	ID   int64
}

// Key returns the entry's source identity. ok is false for entries with no
// source row, which never match a live source.
func (e *UnavailabilityEntry) Key() (SourceKey, bool) {
	if e.SourceID == nil {
		return SourceKey{}, false
	}
	return SourceKey{Kind: e.SourceKind, ID: *e.SourceID}, true
}

// ChangeAction is what happened to an index entry.
type ChangeAction string

const (
	ActionCreated ChangeAction = "created"
	ActionUpdated ChangeAction = "updated"
	ActionDeleted ChangeAction = "deleted"
)

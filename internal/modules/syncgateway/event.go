// Package syncgateway carries unavailability changes to and from the remote
// booking system: outbound SyncEvents through pluggable sinks, inbound
// messages through a Redis Streams consumer.
package syncgateway

import (
	"github.com/goccy/go-json"

	"venuebook/internal/domain"
)

// Event is the wire form of one index change. Deleted events carry only the
// identity, placement and owner fields.
type Event struct {
	StableID    string              `json:"stableId"`
	Action      domain.ChangeAction `json:"action"`
	VenueID     int64               `json:"venueId"`
	Date        string              `json:"date"`
	Start       string              `json:"start"`
	End         string              `json:"end"`
	SourceKind  domain.SourceKind   `json:"sourceKind,omitempty"`
	SourceID    *int64              `json:"sourceId,omitempty"`
	Description string              `json:"description,omitempty"`
	OwnerPhone  string              `json:"ownerPhone,omitempty"`
}

func NewEvent(action domain.ChangeAction, e domain.UnavailabilityEntry, ownerPhone string) Event {
	ev := Event{
		StableID:   e.StableID,
		Action:     action,
		VenueID:    e.VenueID,
		Date:       domain.DateOf(e.Date).Format(domain.DateLayout),
		Start:      e.StartTime.String(),
		End:        e.EndTime.String(),
		OwnerPhone: ownerPhone,
	}
	if action != domain.ActionDeleted {
		ev.SourceKind = e.SourceKind
		ev.SourceID = e.SourceID
		ev.Description = e.Description
	}
	return ev
}

func (e Event) Marshal() ([]byte, error) {
	return json.Marshal(e)
}

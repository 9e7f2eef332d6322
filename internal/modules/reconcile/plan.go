package reconcile

import (
	"time"

	"venuebook/internal/domain"
)

// Plan is the set of index writes that makes a venue's index mirror its live
// sources.
type Plan struct {
	VenueID int64
	Creates []domain.UnavailabilityEntry
	Updates []domain.UnavailabilityEntry
	Deletes []domain.UnavailabilityEntry
}

func (p *Plan) Empty() bool {
	return len(p.Creates) == 0 && len(p.Updates) == 0 && len(p.Deletes) == 0
}

// target is what the index entry of one live source row should look like.
type target struct {
	key         domain.SourceKey
	date        time.Time
	start       domain.Clock
	end         domain.Clock
	description string
}

func (t target) matches(e *domain.UnavailabilityEntry) bool {
	return domain.DateOf(e.Date).Equal(t.date) &&
		e.StartTime == t.start &&
		e.EndTime == t.end &&
		e.Description == t.description
}

func (t target) applyTo(e *domain.UnavailabilityEntry) {
	e.Date = t.date
	e.StartTime = t.start
	e.EndTime = t.end
	e.Description = t.description
}

func targets(slots []domain.SubscriptionSlot, bookings []domain.OneOffBooking) []target {
	out := make([]target, 0, len(slots)+len(bookings))
	for _, s := range slots {
		out = append(out, target{
			key:         domain.SourceKey{Kind: domain.SourceSubscription, ID: s.ID},
			date:        domain.DateOf(s.Date),
			start:       s.StartTime,
			end:         s.EndTime,
			description: domain.SubscriptionDescription(s.Weekday),
		})
	}
	for _, b := range bookings {
		out = append(out, target{
			key:         domain.SourceKey{Kind: domain.SourceOneOff, ID: b.ID},
			date:        domain.DateOf(b.Date),
			start:       b.StartTime,
			end:         b.EndTime,
			description: domain.OneOffDescription,
		})
	}
	return out
}

// BuildPlan diffs index against the live slots and bookings of one venue.
//
// Entries are matched to sources by (kind, source id) only. When several
// entries share a source identity the first one in index order is kept and the
// rest are deleted. Entries without a live source, including those with no
// source id at all, are deleted.
func BuildPlan(
	venueID int64,
	index []domain.UnavailabilityEntry,
	slots []domain.SubscriptionSlot,
	bookings []domain.OneOffBooking,
	newStableID func() string,
) Plan {
	plan := Plan{VenueID: venueID}

	byKey := make(map[domain.SourceKey]int, len(index))
	for i := range index {
		key, ok := index[i].Key()
		if !ok {
			continue
		}
		if _, dup := byKey[key]; !dup {
			byKey[key] = i
		}
	}

	claimed := make([]bool, len(index))
	for _, t := range targets(slots, bookings) {
		i, ok := byKey[t.key]
		if !ok {
			sourceID := t.key.ID
			entry := domain.UnavailabilityEntry{
				StableID:   newStableID(),
				VenueID:    venueID,
				SourceKind: t.key.Kind,
				SourceID:   &sourceID,
			}
			t.applyTo(&entry)
			plan.Creates = append(plan.Creates, entry)
			continue
		}
		claimed[i] = true
		if t.matches(&index[i]) {
			continue
		}
		entry := index[i]
		t.applyTo(&entry)
		plan.Updates = append(plan.Updates, entry)
	}

	for i := range index {
		if !claimed[i] {
			plan.Deletes = append(plan.Deletes, index[i])
		}
	}
	return plan
}

package subscription

// VenueNotifier is told about a venue whose occupancy changed, once the change
// is committed. It must not block.
type VenueNotifier interface {
	VenueChanged(venueID int64)
}

type noopNotifier struct{}

func (noopNotifier) VenueChanged(int64) {}

package subscription

import "venuebook/internal/domain"

var (
	errEndBeforeStart = &domain.ValidationError{Field: "end_date", Reason: "must not be before start_date"}
	errPhoneRequired  = &domain.ValidationError{Field: "client_phone", Reason: "must not be empty"}
	errInvalidStatus  = &domain.ValidationError{Field: "status", Reason: "must be one of active, suspended, ended"}
)

func subscriptionNotFound(id string) error {
	return &domain.NotFoundError{Entity: "subscription", ID: id}
}

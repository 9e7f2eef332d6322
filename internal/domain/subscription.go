package domain

import "time"

type SubscriptionStatus string

const (
	SubscriptionActive    SubscriptionStatus = "active"
	SubscriptionSuspended SubscriptionStatus = "suspended"
	SubscriptionEnded     SubscriptionStatus = "ended"
)

func (s SubscriptionStatus) Valid() bool {
	switch s {
	case SubscriptionActive, SubscriptionSuspended, SubscriptionEnded:
		return true
	}
	return false
}

// DefaultSubscriptionSpan is used when a subscription is created without an end date.
const DefaultSubscriptionSpan = 28 * 24 * time.Hour

// Subscription is a recurring weekly booking of a venue. Its concrete
// occurrences live in Slots.
type Subscription struct {
	ID          string             `json:"id" gorm:"primaryKey;size:36"`
	VenueID     int64              `json:"venue_id" gorm:"index"`
	ClientPhone string             `json:"client_phone" gorm:"size:32"`
	StartDate   time.Time          `json:"start_date" gorm:"type:date"`
	EndDate     time.Time          `json:"end_date" gorm:"type:date"`
	TotalPrice  float64            `json:"total_price"`
	Status      SubscriptionStatus `json:"status" gorm:"size:16"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`

	Slots []SubscriptionSlot `json:"slots,omitempty" gorm:"foreignKey:SubscriptionID;constraint:OnDelete:CASCADE"`
}

func (Subscription) TableName() string { return "subscriptions" }

// StatusOn derives the lifecycle status on the given day. Suspension is sticky.
func (s *Subscription) StatusOn(today time.Time) SubscriptionStatus {
	if s.Status == SubscriptionSuspended {
		return SubscriptionSuspended
	}
	if DateOf(today).After(DateOf(s.EndDate)) {
		return SubscriptionEnded
	}
	return SubscriptionActive
}

// SubscriptionSlot is one dated occurrence of a subscription's weekly template.
// Date always falls on Weekday and within the subscription's date range.
type SubscriptionSlot struct {
	ID             int64        `json:"id" gorm:"primaryKey"`
	SubscriptionID string       `json:"subscription_id" gorm:"size:36;index"`
	Weekday        time.Weekday `json:"weekday"`
	Date           time.Time    `json:"date" gorm:"type:date;index"`
	StartTime      Clock        `json:"start_time" gorm:"type:varchar(8)"`
	EndTime        Clock        `json:"end_time" gorm:"type:varchar(8)"`
	HourlyPrice    float64      `json:"hourly_price"`

	// VenueID is filled by queries joining the parent subscription.
	VenueID int64 `json:"venue_id,omitempty" gorm:"->;-:migration"`
}

func (SubscriptionSlot) TableName() string { return "subscription_slots" }

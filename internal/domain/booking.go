package domain

import "time"

// OneOffBooking is a single, non-recurring reservation of a venue.
type OneOffBooking struct {
	ID          int64     `json:"id" gorm:"primaryKey"`
	VenueID     int64     `json:"venue_id" gorm:"index:idx_one_off_venue_date"`
	Date        time.Time `json:"date" gorm:"type:date;index:idx_one_off_venue_date"`
	StartTime   Clock     `json:"start_time" gorm:"type:varchar(8)"`
	EndTime     Clock     `json:"end_time" gorm:"type:varchar(8)"`
	Price       float64   `json:"price"`
	ClientPhone string    `json:"client_phone" gorm:"size:32"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (OneOffBooking) TableName() string { return "one_off_bookings" }

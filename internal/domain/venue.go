package domain

import "time"

// Owner operates one or more venues. Phone is the identifier remote systems use.
type Owner struct {
	ID        int64     `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone" gorm:"uniqueIndex;size:32"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Owner) TableName() string { return "owners" }

// Venue is a rentable facility. CloseTime earlier than OpenTime means the venue
// stays open past midnight.
type Venue struct {
	ID          int64     `json:"id" gorm:"primaryKey"`
	OwnerID     int64     `json:"owner_id" gorm:"index"`
	Name        string    `json:"name"`
	OpenTime    Clock     `json:"open_time" gorm:"type:varchar(8)"`
	CloseTime   Clock     `json:"close_time" gorm:"type:varchar(8)"`
	HourlyPrice float64   `json:"hourly_price"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (Venue) TableName() string { return "venues" }

func (v *Venue) IsOvernight() bool {
	return !v.CloseTime.IsMidnight() && v.CloseTime < v.OpenTime
}

// Hours returns the venue's opening hours.
func (v *Venue) Hours() OpeningHours {
	return OpeningHours{Open: v.OpenTime, Close: v.CloseTime}
}

// OpeningHours is a daily open/close pair. Close == Midnight means the venue
// closes at the end of the day.
type OpeningHours struct {
	Open  Clock
	Close Clock
}

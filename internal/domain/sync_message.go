package domain

import (
	"time"

	"gorm.io/datatypes"
)

// RejectedSyncMessage keeps an inbound notification that could not be parsed.
type RejectedSyncMessage struct {
	ID         int64          `json:"id" gorm:"primaryKey"`
	MessageID  string         `json:"message_id" gorm:"size:64"`
	Payload    datatypes.JSON `json:"payload"`
	Field      string         `json:"field"`
	Reason     string         `json:"reason"`
	ReceivedAt time.Time      `json:"received_at"`
}

func (RejectedSyncMessage) TableName() string { return "rejected_sync_messages" }

package db

import "time"

// Keys of the persisted session slots.
const (
	SlotAccessToken  = "access"
	SlotRefreshToken = "refresh"
	SlotUsername     = "username"
)

// SessionSlots lists every slot that makes up a session.
var SessionSlots = []string{SlotAccessToken, SlotRefreshToken, SlotUsername}

// Slot is a single persisted string value. Slots are independent of each other.
type Slot struct {
	Name      string    `gorm:"primaryKey" json:"name"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

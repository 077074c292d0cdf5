package model

import "time"

// Message is a public chat line (player or system-sourced).
type Message struct {
	ID       int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	SenderID *int64    `gorm:"index" json:"sender_id"` // nil = system
	Sender   string    `gorm:"size:32" json:"sender"`
	Text     string    `gorm:"size:128;not null" json:"text"`
	SentAt   time.Time `gorm:"autoCreateTime" json:"sent_at"`
}

// PrivateMessage is visible only to its recipient (command replies).
type PrivateMessage struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	RecipientID int64     `gorm:"index;not null" json:"recipient_id"`
	Sender      string    `gorm:"size:32" json:"sender"`
	Text        string    `gorm:"size:128;not null" json:"text"`
	SentAt      time.Time `gorm:"autoCreateTime" json:"sent_at"`
}

// Recipe is a seeded crafting entry derived from item definitions.
type Recipe struct {
	ID              int64   `gorm:"primaryKey;autoIncrement" json:"id"`
	OutputItemDefID int64   `gorm:"uniqueIndex;not null" json:"output_item_def_id"`
	OutputQuantity  int     `gorm:"default:1" json:"output_quantity"`
	CraftingTime    float64 `json:"crafting_time"`
}

package model

import "time"

// Facing directions used by movement and drop placement.
const (
	DirUp    = "up"
	DirDown  = "down"
	DirLeft  = "left"
	DirRight = "right"
)

// Player is the authoritative row for one connected identity.
// Stats are clamped to [0,100] by every reducer that touches them.
type Player struct {
	ID             int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	AccountID      int64      `gorm:"uniqueIndex;not null" json:"account_id"`
	Username       string     `gorm:"uniqueIndex;size:32;not null" json:"username"`
	Health         float64    `gorm:"default:100" json:"health"`
	Hunger         float64    `gorm:"default:100" json:"hunger"`
	Thirst         float64    `gorm:"default:100" json:"thirst"`
	Warmth         float64    `gorm:"default:100" json:"warmth"`
	Stamina        float64    `gorm:"default:100" json:"stamina"`
	PosX           float64    `json:"pos_x"`
	PosY           float64    `json:"pos_y"`
	Direction      string     `gorm:"size:8;default:down" json:"direction"`
	IsOnline       bool       `gorm:"default:false" json:"is_online"`
	IsDead         bool       `gorm:"default:false" json:"is_dead"`
	DeathTimestamp *time.Time `json:"death_timestamp"`
	LastUpdate     time.Time  `gorm:"autoUpdateTime" json:"last_update"`
	LastConsumedAt *time.Time `json:"last_consumed_at"`
	CreatedAt      time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

// PlayerPin is a single map marker per player.
type PlayerPin struct {
	PlayerID int64 `gorm:"primaryKey" json:"player_id"`
	PinX     int   `json:"pin_x"`
	PinY     int   `json:"pin_y"`
}

// PlayerKillCommandCooldown throttles /kill and /respawn per player.
type PlayerKillCommandCooldown struct {
	PlayerID   int64     `gorm:"primaryKey" json:"player_id"`
	LastUsedAt time.Time `gorm:"not null" json:"last_used_at"`
}

// PlayerCorpse holds the remains of a dead player; its inventory lives
// in InventoryItems whose location points at the corpse container.
type PlayerCorpse struct {
	ID         int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	PlayerID   int64     `gorm:"index;not null" json:"player_id"`
	Username   string    `gorm:"size:32" json:"username"`
	PosX       float64   `json:"pos_x"`
	PosY       float64   `json:"pos_y"`
	ChunkIndex int       `gorm:"index" json:"chunk_index"`
	DiedAt     time.Time `gorm:"not null" json:"died_at"`
}

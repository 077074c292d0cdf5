package model

import "time"

// Resource nodes share the same column set; each kind keeps its own
// table so clients can subscribe to them independently and chunk
// scans stay narrow. respawn_at != nil means harvested/invisible.

// Tree is a harvestable wood node with hit points.
type Tree struct {
	ID         int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	PosX       float64    `json:"pos_x"`
	PosY       float64    `json:"pos_y"`
	ChunkIndex int        `gorm:"index" json:"chunk_index"`
	Health     *int       `json:"health"`
	RespawnAt  *time.Time `json:"respawn_at"`
}

// Stone is a harvestable rock node with hit points.
type Stone struct {
	ID         int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	PosX       float64    `json:"pos_x"`
	PosY       float64    `json:"pos_y"`
	ChunkIndex int        `gorm:"index" json:"chunk_index"`
	Health     *int       `json:"health"`
	RespawnAt  *time.Time `json:"respawn_at"`
}

// Mushroom is a single-interaction collectible.
type Mushroom struct {
	ID         int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	PosX       float64    `json:"pos_x"`
	PosY       float64    `json:"pos_y"`
	ChunkIndex int        `gorm:"index" json:"chunk_index"`
	RespawnAt  *time.Time `json:"respawn_at"`
}

// Hemp is a single-interaction collectible.
type Hemp struct {
	ID         int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	PosX       float64    `json:"pos_x"`
	PosY       float64    `json:"pos_y"`
	ChunkIndex int        `gorm:"index" json:"chunk_index"`
	RespawnAt  *time.Time `json:"respawn_at"`
}

// Pumpkin is a single-interaction collectible.
type Pumpkin struct {
	ID         int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	PosX       float64    `json:"pos_x"`
	PosY       float64    `json:"pos_y"`
	ChunkIndex int        `gorm:"index" json:"chunk_index"`
	RespawnAt  *time.Time `json:"respawn_at"`
}

// Corn is a single-interaction collectible.
type Corn struct {
	ID         int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	PosX       float64    `json:"pos_x"`
	PosY       float64    `json:"pos_y"`
	ChunkIndex int        `gorm:"index" json:"chunk_index"`
	RespawnAt  *time.Time `json:"respawn_at"`
}

// Campfire is a placed container that also blocks resource respawn.
type Campfire struct {
	ID         int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	OwnerID    int64      `gorm:"index" json:"owner_id"`
	PosX       float64    `json:"pos_x"`
	PosY       float64    `json:"pos_y"`
	ChunkIndex int        `gorm:"index" json:"chunk_index"`
	IsBurning  bool       `gorm:"default:false" json:"is_burning"`
	PlacedAt   time.Time  `gorm:"autoCreateTime" json:"placed_at"`
}

// WoodenStorageBox is a placed container that blocks resource respawn.
type WoodenStorageBox struct {
	ID         int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	OwnerID    int64     `gorm:"index" json:"owner_id"`
	PosX       float64   `json:"pos_x"`
	PosY       float64   `json:"pos_y"`
	ChunkIndex int       `gorm:"index" json:"chunk_index"`
	PlacedAt   time.Time `gorm:"autoCreateTime" json:"placed_at"`
}

// Stash is a small hidden container.
type Stash struct {
	ID         int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	OwnerID    int64     `gorm:"index" json:"owner_id"`
	PosX       float64   `json:"pos_x"`
	PosY       float64   `json:"pos_y"`
	ChunkIndex int       `gorm:"index" json:"chunk_index"`
	IsHidden   bool      `gorm:"default:true" json:"is_hidden"`
	PlacedAt   time.Time `gorm:"autoCreateTime" json:"placed_at"`
}

// DroppedItem is a loose stack on the ground awaiting pickup or despawn.
type DroppedItem struct {
	ID         int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	ItemDefID  int64     `gorm:"index;not null" json:"item_def_id"`
	Quantity   int       `gorm:"not null" json:"quantity"`
	PosX       float64   `json:"pos_x"`
	PosY       float64   `json:"pos_y"`
	ChunkIndex int       `gorm:"index" json:"chunk_index"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
}

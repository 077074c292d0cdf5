package model

import "time"

// Times of day, in cycle order.
const (
	TimeDawn            = "Dawn"
	TimeTwilightMorning = "TwilightMorning"
	TimeMorning         = "Morning"
	TimeNoon            = "Noon"
	TimeAfternoon       = "Afternoon"
	TimeDusk            = "Dusk"
	TimeTwilightEvening = "TwilightEvening"
	TimeNight           = "Night"
	TimeMidnight        = "Midnight"
)

// WorldState is the singleton day/night row. CycleProgress stays in
// [0,1); TimeOfDay is always the threshold function of it.
type WorldState struct {
	ID            int64     `gorm:"primaryKey" json:"id"`
	CycleProgress float64   `gorm:"default:0" json:"cycle_progress"`
	TimeOfDay     string    `gorm:"size:16;default:Dawn" json:"time_of_day"`
	CycleCount    int64     `gorm:"default:0" json:"cycle_count"`
	IsFullMoon    bool      `gorm:"default:false" json:"is_full_moon"`
	LastTick      time.Time `json:"last_tick"`
}

// Cloud is a drifting decorative entity replicated to clients.
type Cloud struct {
	ID         int64   `gorm:"primaryKey;autoIncrement" json:"id"`
	PosX       float64 `json:"pos_x"`
	PosY       float64 `json:"pos_y"`
	DriftX     float64 `json:"drift_x"`
	DriftY     float64 `json:"drift_y"`
	Shape      int     `json:"shape"`
	Width      float64 `json:"width"`
	Height     float64 `json:"height"`
	Rotation   float64 `json:"rotation"`
	Opacity    float64 `json:"opacity"`
	Blur       float64 `json:"blur"`
	ChunkIndex int     `gorm:"index" json:"chunk_index"`
}

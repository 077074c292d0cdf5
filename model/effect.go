package model

import "time"

// Timed effect types.
const (
	EffectHealthRegen  = "HealthRegen"
	EffectBandageBurst = "BandageBurst"
	EffectBleed        = "Bleed"
	EffectDamage       = "Damage"
)

// ActiveConsumableEffect is one running timed stat modification.
// TotalAmount is applied linearly over [StartedAt, EndsAt] in steps
// of TickIntervalMicros; AmountAppliedSoFar never exceeds TotalAmount.
type ActiveConsumableEffect struct {
	EffectID                int64     `gorm:"primaryKey;autoIncrement" json:"effect_id"`
	PlayerID                int64     `gorm:"index;not null" json:"player_id"`
	ItemDefID               int64     `gorm:"not null" json:"item_def_id"`
	ConsumingItemInstanceID *int64    `json:"consuming_item_instance_id"`
	EffectType              string    `gorm:"size:16;not null" json:"effect_type"`
	StartedAt               time.Time `gorm:"not null" json:"started_at"`
	EndsAt                  time.Time `gorm:"not null" json:"ends_at"`
	NextTickAt              time.Time `gorm:"index;not null" json:"next_tick_at"`
	TickIntervalMicros      int64     `gorm:"not null" json:"tick_interval_micros"`
	TotalAmount             *float64  `json:"total_amount"`
	AmountAppliedSoFar      *float64  `json:"amount_applied_so_far"`
}

// IsHarmful reports whether the effect reduces health when it lands.
func (e *ActiveConsumableEffect) IsHarmful() bool {
	return e.EffectType == EffectBleed || e.EffectType == EffectDamage
}

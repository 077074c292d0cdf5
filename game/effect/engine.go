package effect

import (
	"context"
	"errors"
	"time"

	"github.com/embervale/server/game/world"
	"github.com/embervale/server/model"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Service ticks active consumable effects: heal-over-time, bandage
// bursts, bleeds, and damage. One effect row applies its total amount
// linearly over [started_at, ends_at]; the tick resolves the amount
// from elapsed wall time, so skipped ticks converge to the same total.
type Service struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewService creates a new effect Service.
func NewService(db *gorm.DB, logger *zap.Logger) *Service {
	return &Service{db: db, logger: logger}
}

// CancelHealthRegenEffects deletes the player's HealthRegen rows
// without applying their remaining amounts.
func CancelHealthRegenEffects(tx *gorm.DB, playerID int64) error {
	return tx.Where("player_id = ? AND effect_type = ?", playerID, model.EffectHealthRegen).
		Delete(&model.ActiveConsumableEffect{}).Error
}

// CancelBandageBurstEffects deletes the player's BandageBurst rows.
func CancelBandageBurstEffects(tx *gorm.DB, playerID int64) error {
	return tx.Where("player_id = ? AND effect_type = ?", playerID, model.EffectBandageBurst).
		Delete(&model.ActiveConsumableEffect{}).Error
}

// CancelBleedEffects deletes the player's Bleed rows.
func CancelBleedEffects(tx *gorm.DB, playerID int64) error {
	return tx.Where("player_id = ? AND effect_type = ?", playerID, model.EffectBleed).
		Delete(&model.ActiveConsumableEffect{}).Error
}

// ApplyBleed starts a bleed on the player. Landing damage cancels any
// running heals, per the tick rules.
func (svc *Service) ApplyBleed(ctx context.Context, playerID, sourceDefID int64, total float64, duration time.Duration, now time.Time) error {
	return svc.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		applied := 0.0
		eff := &model.ActiveConsumableEffect{
			PlayerID:           playerID,
			ItemDefID:          sourceDefID,
			EffectType:         model.EffectBleed,
			StartedAt:          now,
			EndsAt:             now.Add(duration),
			NextTickAt:         now.Add(time.Second),
			TickIntervalMicros: 1_000_000,
			TotalAmount:        &total,
			AmountAppliedSoFar: &applied,
		}
		return tx.Create(eff).Error
	})
}

// Tick processes every effect whose next_tick_at has passed. Per-row
// failures are logged and skipped so one broken effect cannot stall
// the rest.
func (svc *Service) Tick(ctx context.Context, now time.Time) error {
	return svc.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var due []model.ActiveConsumableEffect
		if err := tx.Where("next_tick_at <= ?", now).Order("effect_id").Find(&due).Error; err != nil {
			return err
		}
		for i := range due {
			if err := svc.tickOne(tx, &due[i], now); err != nil {
				svc.logger.Warn("effect tick failed",
					zap.Int64("effect_id", due[i].EffectID),
					zap.String("effect_type", due[i].EffectType),
					zap.Error(err))
			}
		}
		return nil
	})
}

func (svc *Service) tickOne(tx *gorm.DB, eff *model.ActiveConsumableEffect, now time.Time) error {
	// The row may have been cancelled by an earlier effect in the same
	// sweep (a bleed can sweep away a queued heal). Skip it if so.
	var fresh model.ActiveConsumableEffect
	if err := tx.First(&fresh, eff.EffectID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}
	eff = &fresh

	var p model.Player
	if err := tx.First(&p, eff.PlayerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return tx.Delete(eff).Error
		}
		return err
	}

	total := 0.0
	if eff.TotalAmount != nil {
		total = *eff.TotalAmount
	}
	applied := 0.0
	if eff.AmountAppliedSoFar != nil {
		applied = *eff.AmountAppliedSoFar
	}

	// Linear progress over the effect window, never past the total.
	duration := eff.EndsAt.Sub(eff.StartedAt).Seconds()
	progress := 1.0
	if duration > 0 && now.Before(eff.EndsAt) {
		progress = now.Sub(eff.StartedAt).Seconds() / duration
	}
	expected := total * progress
	tickAmount := expected - applied
	if tickAmount < 0 {
		tickAmount = 0
	}

	healthBefore := p.Health
	delta := tickAmount
	if eff.IsHarmful() {
		delta = -tickAmount
	}
	p.Health = clamp(p.Health + delta)
	if p.Health != healthBefore {
		if err := tx.Model(&p).Update("health", p.Health).Error; err != nil {
			return err
		}
	}

	// Landing damage interrupts any running heals.
	if eff.IsHarmful() && p.Health < healthBefore {
		if err := CancelHealthRegenEffects(tx, eff.PlayerID); err != nil {
			return err
		}
		if err := CancelBandageBurstEffects(tx, eff.PlayerID); err != nil {
			return err
		}
	}

	applied += tickAmount
	if !now.Before(eff.EndsAt) {
		return svc.complete(tx, eff)
	}

	eff.AmountAppliedSoFar = &applied
	eff.NextTickAt = eff.NextTickAt.Add(time.Duration(eff.TickIntervalMicros) * time.Microsecond)
	if !eff.NextTickAt.After(now) {
		// Catch up after coalesced ticks.
		eff.NextTickAt = now.Add(time.Duration(eff.TickIntervalMicros) * time.Microsecond)
	}
	return tx.Model(eff).Updates(map[string]interface{}{
		"amount_applied_so_far": applied,
		"next_tick_at":          eff.NextTickAt,
	}).Error
}

// complete runs the completion hook, deletes the effect row, and
// consumes one unit of the item that started it.
func (svc *Service) complete(tx *gorm.DB, eff *model.ActiveConsumableEffect) error {
	if eff.EffectType == model.EffectBandageBurst {
		if err := CancelBleedEffects(tx, eff.PlayerID); err != nil {
			return err
		}
	}
	if err := tx.Delete(eff).Error; err != nil {
		return err
	}
	if eff.ConsumingItemInstanceID == nil {
		return nil
	}
	var inv model.InventoryItem
	if err := tx.First(&inv, *eff.ConsumingItemInstanceID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil // already gone, nothing to consume
		}
		return err
	}
	if inv.Quantity <= 1 {
		return tx.Delete(&inv).Error
	}
	return tx.Model(&inv).Update("quantity", inv.Quantity-1).Error
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > world.MaxStatValue {
		return world.MaxStatValue
	}
	return v
}

package item

import (
	"context"
	"errors"
	"time"

	"github.com/embervale/server/game/world"
	"github.com/embervale/server/model"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const defaultEffectTickMicros = 1_000_000

// BandageItemName marks the consumable whose heal-over-time runs as a
// BandageBurst (cancels bleeds on completion).
const BandageItemName = "Bandage"

// ConsumeService applies consumable items to players.
type ConsumeService struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewConsumeService creates a new ConsumeService.
func NewConsumeService(db *gorm.DB, logger *zap.Logger) *ConsumeService {
	return &ConsumeService{db: db, logger: logger}
}

func clampStat(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > world.MaxStatValue {
		return world.MaxStatValue
	}
	return v
}

// Consume eats/drinks/applies the given item instance. Hunger, thirst,
// and stamina gains land immediately; a health gain with a positive
// duration is scheduled as a timed effect instead, and the item is
// consumed when that effect completes.
func (svc *ConsumeService) Consume(ctx context.Context, playerID, instanceID int64, now time.Time) error {
	return svc.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p model.Player
		if err := tx.First(&p, playerID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errors.New("player not found")
			}
			return err
		}
		if p.IsDead {
			return errors.New("you are dead")
		}
		if p.LastConsumedAt != nil {
			elapsed := now.Sub(*p.LastConsumedAt).Microseconds()
			if elapsed < world.ConsumptionCooldownMicros {
				return errors.New("you must wait before consuming again")
			}
		}

		var inv model.InventoryItem
		if err := tx.First(&inv, instanceID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errors.New("item instance not found")
			}
			return err
		}
		if !ownedBy(inv.Location, playerID) {
			return errors.New("item does not belong to you")
		}
		var def model.ItemDefinition
		if err := tx.First(&def, inv.ItemDefID).Error; err != nil {
			return err
		}
		if def.Category != model.CategoryConsumable {
			return errors.New("item is not consumable")
		}

		timedHeal := def.ConsumableDurationSecs != nil && *def.ConsumableDurationSecs > 0 &&
			def.ConsumableHealthGain != nil && *def.ConsumableHealthGain != 0

		if def.ConsumableHungerSatiated != nil {
			p.Hunger = clampStat(p.Hunger + *def.ConsumableHungerSatiated)
		}
		if def.ConsumableThirstQuenched != nil {
			p.Thirst = clampStat(p.Thirst + *def.ConsumableThirstQuenched)
		}
		if def.ConsumableStaminaGain != nil {
			p.Stamina = clampStat(p.Stamina + *def.ConsumableStaminaGain)
		}
		if !timedHeal && def.ConsumableHealthGain != nil {
			p.Health = clampStat(p.Health + *def.ConsumableHealthGain)
		}
		p.LastConsumedAt = &now
		if err := tx.Save(&p).Error; err != nil {
			return err
		}

		if timedHeal {
			effectType := model.EffectHealthRegen
			if def.Name == BandageItemName {
				effectType = model.EffectBandageBurst
			}
			total := *def.ConsumableHealthGain
			applied := 0.0
			duration := time.Duration(*def.ConsumableDurationSecs * float64(time.Second))
			eff := &model.ActiveConsumableEffect{
				PlayerID:                playerID,
				ItemDefID:               def.ID,
				ConsumingItemInstanceID: &inv.InstanceID,
				EffectType:              effectType,
				StartedAt:               now,
				EndsAt:                  now.Add(duration),
				NextTickAt:              now.Add(defaultEffectTickMicros * time.Microsecond),
				TickIntervalMicros:      defaultEffectTickMicros,
				TotalAmount:             &total,
				AmountAppliedSoFar:      &applied,
			}
			return tx.Create(eff).Error
		}
		return RemoveQuantityTx(tx, &inv, 1)
	})
}

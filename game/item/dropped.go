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

// DroppedItemService owns the loose-item lifecycle: dropping, pickup,
// and the scheduled despawn sweep.
type DroppedItemService struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewDroppedItemService creates a new DroppedItemService.
func NewDroppedItemService(db *gorm.DB, logger *zap.Logger) *DroppedItemService {
	return &DroppedItemService{db: db, logger: logger}
}

// CreateDroppedTx inserts a DroppedItem at (x, y) with its chunk index
// stamped from the position.
func CreateDroppedTx(tx *gorm.DB, defID int64, qty int, x, y float64, now time.Time) (*model.DroppedItem, error) {
	d := &model.DroppedItem{
		ItemDefID:  defID,
		Quantity:   qty,
		PosX:       x,
		PosY:       y,
		ChunkIndex: world.ChunkIndex(x, y),
		CreatedAt:  now,
	}
	if err := tx.Create(d).Error; err != nil {
		return nil, err
	}
	return d, nil
}

// Drop removes qty from an owned stack and places it on the ground in
// front of the player.
func (svc *DroppedItemService) Drop(ctx context.Context, playerID, instanceID int64, qty int, now time.Time) error {
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
		if qty <= 0 || qty > inv.Quantity {
			return errors.New("invalid drop quantity")
		}

		x, y := world.CalculateDropPosition(&p)
		if _, err := CreateDroppedTx(tx, inv.ItemDefID, qty, x, y, now); err != nil {
			return err
		}
		return RemoveQuantityTx(tx, &inv, qty)
	})
}

// Pickup moves a dropped stack into the player's inventory. On an
// inventory-full failure the DroppedItem stays put and the error is
// surfaced to the client.
func (svc *DroppedItemService) Pickup(ctx context.Context, playerID, droppedID int64) error {
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

		var d model.DroppedItem
		if err := tx.First(&d, droppedID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errors.New("dropped item not found")
			}
			return err
		}
		if world.DistSq(p.PosX, p.PosY, d.PosX, d.PosY) > world.PickupRadiusSquared {
			return errors.New("too far away")
		}
		if err := AddItemTx(tx, playerID, d.ItemDefID, d.Quantity); err != nil {
			return err
		}
		return tx.Delete(&d).Error
	})
}

// DespawnSweep deletes dropped items older than their definition's
// respawn_time_seconds (default 300s). Rows with broken definitions
// are logged and left for the next sweep.
func (svc *DroppedItemService) DespawnSweep(ctx context.Context, now time.Time) error {
	return svc.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var drops []model.DroppedItem
		if err := tx.Find(&drops).Error; err != nil {
			return err
		}
		for i := range drops {
			d := &drops[i]
			lifetime := world.DefaultDespawnSeconds
			var def model.ItemDefinition
			if err := tx.First(&def, d.ItemDefID).Error; err != nil {
				svc.logger.Warn("dropped item with missing definition",
					zap.Int64("id", d.ID), zap.Int64("item_def_id", d.ItemDefID))
			} else if def.RespawnTimeSeconds != nil {
				lifetime = *def.RespawnTimeSeconds
			}
			if now.Sub(d.CreatedAt) >= time.Duration(lifetime)*time.Second {
				if err := tx.Delete(d).Error; err != nil {
					svc.logger.Warn("dropped item despawn failed",
						zap.Int64("id", d.ID), zap.Error(err))
				}
			}
		}
		return nil
	})
}

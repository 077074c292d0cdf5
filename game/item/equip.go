package item

import (
	"context"
	"errors"
	"math"

	"github.com/embervale/server/model"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DamageResistanceCap bounds the summed armor resistance.
const DamageResistanceCap = 0.9

// EquipService handles armor equip/unequip and the ActiveEquipment
// mirror row.
type EquipService struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewEquipService creates a new EquipService.
func NewEquipService(db *gorm.DB, logger *zap.Logger) *EquipService {
	return &EquipService{db: db, logger: logger}
}

// ensureEquipment loads or creates the player's ActiveEquipment row.
// The row is updated in place, never delete-then-insert, so the slot
// references survive partial failures.
func ensureEquipment(tx *gorm.DB, playerID int64) (*model.ActiveEquipment, error) {
	var ae model.ActiveEquipment
	err := tx.First(&ae, "player_id = ?", playerID).Error
	if err == nil {
		return &ae, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	ae = model.ActiveEquipment{PlayerID: playerID}
	if err := tx.Create(&ae).Error; err != nil {
		return nil, err
	}
	return &ae, nil
}

// Equip moves an armor item into its definition's slot, displacing any
// current occupant into the vacated source slot, and updates
// ActiveEquipment in the same transaction.
func (svc *EquipService) Equip(ctx context.Context, playerID, instanceID int64) error {
	return svc.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
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
		if inv.Location.Type == model.LocEquipped {
			return errors.New("item already equipped")
		}

		var def model.ItemDefinition
		if err := tx.First(&def, inv.ItemDefID).Error; err != nil {
			return err
		}
		if def.Category != model.CategoryArmor || def.EquipmentSlotType == nil {
			return errors.New("item cannot be equipped")
		}
		slotType := *def.EquipmentSlotType

		ae, err := ensureEquipment(tx, playerID)
		if err != nil {
			return err
		}
		field := ae.SlotField(slotType)
		if field == nil {
			return errors.New("item cannot be equipped")
		}

		srcLoc := inv.Location
		target := model.EquippedLoc(playerID, slotType)

		// Displace the current occupant into the source slot.
		occ, err := occupantAt(tx, target)
		if err != nil {
			return err
		}
		if occ != nil {
			if err := tx.Model(occ).Updates(locationColumns(model.UnknownLoc())).Error; err != nil {
				return err
			}
		}
		if err := tx.Model(&inv).Updates(locationColumns(target)).Error; err != nil {
			return err
		}
		if occ != nil {
			if err := tx.Model(occ).Updates(locationColumns(srcLoc)).Error; err != nil {
				return err
			}
		}

		id := inv.InstanceID
		*field = &id
		return tx.Save(ae).Error
	})
}

// Unequip moves an equipped item back into the first free bag slot and
// clears its ActiveEquipment field.
func (svc *EquipService) Unequip(ctx context.Context, playerID, instanceID int64) error {
	return svc.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var inv model.InventoryItem
		if err := tx.First(&inv, instanceID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errors.New("item instance not found")
			}
			return err
		}
		if inv.Location.Type != model.LocEquipped || inv.Location.OwnerID != playerID {
			return errors.New("item not equipped")
		}

		loc, ok, err := findFreeSlot(tx, playerID)
		if err != nil {
			return err
		}
		if !ok {
			return ErrInventoryFull
		}
		slotType := inv.Location.SlotType
		if err := tx.Model(&inv).Updates(locationColumns(loc)).Error; err != nil {
			return err
		}

		ae, err := ensureEquipment(tx, playerID)
		if err != nil {
			return err
		}
		if field := ae.SlotField(slotType); field != nil {
			*field = nil
		}
		return tx.Save(ae).Error
	})
}

// ArmorTotals sums damage resistance (capped) and warmth bonus over
// the equipped set. Missing definitions contribute zero.
func (svc *EquipService) ArmorTotals(ctx context.Context, playerID int64) (resistance, warmth float64, err error) {
	var equipped []model.InventoryItem
	err = svc.db.WithContext(ctx).
		Where("loc_type = ? AND loc_owner_id = ?", model.LocEquipped, playerID).
		Find(&equipped).Error
	if err != nil {
		return 0, 0, err
	}
	for _, item := range equipped {
		var def model.ItemDefinition
		if err := svc.db.WithContext(ctx).First(&def, item.ItemDefID).Error; err != nil {
			svc.logger.Warn("equipped item with missing definition",
				zap.Int64("instance_id", item.InstanceID),
				zap.Int64("item_def_id", item.ItemDefID))
			continue
		}
		if def.DamageResistance != nil {
			resistance += *def.DamageResistance
		}
		if def.WarmthBonus != nil {
			warmth += *def.WarmthBonus
		}
	}
	return math.Min(DamageResistanceCap, resistance), warmth, nil
}

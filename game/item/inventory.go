package item

import (
	"context"
	"errors"
	"fmt"

	"github.com/embervale/server/model"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ErrInventoryFull is returned when neither stacks nor free slots can
// absorb an add.
var ErrInventoryFull = errors.New("inventory full")

// InventoryService handles all item-stack operations for players.
// Every mutation runs inside one transaction so the slot-uniqueness
// invariant can never be observed broken.
type InventoryService struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewInventoryService creates a new InventoryService.
func NewInventoryService(db *gorm.DB, logger *zap.Logger) *InventoryService {
	return &InventoryService{db: db, logger: logger}
}

// AddItem adds qty of defID to playerID's inventory, topping up
// existing stacks first (inventory, then hotbar), then allocating new
// slots from the lowest free index. On overflow nothing is added.
func (svc *InventoryService) AddItem(ctx context.Context, playerID, defID int64, qty int) error {
	return svc.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return AddItemTx(tx, playerID, defID, qty)
	})
}

// AddItemTx is AddItem running inside an existing transaction, used by
// reducers that add items as one step of a larger mutation.
func AddItemTx(tx *gorm.DB, playerID, defID int64, qty int) error {
	if qty <= 0 {
		return errors.New("quantity must be positive")
	}
	var def model.ItemDefinition
	if err := tx.First(&def, defID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("item definition %d not found", defID)
		}
		return err
	}

	remaining := qty
	if def.IsStackable && def.StackSize > 1 {
		var err error
		remaining, err = topUpStacks(tx, playerID, &def, remaining)
		if err != nil {
			return err
		}
	}

	stackSize := def.StackSize
	if !def.IsStackable || stackSize < 1 {
		stackSize = 1
	}
	for remaining > 0 {
		loc, ok, err := findFreeSlot(tx, playerID)
		if err != nil {
			return err
		}
		if !ok {
			return ErrInventoryFull
		}
		put := remaining
		if put > stackSize {
			put = stackSize
		}
		row := &model.InventoryItem{ItemDefID: def.ID, Quantity: put, Location: loc}
		if err := tx.Create(row).Error; err != nil {
			return err
		}
		remaining -= put
	}
	return nil
}

// topUpStacks distributes qty into existing non-full stacks of the
// same definition in the player's inventory, then hotbar. Returns the
// amount left over.
func topUpStacks(tx *gorm.DB, playerID int64, def *model.ItemDefinition, qty int) (int, error) {
	for _, locType := range []string{model.LocInventory, model.LocHotbar} {
		if qty == 0 {
			break
		}
		var stacks []model.InventoryItem
		err := tx.Where("item_def_id = ? AND loc_type = ? AND loc_owner_id = ? AND quantity < ?",
			def.ID, locType, playerID, def.StackSize).
			Order("loc_slot_index").Find(&stacks).Error
		if err != nil {
			return qty, err
		}
		for i := range stacks {
			if qty == 0 {
				break
			}
			room := def.StackSize - stacks[i].Quantity
			add := qty
			if add > room {
				add = room
			}
			if err := tx.Model(&stacks[i]).Update("quantity", stacks[i].Quantity+add).Error; err != nil {
				return qty, err
			}
			qty -= add
		}
	}
	return qty, nil
}

// findFreeSlot returns the lowest free inventory slot (0..23), falling
// back to the lowest free hotbar slot (0..5).
func findFreeSlot(tx *gorm.DB, playerID int64) (model.ItemLocation, bool, error) {
	taken := func(locType string) (map[int]bool, error) {
		var rows []model.InventoryItem
		if err := tx.Where("loc_type = ? AND loc_owner_id = ?", locType, playerID).Find(&rows).Error; err != nil {
			return nil, err
		}
		m := make(map[int]bool, len(rows))
		for _, r := range rows {
			m[r.Location.SlotIndex] = true
		}
		return m, nil
	}

	inv, err := taken(model.LocInventory)
	if err != nil {
		return model.ItemLocation{}, false, err
	}
	for i := 0; i < model.InventorySlotCount; i++ {
		if !inv[i] {
			return model.InventoryLoc(playerID, i), true, nil
		}
	}
	hot, err := taken(model.LocHotbar)
	if err != nil {
		return model.ItemLocation{}, false, err
	}
	for i := 0; i < model.HotbarSlotCount; i++ {
		if !hot[i] {
			return model.HotbarLoc(playerID, i), true, nil
		}
	}
	return model.ItemLocation{}, false, nil
}

// occupantAt returns the row currently holding the given bound slot,
// or nil.
func occupantAt(tx *gorm.DB, loc model.ItemLocation) (*model.InventoryItem, error) {
	q := tx.Where("loc_type = ?", loc.Type)
	switch loc.Type {
	case model.LocInventory, model.LocHotbar:
		q = q.Where("loc_owner_id = ? AND loc_slot_index = ?", loc.OwnerID, loc.SlotIndex)
	case model.LocEquipped:
		q = q.Where("loc_owner_id = ? AND loc_slot_type = ?", loc.OwnerID, loc.SlotType)
	case model.LocContainer:
		q = q.Where("loc_container_type = ? AND loc_container_id = ? AND loc_slot_index = ?",
			loc.ContainerType, loc.ContainerID, loc.SlotIndex)
	default:
		return nil, nil
	}
	var row model.InventoryItem
	if err := q.First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

// ownedBy reports whether a location binds to the given player.
func ownedBy(loc model.ItemLocation, playerID int64) bool {
	switch loc.Type {
	case model.LocInventory, model.LocHotbar, model.LocEquipped:
		return loc.OwnerID == playerID
	default:
		return false
	}
}

// validTarget rejects slot indexes outside the slot ranges.
func validTarget(loc model.ItemLocation) error {
	switch loc.Type {
	case model.LocInventory:
		if loc.SlotIndex < 0 || loc.SlotIndex >= model.InventorySlotCount {
			return fmt.Errorf("invalid inventory slot %d", loc.SlotIndex)
		}
	case model.LocHotbar:
		if loc.SlotIndex < 0 || loc.SlotIndex >= model.HotbarSlotCount {
			return fmt.Errorf("invalid hotbar slot %d", loc.SlotIndex)
		}
	case model.LocContainer:
		if loc.SlotIndex < 0 {
			return fmt.Errorf("invalid container slot %d", loc.SlotIndex)
		}
	default:
		return fmt.Errorf("cannot move item to %s location", loc.Type)
	}
	return nil
}

// MoveItem relocates an item stack to a bound target slot. An occupied
// target either merges (same stackable definition) or swaps; the swap
// passes through the Unknown sentinel so no two rows ever share a slot.
func (svc *InventoryService) MoveItem(ctx context.Context, playerID, instanceID int64, target model.ItemLocation) error {
	return svc.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := validTarget(target); err != nil {
			return err
		}

		var src model.InventoryItem
		if err := tx.First(&src, instanceID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errors.New("item instance not found")
			}
			return err
		}
		if !ownedBy(src.Location, playerID) {
			return errors.New("item does not belong to you")
		}
		if src.Location.SlotKey() == target.SlotKey() {
			return nil
		}

		occ, err := occupantAt(tx, target)
		if err != nil {
			return err
		}
		if occ == nil {
			return tx.Model(&src).Updates(locationColumns(target)).Error
		}

		// Merge into an existing stack of the same definition.
		if occ.ItemDefID == src.ItemDefID {
			var def model.ItemDefinition
			if err := tx.First(&def, src.ItemDefID).Error; err != nil {
				return err
			}
			if def.IsStackable && occ.Quantity+src.Quantity <= def.StackSize {
				if err := tx.Model(occ).Update("quantity", occ.Quantity+src.Quantity).Error; err != nil {
					return err
				}
				return tx.Delete(&src).Error
			}
		}

		// Swap: park the occupant at Unknown, move, then place the
		// occupant into the source slot.
		srcLoc := src.Location
		if err := tx.Model(occ).Updates(locationColumns(model.UnknownLoc())).Error; err != nil {
			return err
		}
		if err := tx.Model(&src).Updates(locationColumns(target)).Error; err != nil {
			return err
		}
		return tx.Model(occ).Updates(locationColumns(srcLoc)).Error
	})
}

// SplitStack splits qty off an owned stack into the first free slot.
func (svc *InventoryService) SplitStack(ctx context.Context, playerID, instanceID int64, qty int) error {
	return svc.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if qty <= 0 {
			return errors.New("quantity must be positive")
		}
		var src model.InventoryItem
		if err := tx.First(&src, instanceID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errors.New("item instance not found")
			}
			return err
		}
		if !ownedBy(src.Location, playerID) {
			return errors.New("item does not belong to you")
		}
		if qty >= src.Quantity {
			return errors.New("split quantity must be less than stack size")
		}
		loc, ok, err := findFreeSlot(tx, playerID)
		if err != nil {
			return err
		}
		if !ok {
			return ErrInventoryFull
		}
		if err := tx.Model(&src).Update("quantity", src.Quantity-qty).Error; err != nil {
			return err
		}
		return tx.Create(&model.InventoryItem{ItemDefID: src.ItemDefID, Quantity: qty, Location: loc}).Error
	})
}

// RemoveQuantityTx decrements a stack, deleting the row at zero.
func RemoveQuantityTx(tx *gorm.DB, row *model.InventoryItem, qty int) error {
	if qty >= row.Quantity {
		return tx.Delete(row).Error
	}
	return tx.Model(row).Update("quantity", row.Quantity-qty).Error
}

// List returns all item stacks bound to playerID.
func (svc *InventoryService) List(ctx context.Context, playerID int64) ([]model.InventoryItem, error) {
	var items []model.InventoryItem
	err := svc.db.WithContext(ctx).
		Where("loc_owner_id = ? AND loc_type IN ?", playerID,
			[]string{model.LocInventory, model.LocHotbar, model.LocEquipped}).
		Find(&items).Error
	return items, err
}

// locationColumns spells out every location column so a relocation
// fully overwrites the previous variant's fields.
func locationColumns(loc model.ItemLocation) map[string]interface{} {
	return map[string]interface{}{
		"loc_type":           loc.Type,
		"loc_owner_id":       loc.OwnerID,
		"loc_slot_index":     loc.SlotIndex,
		"loc_slot_type":      loc.SlotType,
		"loc_container_type": loc.ContainerType,
		"loc_container_id":   loc.ContainerID,
		"loc_pos_x":          loc.PosX,
		"loc_pos_y":          loc.PosY,
	}
}

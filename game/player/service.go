package player

import (
	"context"
	"errors"
	"time"

	"github.com/embervale/server/game/item"
	"github.com/embervale/server/game/world"
	"github.com/embervale/server/model"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Default spawn point for new and respawning players.
const (
	SpawnX = world.WorldWidthPx / 2
	SpawnY = world.WorldHeightPx / 2
)

// startingItem is one bootstrap grant entry. Exactly one of
// hotbarSlot/inventorySlot is set.
type startingItem struct {
	name          string
	quantity      int
	hotbarSlot    *int
	inventorySlot *int
}

func slot(i int) *int { return &i }

var startingItems = []startingItem{
	{name: "Rock", quantity: 1, hotbarSlot: slot(0)},
	{name: "Torch", quantity: 1, hotbarSlot: slot(1)},
	{name: item.BandageItemName, quantity: 3, hotbarSlot: slot(2)},
	{name: "Mushroom", quantity: 5, inventorySlot: slot(0)},
	{name: "Wood", quantity: 50, inventorySlot: slot(1)},
}

// startingArmor maps the bootstrap armor pieces to their slots.
var startingArmor = [][2]string{
	{"Cloth Hood", model.SlotHead},
	{"Cloth Shirt", model.SlotChest},
	{"Cloth Pants", model.SlotLegs},
	{"Cloth Boots", model.SlotFeet},
	{"Cloth Gloves", model.SlotHands},
	{"Cloth Cloak", model.SlotBack},
}

// Service owns player lifecycle: registration, starting grant, death,
// respawn, presence, and the map pin.
type Service struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewService creates a new player Service.
func NewService(db *gorm.DB, logger *zap.Logger) *Service {
	return &Service{db: db, logger: logger}
}

// EnsurePlayer returns the player row for an account, creating it (and
// granting starting items) on first registration.
func (svc *Service) EnsurePlayer(ctx context.Context, accountID int64, username string) (*model.Player, error) {
	var p model.Player
	err := svc.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("account_id = ?", accountID).First(&p).Error
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		p = model.Player{
			AccountID: accountID,
			Username:  username,
			Health:    world.MaxStatValue,
			Hunger:    world.MaxStatValue,
			Thirst:    world.MaxStatValue,
			Warmth:    world.MaxStatValue,
			Stamina:   world.MaxStatValue,
			PosX:      SpawnX,
			PosY:      SpawnY,
			Direction: model.DirDown,
		}
		if err := tx.Create(&p).Error; err != nil {
			return err
		}
		svc.grantStartingItems(tx, &p)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// grantStartingItems seeds the new player's hotbar, inventory, and
// equipped armor. Broken catalog entries are logged and skipped so a
// partial catalog never blocks registration.
func (svc *Service) grantStartingItems(tx *gorm.DB, p *model.Player) {
	for _, entry := range startingItems {
		def, err := item.DefinitionByName(tx, entry.name)
		if err != nil {
			svc.logger.Warn("starting item definition missing",
				zap.String("item", entry.name), zap.Error(err))
			continue
		}
		var loc model.ItemLocation
		switch {
		case entry.hotbarSlot != nil:
			loc = model.HotbarLoc(p.ID, *entry.hotbarSlot)
		case entry.inventorySlot != nil:
			loc = model.InventoryLoc(p.ID, *entry.inventorySlot)
		default:
			continue
		}
		row := &model.InventoryItem{ItemDefID: def.ID, Quantity: entry.quantity, Location: loc}
		if err := tx.Create(row).Error; err != nil {
			svc.logger.Warn("starting item grant failed",
				zap.String("item", entry.name), zap.Error(err))
		}
	}

	ae := &model.ActiveEquipment{PlayerID: p.ID}
	if err := tx.Create(ae).Error; err != nil {
		svc.logger.Warn("active equipment create failed",
			zap.Int64("player_id", p.ID), zap.Error(err))
		return
	}
	for _, pair := range startingArmor {
		name, slotType := pair[0], pair[1]
		def, err := item.DefinitionByName(tx, name)
		if err != nil {
			svc.logger.Warn("starting armor definition missing",
				zap.String("item", name), zap.Error(err))
			continue
		}
		if def.EquipmentSlotType == nil || *def.EquipmentSlotType != slotType {
			svc.logger.Warn("starting armor slot mismatch",
				zap.String("item", name), zap.String("slot", slotType))
			continue
		}
		row := &model.InventoryItem{ItemDefID: def.ID, Quantity: 1, Location: model.EquippedLoc(p.ID, slotType)}
		if err := tx.Create(row).Error; err != nil {
			svc.logger.Warn("starting armor grant failed",
				zap.String("item", name), zap.Error(err))
			continue
		}
		if field := ae.SlotField(slotType); field != nil {
			id := row.InstanceID
			*field = &id
		}
	}
	if err := tx.Save(ae).Error; err != nil {
		svc.logger.Warn("active equipment update failed",
			zap.Int64("player_id", p.ID), zap.Error(err))
	}
}

// KillTx kills a player inside an existing transaction: stats zeroed,
// a corpse created carrying the bag and hotbar, and the held item
// cleared. ActiveEquipment is updated in place so armor references
// survive.
func KillTx(tx *gorm.DB, p *model.Player, now time.Time, logger *zap.Logger) error {
	if p.IsDead {
		return errors.New("you are already dead")
	}
	p.Health = 0
	p.IsDead = true
	p.DeathTimestamp = &now
	if err := tx.Save(p).Error; err != nil {
		return err
	}

	corpse := &model.PlayerCorpse{
		PlayerID:   p.ID,
		Username:   p.Username,
		PosX:       p.PosX,
		PosY:       p.PosY,
		ChunkIndex: world.ChunkIndex(p.PosX, p.PosY),
		DiedAt:     now,
	}
	if err := tx.Create(corpse).Error; err != nil {
		return err
	}

	// Move the bag and hotbar into the corpse container.
	var items []model.InventoryItem
	if err := tx.Where("loc_owner_id = ? AND loc_type IN ?", p.ID,
		[]string{model.LocInventory, model.LocHotbar}).
		Order("loc_type, loc_slot_index").Find(&items).Error; err != nil {
		return err
	}
	for i := range items {
		loc := model.ContainerLoc(model.ContainerPlayerCorpse, corpse.ID, i)
		if err := tx.Model(&items[i]).Updates(map[string]interface{}{
			"loc_type":           loc.Type,
			"loc_owner_id":       int64(0),
			"loc_slot_index":     loc.SlotIndex,
			"loc_slot_type":      "",
			"loc_container_type": loc.ContainerType,
			"loc_container_id":   loc.ContainerID,
		}).Error; err != nil {
			logger.Warn("corpse transfer failed",
				zap.Int64("instance_id", items[i].InstanceID), zap.Error(err))
		}
	}

	// Clear the held item; equipped armor stays on the body.
	return tx.Model(&model.ActiveEquipment{}).Where("player_id = ?", p.ID).
		Updates(map[string]interface{}{
			"equipped_item_def_id":      nil,
			"equipped_item_instance_id": nil,
			"icon_asset_name":           nil,
		}).Error
}

// Respawn brings a dead player back at the spawn point with full
// stats.
func (svc *Service) Respawn(ctx context.Context, playerID int64, now time.Time) error {
	return svc.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p model.Player
		if err := tx.First(&p, playerID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errors.New("player not found")
			}
			return err
		}
		if !p.IsDead {
			return errors.New("you are not dead")
		}
		p.IsDead = false
		p.DeathTimestamp = nil
		p.Health = world.MaxStatValue
		p.Hunger = world.MaxStatValue
		p.Thirst = world.MaxStatValue
		p.Warmth = world.MaxStatValue
		p.Stamina = world.MaxStatValue
		p.PosX = SpawnX
		p.PosY = SpawnY
		return tx.Save(&p).Error
	})
}

// SetOnline flips the presence flag; called on connect/disconnect.
func (svc *Service) SetOnline(ctx context.Context, playerID int64, online bool) error {
	return svc.db.WithContext(ctx).Model(&model.Player{}).
		Where("id = ?", playerID).Update("is_online", online).Error
}

// SetPin upserts the player's single map pin.
func (svc *Service) SetPin(ctx context.Context, playerID int64, x, y int) error {
	return svc.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		pin := model.PlayerPin{PlayerID: playerID, PinX: x, PinY: y}
		if err := tx.Model(&model.PlayerPin{}).Where("player_id = ?", playerID).
			Updates(map[string]interface{}{"pin_x": x, "pin_y": y}).Error; err != nil {
			return err
		}
		var existing model.PlayerPin
		if errors.Is(tx.First(&existing, "player_id = ?", playerID).Error, gorm.ErrRecordNotFound) {
			return tx.Create(&pin).Error
		}
		return nil
	})
}

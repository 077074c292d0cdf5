package model

import (
	"fmt"
	"time"

	"gorm.io/datatypes"
)

// Item categories.
const (
	CategoryConsumable = "Consumable"
	CategoryTool       = "Tool"
	CategoryMaterial   = "Material"
	CategoryArmor      = "Armor"
	CategoryPlaceable  = "Placeable"
	CategoryAmmo       = "Ammo"
)

// Equipment slot types for armor.
const (
	SlotHead  = "Head"
	SlotChest = "Chest"
	SlotLegs  = "Legs"
	SlotFeet  = "Feet"
	SlotHands = "Hands"
	SlotBack  = "Back"
)

// EquipmentSlots lists the armor slots in display order.
var EquipmentSlots = []string{SlotHead, SlotChest, SlotLegs, SlotFeet, SlotHands, SlotBack}

// CraftingIngredient is one (item name, quantity) entry of a recipe cost.
type CraftingIngredient struct {
	ItemName string `json:"item_name"`
	Quantity int    `json:"quantity"`
}

// ItemDefinition is the static catalog row for an item kind.
// Optional per-category fields are pointers so absent stays absent.
type ItemDefinition struct {
	ID                       int64                                     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name                     string                                    `gorm:"uniqueIndex;size:64;not null" json:"name"`
	Category                 string                                    `gorm:"size:16;not null" json:"category"`
	IconAssetName            string                                    `gorm:"size:64" json:"icon_asset_name"`
	IsStackable              bool                                      `gorm:"default:false" json:"is_stackable"`
	StackSize                int                                       `gorm:"default:1" json:"stack_size"`
	DamageResistance         *float64                                  `json:"damage_resistance"`
	WarmthBonus              *float64                                  `json:"warmth_bonus"`
	ConsumableHealthGain     *float64                                  `json:"consumable_health_gain"`
	ConsumableHungerSatiated *float64                                  `json:"consumable_hunger_satiated"`
	ConsumableThirstQuenched *float64                                  `json:"consumable_thirst_quenched"`
	ConsumableStaminaGain    *float64                                  `json:"consumable_stamina_gain"`
	ConsumableDurationSecs   *float64                                  `json:"consumable_duration_secs"`
	EquipmentSlotType        *string                                   `gorm:"size:8" json:"equipment_slot_type"`
	CraftingCost             datatypes.JSONType[[]CraftingIngredient]  `json:"crafting_cost"`
	CraftingOutputQuantity   *int                                      `json:"crafting_output_quantity"`
	CraftingTimeSecs         *float64                                  `json:"crafting_time_secs"`
	RespawnTimeSeconds       *int                                      `json:"respawn_time_seconds"`
}

// Location types for InventoryItem.
const (
	LocInventory = "inventory"
	LocHotbar    = "hotbar"
	LocEquipped  = "equipped"
	LocContainer = "container"
	LocDropped   = "dropped"
	LocUnknown   = "unknown"
)

// Container types addressable by an ItemLocation.
const (
	ContainerCampfire         = "campfire"
	ContainerWoodenStorageBox = "wooden_storage_box"
	ContainerPlayerCorpse     = "player_corpse"
	ContainerStash            = "stash"
)

// Slot counts shared with clients.
const (
	InventorySlotCount = 24
	HotbarSlotCount    = 6
)

// ItemLocation is the tagged variant naming where an InventoryItem
// lives. Only the fields relevant to Type are meaningful; the rest
// stay at their zero values. It is embedded into InventoryItem so
// the variant persists as plain columns.
type ItemLocation struct {
	Type          string  `gorm:"column:loc_type;size:16;not null;default:unknown" json:"type"`
	OwnerID       int64   `gorm:"column:loc_owner_id;index" json:"owner_id,omitempty"`
	SlotIndex     int     `gorm:"column:loc_slot_index" json:"slot_index,omitempty"`
	SlotType      string  `gorm:"column:loc_slot_type;size:8" json:"slot_type,omitempty"`
	ContainerType string  `gorm:"column:loc_container_type;size:24" json:"container_type,omitempty"`
	ContainerID   int64   `gorm:"column:loc_container_id" json:"container_id,omitempty"`
	PosX          float64 `gorm:"column:loc_pos_x" json:"pos_x,omitempty"`
	PosY          float64 `gorm:"column:loc_pos_y" json:"pos_y,omitempty"`
}

// InventoryLoc builds an Inventory location.
func InventoryLoc(ownerID int64, slot int) ItemLocation {
	return ItemLocation{Type: LocInventory, OwnerID: ownerID, SlotIndex: slot}
}

// HotbarLoc builds a Hotbar location.
func HotbarLoc(ownerID int64, slot int) ItemLocation {
	return ItemLocation{Type: LocHotbar, OwnerID: ownerID, SlotIndex: slot}
}

// EquippedLoc builds an Equipped location.
func EquippedLoc(ownerID int64, slotType string) ItemLocation {
	return ItemLocation{Type: LocEquipped, OwnerID: ownerID, SlotType: slotType, SlotIndex: -1}
}

// ContainerLoc builds a Container location.
func ContainerLoc(containerType string, containerID int64, slot int) ItemLocation {
	return ItemLocation{Type: LocContainer, ContainerType: containerType, ContainerID: containerID, SlotIndex: slot}
}

// DroppedLoc builds a Dropped location.
func DroppedLoc(x, y float64) ItemLocation {
	return ItemLocation{Type: LocDropped, PosX: x, PosY: y, SlotIndex: -1}
}

// UnknownLoc is the sentinel for in-flight moves.
func UnknownLoc() ItemLocation {
	return ItemLocation{Type: LocUnknown, SlotIndex: -1}
}

// BindsSlot reports whether this location occupies a unique slot tuple.
// Dropped and Unknown locations never conflict with anything.
func (l ItemLocation) BindsSlot() bool {
	switch l.Type {
	case LocInventory, LocHotbar, LocEquipped, LocContainer:
		return true
	default:
		return false
	}
}

// SlotKey returns the identity tuple used for slot-uniqueness checks.
// Two bound locations collide iff their SlotKeys are equal.
func (l ItemLocation) SlotKey() string {
	switch l.Type {
	case LocInventory, LocHotbar:
		return fmt.Sprintf("%s/%d/%d", l.Type, l.OwnerID, l.SlotIndex)
	case LocEquipped:
		return fmt.Sprintf("%s/%d/%s", l.Type, l.OwnerID, l.SlotType)
	case LocContainer:
		return fmt.Sprintf("%s/%s/%d/%d", l.Type, l.ContainerType, l.ContainerID, l.SlotIndex)
	default:
		return ""
	}
}

// InventoryItem is one item stack instance. The slot-uniqueness
// invariant (at most one row per bound SlotKey) is enforced by the
// item services inside their transactions.
type InventoryItem struct {
	InstanceID int64        `gorm:"primaryKey;autoIncrement" json:"instance_id"`
	ItemDefID  int64        `gorm:"index;not null" json:"item_def_id"`
	Quantity   int          `gorm:"not null" json:"quantity"`
	Location   ItemLocation `gorm:"embedded" json:"location"`
	CreatedAt  time.Time    `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time    `gorm:"autoUpdateTime" json:"updated_at"`
}

// ActiveEquipment mirrors the equipped set of one player. Each filled
// slot field must agree with the InventoryItem's Equipped location.
type ActiveEquipment struct {
	PlayerID               int64  `gorm:"primaryKey" json:"player_id"`
	HeadItemInstanceID     *int64 `json:"head_item_instance_id"`
	ChestItemInstanceID    *int64 `json:"chest_item_instance_id"`
	LegsItemInstanceID     *int64 `json:"legs_item_instance_id"`
	FeetItemInstanceID     *int64 `json:"feet_item_instance_id"`
	HandsItemInstanceID    *int64 `json:"hands_item_instance_id"`
	BackItemInstanceID     *int64 `json:"back_item_instance_id"`
	EquippedItemDefID      *int64 `json:"equipped_item_def_id"`
	EquippedItemInstanceID *int64 `json:"equipped_item_instance_id"`
	SwingStartTimeMs       int64  `json:"swing_start_time_ms"`
	IconAssetName          *string `gorm:"size:64" json:"icon_asset_name"`
}

// SlotField returns a pointer to the armor-slot field for slotType,
// or nil if slotType is not an armor slot.
func (ae *ActiveEquipment) SlotField(slotType string) **int64 {
	switch slotType {
	case SlotHead:
		return &ae.HeadItemInstanceID
	case SlotChest:
		return &ae.ChestItemInstanceID
	case SlotLegs:
		return &ae.LegsItemInstanceID
	case SlotFeet:
		return &ae.FeetItemInstanceID
	case SlotHands:
		return &ae.HandsItemInstanceID
	case SlotBack:
		return &ae.BackItemInstanceID
	default:
		return nil
	}
}

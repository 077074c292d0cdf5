package item

import (
	"context"
	"errors"

	"github.com/embervale/server/model"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func f(v float64) *float64 { return &v }
func i(v int) *int         { return &v }
func s(v string) *string   { return &v }

func cost(entries ...model.CraftingIngredient) datatypes.JSONType[[]model.CraftingIngredient] {
	return datatypes.NewJSONType(entries)
}

// catalog is the static item list seeded at bootstrap.
var catalog = []model.ItemDefinition{
	{Name: "Wood", Category: model.CategoryMaterial, IsStackable: true, StackSize: 100, IconAssetName: "wood"},
	{Name: "Stone", Category: model.CategoryMaterial, IsStackable: true, StackSize: 100, IconAssetName: "stone"},
	{Name: "Plant Fiber", Category: model.CategoryMaterial, IsStackable: true, StackSize: 100, IconAssetName: "plant_fiber"},
	{Name: "Charcoal", Category: model.CategoryMaterial, IsStackable: true, StackSize: 100, IconAssetName: "charcoal"},

	{Name: "Mushroom", Category: model.CategoryConsumable, IsStackable: true, StackSize: 20, IconAssetName: "mushroom",
		ConsumableHealthGain: f(3), ConsumableHungerSatiated: f(5), RespawnTimeSeconds: i(300)},
	{Name: "Pumpkin", Category: model.CategoryConsumable, IsStackable: true, StackSize: 10, IconAssetName: "pumpkin",
		ConsumableHungerSatiated: f(20), ConsumableThirstQuenched: f(5)},
	{Name: "Corn", Category: model.CategoryConsumable, IsStackable: true, StackSize: 20, IconAssetName: "corn",
		ConsumableHungerSatiated: f(15), ConsumableStaminaGain: f(5)},
	{Name: "Cooked Mushroom", Category: model.CategoryConsumable, IsStackable: true, StackSize: 20, IconAssetName: "cooked_mushroom",
		ConsumableHealthGain: f(8), ConsumableHungerSatiated: f(10)},
	{Name: BandageItemName, Category: model.CategoryConsumable, IsStackable: true, StackSize: 10, IconAssetName: "bandage",
		ConsumableHealthGain: f(50), ConsumableDurationSecs: f(5),
		CraftingCost:           cost(model.CraftingIngredient{ItemName: "Plant Fiber", Quantity: 10}),
		CraftingOutputQuantity: i(1), CraftingTimeSecs: f(5)},

	{Name: "Rock", Category: model.CategoryTool, IconAssetName: "rock"},
	{Name: "Stone Hatchet", Category: model.CategoryTool, IconAssetName: "stone_hatchet",
		CraftingCost: cost(
			model.CraftingIngredient{ItemName: "Wood", Quantity: 20},
			model.CraftingIngredient{ItemName: "Stone", Quantity: 10},
		),
		CraftingOutputQuantity: i(1), CraftingTimeSecs: f(15)},
	{Name: "Stone Pickaxe", Category: model.CategoryTool, IconAssetName: "stone_pickaxe",
		CraftingCost: cost(
			model.CraftingIngredient{ItemName: "Wood", Quantity: 20},
			model.CraftingIngredient{ItemName: "Stone", Quantity: 15},
		),
		CraftingOutputQuantity: i(1), CraftingTimeSecs: f(15)},
	{Name: "Torch", Category: model.CategoryTool, IconAssetName: "torch",
		CraftingCost: cost(
			model.CraftingIngredient{ItemName: "Wood", Quantity: 5},
			model.CraftingIngredient{ItemName: "Plant Fiber", Quantity: 5},
		),
		CraftingOutputQuantity: i(1), CraftingTimeSecs: f(5)},

	{Name: "Cloth Hood", Category: model.CategoryArmor, IconAssetName: "cloth_hood",
		EquipmentSlotType: s(model.SlotHead), DamageResistance: f(0.02), WarmthBonus: f(2),
		CraftingCost:           cost(model.CraftingIngredient{ItemName: "Plant Fiber", Quantity: 15}),
		CraftingOutputQuantity: i(1), CraftingTimeSecs: f(10)},
	{Name: "Cloth Shirt", Category: model.CategoryArmor, IconAssetName: "cloth_shirt",
		EquipmentSlotType: s(model.SlotChest), DamageResistance: f(0.04), WarmthBonus: f(3),
		CraftingCost:           cost(model.CraftingIngredient{ItemName: "Plant Fiber", Quantity: 25}),
		CraftingOutputQuantity: i(1), CraftingTimeSecs: f(10)},
	{Name: "Cloth Pants", Category: model.CategoryArmor, IconAssetName: "cloth_pants",
		EquipmentSlotType: s(model.SlotLegs), DamageResistance: f(0.03), WarmthBonus: f(3),
		CraftingCost:           cost(model.CraftingIngredient{ItemName: "Plant Fiber", Quantity: 20}),
		CraftingOutputQuantity: i(1), CraftingTimeSecs: f(10)},
	{Name: "Cloth Boots", Category: model.CategoryArmor, IconAssetName: "cloth_boots",
		EquipmentSlotType: s(model.SlotFeet), DamageResistance: f(0.01), WarmthBonus: f(1),
		CraftingCost:           cost(model.CraftingIngredient{ItemName: "Plant Fiber", Quantity: 10}),
		CraftingOutputQuantity: i(1), CraftingTimeSecs: f(10)},
	{Name: "Cloth Gloves", Category: model.CategoryArmor, IconAssetName: "cloth_gloves",
		EquipmentSlotType: s(model.SlotHands), DamageResistance: f(0.01), WarmthBonus: f(1),
		CraftingCost:           cost(model.CraftingIngredient{ItemName: "Plant Fiber", Quantity: 10}),
		CraftingOutputQuantity: i(1), CraftingTimeSecs: f(10)},
	{Name: "Cloth Cloak", Category: model.CategoryArmor, IconAssetName: "cloth_cloak",
		EquipmentSlotType: s(model.SlotBack), DamageResistance: f(0.02), WarmthBonus: f(4),
		CraftingCost:           cost(model.CraftingIngredient{ItemName: "Plant Fiber", Quantity: 30}),
		CraftingOutputQuantity: i(1), CraftingTimeSecs: f(10)},

	{Name: "Camp Fire", Category: model.CategoryPlaceable, IconAssetName: "campfire",
		CraftingCost:           cost(model.CraftingIngredient{ItemName: "Wood", Quantity: 50}),
		CraftingOutputQuantity: i(1), CraftingTimeSecs: f(10)},
	{Name: "Wooden Storage Box", Category: model.CategoryPlaceable, IconAssetName: "wooden_storage_box",
		CraftingCost:           cost(model.CraftingIngredient{ItemName: "Wood", Quantity: 100}),
		CraftingOutputQuantity: i(1), CraftingTimeSecs: f(20)},

	{Name: "Wooden Arrow", Category: model.CategoryAmmo, IsStackable: true, StackSize: 50, IconAssetName: "wooden_arrow",
		CraftingCost: cost(
			model.CraftingIngredient{ItemName: "Wood", Quantity: 2},
			model.CraftingIngredient{ItemName: "Stone", Quantity: 1},
		),
		CraftingOutputQuantity: i(5), CraftingTimeSecs: f(3)},
}

// SeedItemDefinitions inserts the static catalog, skipping names that
// already exist. Re-invoking on a seeded world is a no-op.
func SeedItemDefinitions(ctx context.Context, db *gorm.DB, logger *zap.Logger) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, def := range catalog {
			var existing model.ItemDefinition
			err := tx.Where("name = ?", def.Name).First(&existing).Error
			if err == nil {
				continue
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			row := def
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
		}
		logger.Info("item catalog seeded", zap.Int("definitions", len(catalog)))
		return nil
	})
}

// DefinitionByName looks up a catalog row by its unique name.
func DefinitionByName(tx *gorm.DB, name string) (*model.ItemDefinition, error) {
	var def model.ItemDefinition
	if err := tx.Where("name = ?", name).First(&def).Error; err != nil {
		return nil, err
	}
	return &def, nil
}

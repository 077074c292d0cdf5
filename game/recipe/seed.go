package recipe

import (
	"context"
	"errors"

	"github.com/embervale/server/model"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Seed derives one Recipe row per craftable item definition (any
// definition carrying a crafting cost). Re-invoking on a seeded world
// is a no-op: existing recipes are left untouched.
func Seed(ctx context.Context, db *gorm.DB, logger *zap.Logger) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var defs []model.ItemDefinition
		if err := tx.Find(&defs).Error; err != nil {
			return err
		}
		created := 0
		for _, def := range defs {
			if len(def.CraftingCost.Data()) == 0 {
				continue
			}
			var existing model.Recipe
			err := tx.Where("output_item_def_id = ?", def.ID).First(&existing).Error
			if err == nil {
				continue
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			outQty := 1
			if def.CraftingOutputQuantity != nil {
				outQty = *def.CraftingOutputQuantity
			}
			craftTime := 0.0
			if def.CraftingTimeSecs != nil {
				craftTime = *def.CraftingTimeSecs
			}
			r := &model.Recipe{
				OutputItemDefID: def.ID,
				OutputQuantity:  outQty,
				CraftingTime:    craftTime,
			}
			if err := tx.Create(r).Error; err != nil {
				return err
			}
			created++
		}
		if created > 0 {
			logger.Info("recipes seeded", zap.Int("count", created))
		}
		return nil
	})
}

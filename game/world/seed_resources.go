package world

import (
	"context"
	"math/rand"

	"github.com/embervale/server/model"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Default node counts for a fresh world.
const (
	SeedTreeCount     = 600
	SeedStoneCount    = 300
	SeedMushroomCount = 150
	SeedHempCount     = 120
	SeedPumpkinCount  = 80
	SeedCornCount     = 80
	SeedCloudCount    = 12
)

// SeedResources scatters resource nodes and clouds across an empty
// world. Tables that already hold rows are left alone, so restarts
// never duplicate nodes.
func SeedResources(ctx context.Context, db *gorm.DB, logger *zap.Logger) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := seedNodes(tx, &model.Tree{}, SeedTreeCount, func(x, y float64) interface{} {
			hp := TreeInitialHealth
			return &model.Tree{PosX: x, PosY: y, ChunkIndex: ChunkIndex(x, y), Health: &hp}
		}); err != nil {
			return err
		}
		if err := seedNodes(tx, &model.Stone{}, SeedStoneCount, func(x, y float64) interface{} {
			hp := StoneInitialHealth
			return &model.Stone{PosX: x, PosY: y, ChunkIndex: ChunkIndex(x, y), Health: &hp}
		}); err != nil {
			return err
		}
		if err := seedNodes(tx, &model.Mushroom{}, SeedMushroomCount, func(x, y float64) interface{} {
			return &model.Mushroom{PosX: x, PosY: y, ChunkIndex: ChunkIndex(x, y)}
		}); err != nil {
			return err
		}
		if err := seedNodes(tx, &model.Hemp{}, SeedHempCount, func(x, y float64) interface{} {
			return &model.Hemp{PosX: x, PosY: y, ChunkIndex: ChunkIndex(x, y)}
		}); err != nil {
			return err
		}
		if err := seedNodes(tx, &model.Pumpkin{}, SeedPumpkinCount, func(x, y float64) interface{} {
			return &model.Pumpkin{PosX: x, PosY: y, ChunkIndex: ChunkIndex(x, y)}
		}); err != nil {
			return err
		}
		if err := seedNodes(tx, &model.Corn{}, SeedCornCount, func(x, y float64) interface{} {
			return &model.Corn{PosX: x, PosY: y, ChunkIndex: ChunkIndex(x, y)}
		}); err != nil {
			return err
		}
		if err := seedClouds(tx); err != nil {
			return err
		}
		logger.Info("resource nodes seeded")
		return nil
	})
}

func seedNodes(tx *gorm.DB, table interface{}, count int, build func(x, y float64) interface{}) error {
	var existing int64
	if err := tx.Model(table).Count(&existing).Error; err != nil {
		return err
	}
	if existing > 0 {
		return nil
	}
	for i := 0; i < count; i++ {
		x := rand.Float64() * WorldWidthPx
		y := rand.Float64() * WorldHeightPx
		if err := tx.Create(build(x, y)).Error; err != nil {
			return err
		}
	}
	return nil
}

func seedClouds(tx *gorm.DB) error {
	var existing int64
	if err := tx.Model(&model.Cloud{}).Count(&existing).Error; err != nil {
		return err
	}
	if existing > 0 {
		return nil
	}
	for i := 0; i < SeedCloudCount; i++ {
		x := rand.Float64() * WorldWidthPx
		y := rand.Float64() * WorldHeightPx
		c := &model.Cloud{
			PosX:       x,
			PosY:       y,
			DriftX:     -5 + rand.Float64()*10,
			DriftY:     -2 + rand.Float64()*4,
			Shape:      rand.Intn(3),
			Width:      200 + rand.Float64()*300,
			Height:     100 + rand.Float64()*150,
			Rotation:   rand.Float64() * 360,
			Opacity:    0.3 + rand.Float64()*0.4,
			Blur:       rand.Float64() * 10,
			ChunkIndex: ChunkIndex(x, y),
		}
		if err := tx.Create(c).Error; err != nil {
			return err
		}
	}
	return nil
}

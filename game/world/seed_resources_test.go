package world

import (
	"context"
	"testing"

	"github.com/embervale/server/model"
	"github.com/embervale/server/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeedResources_PopulatesEmptyWorld(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()

	require.NoError(t, SeedResources(ctx, db, testutil.Logger()))

	var trees, stones, shrooms, hemps, pumpkins, corns, clouds int64
	db.Model(&model.Tree{}).Count(&trees)
	db.Model(&model.Stone{}).Count(&stones)
	db.Model(&model.Mushroom{}).Count(&shrooms)
	db.Model(&model.Hemp{}).Count(&hemps)
	db.Model(&model.Pumpkin{}).Count(&pumpkins)
	db.Model(&model.Corn{}).Count(&corns)
	db.Model(&model.Cloud{}).Count(&clouds)

	assert.Equal(t, int64(SeedTreeCount), trees)
	assert.Equal(t, int64(SeedStoneCount), stones)
	assert.Equal(t, int64(SeedMushroomCount), shrooms)
	assert.Equal(t, int64(SeedHempCount), hemps)
	assert.Equal(t, int64(SeedPumpkinCount), pumpkins)
	assert.Equal(t, int64(SeedCornCount), corns)
	assert.Equal(t, int64(SeedCloudCount), clouds)

	// Seeded nodes spawn with full hit points and a valid chunk.
	var tree model.Tree
	require.NoError(t, db.First(&tree).Error)
	require.NotNil(t, tree.Health)
	assert.Equal(t, TreeInitialHealth, *tree.Health)
	assert.Nil(t, tree.RespawnAt)
	assert.Equal(t, ChunkIndex(tree.PosX, tree.PosY), tree.ChunkIndex)
}

func TestSeedResources_SkipsPopulatedTables(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()

	hp := 42
	require.NoError(t, db.Create(&model.Tree{PosX: 100, PosY: 100, Health: &hp}).Error)

	require.NoError(t, SeedResources(ctx, db, testutil.Logger()))

	var trees, stones int64
	db.Model(&model.Tree{}).Count(&trees)
	db.Model(&model.Stone{}).Count(&stones)
	// The pre-populated table keeps its single row; the empty ones
	// still get seeded.
	assert.Equal(t, int64(1), trees)
	assert.Equal(t, int64(SeedStoneCount), stones)
}

func TestSeedResources_Idempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()

	require.NoError(t, SeedResources(ctx, db, testutil.Logger()))
	require.NoError(t, SeedResources(ctx, db, testutil.Logger()))

	var trees int64
	db.Model(&model.Tree{}).Count(&trees)
	assert.Equal(t, int64(SeedTreeCount), trees)
}

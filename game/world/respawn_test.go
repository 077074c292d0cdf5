package world

import (
	"context"
	"testing"
	"time"

	"github.com/embervale/server/model"
	"github.com/embervale/server/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRespawnSweep_DueNodeRevives(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := NewRespawnService(db, testutil.Logger())
	ctx := context.Background()
	now := time.Now()

	zero := 0
	due := now.Add(-time.Second)
	tree := &model.Tree{PosX: 1000, PosY: 1000, Health: &zero, RespawnAt: &due}
	require.NoError(t, db.Create(tree).Error)

	require.NoError(t, svc.Sweep(ctx, now))

	var got model.Tree
	require.NoError(t, db.First(&got, tree.ID).Error)
	assert.Nil(t, got.RespawnAt)
	require.NotNil(t, got.Health)
	assert.Equal(t, TreeInitialHealth, *got.Health)
	assert.Equal(t, 1000.0, got.PosX)
	assert.Equal(t, 1000.0, got.PosY)
}

func TestRespawnSweep_NotDueStaysDepleted(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := NewRespawnService(db, testutil.Logger())
	ctx := context.Background()
	now := time.Now()

	future := now.Add(time.Minute)
	shroom := &model.Mushroom{PosX: 500, PosY: 500, RespawnAt: &future}
	require.NoError(t, db.Create(shroom).Error)

	require.NoError(t, svc.Sweep(ctx, now))

	var got model.Mushroom
	require.NoError(t, db.First(&got, shroom.ID).Error)
	assert.NotNil(t, got.RespawnAt)
}

func TestRespawnSweep_BlockedByCampfireUsesOffset(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := NewRespawnService(db, testutil.Logger())
	ctx := context.Background()
	now := time.Now()

	due := now.Add(-time.Second)
	stone := &model.Stone{PosX: 2000, PosY: 2000, RespawnAt: &due}
	require.NoError(t, db.Create(stone).Error)
	// Campfire sits on the original spot; the first offset attempt
	// (east) is clear.
	require.NoError(t, db.Create(&model.Campfire{OwnerID: 1, PosX: 2000, PosY: 2000}).Error)

	require.NoError(t, svc.Sweep(ctx, now))

	var got model.Stone
	require.NoError(t, db.First(&got, stone.ID).Error)
	assert.Nil(t, got.RespawnAt)
	assert.Equal(t, 2000+RespawnOffsetDistance, got.PosX)
	assert.Equal(t, 2000.0, got.PosY)
	assert.Equal(t, ChunkIndex(got.PosX, got.PosY), got.ChunkIndex)
}

func TestRespawnSweep_FullyBlockedStaysDepleted(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := NewRespawnService(db, testutil.Logger())
	ctx := context.Background()
	now := time.Now()

	due := now.Add(-time.Second)
	hemp := &model.Hemp{PosX: 3000, PosY: 3000, RespawnAt: &due}
	require.NoError(t, db.Create(hemp).Error)

	// Block the original spot and every offset candidate.
	require.NoError(t, db.Create(&model.Campfire{OwnerID: 1, PosX: 3000, PosY: 3000}).Error)
	for attempt := 0; attempt < MaxRespawnOffsetAttempts; attempt++ {
		ox, oy := RespawnOffsetPosition(3000, 3000, attempt)
		require.NoError(t, db.Create(&model.Campfire{OwnerID: 1, PosX: ox, PosY: oy}).Error)
	}

	require.NoError(t, svc.Sweep(ctx, now))

	var got model.Hemp
	require.NoError(t, db.First(&got, hemp.ID).Error)
	assert.NotNil(t, got.RespawnAt)
}

func TestRespawnSweep_DeadPlayerDoesNotBlock(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := NewRespawnService(db, testutil.Logger())
	ctx := context.Background()
	now := time.Now()

	due := now.Add(-time.Second)
	corn := &model.Corn{PosX: 4000, PosY: 4000, RespawnAt: &due}
	require.NoError(t, db.Create(corn).Error)
	require.NoError(t, db.Create(&model.Player{AccountID: 9, Username: "ghost", PosX: 4000, PosY: 4000, IsDead: true}).Error)

	require.NoError(t, svc.Sweep(ctx, now))

	var got model.Corn
	require.NoError(t, db.First(&got, corn.ID).Error)
	assert.Nil(t, got.RespawnAt)
	assert.Equal(t, 4000.0, got.PosX)
}

func TestIsRespawnPositionClear(t *testing.T) {
	db := testutil.SetupTestDB(t)

	require.NoError(t, db.Create(&model.Player{AccountID: 1, Username: "near", PosX: 100, PosY: 100}).Error)

	g := NewGrid()
	require.NoError(t, g.PopulateFromWorld(db))

	assert.False(t, IsRespawnPositionClear(g, 100+RespawnCheckRadius-1, 100))
	assert.True(t, IsRespawnPositionClear(g, 100+RespawnCheckRadius+1, 100))

	// Non-blocking entities are visible to the grid but never block.
	hp := TreeInitialHealth
	require.NoError(t, db.Create(&model.Tree{PosX: 500, PosY: 500, Health: &hp}).Error)
	require.NoError(t, g.PopulateFromWorld(db))
	assert.True(t, IsRespawnPositionClear(g, 500, 500))
}

package item

import (
	"context"
	"testing"
	"time"

	"github.com/embervale/server/game/world"
	"github.com/embervale/server/model"
	"github.com/embervale/server/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDrop_PlacesStackInFrontOfPlayer(t *testing.T) {
	db := testutil.SetupTestDB(t)
	seedCatalog(t, db)
	p := createPlayer(t, db, 1, "alice")
	inv := NewInventoryService(db, testutil.Logger())
	svc := NewDroppedItemService(db, testutil.Logger())
	ctx := context.Background()

	wood := mustDef(t, db, "Wood")
	require.NoError(t, inv.AddItem(ctx, p.ID, wood.ID, 50))
	rows := itemsOf(t, db, p.ID)

	require.NoError(t, svc.Drop(ctx, p.ID, rows[0].InstanceID, 20, time.Now()))

	var d model.DroppedItem
	require.NoError(t, db.First(&d).Error)
	assert.Equal(t, wood.ID, d.ItemDefID)
	assert.Equal(t, 20, d.Quantity)
	// Facing down, the stack lands DropOffset below the player.
	assert.Equal(t, p.PosX, d.PosX)
	assert.Equal(t, p.PosY+world.DropOffset, d.PosY)
	assert.Equal(t, world.ChunkIndex(d.PosX, d.PosY), d.ChunkIndex)

	rows = itemsOf(t, db, p.ID)
	require.Len(t, rows, 1)
	assert.Equal(t, 30, rows[0].Quantity)
}

func TestDrop_WholeStackDeletesRow(t *testing.T) {
	db := testutil.SetupTestDB(t)
	seedCatalog(t, db)
	p := createPlayer(t, db, 1, "alice")
	inv := NewInventoryService(db, testutil.Logger())
	svc := NewDroppedItemService(db, testutil.Logger())
	ctx := context.Background()

	wood := mustDef(t, db, "Wood")
	require.NoError(t, inv.AddItem(ctx, p.ID, wood.ID, 10))
	rows := itemsOf(t, db, p.ID)

	require.NoError(t, svc.Drop(ctx, p.ID, rows[0].InstanceID, 10, time.Now()))
	assert.Empty(t, itemsOf(t, db, p.ID))
}

func TestDrop_InvalidQuantity(t *testing.T) {
	db := testutil.SetupTestDB(t)
	seedCatalog(t, db)
	p := createPlayer(t, db, 1, "alice")
	inv := NewInventoryService(db, testutil.Logger())
	svc := NewDroppedItemService(db, testutil.Logger())
	ctx := context.Background()

	wood := mustDef(t, db, "Wood")
	require.NoError(t, inv.AddItem(ctx, p.ID, wood.ID, 10))
	rows := itemsOf(t, db, p.ID)

	require.Error(t, svc.Drop(ctx, p.ID, rows[0].InstanceID, 0, time.Now()))
	require.Error(t, svc.Drop(ctx, p.ID, rows[0].InstanceID, 11, time.Now()))
}

func TestPickup_RoundTrip(t *testing.T) {
	db := testutil.SetupTestDB(t)
	seedCatalog(t, db)
	alice := createPlayer(t, db, 1, "alice")
	bob := createPlayer(t, db, 2, "bob")
	inv := NewInventoryService(db, testutil.Logger())
	svc := NewDroppedItemService(db, testutil.Logger())
	ctx := context.Background()

	wood := mustDef(t, db, "Wood")
	require.NoError(t, inv.AddItem(ctx, alice.ID, wood.ID, 25))
	rows := itemsOf(t, db, alice.ID)
	require.NoError(t, svc.Drop(ctx, alice.ID, rows[0].InstanceID, 25, time.Now()))

	var d model.DroppedItem
	require.NoError(t, db.First(&d).Error)

	// Bob stands within pickup range of the drop.
	require.NoError(t, db.Model(bob).Updates(map[string]interface{}{"pos_x": d.PosX + 10, "pos_y": d.PosY}).Error)
	require.NoError(t, svc.Pickup(ctx, bob.ID, d.ID))

	err := db.First(&model.DroppedItem{}, d.ID).Error
	require.Error(t, err)

	got := itemsOf(t, db, bob.ID)
	require.Len(t, got, 1)
	assert.Equal(t, 25, got[0].Quantity)
}

func TestPickup_TooFar(t *testing.T) {
	db := testutil.SetupTestDB(t)
	seedCatalog(t, db)
	p := createPlayer(t, db, 1, "alice")
	svc := NewDroppedItemService(db, testutil.Logger())
	ctx := context.Background()

	wood := mustDef(t, db, "Wood")
	d := &model.DroppedItem{ItemDefID: wood.ID, Quantity: 5,
		PosX: p.PosX + world.PickupRadius + 1, PosY: p.PosY}
	require.NoError(t, db.Create(d).Error)

	err := svc.Pickup(ctx, p.ID, d.ID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "too far")
}

func TestPickup_InventoryFullKeepsDrop(t *testing.T) {
	db := testutil.SetupTestDB(t)
	seedCatalog(t, db)
	p := createPlayer(t, db, 1, "alice")
	inv := NewInventoryService(db, testutil.Logger())
	svc := NewDroppedItemService(db, testutil.Logger())
	ctx := context.Background()

	rock := mustDef(t, db, "Rock")
	require.NoError(t, inv.AddItem(ctx, p.ID, rock.ID, model.InventorySlotCount+model.HotbarSlotCount))

	d := &model.DroppedItem{ItemDefID: rock.ID, Quantity: 1, PosX: p.PosX, PosY: p.PosY}
	require.NoError(t, db.Create(d).Error)

	err := svc.Pickup(ctx, p.ID, d.ID)
	require.ErrorIs(t, err, ErrInventoryFull)

	// The failed pickup leaves the drop on the ground.
	require.NoError(t, db.First(&model.DroppedItem{}, d.ID).Error)
}

func TestDespawnSweep(t *testing.T) {
	db := testutil.SetupTestDB(t)
	seedCatalog(t, db)
	svc := NewDroppedItemService(db, testutil.Logger())
	ctx := context.Background()
	now := time.Now()

	wood := mustDef(t, db, "Wood")
	old := &model.DroppedItem{ItemDefID: wood.ID, Quantity: 5, PosX: 100, PosY: 100,
		CreatedAt: now.Add(-time.Duration(world.DefaultDespawnSeconds+1) * time.Second)}
	require.NoError(t, db.Create(old).Error)
	fresh := &model.DroppedItem{ItemDefID: wood.ID, Quantity: 5, PosX: 200, PosY: 200,
		CreatedAt: now.Add(-time.Minute)}
	require.NoError(t, db.Create(fresh).Error)

	require.NoError(t, svc.DespawnSweep(ctx, now))

	require.Error(t, db.First(&model.DroppedItem{}, old.ID).Error)
	require.NoError(t, db.First(&model.DroppedItem{}, fresh.ID).Error)
}

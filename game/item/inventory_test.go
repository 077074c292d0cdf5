package item

import (
	"context"
	"testing"

	"github.com/embervale/server/model"
	"github.com/embervale/server/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddItem_NewStackInFirstSlot(t *testing.T) {
	db := testutil.SetupTestDB(t)
	seedCatalog(t, db)
	p := createPlayer(t, db, 1, "alice")
	svc := NewInventoryService(db, testutil.Logger())
	ctx := context.Background()

	wood := mustDef(t, db, "Wood")
	require.NoError(t, svc.AddItem(ctx, p.ID, wood.ID, 5))

	rows := itemsOf(t, db, p.ID)
	require.Len(t, rows, 1)
	assert.Equal(t, 5, rows[0].Quantity)
	assert.Equal(t, model.LocInventory, rows[0].Location.Type)
	assert.Equal(t, 0, rows[0].Location.SlotIndex)
}

func TestAddItem_TopsUpExistingStackFirst(t *testing.T) {
	db := testutil.SetupTestDB(t)
	seedCatalog(t, db)
	p := createPlayer(t, db, 1, "alice")
	svc := NewInventoryService(db, testutil.Logger())
	ctx := context.Background()

	wood := mustDef(t, db, "Wood")
	require.NoError(t, svc.AddItem(ctx, p.ID, wood.ID, 95))
	require.NoError(t, svc.AddItem(ctx, p.ID, wood.ID, 10))

	rows := itemsOf(t, db, p.ID)
	require.Len(t, rows, 2)
	// Stack size for Wood is 100: the first stack fills to the cap,
	// the overflow opens a second one.
	assert.Equal(t, 100, rows[0].Quantity)
	assert.Equal(t, 5, rows[1].Quantity)
}

func TestAddItem_SpansMultipleSlots(t *testing.T) {
	db := testutil.SetupTestDB(t)
	seedCatalog(t, db)
	p := createPlayer(t, db, 1, "alice")
	svc := NewInventoryService(db, testutil.Logger())
	ctx := context.Background()

	wood := mustDef(t, db, "Wood")
	require.NoError(t, svc.AddItem(ctx, p.ID, wood.ID, 250))

	rows := itemsOf(t, db, p.ID)
	require.Len(t, rows, 3)
	total := 0
	for _, r := range rows {
		total += r.Quantity
	}
	assert.Equal(t, 250, total)
}

func TestAddItem_NonStackableOnePerSlot(t *testing.T) {
	db := testutil.SetupTestDB(t)
	seedCatalog(t, db)
	p := createPlayer(t, db, 1, "alice")
	svc := NewInventoryService(db, testutil.Logger())
	ctx := context.Background()

	rock := mustDef(t, db, "Rock")
	require.NoError(t, svc.AddItem(ctx, p.ID, rock.ID, 3))

	rows := itemsOf(t, db, p.ID)
	require.Len(t, rows, 3)
	for _, r := range rows {
		assert.Equal(t, 1, r.Quantity)
	}
}

func TestAddItem_OverflowsToHotbar(t *testing.T) {
	db := testutil.SetupTestDB(t)
	seedCatalog(t, db)
	p := createPlayer(t, db, 1, "alice")
	svc := NewInventoryService(db, testutil.Logger())
	ctx := context.Background()

	rock := mustDef(t, db, "Rock")
	require.NoError(t, svc.AddItem(ctx, p.ID, rock.ID, model.InventorySlotCount))
	require.NoError(t, svc.AddItem(ctx, p.ID, rock.ID, 1))

	var hot model.InventoryItem
	require.NoError(t, db.Where("loc_owner_id = ? AND loc_type = ?", p.ID, model.LocHotbar).First(&hot).Error)
	assert.Equal(t, 0, hot.Location.SlotIndex)
}

func TestAddItem_InventoryFull(t *testing.T) {
	db := testutil.SetupTestDB(t)
	seedCatalog(t, db)
	p := createPlayer(t, db, 1, "alice")
	svc := NewInventoryService(db, testutil.Logger())
	ctx := context.Background()

	rock := mustDef(t, db, "Rock")
	total := model.InventorySlotCount + model.HotbarSlotCount
	require.NoError(t, svc.AddItem(ctx, p.ID, rock.ID, total))

	err := svc.AddItem(ctx, p.ID, rock.ID, 1)
	require.ErrorIs(t, err, ErrInventoryFull)
	// The failed add leaves nothing behind.
	assert.Len(t, itemsOf(t, db, p.ID), total)
}

func TestAddItem_RejectsUnknownDefinition(t *testing.T) {
	db := testutil.SetupTestDB(t)
	seedCatalog(t, db)
	p := createPlayer(t, db, 1, "alice")
	svc := NewInventoryService(db, testutil.Logger())

	err := svc.AddItem(context.Background(), p.ID, 99999, 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestAddItem_RejectsNonPositiveQuantity(t *testing.T) {
	db := testutil.SetupTestDB(t)
	seedCatalog(t, db)
	p := createPlayer(t, db, 1, "alice")
	svc := NewInventoryService(db, testutil.Logger())

	wood := mustDef(t, db, "Wood")
	require.Error(t, svc.AddItem(context.Background(), p.ID, wood.ID, 0))
	require.Error(t, svc.AddItem(context.Background(), p.ID, wood.ID, -5))
}

func TestMoveItem_ToEmptySlot(t *testing.T) {
	db := testutil.SetupTestDB(t)
	seedCatalog(t, db)
	p := createPlayer(t, db, 1, "alice")
	svc := NewInventoryService(db, testutil.Logger())
	ctx := context.Background()

	wood := mustDef(t, db, "Wood")
	require.NoError(t, svc.AddItem(ctx, p.ID, wood.ID, 10))
	rows := itemsOf(t, db, p.ID)
	require.Len(t, rows, 1)

	require.NoError(t, svc.MoveItem(ctx, p.ID, rows[0].InstanceID, model.HotbarLoc(p.ID, 3)))

	var got model.InventoryItem
	require.NoError(t, db.First(&got, rows[0].InstanceID).Error)
	assert.Equal(t, model.LocHotbar, got.Location.Type)
	assert.Equal(t, 3, got.Location.SlotIndex)
}

func TestMoveItem_SameSlotIsNoOp(t *testing.T) {
	db := testutil.SetupTestDB(t)
	seedCatalog(t, db)
	p := createPlayer(t, db, 1, "alice")
	svc := NewInventoryService(db, testutil.Logger())
	ctx := context.Background()

	wood := mustDef(t, db, "Wood")
	require.NoError(t, svc.AddItem(ctx, p.ID, wood.ID, 10))
	rows := itemsOf(t, db, p.ID)

	require.NoError(t, svc.MoveItem(ctx, p.ID, rows[0].InstanceID, model.InventoryLoc(p.ID, 0)))
	assert.Len(t, itemsOf(t, db, p.ID), 1)
}

func TestMoveItem_MergesSameDefinition(t *testing.T) {
	db := testutil.SetupTestDB(t)
	seedCatalog(t, db)
	p := createPlayer(t, db, 1, "alice")
	svc := NewInventoryService(db, testutil.Logger())
	ctx := context.Background()

	wood := mustDef(t, db, "Wood")
	require.NoError(t, db.Create(&model.InventoryItem{ItemDefID: wood.ID, Quantity: 30, Location: model.InventoryLoc(p.ID, 0)}).Error)
	src := &model.InventoryItem{ItemDefID: wood.ID, Quantity: 20, Location: model.InventoryLoc(p.ID, 5)}
	require.NoError(t, db.Create(src).Error)

	require.NoError(t, svc.MoveItem(ctx, p.ID, src.InstanceID, model.InventoryLoc(p.ID, 0)))

	rows := itemsOf(t, db, p.ID)
	require.Len(t, rows, 1)
	assert.Equal(t, 50, rows[0].Quantity)
}

func TestMoveItem_MergeOverflowSwapsInstead(t *testing.T) {
	db := testutil.SetupTestDB(t)
	seedCatalog(t, db)
	p := createPlayer(t, db, 1, "alice")
	svc := NewInventoryService(db, testutil.Logger())
	ctx := context.Background()

	wood := mustDef(t, db, "Wood")
	occ := &model.InventoryItem{ItemDefID: wood.ID, Quantity: 90, Location: model.InventoryLoc(p.ID, 0)}
	require.NoError(t, db.Create(occ).Error)
	src := &model.InventoryItem{ItemDefID: wood.ID, Quantity: 20, Location: model.InventoryLoc(p.ID, 5)}
	require.NoError(t, db.Create(src).Error)

	// 90 + 20 exceeds the stack cap of 100, so the stacks trade slots.
	require.NoError(t, svc.MoveItem(ctx, p.ID, src.InstanceID, model.InventoryLoc(p.ID, 0)))

	var gotSrc, gotOcc model.InventoryItem
	require.NoError(t, db.First(&gotSrc, src.InstanceID).Error)
	require.NoError(t, db.First(&gotOcc, occ.InstanceID).Error)
	assert.Equal(t, 0, gotSrc.Location.SlotIndex)
	assert.Equal(t, 20, gotSrc.Quantity)
	assert.Equal(t, 5, gotOcc.Location.SlotIndex)
	assert.Equal(t, 90, gotOcc.Quantity)
}

func TestMoveItem_SwapsDifferentDefinitions(t *testing.T) {
	db := testutil.SetupTestDB(t)
	seedCatalog(t, db)
	p := createPlayer(t, db, 1, "alice")
	svc := NewInventoryService(db, testutil.Logger())
	ctx := context.Background()

	wood := mustDef(t, db, "Wood")
	stone := mustDef(t, db, "Stone")
	a := &model.InventoryItem{ItemDefID: wood.ID, Quantity: 10, Location: model.InventoryLoc(p.ID, 0)}
	require.NoError(t, db.Create(a).Error)
	b := &model.InventoryItem{ItemDefID: stone.ID, Quantity: 10, Location: model.HotbarLoc(p.ID, 2)}
	require.NoError(t, db.Create(b).Error)

	require.NoError(t, svc.MoveItem(ctx, p.ID, a.InstanceID, model.HotbarLoc(p.ID, 2)))

	var gotA, gotB model.InventoryItem
	require.NoError(t, db.First(&gotA, a.InstanceID).Error)
	require.NoError(t, db.First(&gotB, b.InstanceID).Error)
	assert.Equal(t, model.LocHotbar, gotA.Location.Type)
	assert.Equal(t, 2, gotA.Location.SlotIndex)
	assert.Equal(t, model.LocInventory, gotB.Location.Type)
	assert.Equal(t, 0, gotB.Location.SlotIndex)
}

func TestMoveItem_RejectsInvalidSlot(t *testing.T) {
	db := testutil.SetupTestDB(t)
	seedCatalog(t, db)
	p := createPlayer(t, db, 1, "alice")
	svc := NewInventoryService(db, testutil.Logger())
	ctx := context.Background()

	wood := mustDef(t, db, "Wood")
	require.NoError(t, svc.AddItem(ctx, p.ID, wood.ID, 10))
	rows := itemsOf(t, db, p.ID)

	require.Error(t, svc.MoveItem(ctx, p.ID, rows[0].InstanceID, model.InventoryLoc(p.ID, model.InventorySlotCount)))
	require.Error(t, svc.MoveItem(ctx, p.ID, rows[0].InstanceID, model.HotbarLoc(p.ID, -1)))
	require.Error(t, svc.MoveItem(ctx, p.ID, rows[0].InstanceID, model.UnknownLoc()))
}

func TestMoveItem_RejectsForeignItem(t *testing.T) {
	db := testutil.SetupTestDB(t)
	seedCatalog(t, db)
	alice := createPlayer(t, db, 1, "alice")
	bob := createPlayer(t, db, 2, "bob")
	svc := NewInventoryService(db, testutil.Logger())
	ctx := context.Background()

	wood := mustDef(t, db, "Wood")
	require.NoError(t, svc.AddItem(ctx, alice.ID, wood.ID, 10))
	rows := itemsOf(t, db, alice.ID)

	err := svc.MoveItem(ctx, bob.ID, rows[0].InstanceID, model.InventoryLoc(bob.ID, 0))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not belong")
}

func TestSplitStack(t *testing.T) {
	db := testutil.SetupTestDB(t)
	seedCatalog(t, db)
	p := createPlayer(t, db, 1, "alice")
	svc := NewInventoryService(db, testutil.Logger())
	ctx := context.Background()

	wood := mustDef(t, db, "Wood")
	require.NoError(t, svc.AddItem(ctx, p.ID, wood.ID, 50))
	rows := itemsOf(t, db, p.ID)

	require.NoError(t, svc.SplitStack(ctx, p.ID, rows[0].InstanceID, 20))

	rows = itemsOf(t, db, p.ID)
	require.Len(t, rows, 2)
	assert.Equal(t, 30, rows[0].Quantity)
	assert.Equal(t, 20, rows[1].Quantity)
	assert.NotEqual(t, rows[0].Location.SlotKey(), rows[1].Location.SlotKey())
}

func TestSplitStack_Boundaries(t *testing.T) {
	db := testutil.SetupTestDB(t)
	seedCatalog(t, db)
	p := createPlayer(t, db, 1, "alice")
	svc := NewInventoryService(db, testutil.Logger())
	ctx := context.Background()

	wood := mustDef(t, db, "Wood")
	require.NoError(t, svc.AddItem(ctx, p.ID, wood.ID, 10))
	rows := itemsOf(t, db, p.ID)

	require.Error(t, svc.SplitStack(ctx, p.ID, rows[0].InstanceID, 0))
	require.Error(t, svc.SplitStack(ctx, p.ID, rows[0].InstanceID, 10))
	require.Error(t, svc.SplitStack(ctx, p.ID, rows[0].InstanceID, 11))
	require.NoError(t, svc.SplitStack(ctx, p.ID, rows[0].InstanceID, 9))
}

func TestRemoveQuantityTx(t *testing.T) {
	db := testutil.SetupTestDB(t)
	seedCatalog(t, db)
	p := createPlayer(t, db, 1, "alice")

	wood := mustDef(t, db, "Wood")
	row := &model.InventoryItem{ItemDefID: wood.ID, Quantity: 10, Location: model.InventoryLoc(p.ID, 0)}
	require.NoError(t, db.Create(row).Error)

	require.NoError(t, RemoveQuantityTx(db, row, 4))
	var got model.InventoryItem
	require.NoError(t, db.First(&got, row.InstanceID).Error)
	assert.Equal(t, 6, got.Quantity)

	// Removing the remainder deletes the row.
	require.NoError(t, RemoveQuantityTx(db, &got, 6))
	err := db.First(&model.InventoryItem{}, row.InstanceID).Error
	require.Error(t, err)
}

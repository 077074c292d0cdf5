package item

import (
	"context"
	"testing"

	"github.com/embervale/server/model"
	"github.com/embervale/server/testutil"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func seedCatalog(t *testing.T, db *gorm.DB) {
	t.Helper()
	require.NoError(t, SeedItemDefinitions(context.Background(), db, testutil.Logger()))
}

func createPlayer(t *testing.T, db *gorm.DB, accountID int64, username string) *model.Player {
	t.Helper()
	p := &model.Player{
		AccountID: accountID,
		Username:  username,
		Health:    100, Hunger: 100, Thirst: 100, Warmth: 100, Stamina: 100,
		PosX: 1000, PosY: 1000,
		Direction: model.DirDown,
	}
	require.NoError(t, db.Create(p).Error)
	return p
}

func mustDef(t *testing.T, db *gorm.DB, name string) *model.ItemDefinition {
	t.Helper()
	def, err := DefinitionByName(db, name)
	require.NoError(t, err)
	return def
}

func itemsOf(t *testing.T, db *gorm.DB, playerID int64) []model.InventoryItem {
	t.Helper()
	var rows []model.InventoryItem
	require.NoError(t, db.Where("loc_owner_id = ?", playerID).Order("instance_id").Find(&rows).Error)
	return rows
}

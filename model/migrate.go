package model

import "gorm.io/gorm"

// allModels lists every model to be auto-migrated.
var allModels = []interface{}{
	&Account{},
	&Player{},
	&PlayerPin{},
	&PlayerKillCommandCooldown{},
	&PlayerCorpse{},
	&ItemDefinition{},
	&InventoryItem{},
	&ActiveEquipment{},
	&Tree{},
	&Stone{},
	&Mushroom{},
	&Hemp{},
	&Pumpkin{},
	&Corn{},
	&Campfire{},
	&WoodenStorageBox{},
	&Stash{},
	&DroppedItem{},
	&WorldState{},
	&Cloud{},
	&ActiveConsumableEffect{},
	&Message{},
	&PrivateMessage{},
	&Recipe{},
	&AuditLog{},
}

// AutoMigrate creates or updates all tables in the given database.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(allModels...)
}

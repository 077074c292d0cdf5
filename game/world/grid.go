package world

import (
	"math"

	"github.com/embervale/server/model"
	"gorm.io/gorm"
)

// EntityKind tags a grid entry with its source table.
type EntityKind string

const (
	KindPlayer           EntityKind = "player"
	KindTree             EntityKind = "tree"
	KindStone            EntityKind = "stone"
	KindCampfire         EntityKind = "campfire"
	KindWoodenStorageBox EntityKind = "wooden_storage_box"
	KindMushroom         EntityKind = "mushroom"
	KindDroppedItem      EntityKind = "dropped_item"
)

// GridEntity is one entry in the broadphase grid.
type GridEntity struct {
	Kind EntityKind
	ID   int64
	X    float64
	Y    float64
}

type cellKey struct {
	X int
	Y int
}

// Grid is a uniform-cell broadphase over the world rectangle. It is
// rebuilt before each query batch rather than maintained incrementally,
// which keeps it trivially consistent with transactional writes.
type Grid struct {
	cellSize float64
	cells    map[cellKey][]GridEntity
}

// NewGrid creates an empty Grid with the standard cell size.
func NewGrid() *Grid {
	return &Grid{cellSize: GridCellSize, cells: make(map[cellKey][]GridEntity)}
}

// Clear empties all cells.
func (g *Grid) Clear() {
	g.cells = make(map[cellKey][]GridEntity)
}

func (g *Grid) keyFor(x, y float64) (cellKey, bool) {
	if x < 0 || y < 0 || x >= WorldWidthPx || y >= WorldHeightPx {
		return cellKey{}, false
	}
	return cellKey{X: int(math.Floor(x / g.cellSize)), Y: int(math.Floor(y / g.cellSize))}, true
}

// Insert places an entity into its single home cell. Out-of-world
// positions are ignored.
func (g *Grid) Insert(e GridEntity) {
	key, ok := g.keyFor(e.X, e.Y)
	if !ok {
		return
	}
	g.cells[key] = append(g.cells[key], e)
}

// EntitiesInRange returns every entity in the 3x3 cell block centered
// on (x, y), in arbitrary order. Coordinates outside the world yield
// an empty result.
func (g *Grid) EntitiesInRange(x, y float64) []GridEntity {
	center, ok := g.keyFor(x, y)
	if !ok {
		return nil
	}
	var out []GridEntity
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			out = append(out, g.cells[cellKey{X: center.X + dx, Y: center.Y + dy}]...)
		}
	}
	return out
}

// PopulateFromWorld rebuilds the grid from the live tables: alive
// players, standing trees and stones, placed campfires and storage
// boxes, unharvested mushrooms, and dropped items. Depleted or dead
// rows are omitted so they never show up in collision queries.
func (g *Grid) PopulateFromWorld(tx *gorm.DB) error {
	g.Clear()

	var players []model.Player
	if err := tx.Where("is_dead = ?", false).Find(&players).Error; err != nil {
		return err
	}
	for _, p := range players {
		g.Insert(GridEntity{Kind: KindPlayer, ID: p.ID, X: p.PosX, Y: p.PosY})
	}

	var trees []model.Tree
	if err := tx.Where("respawn_at IS NULL AND health > 0").Find(&trees).Error; err != nil {
		return err
	}
	for _, t := range trees {
		g.Insert(GridEntity{Kind: KindTree, ID: t.ID, X: t.PosX, Y: t.PosY})
	}

	var stones []model.Stone
	if err := tx.Where("respawn_at IS NULL AND health > 0").Find(&stones).Error; err != nil {
		return err
	}
	for _, s := range stones {
		g.Insert(GridEntity{Kind: KindStone, ID: s.ID, X: s.PosX, Y: s.PosY})
	}

	var fires []model.Campfire
	if err := tx.Find(&fires).Error; err != nil {
		return err
	}
	for _, f := range fires {
		g.Insert(GridEntity{Kind: KindCampfire, ID: f.ID, X: f.PosX, Y: f.PosY})
	}

	var boxes []model.WoodenStorageBox
	if err := tx.Find(&boxes).Error; err != nil {
		return err
	}
	for _, b := range boxes {
		g.Insert(GridEntity{Kind: KindWoodenStorageBox, ID: b.ID, X: b.PosX, Y: b.PosY})
	}

	var shrooms []model.Mushroom
	if err := tx.Where("respawn_at IS NULL").Find(&shrooms).Error; err != nil {
		return err
	}
	for _, m := range shrooms {
		g.Insert(GridEntity{Kind: KindMushroom, ID: m.ID, X: m.PosX, Y: m.PosY})
	}

	var drops []model.DroppedItem
	if err := tx.Find(&drops).Error; err != nil {
		return err
	}
	for _, d := range drops {
		g.Insert(GridEntity{Kind: KindDroppedItem, ID: d.ID, X: d.PosX, Y: d.PosY})
	}
	return nil
}

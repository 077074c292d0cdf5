package world

import (
	"context"
	"time"

	"github.com/embervale/server/model"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Initial hit points restored when a depleted node revives.
const (
	TreeInitialHealth  = 500
	StoneInitialHealth = 500
)

// RespawnService revives depleted resource nodes whose timers have
// elapsed, relocating them when their original spot is occupied.
type RespawnService struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewRespawnService creates a new RespawnService.
func NewRespawnService(db *gorm.DB, logger *zap.Logger) *RespawnService {
	return &RespawnService{db: db, logger: logger}
}

// respawnCandidate is one due row of any resource family, with a
// callback that persists the revived state.
type respawnCandidate struct {
	id     int64
	x, y   float64
	revive func(tx *gorm.DB, x, y float64) error
}

// IsRespawnPositionClear reports whether no alive player, campfire, or
// storage box sits within RespawnCheckRadius of (x, y). Other resource
// nodes do not block respawn. The grid's 3x3 neighborhood covers the
// check radius because RespawnCheckRadius < GridCellSize.
func IsRespawnPositionClear(g *Grid, x, y float64) bool {
	for _, e := range g.EntitiesInRange(x, y) {
		switch e.Kind {
		case KindPlayer, KindCampfire, KindWoodenStorageBox:
			if DistSq(e.X, e.Y, x, y) <= RespawnCheckRadiusSquared {
				return false
			}
		}
	}
	return true
}

// Sweep revives every due resource node across all families. Per-row
// failures are logged and skipped; the sweep itself only fails when a
// family cannot be scanned at all.
func (svc *RespawnService) Sweep(ctx context.Context, now time.Time) error {
	return svc.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		candidates, err := dueCandidates(tx, now)
		if err != nil {
			return err
		}
		if len(candidates) == 0 {
			return nil
		}

		// One broadphase snapshot serves every clearance check in the
		// sweep. Revived nodes never block other respawns, and the
		// blockers (players, campfires, boxes) do not move mid-sweep.
		grid := NewGrid()
		if err := grid.PopulateFromWorld(tx); err != nil {
			return err
		}

		for _, c := range candidates {
			if err := svc.reviveWithClearance(tx, grid, c); err != nil {
				svc.logger.Warn("resource respawn failed",
					zap.Int64("id", c.id), zap.Error(err))
			}
		}
		return nil
	})
}

// reviveWithClearance tries the original spot, then the 8-direction
// offset pattern. A fully blocked node stays depleted and is retried
// on the next sweep.
func (svc *RespawnService) reviveWithClearance(tx *gorm.DB, g *Grid, c respawnCandidate) error {
	if IsRespawnPositionClear(g, c.x, c.y) {
		return c.revive(tx, c.x, c.y)
	}
	for attempt := 0; attempt < MaxRespawnOffsetAttempts; attempt++ {
		ox, oy := RespawnOffsetPosition(c.x, c.y, attempt)
		if IsRespawnPositionClear(g, ox, oy) {
			return c.revive(tx, ox, oy)
		}
	}
	return nil // blocked everywhere, retry next sweep
}

func dueCandidates(tx *gorm.DB, now time.Time) ([]respawnCandidate, error) {
	var out []respawnCandidate

	var trees []model.Tree
	if err := tx.Where("respawn_at IS NOT NULL AND respawn_at <= ?", now).Find(&trees).Error; err != nil {
		return nil, err
	}
	for _, t := range trees {
		id := t.ID
		out = append(out, respawnCandidate{id: id, x: t.PosX, y: t.PosY,
			revive: func(tx *gorm.DB, x, y float64) error {
				hp := TreeInitialHealth
				return tx.Model(&model.Tree{}).Where("id = ?", id).Updates(map[string]interface{}{
					"respawn_at": nil, "health": hp,
					"pos_x": x, "pos_y": y, "chunk_index": ChunkIndex(x, y),
				}).Error
			}})
	}

	var stones []model.Stone
	if err := tx.Where("respawn_at IS NOT NULL AND respawn_at <= ?", now).Find(&stones).Error; err != nil {
		return nil, err
	}
	for _, s := range stones {
		id := s.ID
		out = append(out, respawnCandidate{id: id, x: s.PosX, y: s.PosY,
			revive: func(tx *gorm.DB, x, y float64) error {
				hp := StoneInitialHealth
				return tx.Model(&model.Stone{}).Where("id = ?", id).Updates(map[string]interface{}{
					"respawn_at": nil, "health": hp,
					"pos_x": x, "pos_y": y, "chunk_index": ChunkIndex(x, y),
				}).Error
			}})
	}

	collect := func(table interface{}, id int64, x, y float64) respawnCandidate {
		return respawnCandidate{id: id, x: x, y: y,
			revive: func(tx *gorm.DB, nx, ny float64) error {
				return tx.Model(table).Where("id = ?", id).Updates(map[string]interface{}{
					"respawn_at": nil,
					"pos_x":      nx, "pos_y": ny, "chunk_index": ChunkIndex(nx, ny),
				}).Error
			}}
	}

	var shrooms []model.Mushroom
	if err := tx.Where("respawn_at IS NOT NULL AND respawn_at <= ?", now).Find(&shrooms).Error; err != nil {
		return nil, err
	}
	for _, m := range shrooms {
		out = append(out, collect(&model.Mushroom{}, m.ID, m.PosX, m.PosY))
	}

	var hemps []model.Hemp
	if err := tx.Where("respawn_at IS NOT NULL AND respawn_at <= ?", now).Find(&hemps).Error; err != nil {
		return nil, err
	}
	for _, h := range hemps {
		out = append(out, collect(&model.Hemp{}, h.ID, h.PosX, h.PosY))
	}

	var pumpkins []model.Pumpkin
	if err := tx.Where("respawn_at IS NOT NULL AND respawn_at <= ?", now).Find(&pumpkins).Error; err != nil {
		return nil, err
	}
	for _, p := range pumpkins {
		out = append(out, collect(&model.Pumpkin{}, p.ID, p.PosX, p.PosY))
	}

	var corns []model.Corn
	if err := tx.Where("respawn_at IS NOT NULL AND respawn_at <= ?", now).Find(&corns).Error; err != nil {
		return nil, err
	}
	for _, c := range corns {
		out = append(out, collect(&model.Corn{}, c.ID, c.PosX, c.PosY))
	}

	return out, nil
}

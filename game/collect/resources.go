package collect

import (
	"context"
	"errors"
	"time"

	"github.com/embervale/server/model"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Harvest tuning per resource family.
const (
	treeHitDamage  = 50
	stoneHitDamage = 50

	treeRespawnMinSecs     = 300
	treeRespawnMaxSecs     = 600
	stoneRespawnMinSecs    = 300
	stoneRespawnMaxSecs    = 600
	mushroomRespawnMinSecs = 120
	mushroomRespawnMaxSecs = 300
	hempRespawnMinSecs     = 180
	hempRespawnMaxSecs     = 360
	pumpkinRespawnMinSecs  = 300
	pumpkinRespawnMaxSecs  = 600
	cornRespawnMinSecs     = 300
	cornRespawnMaxSecs     = 600
)

// Service binds the shared harvest engine to each resource table.
type Service struct {
	db     *gorm.DB
	engine *Engine
	logger *zap.Logger
}

// NewService creates a new resource-interaction Service.
func NewService(db *gorm.DB, logger *zap.Logger) *Service {
	return &Service{db: db, engine: NewEngine(db, logger), logger: logger}
}

// InteractWithMushroom picks a mushroom.
func (svc *Service) InteractWithMushroom(ctx context.Context, playerID, id int64, now time.Time) error {
	var m model.Mushroom
	if err := svc.db.WithContext(ctx).First(&m, id).Error; err != nil {
		return notFound(err, "mushroom")
	}
	return svc.engine.Harvest(ctx, playerID,
		Yield{ItemName: "Mushroom", Quantity: 1}, nil,
		Target{ID: m.ID, X: m.PosX, Y: m.PosY, Harvested: m.RespawnAt != nil,
			OnHarvest: scheduleRespawn(&model.Mushroom{}, m.ID)},
		mushroomRespawnMinSecs, mushroomRespawnMaxSecs, now)
}

// InteractWithHemp gathers plant fiber.
func (svc *Service) InteractWithHemp(ctx context.Context, playerID, id int64, now time.Time) error {
	var h model.Hemp
	if err := svc.db.WithContext(ctx).First(&h, id).Error; err != nil {
		return notFound(err, "hemp")
	}
	return svc.engine.Harvest(ctx, playerID,
		Yield{ItemName: "Plant Fiber", Quantity: 10}, nil,
		Target{ID: h.ID, X: h.PosX, Y: h.PosY, Harvested: h.RespawnAt != nil,
			OnHarvest: scheduleRespawn(&model.Hemp{}, h.ID)},
		hempRespawnMinSecs, hempRespawnMaxSecs, now)
}

// InteractWithPumpkin picks a pumpkin.
func (svc *Service) InteractWithPumpkin(ctx context.Context, playerID, id int64, now time.Time) error {
	var p model.Pumpkin
	if err := svc.db.WithContext(ctx).First(&p, id).Error; err != nil {
		return notFound(err, "pumpkin")
	}
	return svc.engine.Harvest(ctx, playerID,
		Yield{ItemName: "Pumpkin", Quantity: 1}, nil,
		Target{ID: p.ID, X: p.PosX, Y: p.PosY, Harvested: p.RespawnAt != nil,
			OnHarvest: scheduleRespawn(&model.Pumpkin{}, p.ID)},
		pumpkinRespawnMinSecs, pumpkinRespawnMaxSecs, now)
}

// InteractWithCorn picks corn.
func (svc *Service) InteractWithCorn(ctx context.Context, playerID, id int64, now time.Time) error {
	var c model.Corn
	if err := svc.db.WithContext(ctx).First(&c, id).Error; err != nil {
		return notFound(err, "corn")
	}
	return svc.engine.Harvest(ctx, playerID,
		Yield{ItemName: "Corn", Quantity: 1}, nil,
		Target{ID: c.ID, X: c.PosX, Y: c.PosY, Harvested: c.RespawnAt != nil,
			OnHarvest: scheduleRespawn(&model.Corn{}, c.ID)},
		cornRespawnMinSecs, cornRespawnMaxSecs, now)
}

// InteractWithTree chops a tree: wood per hit, a chance of plant
// fiber, and the node schedules its respawn only once its hit points
// are exhausted.
func (svc *Service) InteractWithTree(ctx context.Context, playerID, id int64, now time.Time) error {
	var t model.Tree
	if err := svc.db.WithContext(ctx).First(&t, id).Error; err != nil {
		return notFound(err, "tree")
	}
	return svc.engine.Harvest(ctx, playerID,
		Yield{ItemName: "Wood", Quantity: 10},
		&SecondaryYield{ItemName: "Plant Fiber", Min: 1, Max: 3, Chance: 0.25},
		Target{ID: t.ID, X: t.PosX, Y: t.PosY, Harvested: t.RespawnAt != nil,
			OnHarvest: depleteThenRespawn(&model.Tree{}, t.ID, t.Health, treeHitDamage)},
		treeRespawnMinSecs, treeRespawnMaxSecs, now)
}

// InteractWithStone mines a stone node.
func (svc *Service) InteractWithStone(ctx context.Context, playerID, id int64, now time.Time) error {
	var s model.Stone
	if err := svc.db.WithContext(ctx).First(&s, id).Error; err != nil {
		return notFound(err, "stone")
	}
	return svc.engine.Harvest(ctx, playerID,
		Yield{ItemName: "Stone", Quantity: 10}, nil,
		Target{ID: s.ID, X: s.PosX, Y: s.PosY, Harvested: s.RespawnAt != nil,
			OnHarvest: depleteThenRespawn(&model.Stone{}, s.ID, s.Health, stoneHitDamage)},
		stoneRespawnMinSecs, stoneRespawnMaxSecs, now)
}

// scheduleRespawn marks a single-interaction node harvested.
func scheduleRespawn(table interface{}, id int64) func(tx *gorm.DB, respawnAt time.Time) error {
	return func(tx *gorm.DB, respawnAt time.Time) error {
		return tx.Model(table).Where("id = ?", id).Update("respawn_at", respawnAt).Error
	}
}

// depleteThenRespawn subtracts one hit from a multi-hit node and only
// schedules the respawn when hit points reach zero.
func depleteThenRespawn(table interface{}, id int64, health *int, hitDamage int) func(tx *gorm.DB, respawnAt time.Time) error {
	return func(tx *gorm.DB, respawnAt time.Time) error {
		hp := 0
		if health != nil {
			hp = *health
		}
		hp -= hitDamage
		if hp > 0 {
			return tx.Model(table).Where("id = ?", id).Update("health", hp).Error
		}
		return tx.Model(table).Where("id = ?", id).Updates(map[string]interface{}{
			"health": 0, "respawn_at": respawnAt,
		}).Error
	}
}

func notFound(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errors.New(what + " not found")
	}
	return err
}

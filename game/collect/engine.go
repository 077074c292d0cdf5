package collect

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/embervale/server/game/item"
	"github.com/embervale/server/game/world"
	"github.com/embervale/server/model"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Yield is the guaranteed harvest output.
type Yield struct {
	ItemName string
	Quantity int
}

// SecondaryYield is an optional bonus roll: with probability Chance,
// a uniform amount in [Min, Max] is granted.
type SecondaryYield struct {
	ItemName string
	Min, Max int
	Chance   float64
}

// Target is the capability view of one resource row: identity,
// position, whether it is currently depleted, and a callback that
// persists the harvest outcome (scheduling respawnAt, or decrementing
// hit points for multi-hit nodes).
type Target struct {
	ID        int64
	X, Y      float64
	Harvested bool
	OnHarvest func(tx *gorm.DB, respawnAt time.Time) error
}

// Engine runs the shared harvest protocol used by every resource kind.
type Engine struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewEngine creates a new collect Engine.
func NewEngine(db *gorm.DB, logger *zap.Logger) *Engine {
	return &Engine{db: db, logger: logger}
}

// Harvest validates the interaction and grants yields, then invokes
// the target callback with a respawn time sampled uniformly from
// [minRespawnSecs, maxRespawnSecs]. The inventory add happens first so
// a full inventory leaves the resource untouched; a failed secondary
// roll is logged and skipped rather than aborting the harvest.
func (e *Engine) Harvest(
	ctx context.Context,
	playerID int64,
	primary Yield,
	secondary *SecondaryYield,
	target Target,
	minRespawnSecs, maxRespawnSecs int,
	now time.Time,
) error {
	return e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p model.Player
		if err := tx.First(&p, playerID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errors.New("player not found")
			}
			return err
		}
		if p.IsDead {
			return errors.New("you are dead")
		}
		if world.DistSq(p.PosX, p.PosY, target.X, target.Y) > world.PlayerResourceInteractionDistanceSquared {
			return errors.New("too far away")
		}
		if target.Harvested {
			return errors.New("resource is not ready yet")
		}

		def, err := item.DefinitionByName(tx, primary.ItemName)
		if err != nil {
			return err
		}
		if err := item.AddItemTx(tx, playerID, def.ID, primary.Quantity); err != nil {
			return err
		}

		if secondary != nil && rand.Float64() < secondary.Chance {
			amount := secondary.Min
			if secondary.Max > secondary.Min {
				amount += rand.Intn(secondary.Max - secondary.Min + 1)
			}
			if amount > 0 {
				// Savepoint so a failed bonus add rolls back its own
				// partial stack top-ups instead of leaking them.
				err := tx.Transaction(func(stx *gorm.DB) error {
					sdef, err := item.DefinitionByName(stx, secondary.ItemName)
					if err != nil {
						return err
					}
					return item.AddItemTx(stx, playerID, sdef.ID, amount)
				})
				if err != nil {
					e.logger.Warn("secondary yield skipped",
						zap.String("item", secondary.ItemName), zap.Error(err))
				}
			}
		}

		delaySecs := minRespawnSecs
		if maxRespawnSecs > minRespawnSecs {
			delaySecs += rand.Intn(maxRespawnSecs - minRespawnSecs + 1)
		}
		respawnAt := now.Add(time.Duration(delaySecs) * time.Second)
		return target.OnHarvest(tx, respawnAt)
	})
}

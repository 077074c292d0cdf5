package world

import (
	"context"
	"math"
	"time"

	"github.com/embervale/server/model"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CloudService drifts the decorative cloud layer.
type CloudService struct {
	db     *gorm.DB
	logger *zap.Logger
	last   time.Time
}

// NewCloudService creates a new CloudService.
func NewCloudService(db *gorm.DB, logger *zap.Logger) *CloudService {
	return &CloudService{db: db, logger: logger}
}

// wrapCoord wraps v into [-buffer, limit+buffer), normalizing the
// negative-remainder case so a cloud leaving one edge reenters the
// opposite one at a valid coordinate.
func wrapCoord(v, limit, buffer float64) float64 {
	if v < -buffer {
		m := math.Mod(v, limit)
		if m < 0 {
			m += limit
		}
		return m
	}
	if v > limit+buffer {
		return math.Mod(v, limit)
	}
	return v
}

// Tick moves every cloud by its drift velocity. The delta is doubled
// to make drift read as faster than real time.
func (svc *CloudService) Tick(ctx context.Context, now time.Time) error {
	if svc.last.IsZero() {
		svc.last = now
		return nil
	}
	dt := now.Sub(svc.last).Seconds() * CloudSpeedMultiplier
	svc.last = now

	return svc.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var clouds []model.Cloud
		if err := tx.Find(&clouds).Error; err != nil {
			return err
		}
		for i := range clouds {
			c := &clouds[i]
			c.PosX = wrapCoord(c.PosX+c.DriftX*dt, WorldWidthPx, CloudWrapBuffer)
			c.PosY = wrapCoord(c.PosY+c.DriftY*dt, WorldHeightPx, CloudWrapBuffer)
			c.ChunkIndex = ChunkIndex(c.PosX, c.PosY)
			if err := tx.Save(c).Error; err != nil {
				svc.logger.Warn("cloud update failed", zap.Int64("cloud_id", c.ID), zap.Error(err))
			}
		}
		return nil
	})
}

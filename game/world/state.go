package world

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/embervale/server/model"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const worldStateID = 1

// StateService owns the singleton WorldState row and its tick.
type StateService struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewStateService creates a new StateService.
func NewStateService(db *gorm.DB, logger *zap.Logger) *StateService {
	return &StateService{db: db, logger: logger}
}

// TimeOfDayFor maps cycle progress to its time-of-day band.
func TimeOfDayFor(progress float64) string {
	switch {
	case progress < 0.04:
		return model.TimeDawn
	case progress < 0.08:
		return model.TimeTwilightMorning
	case progress < 0.30:
		return model.TimeMorning
	case progress < 0.45:
		return model.TimeNoon
	case progress < 0.67:
		return model.TimeAfternoon
	case progress < 0.71:
		return model.TimeDusk
	case progress < 0.75:
		return model.TimeTwilightEvening
	case progress < 0.90:
		return model.TimeNight
	default:
		return model.TimeMidnight
	}
}

// LightIntensity returns ambient light in [0,1] for a cycle progress.
func LightIntensity(progress float64) float64 {
	v := (math.Cos(2*math.Pi*progress-math.Pi) + 1) / 2
	return math.Max(0, math.Min(1, v))
}

// WarmthDrainMultiplier scales the base warmth drain (0.5/s) by time
// of day.
func WarmthDrainMultiplier(timeOfDay string) float64 {
	switch timeOfDay {
	case model.TimeMidnight:
		return 3.0
	case model.TimeNight:
		return 2.0
	case model.TimeDawn, model.TimeDusk, model.TimeTwilightMorning, model.TimeTwilightEvening:
		return 1.5
	default:
		return 1.0
	}
}

// Seed inserts the singleton WorldState row if it does not exist.
// Re-invoking on a seeded world is a no-op.
func (svc *StateService) Seed(ctx context.Context, now time.Time) error {
	return svc.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing model.WorldState
		err := tx.First(&existing, worldStateID).Error
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		ws := &model.WorldState{
			ID:            worldStateID,
			CycleProgress: 0,
			TimeOfDay:     TimeOfDayFor(0),
			LastTick:      now,
		}
		return tx.Create(ws).Error
	})
}

// Tick advances the day/night cycle from the persisted last_tick to
// now. Elapsed time is measured against last_tick, not an assumed
// cadence, so skipped or coalesced ticks converge to the same state.
func (svc *StateService) Tick(ctx context.Context, now time.Time) error {
	return svc.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ws model.WorldState
		if err := tx.First(&ws, worldStateID).Error; err != nil {
			return err
		}

		elapsed := now.Sub(ws.LastTick).Seconds()
		if elapsed < 0 {
			elapsed = 0
		}
		potential := ws.CycleProgress + elapsed/FullCycleSeconds
		progress := math.Mod(potential, 1)
		if potential >= 1 {
			// Count every cycle the gap covered, keeping the
			// full-moon phase aligned with wall time after pauses.
			ws.CycleCount += int64(potential)
			ws.IsFullMoon = ws.CycleCount%FullMoonCycleInterval == 0
		}

		ws.CycleProgress = progress
		ws.TimeOfDay = TimeOfDayFor(progress)
		ws.LastTick = now
		return tx.Save(&ws).Error
	})
}

// Current returns the singleton row.
func (svc *StateService) Current(ctx context.Context) (*model.WorldState, error) {
	var ws model.WorldState
	if err := svc.db.WithContext(ctx).First(&ws, worldStateID).Error; err != nil {
		return nil, err
	}
	return &ws, nil
}

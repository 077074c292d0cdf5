package world

import (
	"context"
	"testing"
	"time"

	"github.com/embervale/server/model"
	"github.com/embervale/server/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapCoord(t *testing.T) {
	// Inside the buffered band nothing changes.
	assert.Equal(t, 500.0, wrapCoord(500, WorldWidthPx, CloudWrapBuffer))
	assert.Equal(t, -100.0, wrapCoord(-100, WorldWidthPx, CloudWrapBuffer))

	// Past the left buffer the cloud reenters from the right.
	got := wrapCoord(-CloudWrapBuffer-50, WorldWidthPx, CloudWrapBuffer)
	assert.Equal(t, WorldWidthPx-CloudWrapBuffer-50, got)

	// Past the right buffer it wraps around zero.
	got = wrapCoord(WorldWidthPx+CloudWrapBuffer+50, WorldWidthPx, CloudWrapBuffer)
	assert.Equal(t, CloudWrapBuffer+50, got)
}

func TestCloudService_FirstTickOnlyPrimes(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := NewCloudService(db, testutil.Logger())
	ctx := context.Background()

	require.NoError(t, db.Create(&model.Cloud{PosX: 1000, PosY: 1000, DriftX: 10, DriftY: 5}).Error)
	require.NoError(t, svc.Tick(ctx, time.Now()))

	var c model.Cloud
	require.NoError(t, db.First(&c).Error)
	assert.Equal(t, 1000.0, c.PosX)
	assert.Equal(t, 1000.0, c.PosY)
}

func TestCloudService_TickDriftsDoubled(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := NewCloudService(db, testutil.Logger())
	ctx := context.Background()
	start := time.Now()

	require.NoError(t, db.Create(&model.Cloud{PosX: 1000, PosY: 1000, DriftX: 10, DriftY: -5}).Error)
	require.NoError(t, svc.Tick(ctx, start))
	require.NoError(t, svc.Tick(ctx, start.Add(2*time.Second)))

	var c model.Cloud
	require.NoError(t, db.First(&c).Error)
	// 2s of wall time at CloudSpeedMultiplier means 4s of drift.
	assert.InDelta(t, 1000+10*4, c.PosX, 0.001)
	assert.InDelta(t, 1000-5*4, c.PosY, 0.001)
	assert.Equal(t, ChunkIndex(c.PosX, c.PosY), c.ChunkIndex)
}

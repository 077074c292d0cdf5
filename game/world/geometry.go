package world

import (
	"math"

	"github.com/embervale/server/model"
)

// DistSq returns the squared distance between two points.
func DistSq(x1, y1, x2, y2 float64) float64 {
	dx := x2 - x1
	dy := y2 - y1
	return dx*dx + dy*dy
}

// ChunkIndex maps a world position to its chunk index
// (chunk_y * WorldWidthChunks + chunk_x), clamped into the world.
func ChunkIndex(x, y float64) int {
	cx := int(math.Floor(x / ChunkSizePx))
	cy := int(math.Floor(y / ChunkSizePx))
	if cx < 0 {
		cx = 0
	}
	if cx >= WorldWidthChunks {
		cx = WorldWidthChunks - 1
	}
	if cy < 0 {
		cy = 0
	}
	if cy >= WorldHeightChunks {
		cy = WorldHeightChunks - 1
	}
	return cy*WorldWidthChunks + cx
}

// ClampToWorld keeps a point at least PlayerRadius away from the
// world edge.
func ClampToWorld(x, y float64) (float64, float64) {
	x = math.Max(PlayerRadius, math.Min(WorldWidthPx-PlayerRadius, x))
	y = math.Max(PlayerRadius, math.Min(WorldHeightPx-PlayerRadius, y))
	return x, y
}

// CalculateDropPosition offsets the player's position by DropOffset in
// the facing direction, clamped into the world.
func CalculateDropPosition(p *model.Player) (float64, float64) {
	x, y := p.PosX, p.PosY
	switch p.Direction {
	case model.DirUp:
		y -= DropOffset
	case model.DirDown:
		y += DropOffset
	case model.DirLeft:
		x -= DropOffset
	default:
		x += DropOffset
	}
	return ClampToWorld(x, y)
}

// respawnOffsets is the 8-direction displacement pattern tried when a
// resource's original spot is blocked, in attempt order.
var respawnOffsets = [8][2]float64{
	{1, 0}, {-1, 0}, {0, 1}, {0, -1},
	{1, 1}, {-1, 1}, {1, -1}, {-1, -1},
}

// RespawnOffsetPosition returns the attempt-th candidate position
// around (x, y), stepping RespawnOffsetDistance per direction.
func RespawnOffsetPosition(x, y float64, attempt int) (float64, float64) {
	off := respawnOffsets[attempt%len(respawnOffsets)]
	return ClampToWorld(x+off[0]*RespawnOffsetDistance, y+off[1]*RespawnOffsetDistance)
}

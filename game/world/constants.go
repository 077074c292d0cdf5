package world

// World geometry constants. These are wire-visible: clients derive
// chunk indexes and interaction ranges from the same values.
const (
	TileSizePx     = 48.0
	ChunkSizeTiles = 8
	ChunkSizePx    = TileSizePx * ChunkSizeTiles

	WorldWidthTiles  = 500
	WorldHeightTiles = 500
	WorldWidthPx     = TileSizePx * WorldWidthTiles
	WorldHeightPx    = TileSizePx * WorldHeightTiles

	// The chunk grid truncates the partial last row and column; the
	// clamping in ChunkIndex folds the overhang into the edge chunks.
	WorldWidthChunks  = WorldWidthTiles / ChunkSizeTiles
	WorldHeightChunks = WorldHeightTiles / ChunkSizeTiles
)

// Player body and interaction ranges.
const (
	PlayerRadius = 32.0

	PickupRadius          = 64.0
	PickupRadiusSquared   = PickupRadius * PickupRadius
	PlayerResourceInteractionDistance        = 96.0
	PlayerResourceInteractionDistanceSquared = PlayerResourceInteractionDistance * PlayerResourceInteractionDistance
)

// Stat bounds and consumption.
const (
	MaxStatValue              = 100.0
	ConsumptionCooldownMicros = 1_000_000
)

// Dropping and despawning.
const (
	DropOffset                 = 40.0
	DefaultDespawnSeconds      = 300
	KillCommandCooldownSeconds = 300
)

// Respawn sweep tuning.
const (
	RespawnCheckRadius        = 96.0
	RespawnCheckRadiusSquared = RespawnCheckRadius * RespawnCheckRadius
	MaxRespawnOffsetAttempts  = 8
	RespawnOffsetDistance     = 128.0
)

// Day/night cycle.
const (
	DayDurationSeconds    = 2700
	NightDurationSeconds  = 900
	FullCycleSeconds      = DayDurationSeconds + NightDurationSeconds
	FullMoonCycleInterval = 3
)

// Collision Y-offsets published for client parity. The respawn
// clearance check is center-to-center and does not consume these.
const (
	TreeCollisionYOffset        = 60.0
	PlayerStoneCollisionYOffset = 20.0
)

// Cloud drift.
const (
	CloudWrapBuffer      = 200.0
	CloudSpeedMultiplier = 2.0
)

// Spatial grid cell side. Two colliding bodies always land within a
// 3x3 cell neighborhood at this size.
const GridCellSize = 4 * PlayerRadius

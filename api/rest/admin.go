package rest

import (
	"net/http"
	"strconv"
	"time"

	"github.com/embervale/server/audit"
	"github.com/embervale/server/game/effect"
	"github.com/embervale/server/game/item"
	"github.com/embervale/server/game/player"
	"github.com/embervale/server/game/world"
	mw "github.com/embervale/server/middleware"
	"github.com/embervale/server/model"
	"github.com/embervale/server/scheduler"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// AdminHandler handles admin-only REST endpoints.
// Routes should be protected by AdminAuth middleware.
type AdminHandler struct {
	db         *gorm.DB
	sm         *player.SessionManager
	sched      *scheduler.Scheduler
	worldState *world.StateService
	clouds     *world.CloudService
	respawn    *world.RespawnService
	effects    *effect.Service
	dropped    *item.DroppedItemService
	audit      *audit.Service
	logger     *zap.Logger
}

// NewAdminHandler creates an AdminHandler.
func NewAdminHandler(
	db *gorm.DB,
	sm *player.SessionManager,
	sched *scheduler.Scheduler,
	worldState *world.StateService,
	clouds *world.CloudService,
	respawn *world.RespawnService,
	effects *effect.Service,
	dropped *item.DroppedItemService,
	auditSvc *audit.Service,
	logger *zap.Logger,
) *AdminHandler {
	return &AdminHandler{
		db:         db,
		sm:         sm,
		sched:      sched,
		worldState: worldState,
		clouds:     clouds,
		respawn:    respawn,
		effects:    effects,
		dropped:    dropped,
		audit:      auditSvc,
		logger:     logger,
	}
}

// Metrics returns server health metrics.
// GET /api/admin/metrics
func (h *AdminHandler) Metrics(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"online_players":  h.sm.Count(),
		"scheduler_tasks": h.sched.ListTickers(),
	})
}

// ListPlayers returns all player rows with their online/alive flags.
// GET /api/admin/players
func (h *AdminHandler) ListPlayers(c *gin.Context) {
	var players []model.Player
	if err := h.db.WithContext(c.Request.Context()).
		Order("id").Find(&players).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"players": players, "count": len(players)})
}

// WorldState returns the current world clock row.
// GET /api/admin/world
func (h *AdminHandler) WorldState(c *gin.Context) {
	ws, err := h.worldState.Current(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
		return
	}
	c.JSON(http.StatusOK, ws)
}

// KickPlayer forcibly disconnects a player by ID.
// POST /api/admin/kick/:id
func (h *AdminHandler) KickPlayer(c *gin.Context) {
	playerID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	s := h.sm.Get(playerID)
	if s == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "player not online"})
		return
	}
	s.Close()
	h.logger.Info("admin kicked player", zap.Int64("player_id", playerID))
	h.audit.Log(audit.Entry{
		TraceID:  mw.GetTraceID(c),
		PlayerID: &playerID,
		Action:   "admin_kick",
		IP:       c.ClientIP(),
	})
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// BanAccount bans or unbans a player account.
// POST /api/admin/accounts/:id/ban
func (h *AdminHandler) BanAccount(c *gin.Context) {
	accountID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	var req struct {
		Ban bool `json:"ban"`
	}
	_ = c.ShouldBindJSON(&req)

	status := 1
	if req.Ban {
		status = 0
	}
	result := h.db.Model(&model.Account{}).Where("id = ?", accountID).Update("status", status)
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "account not found"})
		return
	}

	// Kick the player if currently online.
	if req.Ban {
		for _, s := range h.sm.All() {
			if s.AccountID == accountID {
				s.Close()
			}
		}
	}
	h.audit.Log(audit.Entry{
		TraceID:   mw.GetTraceID(c),
		AccountID: &accountID,
		Action:    "admin_ban",
		Request:   map[string]bool{"ban": req.Ban},
		IP:        c.ClientIP(),
	})
	c.JSON(http.StatusOK, gin.H{"ok": true, "status": status})
}

// ListSchedulerTasks returns names of all registered ticker tasks.
// GET /api/admin/scheduler
func (h *AdminHandler) ListSchedulerTasks(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"tasks": h.sched.ListTickers()})
}

// TriggerTick fires one of the scheduled sweeps immediately.
// POST /api/admin/tick/:name
func (h *AdminHandler) TriggerTick(c *gin.Context) {
	now := time.Now()
	ctx := c.Request.Context()
	var err error
	name := c.Param("name")
	switch name {
	case "world":
		err = h.worldState.Tick(ctx, now)
	case "clouds":
		err = h.clouds.Tick(ctx, now)
	case "respawn":
		err = h.respawn.Sweep(ctx, now)
	case "effects":
		err = h.effects.Tick(ctx, now)
	case "despawn":
		err = h.dropped.DespawnSweep(ctx, now)
	default:
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown tick"})
		return
	}
	entry := audit.Entry{
		TraceID:    mw.GetTraceID(c),
		Action:     "admin_tick_" + name,
		IP:         c.ClientIP(),
		DurationMs: int(time.Since(now).Milliseconds()),
	}
	if err != nil {
		entry.Error = err.Error()
		h.audit.Log(entry)
		h.logger.Error("manual tick failed", zap.String("tick", name), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	h.audit.Log(entry)
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// AdminAuth returns a middleware that checks the X-Admin-Key header.
// WARNING: if adminKey is empty all admin endpoints are disabled (503) so the
// server cannot be accidentally deployed without protection. Set a non-empty
// server.admin_key in config to enable admin routes.
func AdminAuth(adminKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if adminKey == "" {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable,
				gin.H{"error": "admin endpoints disabled: set server.admin_key in config"})
			return
		}
		key := c.GetHeader("X-Admin-Key")
		if key != adminKey {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Next()
	}
}

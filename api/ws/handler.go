package ws

import (
	"context"
	"net/http"
	"time"

	"github.com/embervale/server/cache"
	"github.com/embervale/server/config"
	"github.com/embervale/server/game/chat"
	"github.com/embervale/server/game/player"
	mw "github.com/embervale/server/middleware"
	"github.com/embervale/server/model"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Handler is the Gin handler for GET /ws.
type Handler struct {
	db        *gorm.DB
	cache     cache.Cache
	sec       config.SecurityConfig
	sm        *player.SessionManager
	playerSvc *player.Service
	chat      *chat.Handler
	router    *Router
	logger    *zap.Logger
	upgrader  websocket.Upgrader
}

// NewHandler creates a new WebSocket Handler.
// sec.AllowedOrigins controls which WebSocket origins are accepted.
// An empty slice permits all origins (development only).
func NewHandler(
	db *gorm.DB,
	c cache.Cache,
	sec config.SecurityConfig,
	sm *player.SessionManager,
	playerSvc *player.Service,
	chatHandler *chat.Handler,
	router *Router,
	logger *zap.Logger,
) *Handler {
	h := &Handler{
		db:        db,
		cache:     c,
		sec:       sec,
		sm:        sm,
		playerSvc: playerSvc,
		chat:      chatHandler,
		router:    router,
		logger:    logger,
	}
	allowed := sec.AllowedOrigins
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowed) == 0 {
				return true // dev mode: allow all
			}
			origin := r.Header.Get("Origin")
			for _, o := range allowed {
				if o == origin {
					return true
				}
			}
			return false
		},
	}
	return h
}

// ServeWS handles GET /ws?token=<jwt>.
func (h *Handler) ServeWS(c *gin.Context) {
	tokenStr := c.Query("token")
	if tokenStr == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
		return
	}

	claims, err := mw.ParseToken(tokenStr, h.sec.JWTSecret)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	exists, err := h.cache.Exists(ctx, "session:"+tokenStr)
	if err != nil || !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "session expired"})
		return
	}

	var acct model.Account
	if err := h.db.Where("id = ?", claims.AccountID).First(&acct).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unknown account"})
		return
	}

	// Resolve (and on first connect, create) the player for this account.
	// Creation grants the starting loadout.
	p, err := h.playerSvc.EnsurePlayer(ctx, acct.ID, acct.Username)
	if err != nil {
		h.logger.Error("player bootstrap failed",
			zap.Int64("account_id", acct.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("ws upgrade failed", zap.Error(err))
		return
	}

	sess := player.NewSession(acct.ID, p.ID, p.Username, conn, h.logger)
	h.sm.Register(sess)

	onlineCtx, onlineCancel := context.WithTimeout(context.Background(), 2*time.Second)
	if err := h.playerSvc.SetOnline(onlineCtx, p.ID, true); err != nil {
		h.logger.Warn("online flag update failed",
			zap.Int64("player_id", p.ID), zap.Error(err))
	}
	onlineCancel()

	h.logger.Info("player connected",
		zap.Int64("player_id", p.ID),
		zap.String("username", p.Username))

	// Replay recent public chat to the fresh session.
	h.chat.SendHistory(context.Background(), sess)

	h.readPump(sess)
}

// readPump reads messages from the WebSocket connection and dispatches them.
func (h *Handler) readPump(s *player.Session) {
	defer func() {
		h.handleDisconnect(s)
	}()

	s.SetReadDeadline()
	s.Conn.SetPongHandler(func(string) error {
		s.SetReadDeadline()
		return nil
	})

	for {
		_, raw, err := s.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseNormalClosure,
				websocket.CloseNoStatusReceived) {
				h.logger.Warn("ws unexpected close",
					zap.Int64("player_id", s.PlayerID),
					zap.Error(err))
			}
			return
		}
		// Reset read deadline on any message (heartbeat or otherwise).
		s.SetReadDeadline()
		h.router.Dispatch(s, raw)
	}
}

// handleDisconnect cleans up the session after the connection closes.
func (h *Handler) handleDisconnect(s *player.Session) {
	s.Close()
	h.sm.Unregister(s.PlayerID)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := h.playerSvc.SetOnline(ctx, s.PlayerID, false); err != nil {
		h.logger.Warn("offline flag update failed",
			zap.Int64("player_id", s.PlayerID), zap.Error(err))
	}

	h.logger.Info("player disconnected",
		zap.Int64("player_id", s.PlayerID),
		zap.String("username", s.Username))
}

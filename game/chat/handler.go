package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/embervale/server/cache"
	"github.com/embervale/server/config"
	"github.com/embervale/server/game/player"
	"github.com/embervale/server/game/world"
	"github.com/embervale/server/model"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	maxMsgLen   = 100
	historyKey  = "chat:public"
	chatChannel = "chat:events"
)

// Handler processes chat messages and slash commands.
type Handler struct {
	db        *gorm.DB
	cache     cache.Cache
	ps        cache.PubSub
	sm        *player.SessionManager
	playerSvc *player.Service
	logger    *zap.Logger

	historyDepth int64
	killCooldown int // seconds
}

// NewHandler creates a new chat Handler. Zero config values fall back
// to the built-in defaults.
func NewHandler(db *gorm.DB, c cache.Cache, ps cache.PubSub, sm *player.SessionManager, playerSvc *player.Service, game config.GameConfig, logger *zap.Logger) *Handler {
	h := &Handler{
		db: db, cache: c, ps: ps, sm: sm, playerSvc: playerSvc, logger: logger,
		historyDepth: int64(game.ChatHistory),
		killCooldown: game.KillCommandCooldownS,
	}
	if h.historyDepth <= 0 {
		h.historyDepth = 100
	}
	if h.killCooldown <= 0 {
		h.killCooldown = world.KillCommandCooldownSeconds
	}
	return h
}

// StartFanout subscribes to the chat channel and forwards every
// published packet to the sessions on this node. With a Redis-backed
// pub/sub this is what carries chat across nodes. The returned stop
// function unsubscribes.
func (h *Handler) StartFanout(ctx context.Context) (func(), error) {
	msgs, cancel, err := h.ps.Subscribe(ctx, chatChannel)
	if err != nil {
		return nil, err
	}
	go func() {
		for m := range msgs {
			h.sm.BroadcastAll([]byte(m.Payload))
		}
	}()
	return cancel, nil
}

// SendMessage validates and routes one chat submission. Leading slash
// dispatches a command; anything else is a public message.
func (h *Handler) SendMessage(ctx context.Context, s *player.Session, text string, now time.Time) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return errors.New("message cannot be empty")
	}
	if len([]rune(text)) > maxMsgLen {
		return errors.New("message too long")
	}

	if strings.HasPrefix(text, "/") {
		fields := strings.Fields(text)
		switch strings.ToLower(fields[0]) {
		case "/kill", "/respawn":
			return h.handleKill(ctx, s, now)
		case "/players":
			return h.handlePlayers(ctx, s)
		default:
			return fmt.Errorf("Unknown command: %s", fields[0])
		}
	}
	return h.publishPublic(ctx, s, text)
}

// handleKill kills the sender, on a per-player cooldown. A sender on
// cooldown gets a private reply instead of an error.
func (h *Handler) handleKill(ctx context.Context, s *player.Session, now time.Time) error {
	return h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cd model.PlayerKillCommandCooldown
		err := tx.First(&cd, "player_id = ?", s.PlayerID).Error
		if err == nil {
			remaining := h.killCooldown - int(now.Sub(cd.LastUsedAt).Seconds())
			if remaining > 0 {
				h.sendPrivate(tx, s, fmt.Sprintf("Command on cooldown, try again in %ds", remaining))
				return nil
			}
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		var p model.Player
		if err := tx.First(&p, s.PlayerID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errors.New("player not found")
			}
			return err
		}
		if err := player.KillTx(tx, &p, now, h.logger); err != nil {
			return err
		}

		cd = model.PlayerKillCommandCooldown{PlayerID: s.PlayerID, LastUsedAt: now}
		if err := tx.Save(&cd).Error; err != nil {
			return err
		}
		h.sendPrivate(tx, s, "You died. Use /respawn or the respawn button to return.")
		return nil
	})
}

// handlePlayers broadcasts the live-player count as a system message.
func (h *Handler) handlePlayers(ctx context.Context, s *player.Session) error {
	var count int64
	if err := h.db.WithContext(ctx).Model(&model.Player{}).
		Where("is_online = ? AND is_dead = ?", true, false).
		Count(&count).Error; err != nil {
		return err
	}
	text := fmt.Sprintf("%d player(s) online", count)
	return h.publishSystem(ctx, text)
}

// publishPublic persists a public message, broadcasts it, and appends
// it to the replayable history.
func (h *Handler) publishPublic(ctx context.Context, s *player.Session, text string) error {
	senderID := s.PlayerID
	msg := &model.Message{SenderID: &senderID, Sender: s.Username, Text: text}
	if err := h.db.WithContext(ctx).Create(msg).Error; err != nil {
		return err
	}
	h.broadcast(ctx, msg)
	return nil
}

func (h *Handler) publishSystem(ctx context.Context, text string) error {
	msg := &model.Message{Sender: "System", Text: text}
	if err := h.db.WithContext(ctx).Create(msg).Error; err != nil {
		return err
	}
	h.broadcast(ctx, msg)
	return nil
}

func (h *Handler) broadcast(ctx context.Context, msg *model.Message) {
	msgJSON, _ := json.Marshal(msg)
	pkt, _ := json.Marshal(&player.Packet{Type: "chat_recv", Payload: msgJSON})
	// Delivery rides the pub/sub channel so every node's fan-out loop
	// picks it up. Fall back to a direct local broadcast if publishing
	// fails.
	if err := h.ps.Publish(ctx, chatChannel, string(pkt)); err != nil {
		h.logger.Warn("chat publish failed", zap.Error(err))
		h.sm.BroadcastAll(pkt)
	}
	if err := h.cache.LPush(ctx, historyKey, string(pkt)); err == nil {
		_ = h.cache.LTrim(ctx, historyKey, 0, h.historyDepth-1)
	}
}

// sendPrivate records and delivers a reply visible only to the sender.
func (h *Handler) sendPrivate(tx *gorm.DB, s *player.Session, text string) {
	pm := &model.PrivateMessage{RecipientID: s.PlayerID, Sender: "System", Text: text}
	if err := tx.Create(pm).Error; err != nil {
		h.logger.Warn("private message insert failed",
			zap.Int64("player_id", s.PlayerID), zap.Error(err))
	}
	msgJSON, _ := json.Marshal(pm)
	s.Send(&player.Packet{Type: "private_message", Payload: msgJSON})
}

// SendHistory replays the cached public messages to a newly connected
// session.
func (h *Handler) SendHistory(ctx context.Context, s *player.Session) {
	msgs, err := h.cache.LRange(ctx, historyKey, 0, h.historyDepth-1)
	if err != nil {
		return
	}
	for i := len(msgs) - 1; i >= 0; i-- {
		s.SendRaw([]byte(msgs[i]))
	}
}

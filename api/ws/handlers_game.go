package ws

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/embervale/server/game/chat"
	"github.com/embervale/server/game/collect"
	"github.com/embervale/server/game/item"
	"github.com/embervale/server/game/player"
	"github.com/embervale/server/model"
	"go.uber.org/zap"
)

// GameHandlers bundles the dependencies needed by in-game WS message handlers.
type GameHandlers struct {
	inv       *item.InventoryService
	equip     *item.EquipService
	consume   *item.ConsumeService
	dropped   *item.DroppedItemService
	collect   *collect.Service
	chat      *chat.Handler
	playerSvc *player.Service
	logger    *zap.Logger
}

// NewGameHandlers creates a new GameHandlers.
func NewGameHandlers(
	inv *item.InventoryService,
	equip *item.EquipService,
	consume *item.ConsumeService,
	dropped *item.DroppedItemService,
	collectSvc *collect.Service,
	chatHandler *chat.Handler,
	playerSvc *player.Service,
	logger *zap.Logger,
) *GameHandlers {
	return &GameHandlers{
		inv:       inv,
		equip:     equip,
		consume:   consume,
		dropped:   dropped,
		collect:   collectSvc,
		chat:      chatHandler,
		playerSvc: playerSvc,
		logger:    logger,
	}
}

// RegisterHandlers registers all in-game handlers on the given Router.
func (gh *GameHandlers) RegisterHandlers(r *Router) {
	r.On("ping", gh.HandlePing)
	r.On("send_message", gh.HandleSendMessage)
	r.On("consume_item", gh.HandleConsumeItem)
	r.On("pickup_dropped_item", gh.HandlePickupDroppedItem)
	r.On("drop_item", gh.HandleDropItem)
	r.On("move_item", gh.HandleMoveItem)
	r.On("split_stack", gh.HandleSplitStack)
	r.On("equip_item", gh.HandleEquipItem)
	r.On("unequip_item", gh.HandleUnequipItem)
	r.On("interact_with_tree", gh.interact(gh.collect.InteractWithTree))
	r.On("interact_with_stone", gh.interact(gh.collect.InteractWithStone))
	r.On("interact_with_mushroom", gh.interact(gh.collect.InteractWithMushroom))
	r.On("interact_with_hemp", gh.interact(gh.collect.InteractWithHemp))
	r.On("interact_with_pumpkin", gh.interact(gh.collect.InteractWithPumpkin))
	r.On("interact_with_corn", gh.interact(gh.collect.InteractWithCorn))
	r.On("set_player_pin", gh.HandleSetPlayerPin)
	r.On("respawn", gh.HandleRespawn)
}

// ------------------------------------------------------------------ ping

type pingPayload struct {
	TS int64 `json:"ts"`
}

// HandlePing responds to client heartbeat pings.
func (gh *GameHandlers) HandlePing(_ context.Context, s *player.Session, raw json.RawMessage) error {
	var p pingPayload
	_ = json.Unmarshal(raw, &p)
	payload, _ := json.Marshal(map[string]int64{"ts": p.TS, "server_ts": time.Now().UnixMilli()})
	s.Send(&player.Packet{Type: "pong", Payload: payload})
	return nil
}

// ------------------------------------------------------------------ chat

type sendMessageReq struct {
	Text string `json:"text"`
}

func (gh *GameHandlers) HandleSendMessage(ctx context.Context, s *player.Session, raw json.RawMessage) error {
	var req sendMessageReq
	if err := json.Unmarshal(raw, &req); err != nil {
		return err
	}
	return gh.chat.SendMessage(ctx, s, req.Text, time.Now())
}

// ------------------------------------------------------------------ items

type instanceReq struct {
	InstanceID int64 `json:"instance_id"`
}

func (gh *GameHandlers) HandleConsumeItem(ctx context.Context, s *player.Session, raw json.RawMessage) error {
	var req instanceReq
	if err := json.Unmarshal(raw, &req); err != nil {
		return err
	}
	return gh.consume.Consume(ctx, s.PlayerID, req.InstanceID, time.Now())
}

type idReq struct {
	ID int64 `json:"id"`
}

func (gh *GameHandlers) HandlePickupDroppedItem(ctx context.Context, s *player.Session, raw json.RawMessage) error {
	var req idReq
	if err := json.Unmarshal(raw, &req); err != nil {
		return err
	}
	return gh.dropped.Pickup(ctx, s.PlayerID, req.ID)
}

type dropItemReq struct {
	InstanceID int64 `json:"instance_id"`
	Quantity   int   `json:"quantity"`
}

func (gh *GameHandlers) HandleDropItem(ctx context.Context, s *player.Session, raw json.RawMessage) error {
	var req dropItemReq
	if err := json.Unmarshal(raw, &req); err != nil {
		return err
	}
	return gh.dropped.Drop(ctx, s.PlayerID, req.InstanceID, req.Quantity, time.Now())
}

type moveItemReq struct {
	InstanceID int64              `json:"instance_id"`
	Target     model.ItemLocation `json:"target"`
}

func (gh *GameHandlers) HandleMoveItem(ctx context.Context, s *player.Session, raw json.RawMessage) error {
	var req moveItemReq
	if err := json.Unmarshal(raw, &req); err != nil {
		return err
	}
	// Owner-bound targets always refer to the sender; clients cannot
	// address another player's slots.
	switch req.Target.Type {
	case model.LocInventory, model.LocHotbar, model.LocEquipped:
		req.Target.OwnerID = s.PlayerID
	}
	return gh.inv.MoveItem(ctx, s.PlayerID, req.InstanceID, req.Target)
}

type splitStackReq struct {
	InstanceID int64 `json:"instance_id"`
	Quantity   int   `json:"quantity"`
}

func (gh *GameHandlers) HandleSplitStack(ctx context.Context, s *player.Session, raw json.RawMessage) error {
	var req splitStackReq
	if err := json.Unmarshal(raw, &req); err != nil {
		return err
	}
	return gh.inv.SplitStack(ctx, s.PlayerID, req.InstanceID, req.Quantity)
}

func (gh *GameHandlers) HandleEquipItem(ctx context.Context, s *player.Session, raw json.RawMessage) error {
	var req instanceReq
	if err := json.Unmarshal(raw, &req); err != nil {
		return err
	}
	return gh.equip.Equip(ctx, s.PlayerID, req.InstanceID)
}

func (gh *GameHandlers) HandleUnequipItem(ctx context.Context, s *player.Session, raw json.RawMessage) error {
	var req instanceReq
	if err := json.Unmarshal(raw, &req); err != nil {
		return err
	}
	return gh.equip.Unequip(ctx, s.PlayerID, req.InstanceID)
}

// ------------------------------------------------------------------ resources

type interactFn func(ctx context.Context, playerID, id int64, now time.Time) error

// interact adapts a resource interaction method to a HandlerFunc.
func (gh *GameHandlers) interact(fn interactFn) HandlerFunc {
	return func(ctx context.Context, s *player.Session, raw json.RawMessage) error {
		var req idReq
		if err := json.Unmarshal(raw, &req); err != nil {
			return err
		}
		if req.ID == 0 {
			return errors.New("missing resource id")
		}
		return fn(ctx, s.PlayerID, req.ID, time.Now())
	}
}

// ------------------------------------------------------------------ misc

type setPinReq struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func (gh *GameHandlers) HandleSetPlayerPin(ctx context.Context, s *player.Session, raw json.RawMessage) error {
	var req setPinReq
	if err := json.Unmarshal(raw, &req); err != nil {
		return err
	}
	return gh.playerSvc.SetPin(ctx, s.PlayerID, req.X, req.Y)
}

func (gh *GameHandlers) HandleRespawn(ctx context.Context, s *player.Session, _ json.RawMessage) error {
	return gh.playerSvc.Respawn(ctx, s.PlayerID, time.Now())
}

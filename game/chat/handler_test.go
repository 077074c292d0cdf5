package chat

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/embervale/server/config"
	"github.com/embervale/server/game/item"
	"github.com/embervale/server/game/player"
	"github.com/embervale/server/game/world"
	"github.com/embervale/server/model"
	"github.com/embervale/server/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type chatFixture struct {
	db  *gorm.DB
	sm  *player.SessionManager
	h   *Handler
	ctx context.Context
}

func setupChat(t *testing.T) *chatFixture {
	t.Helper()
	db := testutil.SetupTestDB(t)
	require.NoError(t, item.SeedItemDefinitions(context.Background(), db, testutil.Logger()))
	c, ps := testutil.SetupTestCache(t)
	sm := player.NewSessionManager(testutil.Logger())
	playerSvc := player.NewService(db, testutil.Logger())
	h := NewHandler(db, c, ps, sm, playerSvc, config.GameConfig{}, testutil.Logger())
	stop, err := h.StartFanout(context.Background())
	require.NoError(t, err)
	t.Cleanup(stop)
	return &chatFixture{
		db:  db,
		sm:  sm,
		h:   h,
		ctx: context.Background(),
	}
}

// fakeSession builds a registered session backed by a plain channel,
// no WebSocket involved.
func (f *chatFixture) fakeSession(t *testing.T, accountID int64, username string, online bool) *player.Session {
	t.Helper()
	playerSvc := player.NewService(f.db, testutil.Logger())
	p, err := playerSvc.EnsurePlayer(f.ctx, accountID, username)
	require.NoError(t, err)
	if online {
		require.NoError(t, playerSvc.SetOnline(f.ctx, p.ID, true))
	}
	s := &player.Session{
		AccountID: accountID,
		PlayerID:  p.ID,
		Username:  username,
		SendChan:  make(chan []byte, 64),
		Done:      make(chan struct{}),
	}
	f.sm.Register(s)
	return s
}

func recvPacket(t *testing.T, s *player.Session) *player.Packet {
	t.Helper()
	select {
	case data := <-s.SendChan:
		var pkt player.Packet
		require.NoError(t, json.Unmarshal(data, &pkt))
		return &pkt
	case <-time.After(time.Second):
		t.Fatal("no packet received")
		return nil
	}
}

func TestNewHandler_GameConfigTuning(t *testing.T) {
	db := testutil.SetupTestDB(t)
	c, ps := testutil.SetupTestCache(t)
	sm := player.NewSessionManager(testutil.Logger())
	playerSvc := player.NewService(db, testutil.Logger())

	h := NewHandler(db, c, ps, sm, playerSvc,
		config.GameConfig{ChatHistory: 5, KillCommandCooldownS: 60}, testutil.Logger())
	assert.Equal(t, int64(5), h.historyDepth)
	assert.Equal(t, 60, h.killCooldown)

	// Zero config falls back to the defaults.
	h = NewHandler(db, c, ps, sm, playerSvc, config.GameConfig{}, testutil.Logger())
	assert.Equal(t, int64(100), h.historyDepth)
	assert.Equal(t, world.KillCommandCooldownSeconds, h.killCooldown)
}

func TestSendMessage_RejectsEmpty(t *testing.T) {
	f := setupChat(t)
	s := f.fakeSession(t, 1, "alice", true)

	require.Error(t, f.h.SendMessage(f.ctx, s, "", time.Now()))
	require.Error(t, f.h.SendMessage(f.ctx, s, "   ", time.Now()))
}

func TestSendMessage_RejectsTooLong(t *testing.T) {
	f := setupChat(t)
	s := f.fakeSession(t, 1, "alice", true)

	long := strings.Repeat("a", maxMsgLen+1)
	err := f.h.SendMessage(f.ctx, s, long, time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "too long")

	// Exactly the limit is fine.
	require.NoError(t, f.h.SendMessage(f.ctx, s, strings.Repeat("a", maxMsgLen), time.Now()))
}

func TestSendMessage_BroadcastsToEveryone(t *testing.T) {
	f := setupChat(t)
	alice := f.fakeSession(t, 1, "alice", true)
	bob := f.fakeSession(t, 2, "bob", true)

	require.NoError(t, f.h.SendMessage(f.ctx, alice, "hello world", time.Now()))

	for _, s := range []*player.Session{alice, bob} {
		pkt := recvPacket(t, s)
		assert.Equal(t, "chat_recv", pkt.Type)
		var msg model.Message
		require.NoError(t, json.Unmarshal(pkt.Payload, &msg))
		assert.Equal(t, "alice", msg.Sender)
		assert.Equal(t, "hello world", msg.Text)
	}

	// The message is persisted.
	var count int64
	f.db.Model(&model.Message{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestSendMessage_UnknownCommand(t *testing.T) {
	f := setupChat(t)
	s := f.fakeSession(t, 1, "alice", true)

	err := f.h.SendMessage(f.ctx, s, "/dance", time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Unknown command: /dance")
}

func TestPlayersCommand_CountsOnlineLiving(t *testing.T) {
	f := setupChat(t)
	alice := f.fakeSession(t, 1, "alice", true)
	f.fakeSession(t, 2, "bob", true)
	f.fakeSession(t, 3, "carol", false) // offline, not counted

	require.NoError(t, f.h.SendMessage(f.ctx, alice, "/players", time.Now()))

	pkt := recvPacket(t, alice)
	assert.Equal(t, "chat_recv", pkt.Type)
	var msg model.Message
	require.NoError(t, json.Unmarshal(pkt.Payload, &msg))
	assert.Equal(t, "System", msg.Sender)
	assert.Equal(t, "2 player(s) online", msg.Text)
}

func TestKillCommand_KillsSender(t *testing.T) {
	f := setupChat(t)
	s := f.fakeSession(t, 1, "alice", true)
	now := time.Now()

	require.NoError(t, f.h.SendMessage(f.ctx, s, "/kill", now))

	var p model.Player
	require.NoError(t, f.db.First(&p, s.PlayerID).Error)
	assert.True(t, p.IsDead)

	var cd model.PlayerKillCommandCooldown
	require.NoError(t, f.db.First(&cd, "player_id = ?", s.PlayerID).Error)

	pkt := recvPacket(t, s)
	assert.Equal(t, "private_message", pkt.Type)
	var pm model.PrivateMessage
	require.NoError(t, json.Unmarshal(pkt.Payload, &pm))
	assert.Contains(t, pm.Text, "You died")
}

func TestKillCommand_Cooldown(t *testing.T) {
	f := setupChat(t)
	s := f.fakeSession(t, 1, "alice", true)
	now := time.Now()

	require.NoError(t, f.h.SendMessage(f.ctx, s, "/kill", now))
	recvPacket(t, s) // death notice

	// A second invocation inside the window replies privately instead
	// of erroring.
	require.NoError(t, f.h.SendMessage(f.ctx, s, "/kill", now.Add(10*time.Second)))

	pkt := recvPacket(t, s)
	assert.Equal(t, "private_message", pkt.Type)
	var pm model.PrivateMessage
	require.NoError(t, json.Unmarshal(pkt.Payload, &pm))
	assert.Contains(t, pm.Text, "Command on cooldown")

	// Only one corpse exists.
	var corpses int64
	f.db.Model(&model.PlayerCorpse{}).Count(&corpses)
	assert.Equal(t, int64(1), corpses)
}

func TestRespawnAliasMatchesKill(t *testing.T) {
	f := setupChat(t)
	s := f.fakeSession(t, 1, "alice", true)

	require.NoError(t, f.h.SendMessage(f.ctx, s, "/respawn", time.Now()))

	var p model.Player
	require.NoError(t, f.db.First(&p, s.PlayerID).Error)
	assert.True(t, p.IsDead)
}

func TestSendHistory_ReplaysInOrder(t *testing.T) {
	f := setupChat(t)
	alice := f.fakeSession(t, 1, "alice", true)

	require.NoError(t, f.h.SendMessage(f.ctx, alice, "first", time.Now()))
	require.NoError(t, f.h.SendMessage(f.ctx, alice, "second", time.Now()))

	// Wait for the live fan-out to finish before the late joiner
	// registers, so it only ever sees the replay.
	recvPacket(t, alice)
	recvPacket(t, alice)

	late := f.fakeSession(t, 2, "bob", true)
	f.h.SendHistory(f.ctx, late)

	var texts []string
	for i := 0; i < 2; i++ {
		pkt := recvPacket(t, late)
		var msg model.Message
		require.NoError(t, json.Unmarshal(pkt.Payload, &msg))
		texts = append(texts, msg.Text)
	}
	assert.Equal(t, []string{"first", "second"}, texts)
}

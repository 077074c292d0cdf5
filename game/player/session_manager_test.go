package player

import (
	"encoding/json"
	"testing"

	"github.com/embervale/server/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeSession(playerID int64, username string) *Session {
	return &Session{
		AccountID: playerID,
		PlayerID:  playerID,
		Username:  username,
		SendChan:  make(chan []byte, 16),
		Done:      make(chan struct{}),
		logger:    testutil.Logger(),
	}
}

func TestSessionManager_RegisterAndGet(t *testing.T) {
	sm := NewSessionManager(testutil.Logger())
	s := fakeSession(1, "alice")
	sm.Register(s)

	assert.Equal(t, s, sm.Get(1))
	assert.Nil(t, sm.Get(2))
	assert.Equal(t, 1, sm.Count())
}

func TestSessionManager_DuplicateLoginDisplaces(t *testing.T) {
	sm := NewSessionManager(testutil.Logger())
	old := fakeSession(1, "alice")
	sm.Register(old)

	replacement := fakeSession(1, "alice")
	sm.Register(replacement)

	assert.True(t, old.IsClosed())
	assert.Equal(t, replacement, sm.Get(1))
	assert.Equal(t, 1, sm.Count())
}

func TestSessionManager_Unregister(t *testing.T) {
	sm := NewSessionManager(testutil.Logger())
	sm.Register(fakeSession(1, "alice"))
	sm.Unregister(1)
	assert.Nil(t, sm.Get(1))
	assert.Equal(t, 0, sm.Count())
}

func TestSessionManager_GetByName(t *testing.T) {
	sm := NewSessionManager(testutil.Logger())
	s := fakeSession(1, "Alice")
	sm.Register(s)

	assert.Equal(t, s, sm.GetByName("alice"))
	assert.Equal(t, s, sm.GetByName("ALICE"))
	assert.Nil(t, sm.GetByName("bob"))
}

func TestSessionManager_BroadcastAll(t *testing.T) {
	sm := NewSessionManager(testutil.Logger())
	a := fakeSession(1, "alice")
	b := fakeSession(2, "bob")
	sm.Register(a)
	sm.Register(b)

	payload, _ := json.Marshal(map[string]string{"hello": "world"})
	sm.BroadcastAll(payload)

	for _, s := range []*Session{a, b} {
		select {
		case got := <-s.SendChan:
			assert.Equal(t, payload, got)
		default:
			t.Fatalf("session %d received nothing", s.PlayerID)
		}
	}
}

func TestSession_SendErrorEnvelope(t *testing.T) {
	s := fakeSession(1, "alice")
	s.SendError("too far away")

	got := <-s.SendChan
	var pkt Packet
	require.NoError(t, json.Unmarshal(got, &pkt))
	assert.Equal(t, "error", pkt.Type)
	var body map[string]string
	require.NoError(t, json.Unmarshal(pkt.Payload, &body))
	assert.Equal(t, "too far away", body["message"])
}

func TestSession_SendAfterCloseDrops(t *testing.T) {
	s := fakeSession(1, "alice")
	s.Close()
	s.SendError("dropped")
	assert.Empty(t, s.SendChan)
	assert.True(t, s.IsClosed())
}

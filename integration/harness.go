package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	apirest "github.com/embervale/server/api/rest"
	apows "github.com/embervale/server/api/ws"
	"github.com/embervale/server/audit"
	"github.com/embervale/server/cache"
	"github.com/embervale/server/config"
	"github.com/embervale/server/game/chat"
	"github.com/embervale/server/game/collect"
	"github.com/embervale/server/game/effect"
	"github.com/embervale/server/game/item"
	"github.com/embervale/server/game/player"
	"github.com/embervale/server/game/recipe"
	"github.com/embervale/server/game/world"
	mw "github.com/embervale/server/middleware"
	"github.com/embervale/server/model"
	"github.com/embervale/server/scheduler"
	"github.com/embervale/server/testutil"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
	"gorm.io/gorm"
)

// TestServer wraps a real HTTP server with all world subsystems wired together.
type TestServer struct {
	DB         *gorm.DB
	Cache      cache.Cache
	SM         *player.SessionManager
	PlayerSvc  *player.Service
	Effects    *effect.Service
	WorldState *world.StateService
	Respawn    *world.RespawnService
	Dropped    *item.DroppedItemService
	Server     *httptest.Server
	URL        string // http://127.0.0.1:<port>
	WSURL      string // ws://127.0.0.1:<port>/ws
	Sec        config.SecurityConfig
}

// NewTestServer creates a fully wired world server for integration testing.
// It mirrors the dependency wiring in main.go. No background tickers are
// started; tests drive the tick services directly for determinism.
func NewTestServer(t *testing.T) *TestServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	// ---- Infrastructure ----
	db := testutil.SetupTestDB(t)
	c, ps := testutil.SetupTestCache(t)
	logger := testutil.Logger()

	sec := config.SecurityConfig{
		JWTSecret:      "integration-test-secret",
		JWTTTLH:        72 * time.Hour,
		RateLimitRPS:   1000,
		RateLimitBurst: 2000,
		AllowedOrigins: []string{}, // allow all origins
	}

	// ---- Game services ----
	sm := player.NewSessionManager(logger)
	playerSvc := player.NewService(db, logger)
	invSvc := item.NewInventoryService(db, logger)
	equipSvc := item.NewEquipService(db, logger)
	consumeSvc := item.NewConsumeService(db, logger)
	droppedSvc := item.NewDroppedItemService(db, logger)
	collectSvc := collect.NewService(db, logger)
	effectSvc := effect.NewService(db, logger)
	worldState := world.NewStateService(db, logger)
	cloudSvc := world.NewCloudService(db, logger)
	respawnSvc := world.NewRespawnService(db, logger)
	chatH := chat.NewHandler(db, c, ps, sm, playerSvc, config.GameConfig{}, logger)
	stopFanout, err := chatH.StartFanout(context.Background())
	require.NoError(t, err)
	t.Cleanup(stopFanout)
	sched := scheduler.New(logger)
	auditSvc := audit.New(db, logger)
	t.Cleanup(func() { auditSvc.Stop(context.Background()) })

	// ---- Seeds ----
	ctx := context.Background()
	require.NoError(t, item.SeedItemDefinitions(ctx, db, logger))
	require.NoError(t, recipe.Seed(ctx, db, logger))
	require.NoError(t, worldState.Seed(ctx, time.Now()))

	// ---- WS Router ----
	wsRouter := apows.NewRouter(logger)
	gh := apows.NewGameHandlers(invSvc, equipSvc, consumeSvc, droppedSvc,
		collectSvc, chatH, playerSvc, logger)
	gh.RegisterHandlers(wsRouter)

	// ---- Gin HTTP Server ----
	r := gin.New()
	r.Use(mw.TraceID(), mw.Recovery(logger))
	r.Use(mw.RateLimit(rate.Limit(sec.RateLimitRPS), sec.RateLimitBurst))

	r.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(200, gin.H{"status": "ok"})
	})

	// ---- REST API routes (mirrors main.go) ----
	authH := apirest.NewAuthHandler(db, c, sec)
	adminH := apirest.NewAdminHandler(db, sm, sched,
		worldState, cloudSvc, respawnSvc, effectSvc, droppedSvc, auditSvc, logger)

	api := r.Group("/api")
	{
		authG := api.Group("/auth")
		authG.POST("/register", authH.Register)
		authG.POST("/login", authH.Login)
		authG.POST("/logout", mw.Auth(sec, c), authH.Logout)
		authG.POST("/refresh", mw.Auth(sec, c), authH.Refresh)

		adminG := api.Group("/admin")
		adminG.Use(apirest.AdminAuth("integration-admin-key"))
		adminG.GET("/metrics", adminH.Metrics)
		adminG.GET("/players", adminH.ListPlayers)
		adminG.GET("/world", adminH.WorldState)
		adminG.POST("/tick/:name", adminH.TriggerTick)
	}

	// ---- WebSocket ----
	wsH := apows.NewHandler(db, c, sec, sm, playerSvc, chatH, wsRouter, logger)
	r.GET("/ws", wsH.ServeWS)

	// ---- Start server ----
	server := httptest.NewServer(r)
	url := server.URL
	wsURL := "ws" + url[len("http"):] + "/ws"

	return &TestServer{
		DB:         db,
		Cache:      c,
		SM:         sm,
		PlayerSvc:  playerSvc,
		Effects:    effectSvc,
		WorldState: worldState,
		Respawn:    respawnSvc,
		Dropped:    droppedSvc,
		Server:     server,
		URL:        url,
		WSURL:      wsURL,
		Sec:        sec,
	}
}

// Close shuts down the test server.
func (ts *TestServer) Close() {
	ts.Server.Close()
}

// --- HTTP helpers ---

// PostJSON sends a POST request with JSON body and optional Bearer token.
func (ts *TestServer) PostJSON(t *testing.T, path string, body interface{}, token string) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req, err := http.NewRequest("POST", ts.URL+path, bytes.NewReader(data))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

// Get sends a GET request with optional Bearer token.
func (ts *TestServer) Get(t *testing.T, path string, token string) *http.Response {
	t.Helper()
	req, err := http.NewRequest("GET", ts.URL+path, nil)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

// ReadJSON reads and decodes a JSON response body into the given target.
func ReadJSON(t *testing.T, resp *http.Response, target interface{}) {
	t.Helper()
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, target), "body: %s", string(data))
}

// --- Auth helpers ---

// Login logs in (auto-registers on first call) and returns the token and account ID.
func (ts *TestServer) Login(t *testing.T, username, password string) (token string, accountID int64) {
	t.Helper()
	resp := ts.PostJSON(t, "/api/auth/login", map[string]string{
		"username": username,
		"password": password,
	}, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var result map[string]interface{}
	ReadJSON(t, resp, &result)
	token = result["token"].(string)
	accountID = int64(result["account_id"].(float64))
	return
}

// --- WebSocket client ---

// WSClient wraps a gorilla/websocket connection for integration testing.
// Uses a background readLoop to avoid gorilla/websocket's SetReadDeadline bug.
type WSClient struct {
	Conn   *websocket.Conn
	t      *testing.T
	seq    uint64
	readCh chan readResult // buffered channel from readLoop
}

type readResult struct {
	data []byte
	err  error
}

// ConnectWS dials the test server's WS endpoint with the given JWT token.
func (ts *TestServer) ConnectWS(t *testing.T, token string) *WSClient {
	t.Helper()
	url := ts.WSURL + "?token=" + token
	dialer := websocket.Dialer{}
	conn, resp, err := dialer.Dial(url, nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	require.NoError(t, err, "WS dial failed")
	wc := &WSClient{Conn: conn, t: t, readCh: make(chan readResult, 256)}
	go wc.readLoop()
	return wc
}

// readLoop continuously reads from the websocket in a dedicated goroutine.
func (wc *WSClient) readLoop() {
	for {
		_, data, err := wc.Conn.ReadMessage()
		wc.readCh <- readResult{data, err}
		if err != nil {
			return
		}
	}
}

// Send writes a JSON message packet to the WebSocket.
func (wc *WSClient) Send(msgType string, payload interface{}) {
	wc.t.Helper()
	seq := atomic.AddUint64(&wc.seq, 1)
	payloadJSON, err := json.Marshal(payload)
	require.NoError(wc.t, err)
	pkt := map[string]interface{}{
		"seq":     seq,
		"type":    msgType,
		"payload": json.RawMessage(payloadJSON),
	}
	data, err := json.Marshal(pkt)
	require.NoError(wc.t, err)
	require.NoError(wc.t, wc.Conn.WriteMessage(websocket.TextMessage, data))
}

// Recv reads one message from the WebSocket with a timeout.
func (wc *WSClient) Recv(timeout time.Duration) map[string]interface{} {
	wc.t.Helper()
	pkt, err := wc.RecvAny(timeout)
	require.NoError(wc.t, err, "WS recv failed")
	return pkt
}

// RecvAny reads one message from the WebSocket with a timeout, returning an error
// instead of failing the test on timeout/read failure.
func (wc *WSClient) RecvAny(timeout time.Duration) (map[string]interface{}, error) {
	select {
	case res := <-wc.readCh:
		if res.err != nil {
			return nil, res.err
		}
		var pkt map[string]interface{}
		if err := json.Unmarshal(res.data, &pkt); err != nil {
			return nil, err
		}
		return pkt, nil
	case <-time.After(timeout):
		return nil, &timeoutError{}
	}
}

// timeoutError implements net.Error for timeout detection in callers.
type timeoutError struct{}

func (e *timeoutError) Error() string   { return "read timeout" }
func (e *timeoutError) Timeout() bool   { return true }
func (e *timeoutError) Temporary() bool { return true }

// RecvType reads messages until one with the given type is found (within timeout).
func (wc *WSClient) RecvType(msgType string, timeout time.Duration) map[string]interface{} {
	wc.t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			break
		}
		pkt, err := wc.RecvAny(remaining)
		if err != nil {
			wc.t.Fatalf("WS recv failed while waiting for %q: %v", msgType, err)
		}
		if pkt["type"] == msgType {
			return pkt
		}
	}
	wc.t.Fatalf("timed out waiting for message type %q", msgType)
	return nil
}

// Close closes the WebSocket connection.
func (wc *WSClient) Close() {
	_ = wc.Conn.Close()
}

// PayloadMap extracts the payload from a received WS packet as a map.
func PayloadMap(t *testing.T, pkt map[string]interface{}) map[string]interface{} {
	t.Helper()
	p := pkt["payload"]
	if p == nil {
		return map[string]interface{}{}
	}
	switch v := p.(type) {
	case map[string]interface{}:
		return v
	case string:
		var m map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(v), &m))
		return m
	default:
		data, err := json.Marshal(v)
		require.NoError(t, err)
		var m map[string]interface{}
		require.NoError(t, json.Unmarshal(data, &m))
		return m
	}
}

// --- Composite helpers ---

// LoginAndConnect logs in and opens a WS session. The player row is created
// server-side on first connect, so the returned ID is the live player ID.
func (ts *TestServer) LoginAndConnect(t *testing.T, username string) (string, *model.Player, *WSClient) {
	t.Helper()
	token, accountID := ts.Login(t, username, username+"pass")
	ws := ts.ConnectWS(t, token)

	// The session registers asynchronously; wait for the player row.
	var p model.Player
	require.Eventually(t, func() bool {
		return ts.DB.Where("account_id = ?", accountID).First(&p).Error == nil
	}, 5*time.Second, 20*time.Millisecond, "player row not created for %s", username)
	require.Eventually(t, func() bool {
		return ts.SM.Get(p.ID) != nil
	}, 5*time.Second, 20*time.Millisecond, "session not registered for %s", username)
	return token, &p, ws
}

// UniqueID returns a short unique string suitable for usernames.
var testCounter uint64

func UniqueID(prefix string) string {
	n := atomic.AddUint64(&testCounter, 1)
	return fmt.Sprintf("%s_%d_%d", prefix, time.Now().UnixNano()%100000, n)
}

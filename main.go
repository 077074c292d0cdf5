package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	apirest "github.com/embervale/server/api/rest"
	apows "github.com/embervale/server/api/ws"
	"github.com/embervale/server/audit"
	"github.com/embervale/server/cache"
	"github.com/embervale/server/config"
	dbadapter "github.com/embervale/server/db"
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
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

func main() {
	cfgPath := "config/config.yaml"
	if len(os.Args) > 1 {
		cfgPath = os.Args[1]
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	// ---- Logger ----
	var logger *zap.Logger
	var logErr error
	if cfg.Server.Debug {
		logger, logErr = zap.NewDevelopment()
	} else {
		logger, logErr = zap.NewProduction()
	}
	if logErr != nil {
		log.Fatalf("logger: %v", logErr)
	}
	defer logger.Sync()

	// Warn loudly if admin endpoints will be disabled.
	if cfg.Server.AdminKey == "" {
		logger.Warn("server.admin_key is not set; admin endpoints are disabled")
	}

	// ---- Database ----
	db, err := dbadapter.Open(cfg.Database)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	if err := model.AutoMigrate(db); err != nil {
		log.Fatalf("db migrate: %v", err)
	}
	logger.Info("DB initialized")

	// ---- Cache / PubSub ----
	cacheConfig := cache.CacheConfig{
		RedisAddr:       cfg.Cache.RedisAddr,
		RedisPassword:   cfg.Cache.RedisPassword,
		RedisDB:         cfg.Cache.RedisDB,
		LocalGCInterval: cfg.Cache.LocalGCInterval,
		LocalPubSubBuf:  cfg.Cache.LocalPubSubBuf,
	}
	c, err := cache.NewCache(cacheConfig)
	if err != nil {
		log.Fatalf("cache: %v", err)
	}
	ps, err := cache.NewPubSub(cacheConfig)
	if err != nil {
		log.Fatalf("pubsub: %v", err)
	}
	logger.Info("Cache initialized")

	// ---- Audit ----
	auditSvc := audit.New(db, logger)
	defer auditSvc.Stop(nil)

	// ---- Scheduler ----
	sched := scheduler.New(logger)
	defer sched.Stop()

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
	chatH := chat.NewHandler(db, c, ps, sm, playerSvc, cfg.Game, logger)
	stopChatFanout, err := chatH.StartFanout(context.Background())
	if err != nil {
		log.Fatalf("chat fanout: %v", err)
	}
	defer stopChatFanout()

	// ---- Seeds ----
	seedCtx, seedCancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := item.SeedItemDefinitions(seedCtx, db, logger); err != nil {
		log.Fatalf("seed items: %v", err)
	}
	if err := recipe.Seed(seedCtx, db, logger); err != nil {
		log.Fatalf("seed recipes: %v", err)
	}
	if err := worldState.Seed(seedCtx, time.Now()); err != nil {
		log.Fatalf("seed world state: %v", err)
	}
	if err := world.SeedResources(seedCtx, db, logger); err != nil {
		log.Fatalf("seed resources: %v", err)
	}
	seedCancel()
	logger.Info("World seeded")

	// ---- Periodic simulation tasks ----
	tickCtx := func(fn func(ctx context.Context, now time.Time) error, name string) func() {
		return func() {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := fn(ctx, time.Now()); err != nil {
				logger.Error("tick failed", zap.String("task", name), zap.Error(err))
			}
		}
	}
	sched.AddTicker("world_tick",
		time.Duration(cfg.Game.WorldTickMs)*time.Millisecond,
		tickCtx(worldState.Tick, "world_tick"))
	sched.AddTicker("effect_tick",
		time.Duration(cfg.Game.EffectTickMs)*time.Millisecond,
		tickCtx(effectSvc.Tick, "effect_tick"))
	sched.AddTicker("cloud_tick",
		time.Duration(cfg.Game.CloudTickMs)*time.Millisecond,
		tickCtx(cloudSvc.Tick, "cloud_tick"))
	sched.AddTicker("respawn_sweep",
		time.Duration(cfg.Game.RespawnSweepS)*time.Second,
		tickCtx(respawnSvc.Sweep, "respawn_sweep"))
	sched.AddTicker("despawn_sweep",
		time.Duration(cfg.Game.DespawnSweepS)*time.Second,
		tickCtx(droppedSvc.DespawnSweep, "despawn_sweep"))

	// ---- WS Router ----
	wsRouter := apows.NewRouter(logger)
	gh := apows.NewGameHandlers(invSvc, equipSvc, consumeSvc, droppedSvc,
		collectSvc, chatH, playerSvc, logger)
	gh.RegisterHandlers(wsRouter)

	// ---- Gin HTTP Server ----
	if !cfg.Server.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(mw.TraceID(), mw.Logger(logger), mw.Recovery(logger))
	r.Use(mw.RateLimit(rate.Limit(cfg.Security.RateLimitRPS), cfg.Security.RateLimitBurst))

	// Health check
	r.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(200, gin.H{"status": "ok"})
	})

	// ---- REST API routes ----
	authH := apirest.NewAuthHandler(db, c, cfg.Security)
	adminH := apirest.NewAdminHandler(db, sm, sched,
		worldState, cloudSvc, respawnSvc, effectSvc, droppedSvc, auditSvc, logger)

	api := r.Group("/api")
	{
		authG := api.Group("/auth")
		authG.POST("/register", authH.Register)
		authG.POST("/login", authH.Login)
		authG.POST("/logout", mw.Auth(cfg.Security, c), authH.Logout)
		authG.POST("/refresh", mw.Auth(cfg.Security, c), authH.Refresh)

		adminG := api.Group("/admin")
		adminG.Use(mw.IPWhitelist(cfg.Security.AdminAllowedIPs))
		adminG.Use(apirest.AdminAuth(cfg.Server.AdminKey))
		adminG.GET("/metrics", adminH.Metrics)
		adminG.GET("/players", adminH.ListPlayers)
		adminG.GET("/world", adminH.WorldState)
		adminG.POST("/kick/:id", adminH.KickPlayer)
		adminG.POST("/accounts/:id/ban", adminH.BanAccount)
		adminG.GET("/scheduler", adminH.ListSchedulerTasks)
		adminG.POST("/tick/:name", adminH.TriggerTick)
	}

	// ---- WebSocket ----
	wsH := apows.NewHandler(db, c, cfg.Security, sm, playerSvc, chatH, wsRouter, logger)
	r.GET("/ws", wsH.ServeWS)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	logger.Info("Server listening", zap.String("addr", addr))
	if err := r.Run(addr); err != nil {
		log.Fatalf("server: %v", err)
	}
}

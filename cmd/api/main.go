package main

import (
	"context"
	"fmt"
	stdlog "log"
	"os/signal"
	"syscall"
	"time"

	_ "go.uber.org/automaxprocs"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"go-gin-realtime-crud/internal/core/cache"
	"go-gin-realtime-crud/internal/core/config"
	"go-gin-realtime-crud/internal/core/database"
	"go-gin-realtime-crud/internal/core/logger"
	"go-gin-realtime-crud/internal/core/server"
	"go-gin-realtime-crud/internal/domain"
	"go-gin-realtime-crud/internal/feature/user"
	"go-gin-realtime-crud/internal/repo"
	"go-gin-realtime-crud/internal/service"
	"go-gin-realtime-crud/internal/transport/http/handler"
	"go-gin-realtime-crud/internal/transport/http/router"
	"go-gin-realtime-crud/internal/transport/ws"
)

func main() {
	_ = godotenv.Load()
	cfg, err := config.Load("")
	if err != nil {
		stdlog.Fatalf("config: %v", err)
	}

	prod := cfg.IsProduction()
	log, cleanup := logger.New(logger.Options{
		Level:       cfg.Log.Level,
		JSON:        cfg.Log.JSON || prod,
		AddCaller:   true,
		Development: !prod,
		Rotate: logger.FileRotate{
			Enable:     cfg.Log.File != "",
			Filename:   cfg.Log.File,
			MaxSizeMB:  cfg.Log.MaxSizeMB,
			MaxBackups: cfg.Log.MaxBackups,
			MaxAgeDays: cfg.Log.MaxAgeDays,
			Compress:   cfg.Log.Compress,
		},
	})
	defer cleanup()
	defer logger.RedirectStdLog(log, zapcore.InfoLevel)()
	gin.DefaultWriter = logger.ToWriter(log.Named("gin"), zapcore.DebugLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	users, closeRepo := mustOpenRepo(cfg, log)
	defer closeRepo()

	// redis 可选：用户缓存 + 跨实例推送
	var opts []service.Option
	var rc *cache.Cache
	if cfg.Redis.Addr != "" {
		rc = cache.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		defer func() { _ = rc.Close() }()
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		if err := rc.Ping(pingCtx); err != nil {
			log.Warn("redis unreachable, cache falls back to store", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
		}
		cancel()
		ttl := time.Duration(cfg.Redis.CacheTTLSec) * time.Second
		opts = append(opts, service.WithCache(cache.NewUserCache(rc, ttl, log)))
	}
	svc := service.NewUserService(users, log, opts...)

	hub := ws.NewHub(log)
	if rc != nil {
		relay := ws.NewRelay(rc.RDB, cfg.Redis.Channel, log)
		hub.SetRelay(relay)
		go func() {
			if err := relay.Run(ctx, hub.BroadcastFrom); err != nil {
				log.Error("relay stopped", zap.Error(err))
			}
		}()
	}
	wsSrv := ws.NewServer(hub, ws.NewDispatcher(svc, hub, log), cfg.Socket.CORSOrigin)

	mode := gin.DebugMode
	if prod {
		mode = gin.ReleaseMode
	}
	r := router.NewAPIEngine(log, router.Options{
		Mode:           mode,
		RequestTimeout: time.Duration(cfg.App.HTTP.RequestTimeoutSec) * time.Second,
		MaxBodyBytes:   cfg.App.HTTP.MaxBodyBytes,
		MaxInFlight:    cfg.App.HTTP.MaxInFlight,
		WS:             wsSrv,
	}, handler.NewUserHandler(svc, log))

	addr := server.Addr(cfg.App.HTTP.Host, cfg.App.HTTP.Port)
	srv := server.BuildServer(
		addr, r,
		time.Duration(cfg.App.HTTP.ReadTimeoutSec)*time.Second,
		time.Duration(cfg.App.HTTP.WriteTimeoutSec)*time.Second,
		time.Duration(cfg.App.HTTP.IdleTimeoutSec)*time.Second,
	)

	host4human := cfg.App.HTTP.Host
	if host4human == "" || host4human == "0.0.0.0" {
		host4human = "127.0.0.1"
	}
	baseURL := "http://" + host4human + ":" + fmt.Sprint(cfg.App.HTTP.Port)
	log.Info("server starting",
		zap.String("env", cfg.App.Env),
		zap.String("health", baseURL+"/health"),
		zap.String("api", baseURL+"/api/users"),
		zap.String("ws", "ws://"+host4human+":"+fmt.Sprint(cfg.App.HTTP.Port)+"/ws"),
	)

	go func() {
		if err := server.StartHTTP(srv, log); err != nil {
			log.Fatal("http start FAILED", zap.Error(err))
		}
	}()

	// 优雅关闭：先停 HTTP，再断开 websocket，最后关连接池（defer）
	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	server.Shutdown(shutdownCtx, srv, log)
	hub.Close()
	log.Info("server stopped gracefully")
}

func mustOpenRepo(cfg *config.Config, l *zap.Logger) (domain.UserRepository, func()) {
	if cfg.DB.Driver == "memory" {
		l.Warn("using in-memory store, data is lost on restart")
		return repo.NewMemoryUserRepo(), func() {}
	}

	db, err := database.NewGorm(database.Opts{
		Driver:             cfg.DB.Driver,
		DSN:                cfg.DB.DSN,
		Host:               cfg.DB.Host,
		Port:               cfg.DB.Port,
		Username:           cfg.DB.Username,
		Password:           cfg.DB.Password,
		Name:               cfg.DB.Name,
		MaxOpenConns:       cfg.DB.MaxOpenConns,
		MaxIdleConns:       cfg.DB.MaxIdleConns,
		ConnMaxLifetimeMin: cfg.DB.ConnMaxLifetimeMin,
		LogLevel:           cfg.DB.LogLevel,
		Logger:             logger.ToStdLogger(l.Named("gorm"), zapcore.WarnLevel),
	})
	if err != nil {
		l.Fatal("db open", zap.String("driver", cfg.DB.Driver), zap.Error(err))
	}
	l.Info("database connected", zap.String("driver", cfg.DB.Driver), zap.String("host", cfg.DB.Host))

	if cfg.DB.AutoMigrate {
		if err := db.AutoMigrate(&user.UserModel{}); err != nil {
			l.Fatal("automigrate failed", zap.Error(err))
		}
		l.Info("automigrate done")
	}
	return repo.NewUserRepo(db), func() {
		if err := database.Close(db); err != nil {
			l.Error("db close", zap.Error(err))
		}
	}
}

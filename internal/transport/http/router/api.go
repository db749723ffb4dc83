package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"go-gin-realtime-crud/internal/core/server"
	mdw "go-gin-realtime-crud/internal/transport/http/middleware"
	resp "go-gin-realtime-crud/internal/transport/http/response"
)

type Options struct {
	Mode           string
	RequestTimeout time.Duration // 0 关闭
	MaxBodyBytes   int64
	MaxInFlight    int64
	WS             http.Handler // 非 nil 时挂在 GET /ws
}

func NewAPIEngine(l *zap.Logger, opt Options, mods ...APIModule) *gin.Engine {
	r := server.NewRouter(l, server.Options{
		Mode:      opt.Mode,
		SkipPaths: []string{"/health", "/metrics"},
	})
	r.Use(mdw.RequestID(), mdw.Metrics())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK", "timestamp": time.Now().UTC().Format(time.RFC3339Nano)})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	if opt.WS != nil {
		r.GET("/ws", gin.WrapH(opt.WS))
	}

	// 长连接不走以下限制
	api := r.Group("/api")
	if opt.MaxInFlight > 0 {
		api.Use(mdw.ConcurrencyLimit(opt.MaxInFlight))
	}
	if opt.MaxBodyBytes > 0 {
		api.Use(mdw.MaxBodyBytes(opt.MaxBodyBytes))
	}
	if opt.RequestTimeout > 0 {
		api.Use(mdw.Timeout(opt.RequestTimeout))
	}
	MountAll(api, mods...)

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, resp.Fail(resp.MsgRouteMissing))
	})
	return r
}

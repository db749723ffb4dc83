package ws

import (
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Server 把 HTTP 请求升级为 websocket 连接并交给 Hub
type Server struct {
	hub      *Hub
	d        *Dispatcher
	upgrader websocket.Upgrader
}

func NewServer(hub *Hub, d *Dispatcher, corsOrigin string) *Server {
	return &Server{
		hub: hub,
		d:   d,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     originChecker(corsOrigin),
		},
	}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade 已写回错误响应
		s.hub.log.Debug("upgrade", zap.Error(err))
		return
	}
	c := newClient(s.hub, conn)
	if !s.hub.add(c) {
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
		_ = conn.Close()
		return
	}
	s.hub.log.Info("socket connected", zap.String("client", c.id))
	go c.writePump()
	go func() {
		c.readPump(s.d)
		s.hub.log.Info("socket disconnected", zap.String("client", c.id))
	}()
}

// originChecker "*" 放行所有；否则逗号分隔的白名单。无 Origin 头（非浏览器客户端）放行
func originChecker(origins string) func(*http.Request) bool {
	allowed := map[string]struct{}{}
	allowAll := false
	for _, o := range strings.Split(origins, ",") {
		o = strings.TrimSpace(o)
		switch o {
		case "":
		case "*":
			allowAll = true
		default:
			allowed[strings.TrimRight(o, "/")] = struct{}{}
		}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || allowAll {
			return true
		}
		_, ok := allowed[origin]
		return ok
	}
}

package ws

import (
	"context"
	"encoding/json"
	"sync"

	"go.uber.org/zap"
)

// Publisher 把本实例产生的推送转发给其他实例
type Publisher interface {
	Publish(ctx context.Context, origin string, frame []byte) error
}

// Hub 管理当前实例上的连接；所有对 client.send 的写入都在 mu 下进行，
// remove 关闭 send 之后不会再有写入
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
	closed  bool

	relay Publisher
	log   *zap.Logger
}

func NewHub(l *zap.Logger) *Hub {
	return &Hub{clients: make(map[string]*Client), log: l.Named("ws")}
}

func (h *Hub) SetRelay(p Publisher) { h.relay = p }

func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) add(c *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[c.id] = c
	wsConnections.Inc()
	return true
}

func (h *Hub) remove(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c.id]; !ok {
		return
	}
	delete(h.clients, c.id)
	close(c.send)
	wsConnections.Dec()
}

// sendTo 非阻塞投递；缓冲满则丢弃该帧
func (h *Hub) sendTo(c *Client, frame []byte) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if _, ok := h.clients[c.id]; !ok {
		return false
	}
	select {
	case c.send <- frame:
		return true
	default:
		wsDropped.Inc()
		h.log.Warn("send buffer full, frame dropped", zap.String("client", c.id))
		return false
	}
}

// BroadcastFrom 发给本实例上除 origin 外的所有连接
func (h *Hub) BroadcastFrom(origin string, frame []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for id, c := range h.clients {
		if id == origin {
			continue
		}
		select {
		case c.send <- frame:
		default:
			wsDropped.Inc()
			h.log.Warn("send buffer full, broadcast dropped", zap.String("client", id))
		}
	}
}

// Publish 推送事件给其他连接（含其他实例）
func (h *Hub) Publish(ctx context.Context, origin, event string, data any) {
	frame, err := json.Marshal(Outbound{Event: event, Data: data})
	if err != nil {
		h.log.Error("marshal broadcast", zap.String("event", event), zap.Error(err))
		return
	}
	h.BroadcastFrom(origin, frame)
	if h.relay != nil {
		if err := h.relay.Publish(ctx, origin, frame); err != nil {
			h.log.Error("relay publish", zap.String("event", event), zap.Error(err))
		}
	}
}

// Close 断开所有连接并拒绝新连接
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	conns := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		conns = append(conns, c)
	}
	h.mu.Unlock()
	for _, c := range conns {
		_ = c.conn.Close()
	}
}

package ws

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// relayMsg 跨实例转发的推送；Instance 用于丢弃自己发出的消息
type relayMsg struct {
	Instance string          `json:"instance"`
	Origin   string          `json:"origin"`
	Frame    json.RawMessage `json:"frame"`
}

// Relay 基于 redis pub/sub，把本实例的推送分发给同一频道上的其他实例
type Relay struct {
	rdb      *redis.Client
	channel  string
	instance string
	log      *zap.Logger
}

func NewRelay(rdb *redis.Client, channel string, l *zap.Logger) *Relay {
	return &Relay{rdb: rdb, channel: channel, instance: uuid.NewString(), log: l.Named("relay")}
}

func (r *Relay) Publish(ctx context.Context, origin string, frame []byte) error {
	b, err := json.Marshal(relayMsg{Instance: r.instance, Origin: origin, Frame: frame})
	if err != nil {
		return err
	}
	// 连接断开后 ctx 可能已取消，发布不应随之失败
	return r.rdb.Publish(context.WithoutCancel(ctx), r.channel, b).Err()
}

// Run 订阅频道直到 ctx 结束，把其他实例的推送交给 deliver
func (r *Relay) Run(ctx context.Context, deliver func(origin string, frame []byte)) error {
	sub := r.rdb.Subscribe(ctx, r.channel)
	defer func() { _ = sub.Close() }()
	if _, err := sub.Receive(ctx); err != nil {
		return err
	}
	r.log.Info("relay subscribed", zap.String("channel", r.channel), zap.String("instance", r.instance))

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case m, ok := <-ch:
			if !ok {
				return nil
			}
			r.handle(m.Payload, deliver)
		}
	}
}

func (r *Relay) handle(payload string, deliver func(origin string, frame []byte)) {
	var msg relayMsg
	if err := json.Unmarshal([]byte(payload), &msg); err != nil {
		r.log.Warn("bad relay message", zap.Error(err))
		return
	}
	if msg.Instance == r.instance {
		return
	}
	deliver(msg.Origin, msg.Frame)
}

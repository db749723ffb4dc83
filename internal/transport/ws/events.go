package ws

import (
	"context"
	"encoding/json"
	"errors"

	"go.uber.org/zap"

	"go-gin-realtime-crud/internal/domain"
	"go-gin-realtime-crud/pkg/utils"
)

var (
	errBadPayload   = domain.Validation("Invalid payload")
	errInvalidID    = domain.Validation("Invalid user id")
	errUnknownEvent = errors.New("unknown event")
)

const msgInternal = "Internal server error"

type idPayload struct {
	ID int64 `json:"id"`
}

type pagePayload struct {
	Limit  any `json:"limit"`
	Offset any `json:"offset"`
}

type updatePayload struct {
	ID      int64          `json:"id"`
	Updates map[string]any `json:"updates"`
}

// Dispatcher 把事件映射到 UserService，写操作成功后推送给其他连接
type Dispatcher struct {
	svc domain.UserService
	hub *Hub
	log *zap.Logger
}

func NewDispatcher(svc domain.UserService, hub *Hub, l *zap.Logger) *Dispatcher {
	return &Dispatcher{svc: svc, hub: hub, log: l.Named("UserEvents")}
}

func (d *Dispatcher) Handle(ctx context.Context, c *Client, in Inbound) {
	data, err := d.dispatch(ctx, c, in)

	res := AckResult{Success: true, Data: data}
	result := "ok"
	if err != nil {
		result = "error"
		res = AckResult{Error: d.errorMessage(in.Event, err)}
	}
	wsEvents.WithLabelValues(eventLabel(in.Event), result).Inc()

	if in.Ack != "" {
		c.reply(in.Ack, res)
	}
}

func (d *Dispatcher) dispatch(ctx context.Context, c *Client, in Inbound) (any, error) {
	switch in.Event {
	case EventGet:
		var p idPayload
		if err := decode(in.Data, &p); err != nil {
			return nil, err
		}
		if p.ID <= 0 {
			return nil, errInvalidID
		}
		return d.svc.GetUserByID(ctx, p.ID)

	case EventGetAll:
		var p pagePayload
		if err := decode(in.Data, &p); err != nil {
			return nil, err
		}
		return d.svc.GetAllUsers(ctx, toInt(p.Limit), toInt(p.Offset))

	case EventCreate:
		var p domain.CreateUserInput
		if err := decode(in.Data, &p); err != nil {
			return nil, err
		}
		u, err := d.svc.CreateUser(ctx, p)
		if err != nil {
			return nil, err
		}
		d.hub.Publish(ctx, c.id, EventCreated, map[string]any{"user": u})
		return u, nil

	case EventUpdate:
		var p updatePayload
		if err := decode(in.Data, &p); err != nil {
			return nil, err
		}
		if p.ID <= 0 {
			return nil, errInvalidID
		}
		u, err := d.svc.UpdateUser(ctx, p.ID, p.Updates)
		if err != nil {
			return nil, err
		}
		d.hub.Publish(ctx, c.id, EventUpdated, map[string]any{"user": u})
		return u, nil

	case EventDelete:
		var p idPayload
		if err := decode(in.Data, &p); err != nil {
			return nil, err
		}
		if p.ID <= 0 {
			return nil, errInvalidID
		}
		if err := d.svc.DeleteUser(ctx, p.ID); err != nil {
			return nil, err
		}
		d.hub.Publish(ctx, c.id, EventDeleted, map[string]any{"id": p.ID})
		return nil, nil

	case EventCount:
		n, err := d.svc.GetUserCount(ctx)
		if err != nil {
			return nil, err
		}
		return map[string]int64{"count": n}, nil
	}
	return nil, errUnknownEvent
}

func (d *Dispatcher) errorMessage(event string, err error) string {
	if de, ok := domain.As(err); ok {
		return de.Msg
	}
	if errors.Is(err, errUnknownEvent) {
		return "Unknown event: " + event
	}
	d.log.Error("unhandled error", zap.String("event", event), zap.Error(err))
	return msgInternal
}

// decode 空 data 视为空对象
func decode(raw json.RawMessage, v any) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return errBadPayload
	}
	return nil
}

// toInt limit/offset 允许数字或数字字符串，其他视为未指定
func toInt(v any) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case string:
		return utils.Atoi(n)
	}
	return 0
}

func eventLabel(e string) string {
	switch e {
	case EventGet, EventGetAll, EventCreate, EventUpdate, EventDelete, EventCount:
		return e
	}
	return "unknown"
}

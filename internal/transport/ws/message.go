package ws

import "encoding/json"

const (
	EventGet    = "user:get"
	EventGetAll = "user:getAll"
	EventCreate = "user:create"
	EventUpdate = "user:update"
	EventDelete = "user:delete"
	EventCount  = "user:count"

	EventCreated = "user:created"
	EventUpdated = "user:updated"
	EventDeleted = "user:deleted"

	EventAck = "ack"
)

// Inbound 客户端帧；Ack 为空表示不需要回执
type Inbound struct {
	Event string          `json:"event"`
	Ack   string          `json:"ack,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Outbound 服务端帧：回执（event=ack）或推送
type Outbound struct {
	Event string `json:"event"`
	Ack   string `json:"ack,omitempty"`
	Data  any    `json:"data,omitempty"`
}

type AckResult struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

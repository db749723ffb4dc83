package user

import (
	"time"

	"go-gin-realtime-crud/internal/store"
)

// UserModel 仅用于建表（AutoMigrate）；读写走 store.Store[domain.User]
type UserModel struct {
	ID        int64     `gorm:"primaryKey;autoIncrement"`
	Username  string    `gorm:"size:64;not null;uniqueIndex:idx_users_username"`
	Email     string    `gorm:"size:191;not null;uniqueIndex:idx_users_email"`
	Password  string    `gorm:"size:100;not null"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (UserModel) TableName() string { return Table }

const (
	Table = "users"

	ColID        = "id"
	ColUsername  = "username"
	ColEmail     = "email"
	ColPassword  = "password"
	ColCreatedAt = "created_at"
	ColUpdatedAt = "updated_at"

	IndexUsername = "idx_users_username"
	IndexEmail    = "idx_users_email"
)

var Schema = store.Schema{
	Table:    Table,
	ID:       ColID,
	Columns:  []string{ColID, ColUsername, ColEmail, ColPassword, ColCreatedAt, ColUpdatedAt},
	Writable: []string{ColUsername, ColEmail, ColPassword, ColCreatedAt, ColUpdatedAt},
}

// Mutable 允许客户端局部更新的字段：JSON 名 -> 列名
var Mutable = map[string]string{
	"username": ColUsername,
	"email":    ColEmail,
	"password": ColPassword,
}

// ReadOnly 由存储维护的字段，更新时静默忽略
var ReadOnly = map[string]struct{}{
	"id":        {},
	"createdAt": {},
	"updatedAt": {},
}

package domain

import (
	"context"
	"time"
)

type User struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Password  string    `json:"-"` // bcrypt 哈希，永不输出
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type CreateUserInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserRepository 用户实体访问层（查不到返回 nil, nil）
type UserRepository interface {
	FindByID(ctx context.Context, id int64) (*User, error)
	FindAll(ctx context.Context, limit, offset int) ([]User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByUsername(ctx context.Context, username string) (*User, error)
	CreateUser(ctx context.Context, username, email, passwordHash string) (int64, error)
	Update(ctx context.Context, id int64, fields map[string]any) (bool, error)
	UpdatePassword(ctx context.Context, id int64, passwordHash string) (bool, error)
	Delete(ctx context.Context, id int64) (bool, error)
	Count(ctx context.Context) (int64, error)
	// Transaction 在同一事务内执行 fn；fn 返回错误则回滚
	Transaction(ctx context.Context, fn func(r UserRepository) error) error
}

// UserService HTTP 与 WS 两种入口共用的业务接口
type UserService interface {
	GetUserByID(ctx context.Context, id int64) (*User, error)
	GetAllUsers(ctx context.Context, limit, offset int) ([]User, error)
	CreateUser(ctx context.Context, in CreateUserInput) (*User, error)
	UpdateUser(ctx context.Context, id int64, fields map[string]any) (*User, error)
	DeleteUser(ctx context.Context, id int64) error
	GetUserCount(ctx context.Context) (int64, error)
}

package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"go-gin-realtime-crud/internal/domain"
	"go-gin-realtime-crud/internal/feature/user"
	"go-gin-realtime-crud/internal/store"
)

type UserRepo struct{ st *store.Store[domain.User] }

func NewUserRepo(db *gorm.DB) *UserRepo {
	return &UserRepo{st: store.New[domain.User](db, user.Schema)}
}

func (r *UserRepo) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	return r.st.FindByID(ctx, id)
}

func (r *UserRepo) FindAll(ctx context.Context, limit, offset int) ([]domain.User, error) {
	return r.st.FindAll(ctx, limit, offset)
}

func (r *UserRepo) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.st.FindOneBy(ctx, user.ColEmail, email)
}

func (r *UserRepo) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.st.FindOneBy(ctx, user.ColUsername, username)
}

func (r *UserRepo) CreateUser(ctx context.Context, username, email, passwordHash string) (int64, error) {
	now := time.Now().UTC()
	return r.st.Create(ctx, map[string]any{
		user.ColUsername:  username,
		user.ColEmail:     email,
		user.ColPassword:  passwordHash,
		user.ColCreatedAt: now,
		user.ColUpdatedAt: now,
	})
}

// Update 写入给定列并刷新 updated_at
func (r *UserRepo) Update(ctx context.Context, id int64, fields map[string]any) (bool, error) {
	cols := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		cols[k] = v
	}
	cols[user.ColUpdatedAt] = time.Now().UTC()
	return r.st.Update(ctx, id, cols)
}

func (r *UserRepo) UpdatePassword(ctx context.Context, id int64, passwordHash string) (bool, error) {
	return r.Update(ctx, id, map[string]any{user.ColPassword: passwordHash})
}

func (r *UserRepo) Delete(ctx context.Context, id int64) (bool, error) {
	return r.st.DeleteByID(ctx, id)
}

func (r *UserRepo) Count(ctx context.Context) (int64, error) {
	return r.st.Count(ctx)
}

func (r *UserRepo) Transaction(ctx context.Context, fn func(domain.UserRepository) error) error {
	return r.st.Transaction(ctx, func(tx *store.Store[domain.User]) error {
		return fn(&UserRepo{st: tx})
	})
}

var _ domain.UserRepository = (*UserRepo)(nil)

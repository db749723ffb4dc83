package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"go-gin-realtime-crud/internal/domain"
	"go-gin-realtime-crud/pkg/utils"
)

// UserCache 按 id 的读穿缓存；查不到（nil）不缓存
type UserCache interface {
	GetUser(ctx context.Context, id int64, load func(ctx context.Context, id int64) (*domain.User, error)) (*domain.User, error)
	Invalidate(ctx context.Context, id int64)
}

type Option func(*UserService)

func WithCache(c UserCache) Option { return func(s *UserService) { s.cache = c } }

type UserService struct {
	repo  domain.UserRepository
	cache UserCache
	log   *zap.Logger
}

func NewUserService(repo domain.UserRepository, l *zap.Logger, opts ...Option) *UserService {
	s := &UserService{repo: repo, log: l.Named("UserService")}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *UserService) GetUserByID(ctx context.Context, id int64) (*domain.User, error) {
	s.log.Info("getting user", zap.Int64("id", id))
	var (
		u   *domain.User
		err error
	)
	if s.cache != nil {
		u, err = s.cache.GetUser(ctx, id, s.repo.FindByID)
	} else {
		u, err = s.repo.FindByID(ctx, id)
	}
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, domain.UserNotFound(id)
	}
	return u, nil
}

// GetAllUsers limit/offset 在这里统一约束（utils.ClampPage），两种入口都不再各自处理
func (s *UserService) GetAllUsers(ctx context.Context, limit, offset int) ([]domain.User, error) {
	limit, offset = utils.ClampPage(limit, offset)
	s.log.Info("getting all users", zap.Int("limit", limit), zap.Int("offset", offset))
	return s.repo.FindAll(ctx, limit, offset)
}

func (s *UserService) CreateUser(ctx context.Context, in domain.CreateUserInput) (*domain.User, error) {
	if err := validateCreate(in); err != nil {
		return nil, err
	}
	s.log.Info("creating user", zap.String("username", in.Username))

	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	var created *domain.User
	err = s.repo.Transaction(ctx, func(r domain.UserRepository) error {
		// 先查重（email 优先），唯一索引兜底并发写入
		if u, err := r.FindByEmail(ctx, in.Email); err != nil {
			return err
		} else if u != nil {
			return domain.ErrDuplicateEmail
		}
		if u, err := r.FindByUsername(ctx, in.Username); err != nil {
			return err
		} else if u != nil {
			return domain.ErrDuplicateUsername
		}

		id, err := r.CreateUser(ctx, in.Username, in.Email, hash)
		if err != nil {
			return translateWrite(err)
		}
		u, err := r.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if u == nil {
			return domain.Inconsistent("Failed to create user")
		}
		created = u
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// UpdateUser 0 行受影响时再查一次：行还在视为幂等成功，行已消失才算 UpdateFailed
func (s *UserService) UpdateUser(ctx context.Context, id int64, fields map[string]any) (*domain.User, error) {
	cols, err := updateColumns(fields)
	if err != nil {
		return nil, err
	}
	s.log.Info("updating user", zap.Int64("id", id))

	var updated *domain.User
	err = s.repo.Transaction(ctx, func(r domain.UserRepository) error {
		u, err := r.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if u == nil {
			return domain.UserNotFound(id)
		}
		ok, err := r.Update(ctx, id, cols)
		if err != nil {
			return translateWrite(err)
		}
		fresh, err := r.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if fresh == nil {
			if !ok {
				return domain.ErrUpdateFailed
			}
			return domain.Inconsistent("Failed to retrieve updated user")
		}
		updated = fresh
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, id)
	return updated, nil
}

func (s *UserService) DeleteUser(ctx context.Context, id int64) error {
	s.log.Info("deleting user", zap.Int64("id", id))
	err := s.repo.Transaction(ctx, func(r domain.UserRepository) error {
		u, err := r.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if u == nil {
			return domain.UserNotFound(id)
		}
		ok, err := r.Delete(ctx, id)
		if err != nil {
			return err
		}
		if !ok {
			return domain.ErrDeleteFailed
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.invalidate(ctx, id)
	return nil
}

func (s *UserService) GetUserCount(ctx context.Context) (int64, error) {
	s.log.Info("getting user count")
	return s.repo.Count(ctx)
}

func (s *UserService) invalidate(ctx context.Context, id int64) {
	if s.cache != nil {
		s.cache.Invalidate(ctx, id)
	}
}

var _ domain.UserService = (*UserService)(nil)

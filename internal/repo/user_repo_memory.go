package repo

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go-gin-realtime-crud/internal/domain"
	"go-gin-realtime-crud/internal/feature/user"
	"go-gin-realtime-crud/internal/store"
)

// MemoryUserRepo 进程内实现（db.driver=memory），同样维护 username/email 唯一性。
// Transaction 只做串行化，不支持回滚。
type MemoryUserRepo struct {
	mu   sync.RWMutex
	txMu sync.Mutex
	seq  int64
	rows map[int64]domain.User
}

func NewMemoryUserRepo() *MemoryUserRepo {
	return &MemoryUserRepo{rows: make(map[int64]domain.User)}
}

func (r *MemoryUserRepo) FindByID(_ context.Context, id int64) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.rows[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

// FindAll 按主键升序
func (r *MemoryUserRepo) FindAll(_ context.Context, limit, offset int) ([]domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]int64, 0, len(r.rows))
	for id := range r.rows {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := []domain.User{}
	for i := offset; i < len(ids) && len(out) < limit; i++ {
		out = append(out, r.rows[ids[i]])
	}
	return out, nil
}

func (r *MemoryUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	return r.findBy(func(u domain.User) bool { return u.Email == email }), nil
}

func (r *MemoryUserRepo) FindByUsername(_ context.Context, username string) (*domain.User, error) {
	return r.findBy(func(u domain.User) bool { return u.Username == username }), nil
}

func (r *MemoryUserRepo) CreateUser(_ context.Context, username, email, passwordHash string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.checkUnique(0, username, email); err != nil {
		return 0, err
	}
	r.seq++
	now := time.Now().UTC()
	r.rows[r.seq] = domain.User{
		ID: r.seq, Username: username, Email: email, Password: passwordHash,
		CreatedAt: now, UpdatedAt: now,
	}
	return r.seq, nil
}

func (r *MemoryUserRepo) Update(_ context.Context, id int64, fields map[string]any) (bool, error) {
	if len(fields) == 0 {
		return false, store.ErrNoFields
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.rows[id]
	if !ok {
		return false, nil
	}
	for k, v := range fields {
		s, isStr := v.(string)
		if !isStr {
			return false, fmt.Errorf("%w: column %s expects a string", store.ErrConstraint, k)
		}
		switch k {
		case user.ColUsername:
			u.Username = s
		case user.ColEmail:
			u.Email = s
		case user.ColPassword:
			u.Password = s
		default:
			return false, &store.UnknownColumnError{Column: k}
		}
	}
	if err := r.checkUnique(id, u.Username, u.Email); err != nil {
		return false, err
	}
	u.UpdatedAt = time.Now().UTC()
	r.rows[id] = u
	return true, nil
}

func (r *MemoryUserRepo) UpdatePassword(ctx context.Context, id int64, passwordHash string) (bool, error) {
	return r.Update(ctx, id, map[string]any{user.ColPassword: passwordHash})
}

func (r *MemoryUserRepo) Delete(_ context.Context, id int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[id]; !ok {
		return false, nil
	}
	delete(r.rows, id)
	return true, nil
}

func (r *MemoryUserRepo) Count(_ context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.rows)), nil
}

func (r *MemoryUserRepo) Transaction(_ context.Context, fn func(domain.UserRepository) error) error {
	r.txMu.Lock()
	defer r.txMu.Unlock()
	return fn(r)
}

func (r *MemoryUserRepo) findBy(match func(domain.User) bool) *domain.User {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.rows {
		if match(u) {
			return &u
		}
	}
	return nil
}

// 调用方持有写锁；先查 email 再查 username，两者同时冲突时总是报 email
func (r *MemoryUserRepo) checkUnique(self int64, username, email string) error {
	for id, u := range r.rows {
		if id != self && u.Email == email {
			return &store.DuplicateKeyError{Key: user.IndexEmail}
		}
	}
	for id, u := range r.rows {
		if id != self && u.Username == username {
			return &store.DuplicateKeyError{Key: user.IndexUsername}
		}
	}
	return nil
}

var _ domain.UserRepository = (*MemoryUserRepo)(nil)

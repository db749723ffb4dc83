// Package store 通用的单表 CRUD 访问层：表名与列集合由 Schema 决定，
// 语句由 Builder 拼装，所有值都以占位符绑定。
package store

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

type Store[T any] struct {
	db    *gorm.DB
	b     *Builder
	table string
}

func New[T any](db *gorm.DB, s Schema) *Store[T] {
	return &Store[T]{
		db:    db,
		b:     NewBuilder(s, func(name string) string { return db.Statement.Quote(name) }),
		table: s.Table,
	}
}

// WithTx 复用 Builder，换成事务连接
func (s *Store[T]) WithTx(tx *gorm.DB) *Store[T] {
	return &Store[T]{db: tx, b: s.b, table: s.table}
}

func (s *Store[T]) Transaction(ctx context.Context, fn func(tx *Store[T]) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(s.WithTx(tx))
	})
}

// FindByID 查不到返回 nil, nil
func (s *Store[T]) FindByID(ctx context.Context, id int64) (*T, error) {
	return s.first(ctx, "find by id", s.b.SelectByID(), id)
}

// FindOneBy 单列等值查询，column 必须是 Schema 中的可写列
func (s *Store[T]) FindOneBy(ctx context.Context, column string, value any) (*T, error) {
	q, err := s.b.SelectWhere(column)
	if err != nil {
		return nil, err
	}
	return s.first(ctx, "find by "+column, q, value)
}

// FindAll 不保证顺序；limit/offset 由调用方先行约束
func (s *Store[T]) FindAll(ctx context.Context, limit, offset int) ([]T, error) {
	out := make([]T, 0)
	if err := s.db.WithContext(ctx).Raw(s.b.SelectPage(), limit, offset).Scan(&out).Error; err != nil {
		return nil, s.wrap("find all", err)
	}
	if out == nil {
		out = []T{}
	}
	return out, nil
}

// Create 只写入给定列，返回存储分配的主键
func (s *Store[T]) Create(ctx context.Context, fields map[string]any) (int64, error) {
	q, args, err := s.b.Insert(fields)
	if err != nil {
		return 0, err
	}
	tx := s.db.WithContext(ctx)
	// postgres 驱动不支持 LastInsertId
	if tx.Dialector.Name() == "postgres" {
		var id int64
		if err := tx.Raw(q+" RETURNING "+s.b.IDColumn(), args...).Scan(&id).Error; err != nil {
			return 0, s.wrap("insert", err)
		}
		return id, nil
	}
	res, err := tx.Statement.ConnPool.ExecContext(ctx, q, args...)
	if err != nil {
		return 0, s.wrap("insert", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, s.wrap("insert", err)
	}
	return id, nil
}

// Update 返回是否有行受影响；不区分“行不存在”和“值未变化”
func (s *Store[T]) Update(ctx context.Context, id int64, fields map[string]any) (bool, error) {
	q, args, err := s.b.Update(id, fields)
	if err != nil {
		return false, err
	}
	res := s.db.WithContext(ctx).Exec(q, args...)
	if res.Error != nil {
		return false, s.wrap("update", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (s *Store[T]) DeleteByID(ctx context.Context, id int64) (bool, error) {
	res := s.db.WithContext(ctx).Exec(s.b.DeleteByID(), id)
	if res.Error != nil {
		return false, s.wrap("delete", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (s *Store[T]) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.WithContext(ctx).Raw(s.b.Count()).Scan(&n).Error; err != nil {
		return 0, s.wrap("count", err)
	}
	return n, nil
}

// RawQuery 逃生口：params 一律按位置绑定，禁止把外部输入拼进 statement
func (s *Store[T]) RawQuery(ctx context.Context, statement string, params ...any) ([]map[string]any, error) {
	rows := make([]map[string]any, 0)
	if err := s.db.WithContext(ctx).Raw(statement, params...).Scan(&rows).Error; err != nil {
		return nil, s.wrap("raw query", err)
	}
	return rows, nil
}

func (s *Store[T]) first(ctx context.Context, op, q string, arg any) (*T, error) {
	var out T
	res := s.db.WithContext(ctx).Raw(q, arg).Scan(&out)
	if res.Error != nil {
		return nil, s.wrap(op, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}
	return &out, nil
}

func (s *Store[T]) wrap(op string, err error) error {
	return fmt.Errorf("%s %s: %w", op, s.table, translate(err))
}

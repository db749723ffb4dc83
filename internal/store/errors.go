package store

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var (
	ErrNoFields = errors.New("store: no fields to write")
	// ErrConstraint 存储层拒绝写入（类型不符、超长、非空等），不含唯一键冲突
	ErrConstraint = errors.New("store: constraint violation")
)

type UnknownColumnError struct{ Column string }

func (e *UnknownColumnError) Error() string { return "store: unknown column " + e.Column }

// DuplicateKeyError 唯一索引冲突；Key 为索引名（可能为空）
type DuplicateKeyError struct {
	Key string
	Err error
}

func (e *DuplicateKeyError) Error() string {
	if e.Key == "" {
		return "store: duplicate key"
	}
	return "store: duplicate key " + e.Key
}

func (e *DuplicateKeyError) Unwrap() error { return e.Err }

// mysql 错误码：数据不合法 / 外键 / check 约束
var mysqlConstraintCodes = map[uint16]struct{}{
	1048: {}, 1264: {}, 1292: {}, 1366: {}, 1406: {}, 1451: {}, 1452: {}, 3819: {},
}

func translate(err error) error {
	if err == nil {
		return nil
	}
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		if me.Number == 1062 {
			return &DuplicateKeyError{Key: mysqlDupKey(me.Message), Err: err}
		}
		if _, ok := mysqlConstraintCodes[me.Number]; ok {
			return fmt.Errorf("%w: %v", ErrConstraint, err)
		}
		return err
	}
	var pe *pgconn.PgError
	if errors.As(err, &pe) {
		switch {
		case pe.Code == "23505":
			return &DuplicateKeyError{Key: pe.ConstraintName, Err: err}
		case strings.HasPrefix(pe.Code, "23"), strings.HasPrefix(pe.Code, "22"):
			return fmt.Errorf("%w: %v", ErrConstraint, err)
		}
		return err
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) || isDupKey(err) {
		return &DuplicateKeyError{Err: err}
	}
	return err
}

// Duplicate entry 'a@x.com' for key 'users.idx_users_email'
func mysqlDupKey(msg string) string {
	const marker = "for key '"
	i := strings.LastIndex(msg, marker)
	if i < 0 {
		return ""
	}
	key := strings.TrimSuffix(msg[i+len(marker):], "'")
	if dot := strings.LastIndexByte(key, '.'); dot >= 0 {
		key = key[dot+1:]
	}
	return key
}

// 驱动未知时按报错文本兜底
func isDupKey(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "unique violation")
}

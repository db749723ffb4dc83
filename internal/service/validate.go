package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"go-gin-realtime-crud/internal/domain"
	"go-gin-realtime-crud/internal/feature/user"
	"go-gin-realtime-crud/internal/store"
	"go-gin-realtime-crud/pkg/utils"
)

var validate = validator.New()

func validateEmail(email string) error {
	if err := validate.Var(email, "required,email"); err != nil {
		return domain.Validation("Invalid email format")
	}
	return nil
}

func validatePassword(pw string) error {
	if len(pw) > utils.MaxPasswordBytes {
		return domain.Validation(fmt.Sprintf("Password must be at most %d bytes", utils.MaxPasswordBytes))
	}
	return nil
}

func validateCreate(in domain.CreateUserInput) error {
	if in.Username == "" || in.Email == "" || in.Password == "" {
		return domain.ErrMissingFields
	}
	if err := validateEmail(in.Email); err != nil {
		return err
	}
	return validatePassword(in.Password)
}

// updateColumns 把客户端字段映射为列名；只接受 Schema 白名单，密码先哈希
func updateColumns(fields map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		if _, ro := user.ReadOnly[k]; ro {
			continue
		}
		col, ok := user.Mutable[k]
		if !ok {
			return nil, domain.Validation(fmt.Sprintf("Unknown field: %s", k))
		}
		s, ok := v.(string)
		if !ok || s == "" {
			return nil, domain.Validation(fmt.Sprintf("Field %s must be a non-empty string", k))
		}
		switch col {
		case user.ColEmail:
			if err := validateEmail(s); err != nil {
				return nil, err
			}
		case user.ColPassword:
			if err := validatePassword(s); err != nil {
				return nil, err
			}
			h, err := utils.HashPassword(s)
			if err != nil {
				return nil, fmt.Errorf("hash password: %w", err)
			}
			s = h
		}
		out[col] = s
	}
	if len(out) == 0 {
		return nil, domain.Validation("No updatable fields provided")
	}
	return out, nil
}

// translateWrite 存储层写入错误 -> 业务错误；唯一索引冲突按索引名区分
func translateWrite(err error) error {
	var dk *store.DuplicateKeyError
	if errors.As(err, &dk) {
		switch {
		case strings.Contains(dk.Key, user.ColEmail):
			return &domain.Error{Kind: domain.KindDuplicateEmail, Msg: domain.ErrDuplicateEmail.Msg, Err: err}
		case strings.Contains(dk.Key, user.ColUsername):
			return &domain.Error{Kind: domain.KindDuplicateUsername, Msg: domain.ErrDuplicateUsername.Msg, Err: err}
		}
		return domain.Constraint(err)
	}
	var uc *store.UnknownColumnError
	if errors.As(err, &uc) {
		return domain.Validation(fmt.Sprintf("Unknown field: %s", uc.Column))
	}
	if errors.Is(err, store.ErrConstraint) {
		return domain.Constraint(err)
	}
	return err
}

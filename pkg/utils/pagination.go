package utils

import "strconv"

const (
	DefaultLimit = 100
	MaxLimit     = 1000
)

// ClampPage 统一的分页约束：limit 为 0 视为未指定，取默认值；其余夹到 [1, MaxLimit]，offset >= 0
func ClampPage(limit, offset int) (int, int) {
	switch {
	case limit == 0:
		limit = DefaultLimit
	case limit < 1:
		limit = 1
	case limit > MaxLimit:
		limit = MaxLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// Atoi 解析失败返回 0（即“未指定”）
func Atoi(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}

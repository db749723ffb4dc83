package store

import (
	"fmt"
	"sort"
	"strings"
)

// Schema 表结构白名单：只有这里出现的列名会被拼进 SQL，值一律走占位符
type Schema struct {
	Table    string
	ID       string   // 主键列，默认 "id"
	Columns  []string // SELECT 列（含主键）
	Writable []string // 允许 INSERT / UPDATE 的列
}

// Builder 按 Schema 生成参数化语句；标识符在构造时一次性转义
type Builder struct {
	table    string
	id       string
	cols     string
	writable map[string]string // 原始列名 -> 已转义列名
}

func NewBuilder(s Schema, quote func(string) string) *Builder {
	if s.ID == "" {
		s.ID = "id"
	}
	quoted := make([]string, 0, len(s.Columns))
	for _, c := range s.Columns {
		quoted = append(quoted, quote(c))
	}
	w := make(map[string]string, len(s.Writable))
	for _, c := range s.Writable {
		w[c] = quote(c)
	}
	return &Builder{
		table:    quote(s.Table),
		id:       quote(s.ID),
		cols:     strings.Join(quoted, ", "),
		writable: w,
	}
}

func (b *Builder) SelectByID() string {
	return fmt.Sprintf("SELECT %s FROM %s WHERE %s = ?", b.cols, b.table, b.id)
}

func (b *Builder) SelectPage() string {
	return fmt.Sprintf("SELECT %s FROM %s LIMIT ? OFFSET ?", b.cols, b.table)
}

// SelectWhere 单列等值查询，列名必须在可写白名单里
func (b *Builder) SelectWhere(column string) (string, error) {
	q, ok := b.writable[column]
	if !ok {
		return "", &UnknownColumnError{Column: column}
	}
	return fmt.Sprintf("SELECT %s FROM %s WHERE %s = ? LIMIT 1", b.cols, b.table, q), nil
}

func (b *Builder) Insert(fields map[string]any) (string, []any, error) {
	keys, err := b.keys(fields)
	if err != nil {
		return "", nil, err
	}
	cols := make([]string, len(keys))
	marks := make([]string, len(keys))
	args := make([]any, len(keys))
	for i, k := range keys {
		cols[i] = b.writable[k]
		marks[i] = "?"
		args[i] = fields[k]
	}
	q := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", b.table, strings.Join(cols, ", "), strings.Join(marks, ", "))
	return q, args, nil
}

func (b *Builder) Update(id int64, fields map[string]any) (string, []any, error) {
	keys, err := b.keys(fields)
	if err != nil {
		return "", nil, err
	}
	sets := make([]string, len(keys))
	args := make([]any, 0, len(keys)+1)
	for i, k := range keys {
		sets[i] = b.writable[k] + " = ?"
		args = append(args, fields[k])
	}
	args = append(args, id)
	q := fmt.Sprintf("UPDATE %s SET %s WHERE %s = ?", b.table, strings.Join(sets, ", "), b.id)
	return q, args, nil
}

func (b *Builder) DeleteByID() string {
	return fmt.Sprintf("DELETE FROM %s WHERE %s = ?", b.table, b.id)
}

func (b *Builder) Count() string {
	return fmt.Sprintf("SELECT COUNT(*) AS count FROM %s", b.table)
}

func (b *Builder) IDColumn() string { return b.id }

// keys 校验并排序，保证同一组字段总是生成同一条语句
func (b *Builder) keys(fields map[string]any) ([]string, error) {
	if len(fields) == 0 {
		return nil, ErrNoFields
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		if _, ok := b.writable[k]; !ok {
			return nil, &UnknownColumnError{Column: k}
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func backtick(s string) string { return "`" + s + "`" }

func TestBuilder_Statements(t *testing.T) {
	b := NewBuilder(Schema{
		Table:    "users",
		Columns:  []string{"id", "username", "email"},
		Writable: []string{"username", "email"},
	}, backtick)

	assert.Equal(t, "SELECT `id`, `username`, `email` FROM `users` WHERE `id` = ?", b.SelectByID())
	assert.Equal(t, "SELECT `id`, `username`, `email` FROM `users` LIMIT ? OFFSET ?", b.SelectPage())
	assert.Equal(t, "DELETE FROM `users` WHERE `id` = ?", b.DeleteByID())
	assert.Equal(t, "SELECT COUNT(*) AS count FROM `users`", b.Count())

	ins, args, err := b.Insert(map[string]any{"username": "alice", "email": "a@x.com"})
	require.NoError(t, err)
	assert.Equal(t, "INSERT INTO `users` (`email`, `username`) VALUES (?, ?)", ins)
	assert.Equal(t, []any{"a@x.com", "alice"}, args)

	upd, args, err := b.Update(9, map[string]any{"email": "b@x.com"})
	require.NoError(t, err)
	assert.Equal(t, "UPDATE `users` SET `email` = ? WHERE `id` = ?", upd)
	assert.Equal(t, []any{"b@x.com", int64(9)}, args)
}

func TestBuilder_OnlySchemaIdentifiers(t *testing.T) {
	b := NewBuilder(Schema{Table: "users", Columns: []string{"id", "email"}, Writable: []string{"email"}}, backtick)

	_, _, err := b.Insert(map[string]any{"email = email; --": "x"})
	var uc *UnknownColumnError
	require.ErrorAs(t, err, &uc)

	_, _, err = b.Update(1, nil)
	require.ErrorIs(t, err, ErrNoFields)

	_, err = b.SelectWhere("id")
	require.ErrorAs(t, err, &uc)
}

func TestMySQLDupKey(t *testing.T) {
	assert.Equal(t, "idx_users_email", mysqlDupKey("Duplicate entry 'a@x.com' for key 'users.idx_users_email'"))
	assert.Equal(t, "idx_users_username", mysqlDupKey("Duplicate entry 'alice' for key 'idx_users_username'"))
	assert.Equal(t, "", mysqlDupKey("something else"))
}

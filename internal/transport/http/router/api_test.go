package router

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"go-gin-realtime-crud/internal/repo"
	"go-gin-realtime-crud/internal/service"
	"go-gin-realtime-crud/internal/transport/http/handler"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
}

type apiUser struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	CreatedAt string `json:"createdAt"`
}

func newEngine(t *testing.T) *gin.Engine {
	t.Helper()
	l := zap.NewNop()
	svc := service.NewUserService(repo.NewMemoryUserRepo(), l)
	return NewAPIEngine(l, Options{
		Mode:           gin.TestMode,
		RequestTimeout: 5 * time.Second,
		MaxBodyBytes:   1 << 10,
		MaxInFlight:    8,
	}, handler.NewUserHandler(svc, l))
}

func do(t *testing.T, r http.Handler, method, path, body string) (int, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w.Code, env
}

func TestUserLifecycle(t *testing.T) {
	r := newEngine(t)

	code, env := do(t, r, http.MethodPost, "/api/users", `{"username":"alice","email":"a@x.com","password":"p"}`)
	require.Equal(t, http.StatusCreated, code)
	assert.True(t, env.Success)
	assert.Equal(t, "User created successfully", env.Message)
	var u apiUser
	require.NoError(t, json.Unmarshal(env.Data, &u))
	assert.Positive(t, u.ID)
	assert.Equal(t, "alice", u.Username)
	assert.Empty(t, u.Password, "password hash is never serialized")
	assert.NotEmpty(t, u.CreatedAt)

	path := fmt.Sprintf("/api/users/%d", u.ID)
	code, env = do(t, r, http.MethodGet, path, "")
	require.Equal(t, http.StatusOK, code)
	var got apiUser
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, "a@x.com", got.Email)

	code, env = do(t, r, http.MethodPut, path, `{"email":"alice@x.com"}`)
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, "alice@x.com", got.Email)
	assert.Equal(t, "User updated successfully", env.Message)

	code, env = do(t, r, http.MethodDelete, path, "")
	require.Equal(t, http.StatusOK, code)
	assert.True(t, env.Success)
	assert.Equal(t, "null", string(env.Data))

	code, env = do(t, r, http.MethodGet, path, "")
	assert.Equal(t, http.StatusNotFound, code)
	assert.False(t, env.Success)
	assert.Equal(t, fmt.Sprintf("User with ID %d not found", u.ID), env.Error)
}

func TestCreateUser_Errors(t *testing.T) {
	r := newEngine(t)

	code, env := do(t, r, http.MethodPost, "/api/users", `{"username":"alice","email":"a@x.com"}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Username, email, and password are required", env.Error)

	code, _ = do(t, r, http.MethodPost, "/api/users", `{"username":"alice","email":"a@x.com","password":"p"}`)
	require.Equal(t, http.StatusCreated, code)

	code, env = do(t, r, http.MethodPost, "/api/users", `{"username":"bob","email":"a@x.com","password":"p"}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "User with this email already exists", env.Error)

	code, env = do(t, r, http.MethodPost, "/api/users", `{"username":"alice","email":"b@x.com","password":"p"}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "User with this username already exists", env.Error)

	code, env = do(t, r, http.MethodPost, "/api/users", `{not json`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Invalid JSON body", env.Error)

	big := `{"username":"` + strings.Repeat("x", 2048) + `"}`
	code, env = do(t, r, http.MethodPost, "/api/users", big)
	assert.Equal(t, http.StatusRequestEntityTooLarge, code)
	assert.Equal(t, "Request body too large", env.Error)
}

func TestCreateUser_PasswordLength(t *testing.T) {
	r := newEngine(t)

	code, env := do(t, r, http.MethodPost, "/api/users",
		`{"username":"alice","email":"a@x.com","password":"`+strings.Repeat("x", 73)+`"}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Password must be at most 72 bytes", env.Error)

	code, _ = do(t, r, http.MethodPost, "/api/users",
		`{"username":"alice","email":"a@x.com","password":"`+strings.Repeat("x", 72)+`"}`)
	assert.Equal(t, http.StatusCreated, code)
}

func TestUpdateDelete_NotFoundAndBadID(t *testing.T) {
	r := newEngine(t)

	code, env := do(t, r, http.MethodPut, "/api/users/99", `{"username":"x"}`)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "User with ID 99 not found", env.Error)

	code, _ = do(t, r, http.MethodDelete, "/api/users/99", "")
	assert.Equal(t, http.StatusNotFound, code)

	code, env = do(t, r, http.MethodGet, "/api/users/abc", "")
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Invalid user id", env.Error)
}

func TestListAndCount(t *testing.T) {
	r := newEngine(t)
	for i := 0; i < 3; i++ {
		code, _ := do(t, r, http.MethodPost, "/api/users",
			fmt.Sprintf(`{"username":"u%d","email":"u%d@x.com","password":"p"}`, i, i))
		require.Equal(t, http.StatusCreated, code)
	}

	code, env := do(t, r, http.MethodGet, "/api/users?limit=2&offset=0", "")
	require.Equal(t, http.StatusOK, code)
	var users []apiUser
	require.NoError(t, json.Unmarshal(env.Data, &users))
	assert.Len(t, users, 2)
	assert.Equal(t, "Users retrieved successfully", env.Message)

	code, env = do(t, r, http.MethodGet, "/api/users?limit=junk&offset=-5", "")
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(env.Data, &users))
	assert.Len(t, users, 3)

	code, env = do(t, r, http.MethodGet, "/api/users/stats/count", "")
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"count":3}`, string(env.Data))
}

func TestListEmptyIsArray(t *testing.T) {
	r := newEngine(t)
	_, env := do(t, r, http.MethodGet, "/api/users", "")
	assert.Equal(t, "[]", string(env.Data))
}

func TestHealthAndNoRoute(t *testing.T) {
	r := newEngine(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var h struct {
		Status    string `json:"status"`
		Timestamp string `json:"timestamp"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &h))
	assert.Equal(t, "OK", h.Status)
	_, err := time.Parse(time.RFC3339Nano, h.Timestamp)
	assert.NoError(t, err)

	code, env := do(t, r, http.MethodGet, "/nope", "")
	assert.Equal(t, http.StatusNotFound, code)
	assert.False(t, env.Success)
	assert.Equal(t, "Route not found", env.Error)
}

type orderMod struct {
	name string
	prio int
	seen *[]string
}

func (m orderMod) MountAPI(*gin.RouterGroup) { *m.seen = append(*m.seen, m.name) }
func (m orderMod) Priority() int             { return m.prio }

func TestMountAll_Priority(t *testing.T) {
	var seen []string
	g := gin.New().Group("/api")
	MountAll(g, orderMod{"late", 200, &seen}, orderMod{"early", 10, &seen}, orderMod{"mid", 100, &seen})
	assert.Equal(t, []string{"early", "mid", "late"}, seen)
}

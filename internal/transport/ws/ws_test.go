package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"go-gin-realtime-crud/internal/repo"
	"go-gin-realtime-crud/internal/service"
)

type frame struct {
	Event string          `json:"event"`
	Ack   string          `json:"ack"`
	Data  json.RawMessage `json:"data"`
}

type ackData struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func newTestServer(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()
	l := zap.NewNop()
	svc := service.NewUserService(repo.NewMemoryUserRepo(), l)
	hub := NewHub(l)
	srv := httptest.NewServer(NewServer(hub, NewDispatcher(svc, hub, l), "*"))
	t.Cleanup(func() {
		hub.Close()
		srv.Close()
	})
	return hub, srv
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func send(t *testing.T, c *websocket.Conn, event, ack string, data any) {
	t.Helper()
	require.NoError(t, c.WriteJSON(map[string]any{"event": event, "ack": ack, "data": data}))
}

func read(t *testing.T, c *websocket.Conn) frame {
	t.Helper()
	require.NoError(t, c.SetReadDeadline(time.Now().Add(3*time.Second)))
	var f frame
	require.NoError(t, c.ReadJSON(&f))
	return f
}

func readAck(t *testing.T, c *websocket.Conn, id string) ackData {
	t.Helper()
	f := read(t, c)
	require.Equal(t, EventAck, f.Event)
	require.Equal(t, id, f.Ack)
	var a ackData
	require.NoError(t, json.Unmarshal(f.Data, &a))
	return a
}

func TestCreateBroadcastsToOtherPeers(t *testing.T) {
	hub, srv := newTestServer(t)
	creator := dial(t, srv)
	peer := dial(t, srv)
	require.Eventually(t, func() bool { return hub.Len() == 2 }, 2*time.Second, 10*time.Millisecond)

	send(t, creator, EventCreate, "1", map[string]string{"username": "alice", "email": "a@x.com", "password": "p"})

	// 推送先于回执入队：creator 收到的第一帧就是回执，说明没有收到自己的推送
	a := readAck(t, creator, "1")
	require.True(t, a.Success, a.Error)
	var u struct {
		ID       int64  `json:"id"`
		Username string `json:"username"`
		Password string `json:"password"`
	}
	require.NoError(t, json.Unmarshal(a.Data, &u))
	assert.Equal(t, "alice", u.Username)
	assert.Empty(t, u.Password)

	f := read(t, peer)
	assert.Equal(t, EventCreated, f.Event)
	var pushed struct {
		User struct {
			ID int64 `json:"id"`
		} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(f.Data, &pushed))
	assert.Equal(t, u.ID, pushed.User.ID)

	send(t, creator, EventUpdate, "2", map[string]any{"id": u.ID, "updates": map[string]string{"username": "al"}})
	a = readAck(t, creator, "2")
	require.True(t, a.Success, a.Error)
	f = read(t, peer)
	assert.Equal(t, EventUpdated, f.Event)

	send(t, creator, EventDelete, "3", map[string]any{"id": u.ID})
	a = readAck(t, creator, "3")
	require.True(t, a.Success, a.Error)
	assert.Empty(t, a.Data)
	f = read(t, peer)
	assert.Equal(t, EventDeleted, f.Event)
	assert.JSONEq(t, `{"id":`+jsonInt(u.ID)+`}`, string(f.Data))
}

func TestErrorsAreAcked(t *testing.T) {
	_, srv := newTestServer(t)
	c := dial(t, srv)

	send(t, c, EventGet, "1", map[string]any{"id": 42})
	a := readAck(t, c, "1")
	assert.False(t, a.Success)
	assert.Equal(t, "User with ID 42 not found", a.Error)

	send(t, c, EventCreate, "2", map[string]string{"username": "bob"})
	a = readAck(t, c, "2")
	assert.Equal(t, "Username, email, and password are required", a.Error)

	send(t, c, "user:explode", "3", nil)
	a = readAck(t, c, "3")
	assert.False(t, a.Success)
	assert.Equal(t, "Unknown event: user:explode", a.Error)

	send(t, c, EventDelete, "4", "not an object")
	a = readAck(t, c, "4")
	assert.Equal(t, "Invalid payload", a.Error)
}

func TestNoAckNoReply(t *testing.T) {
	_, srv := newTestServer(t)
	c := dial(t, srv)

	send(t, c, EventCreate, "", map[string]string{"username": "a", "email": "a@x.com", "password": "p"})

	// 无 ack 的消息不回复：收到的每一帧都应是 count 的回执
	var count string
	for i := 0; i < 50 && count != `{"count":1}`; i++ {
		send(t, c, EventCount, "c", nil)
		count = string(readAck(t, c, "c").Data)
		time.Sleep(10 * time.Millisecond)
	}
	require.Equal(t, `{"count":1}`, count)

	send(t, c, EventGetAll, "all", map[string]any{"limit": "10"})
	a := readAck(t, c, "all")
	require.True(t, a.Success)
	var users []map[string]any
	require.NoError(t, json.Unmarshal(a.Data, &users))
	assert.Len(t, users, 1)
}

func TestHubClose_RejectsNewConnections(t *testing.T) {
	hub, srv := newTestServer(t)
	c := dial(t, srv)
	require.Eventually(t, func() bool { return hub.Len() == 1 }, 2*time.Second, 10*time.Millisecond)

	hub.Close()
	require.NoError(t, c.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := c.ReadMessage()
	assert.Error(t, err)
	require.Eventually(t, func() bool { return hub.Len() == 0 }, 2*time.Second, 10*time.Millisecond)

	late := dial(t, srv)
	require.NoError(t, late.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err = late.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway))
}

func TestOriginChecker(t *testing.T) {
	req := func(origin string) *http.Request {
		r := httptest.NewRequest(http.MethodGet, "/ws", nil)
		if origin != "" {
			r.Header.Set("Origin", origin)
		}
		return r
	}

	check := originChecker("http://localhost:3000, https://app.example.com/")
	assert.True(t, check(req("http://localhost:3000")))
	assert.True(t, check(req("https://app.example.com")))
	assert.False(t, check(req("http://evil.example.com")))
	assert.True(t, check(req("")))

	assert.True(t, originChecker("*")(req("http://anything")))
}

func TestRelay_SkipsOwnInstance(t *testing.T) {
	r := NewRelay(nil, "ch", zap.NewNop())
	var got []string
	deliver := func(origin string, frame []byte) { got = append(got, origin+"|"+string(frame)) }

	own, _ := json.Marshal(relayMsg{Instance: r.instance, Origin: "a", Frame: json.RawMessage(`{"event":"user:created"}`)})
	other, _ := json.Marshal(relayMsg{Instance: "other", Origin: "b", Frame: json.RawMessage(`{"event":"user:deleted"}`)})

	r.handle(string(own), deliver)
	r.handle(string(other), deliver)
	r.handle("garbage", deliver)
	assert.Equal(t, []string{`b|{"event":"user:deleted"}`}, got)
}

type recordingPublisher struct{ frames [][]byte }

func (p *recordingPublisher) Publish(_ context.Context, _ string, frame []byte) error {
	p.frames = append(p.frames, frame)
	return nil
}

func TestHubPublish_ForwardsToRelay(t *testing.T) {
	hub := NewHub(zap.NewNop())
	p := &recordingPublisher{}
	hub.SetRelay(p)

	hub.Publish(context.Background(), "origin", EventDeleted, map[string]int64{"id": 5})
	require.Len(t, p.frames, 1)
	assert.JSONEq(t, `{"event":"user:deleted","data":{"id":5}}`, string(p.frames[0]))
}

func jsonInt(n int64) string {
	b, _ := json.Marshal(n)
	return string(b)
}

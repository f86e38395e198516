package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/obotesoftech/prisonreturns/internal/logging"
	"github.com/obotesoftech/prisonreturns/internal/mq"
	"github.com/obotesoftech/prisonreturns/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T, sessions map[string]types.Session) (*Hub, string) {
	t.Helper()
	hub := NewHub(logging.Discard())
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session := sessions[r.URL.Query().Get("who")]
		_ = hub.Serve(w, r, session)
	}))
	t.Cleanup(func() {
		hub.Close()
		srv.Close()
	})
	return hub, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitForClients(t *testing.T, hub *Hub, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return hub.Clients() == n }, 2*time.Second, 10*time.Millisecond)
}

func readFrame(t *testing.T, conn *websocket.Conn) Frame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var frame Frame
	require.NoError(t, conn.ReadJSON(&frame))
	return frame
}

func TestBroadcastReachesClients(t *testing.T) {
	sessions := map[string]types.Session{
		"admin": {Identifier: "admin@example.com", Role: types.RoleAdmin},
	}
	hub, url := startHub(t, sessions)
	a := dial(t, url+"?who=admin")
	b := dial(t, url+"?who=admin")
	waitForClients(t, hub, 2)

	n := hub.Broadcast(Frame{Type: "ping", Data: json.RawMessage(`{"n":1}`)}, nil)
	assert.Equal(t, 2, n)

	for _, conn := range []*websocket.Conn{a, b} {
		frame := readFrame(t, conn)
		assert.Equal(t, "ping", frame.Type)
		assert.JSONEq(t, `{"n":1}`, string(frame.Data))
	}
}

func TestRelayAppliesReturnVisibility(t *testing.T) {
	sessions := map[string]types.Session{
		"admin": {Identifier: "admin@example.com", Role: types.RoleAdmin},
		"kigo":  {Identifier: "kigo_m@prison.go.ug", Role: types.RoleClerk},
		"gulu":  {Identifier: "gulu_m@prison.go.ug", Role: types.RoleClerk},
	}
	hub, url := startHub(t, sessions)
	admin := dial(t, url+"?who=admin")
	kigo := dial(t, url+"?who=kigo")
	gulu := dial(t, url+"?who=gulu")
	waitForClients(t, hub, 3)

	data, err := json.Marshal(types.ReturnRecord{ID: 7, Station: "Kigo (M)", SubmittedBy: "kigo_m@prison.go.ug"})
	require.NoError(t, err)
	handler := hub.Relay(ReturnVisibility)
	require.NoError(t, handler(context.Background(), mq.Message{
		Data:       data,
		Attributes: map[string]string{mq.AttrEvent: "return.submitted"},
	}))

	assert.Equal(t, "return.submitted", readFrame(t, admin).Type)
	assert.Equal(t, "return.submitted", readFrame(t, kigo).Type)

	require.NoError(t, gulu.SetReadDeadline(time.Now().Add(200*time.Millisecond)))
	_, _, err = gulu.ReadMessage()
	assert.Error(t, err, "other stations do not see the return")
}

func TestChatAudience(t *testing.T) {
	data, err := json.Marshal(types.ChatMessage{ID: 1, Sender: "alice", Message: "hi"})
	require.NoError(t, err)
	filter := ChatAudience(mq.Message{Data: data})

	assert.False(t, filter(types.Session{}), "not signed in to chat")
	assert.False(t, filter(types.Session{Chat: &types.ChatIdentity{DisplayName: "alice"}}))
	assert.True(t, filter(types.Session{Chat: &types.ChatIdentity{DisplayName: "bob"}}))

	bad := ChatAudience(mq.Message{Data: []byte("{")})
	assert.False(t, bad(types.Session{Chat: &types.ChatIdentity{DisplayName: "bob"}}))
}

func TestDisconnectRemovesClient(t *testing.T) {
	hub, url := startHub(t, map[string]types.Session{})
	conn := dial(t, url)
	waitForClients(t, hub, 1)

	require.NoError(t, conn.Close())
	waitForClients(t, hub, 0)
}

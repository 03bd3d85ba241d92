package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mw "vendor-chat/internal/middleware"
)

// identityFromQuery stands in for the JWT middleware: it trusts ?id, ?name
// and ?party so tests can impersonate either side of a conversation.
func identityFromQuery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := context.WithValue(r.Context(), mw.ParticipantKey, r.URL.Query().Get("id"))
		ctx = context.WithValue(ctx, mw.NameKey, r.URL.Query().Get("name"))
		ctx = context.WithValue(ctx, mw.PartyKey, r.URL.Query().Get("party"))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func newTestServer(t *testing.T, store MessageStore) (*httptest.Server, *Hub) {
	t.Helper()
	hub := NewHub(zerolog.Nop(), nil)
	svc := NewService(store, hub, zerolog.Nop())
	handler := NewHandler(svc, zerolog.Nop())

	r := chi.NewRouter()
	r.Use(identityFromQuery)
	r.Get("/conversation/messages", handler.GetConversation)
	r.Post("/conversation/message", handler.PostMessage)
	r.Get("/ws", handler.ServeWs)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, hub
}

func dialWs(t *testing.T, srv *httptest.Server, id, party string) *websocket.Conn {
	t.Helper()
	url := strings.Replace(srv.URL, "http", "ws", 1) +
		"/ws?id=" + id + "&name=" + id + "&party=" + party
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func writeEvent(t *testing.T, conn *websocket.Conn, event string, data any) {
	t.Helper()
	payload, err := NewEvent(event, data)
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, payload))
}

func readEvent(t *testing.T, conn *websocket.Conn) Event {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)

	var ev Event
	require.NoError(t, json.Unmarshal(raw, &ev))
	return ev
}

func TestWebsocketConversation(t *testing.T) {
	srv, hub := newTestServer(t, &memStore{})

	vendor := dialWs(t, srv, "v1", "Vendor")
	agent := dialWs(t, srv, "a1", "Agent")

	writeEvent(t, vendor, EventJoinRoom, joinRoomPayload{VendorID: "v1", AgentID: "a1"})
	writeEvent(t, agent, EventJoinRoom, joinRoomPayload{VendorID: "v1", AgentID: "a1"})

	require.Eventually(t, func() bool {
		return hub.RoomSize("v1", "a1") == 2
	}, 2*time.Second, 10*time.Millisecond, "both connections join the room")

	writeEvent(t, vendor, EventSendMessage, sendMessagePayload{Receiver: "a1", Text: "hello over ws"})

	for _, conn := range []*websocket.Conn{vendor, agent} {
		ev := readEvent(t, conn)
		require.Equal(t, EventReceiveMessage, ev.Event)

		var msg Message
		require.NoError(t, json.Unmarshal(ev.Data, &msg))
		assert.Equal(t, "hello over ws", msg.Text)
		assert.Equal(t, "v1", msg.Sender)
		assert.Equal(t, PartyVendor, msg.SenderType)
	}
}

func TestWebsocketEmptyTextRejected(t *testing.T) {
	srv, hub := newTestServer(t, &memStore{})

	vendor := dialWs(t, srv, "v1", "Vendor")
	writeEvent(t, vendor, EventJoinRoom, joinRoomPayload{VendorID: "v1", AgentID: "a1"})
	require.Eventually(t, func() bool {
		return hub.RoomSize("v1", "a1") == 1
	}, 2*time.Second, 10*time.Millisecond)

	writeEvent(t, vendor, EventSendMessage, sendMessagePayload{Receiver: "a1", Text: ""})

	ev := readEvent(t, vendor)
	assert.Equal(t, EventError, ev.Event)
}

func TestWebsocketDisconnectLeavesRooms(t *testing.T) {
	srv, hub := newTestServer(t, &memStore{})

	vendor := dialWs(t, srv, "v1", "Vendor")
	writeEvent(t, vendor, EventJoinRoom, joinRoomPayload{VendorID: "v1", AgentID: "a1"})
	require.Eventually(t, func() bool {
		return hub.RoomSize("v1", "a1") == 1
	}, 2*time.Second, 10*time.Millisecond)

	// Abrupt close, no leave message: the read pump cleans up.
	vendor.Close()
	require.Eventually(t, func() bool {
		return hub.RoomSize("v1", "a1") == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestWebsocketRejectsUnknownParty(t *testing.T) {
	srv, _ := newTestServer(t, &memStore{})

	url := strings.Replace(srv.URL, "http", "ws", 1) + "/ws?id=x&name=x&party=Admin"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(raw))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestPostMessageAndHistory(t *testing.T) {
	srv, _ := newTestServer(t, &memStore{})

	resp := postJSON(t, srv.URL+"/conversation/message?id=v1&name=V&party=Vendor",
		postMessageRequest{Receiver: "a1", Text: "hi"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var stored Message
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&stored))
	assert.Equal(t, "v1", stored.Sender)
	assert.Equal(t, PartyVendor, stored.SenderType)
	assert.Equal(t, PartyAgent, stored.ReceiverType)
	assert.NotEmpty(t, stored.ID)

	histResp, err := http.Get(srv.URL + "/conversation/messages?id=a1&name=A&party=Agent&vendorId=v1&agentId=a1")
	require.NoError(t, err)
	defer histResp.Body.Close()
	require.Equal(t, http.StatusOK, histResp.StatusCode)

	var history []Message
	require.NoError(t, json.NewDecoder(histResp.Body).Decode(&history))
	require.Len(t, history, 1)
	assert.Equal(t, stored.ID, history[0].ID)
}

func TestPostMessageEmptyText(t *testing.T) {
	srv, _ := newTestServer(t, &memStore{})

	resp := postJSON(t, srv.URL+"/conversation/message?id=v1&name=V&party=Vendor",
		postMessageRequest{Receiver: "a1", Text: ""})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestPostMessageStoreDown(t *testing.T) {
	srv, _ := newTestServer(t, downStore{})

	resp := postJSON(t, srv.URL+"/conversation/message?id=v1&name=V&party=Vendor",
		postMessageRequest{Receiver: "a1", Text: "hi"})
	// The sender must learn the message was not delivered.
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestGetConversationMissingParams(t *testing.T) {
	srv, _ := newTestServer(t, &memStore{})

	resp, err := http.Get(srv.URL + "/conversation/messages?id=v1&name=V&party=Vendor&vendorId=v1")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetConversationStoreDown(t *testing.T) {
	srv, _ := newTestServer(t, downStore{})

	resp, err := http.Get(srv.URL + "/conversation/messages?id=v1&name=V&party=Vendor&vendorId=v1&agentId=a1")
	require.NoError(t, err)
	defer resp.Body.Close()
	// Retryable, not silent.
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

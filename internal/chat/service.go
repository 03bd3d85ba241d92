package chat

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog"
)

// Wire events on the live channel.
const (
	EventJoinRoom       = "joinRoom"
	EventSendMessage    = "sendMessage"
	EventReceiveMessage = "receiveMessage"
	EventError          = "error"
)

type Event struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

func NewEvent(event string, data any) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Event{Event: event, Data: raw})
}

// Service orchestrates the store and the hub. It holds no state of its own;
// both the REST endpoints and the websocket path go through it, so persist
// and publish always happen together under one error path.
type Service struct {
	store MessageStore
	hub   *Hub
	log   zerolog.Logger
}

func NewService(store MessageStore, hub *Hub, log zerolog.Logger) *Service {
	return &Service{store: store, hub: hub, log: log}
}

// Send persists the message, then publishes the stored record (id and
// timestamp included, so clients can dedupe against history) to the pair's
// room. If the append fails nothing is published and the caller gets the
// error: the sender must never believe an unstored message was delivered.
// The reverse hole doesn't exist — publish can't fail, it can only reach
// zero connections, and the message is already durable by then.
func (s *Service) Send(ctx context.Context, in NewMessage) (*Message, error) {
	msg, err := s.store.Append(ctx, in)
	if err != nil {
		return nil, err
	}

	payload, err := NewEvent(EventReceiveMessage, msg)
	if err != nil {
		// Marshalling a stored message can't realistically fail; if it
		// does, the message is still durable and readable from history.
		s.log.Error().Err(err).Stringer("id", msg.ID).Msg("encode publish payload")
		return msg, nil
	}
	s.hub.Publish(msg.Sender, msg.Receiver, payload)

	return msg, nil
}

// Join subscribes the connection to the pair's room. Callers must join
// before fetching history: a message published after the join at worst
// shows up twice (history and live) and is deduped by id, never lost.
func (s *Service) Join(c *Client, vendorID, agentID string) {
	s.hub.Join(c, vendorID, agentID)
}

// Leave drops the connection from every room. Runs on any disconnect.
func (s *Service) Leave(c *Client) {
	s.hub.Leave(c)
}

// History returns the pair's full conversation, oldest first.
func (s *Service) History(ctx context.Context, vendorID, agentID string) ([]Message, error) {
	return s.store.QueryConversation(ctx, vendorID, agentID)
}

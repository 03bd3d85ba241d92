package chat

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	writeWait      = 10 * time.Second    // Time allowed to write a message to the peer.
	pongWait       = 60 * time.Second    // Time allowed to read the next pong message from the peer.
	pingPeriod     = (pongWait * 9) / 10 // Send pings to peer with this period. Must be less than pongWait.
	maxMessageSize = 4096                // Maximum message size allowed from peer.
)

// Client is one live connection: the middleman between a websocket and the
// hub. Identity comes from the authenticated request that upgraded the
// connection, never from the wire.
type Client struct {
	svc  *Service
	conn *websocket.Conn

	// send is written through trySend and closed through closeSend only,
	// so an eviction racing an error push can't hit a closed channel.
	send   chan []byte
	mu     sync.Mutex
	closed bool

	ParticipantID string
	Name          string
	Party         PartyType

	log zerolog.Logger
}

// trySend queues payload without blocking. False means the buffer is full
// or the connection is already being torn down.
func (c *Client) trySend(payload []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- payload:
		return true
	default:
		return false
	}
}

// closeSend stops the write pump. Safe to call more than once.
func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

func NewClient(svc *Service, conn *websocket.Conn, id, name string, party PartyType, log zerolog.Logger) *Client {
	return &Client{
		svc:           svc,
		conn:          conn,
		send:          make(chan []byte, 256),
		ParticipantID: id,
		Name:          name,
		Party:         party,
		log:           log,
	}
}

type joinRoomPayload struct {
	VendorID string `json:"vendorId"`
	AgentID  string `json:"agentId"`
}

type sendMessagePayload struct {
	Receiver string `json:"receiver"`
	Text     string `json:"text"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// readPump pumps events from the websocket into the service. One pump per
// connection, so a connection's successive sends stay FIFO.
func (c *Client) readPump() {
	defer func() {
		// Covers clean closes and abrupt network loss alike.
		c.svc.Leave(c)
		c.closeSend()
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.log.Debug().Err(err).Msg("websocket closed unexpectedly")
			}
			return
		}

		var ev Event
		if err := json.Unmarshal(raw, &ev); err != nil {
			c.sendError("malformed event")
			continue
		}
		c.dispatch(ev)
	}
}

func (c *Client) dispatch(ev Event) {
	switch ev.Event {
	case EventJoinRoom:
		var p joinRoomPayload
		if err := json.Unmarshal(ev.Data, &p); err != nil || p.VendorID == "" || p.AgentID == "" {
			c.sendError("joinRoom requires vendorId and agentId")
			return
		}
		c.svc.Join(c, p.VendorID, p.AgentID)

	case EventSendMessage:
		var p sendMessagePayload
		if err := json.Unmarshal(ev.Data, &p); err != nil {
			c.sendError("malformed sendMessage payload")
			return
		}
		// Sender identity is the connection's, not the payload's.
		in := NewMessage{
			Sender:       c.ParticipantID,
			SenderType:   c.Party,
			Receiver:     p.Receiver,
			ReceiverType: c.Party.Counterpart(),
			Text:         p.Text,
		}
		if _, err := c.svc.Send(context.Background(), in); err != nil {
			c.sendError(err.Error())
		}

	default:
		c.sendError("unknown event: " + ev.Event)
	}
}

// sendError pushes an error event at this connection only. Best effort: if
// the buffer is full the client is about to be evicted anyway.
func (c *Client) sendError(msg string) {
	payload, err := NewEvent(EventError, errorPayload{Message: msg})
	if err != nil {
		return
	}
	c.trySend(payload)
}

// writePump pumps payloads from the hub onto the websocket and keeps the
// connection alive with pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub evicted us.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(payload)

			// Drain whatever else is queued in one writer to save syscalls.
			n := len(c.send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.send)
			}

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Run starts both pumps. Returns immediately.
func (c *Client) Run() {
	go c.writePump()
	go c.readPump()
}

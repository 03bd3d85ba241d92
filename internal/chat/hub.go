package chat

import (
	"sync"

	"github.com/rs/zerolog"
)

// Hub routes live payloads to the connections currently joined to a room.
// It is constructed explicitly and injected where needed; there is no
// package-level instance.
//
// All state lives behind one mutex. Every operation is a short map update
// or a non-blocking channel send, so a single lock domain is enough.
type Hub struct {
	mu      sync.Mutex
	rooms   map[string]map[*Client]struct{}
	members map[*Client]map[string]struct{}

	bridge *Bridge // nil in single-instance mode
	log    zerolog.Logger
}

func NewHub(log zerolog.Logger, bridge *Bridge) *Hub {
	return &Hub{
		rooms:   make(map[string]map[*Client]struct{}),
		members: make(map[*Client]map[string]struct{}),
		bridge:  bridge,
		log:     log,
	}
}

// Join adds c to the room for the {vendorID, agentID} pair. Rooms come into
// being on first join; joining an already-joined room is a no-op.
func (h *Hub) Join(c *Client, vendorID, agentID string) {
	room := RoomKey(vendorID, agentID)

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.rooms[room] == nil {
		h.rooms[room] = make(map[*Client]struct{})
	}
	h.rooms[room][c] = struct{}{}

	if h.members[c] == nil {
		h.members[c] = make(map[string]struct{})
	}
	h.members[c][room] = struct{}{}

	h.log.Debug().Str("room", room).Msg("client joined room")
}

// Leave removes c from every room it belongs to. Called from the read pump's
// defer, so it runs on clean close and abrupt network loss alike.
func (h *Hub) Leave(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.remove(c)
}

// Publish delivers payload to every connection currently in the pair's room,
// the sender's own connections included (keeps multi-tab views consistent).
// Zero recipients is a normal outcome: the counterpart is offline and will
// catch up from history.
func (h *Hub) Publish(senderID, receiverID string, payload []byte) {
	room := RoomKey(senderID, receiverID)
	delivered := h.deliverLocal(room, payload)

	if h.bridge != nil {
		h.bridge.Broadcast(room, payload)
	}

	if delivered == 0 && h.bridge == nil {
		h.log.Debug().Str("room", room).Msg("publish reached no connections")
	}
}

// deliverLocal fans payload out to the room's local members. A member whose
// send buffer is full is evicted rather than allowed to stall the room; the
// remaining members still get the payload.
func (h *Hub) deliverLocal(room string, payload []byte) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	delivered := 0
	for c := range h.rooms[room] {
		if c.trySend(payload) {
			delivered++
			continue
		}
		h.log.Warn().Str("room", room).Msg("evicting slow client")
		h.remove(c)
		c.closeSend()
	}
	return delivered
}

// remove drops c from all rooms and the reverse index. Caller holds h.mu.
// Idempotent: a client already removed (evicted) is not tracked anymore.
func (h *Hub) remove(c *Client) {
	rooms, ok := h.members[c]
	if !ok {
		return
	}
	for room := range rooms {
		delete(h.rooms[room], c)
		if len(h.rooms[room]) == 0 {
			delete(h.rooms, room)
		}
	}
	delete(h.members, c)
}

// RoomSize reports the current number of connections in the pair's room.
func (h *Hub) RoomSize(vendorID, agentID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.rooms[RoomKey(vendorID, agentID)])
}

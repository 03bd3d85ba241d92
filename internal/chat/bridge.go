package chat

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const bridgeChannel = "vendor-chat:fanout"

// Bridge relays room publishes between server instances over Redis pub/sub,
// so a vendor connected to one instance reaches an agent connected to
// another. Each instance tags its envelopes with an origin id and ignores
// its own, local delivery having already happened in Hub.Publish.
type Bridge struct {
	rdb    *redis.Client
	origin string
	log    zerolog.Logger
}

type bridgeEnvelope struct {
	Origin  string          `json:"origin"`
	Room    string          `json:"room"`
	Payload json.RawMessage `json:"payload"`
}

func NewBridge(rdb *redis.Client, log zerolog.Logger) *Bridge {
	return &Bridge{
		rdb:    rdb,
		origin: uuid.NewString(),
		log:    log,
	}
}

// Broadcast forwards a room payload to the other instances.
func (b *Bridge) Broadcast(room string, payload []byte) {
	env, _ := json.Marshal(bridgeEnvelope{
		Origin:  b.origin,
		Room:    room,
		Payload: payload,
	})
	if err := b.rdb.Publish(context.Background(), bridgeChannel, env).Err(); err != nil {
		b.log.Error().Err(err).Str("room", room).Msg("bridge publish failed")
	}
}

// Run subscribes to the fan-out channel and delivers remote publishes to the
// local members of each room. Blocks until ctx is cancelled.
func (b *Bridge) Run(ctx context.Context, hub *Hub) {
	pubsub := b.rdb.Subscribe(ctx, bridgeChannel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var env bridgeEnvelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				b.log.Error().Err(err).Msg("bridge: bad envelope")
				continue
			}
			if env.Origin == b.origin {
				continue
			}
			hub.deliverLocal(env.Room, env.Payload)
		}
	}
}

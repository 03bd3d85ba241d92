package chat

import "context"

// MessageStore is the durable, append-only record of every message.
// No update or delete: a stored message is immutable.
type MessageStore interface {
	// Append validates in, assigns id and creation timestamp, stores the
	// record and returns it. errs.ValidationError for bad input,
	// errs.PersistenceError when the store is unavailable.
	Append(ctx context.Context, in NewMessage) (*Message, error)

	// QueryConversation returns every message between the pair, in either
	// direction, ordered by creation time ascending (insertion sequence
	// breaks ties). An empty conversation yields an empty slice, not an
	// error.
	QueryConversation(ctx context.Context, vendorID, agentID string) ([]Message, error)
}

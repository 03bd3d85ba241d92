package chat

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"vendor-chat/internal/errs"
)

// Repository is the Postgres-backed MessageStore.
type Repository struct {
	db *sql.DB
}

var _ MessageStore = (*Repository)(nil)

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Append(ctx context.Context, in NewMessage) (*Message, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	msg := &Message{
		ID:           uuid.New(),
		Sender:       in.Sender,
		SenderType:   in.SenderType,
		Receiver:     in.Receiver,
		ReceiverType: in.ReceiverType,
		Text:         in.Text,
	}

	query := `
		INSERT INTO messages (id, sender, sender_type, receiver, receiver_type, text)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING seq, created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		msg.ID, msg.Sender, msg.SenderType, msg.Receiver, msg.ReceiverType, msg.Text,
	).Scan(&msg.Seq, &msg.CreatedAt)
	if err != nil {
		return nil, errs.Persistence("append message", err)
	}

	return msg, nil
}

func (r *Repository) QueryConversation(ctx context.Context, vendorID, agentID string) ([]Message, error) {
	query := `
		SELECT id, seq, sender, sender_type, receiver, receiver_type, text, created_at
		FROM messages
		WHERE (sender = $1 AND receiver = $2) OR (sender = $2 AND receiver = $1)
		ORDER BY created_at ASC, seq ASC
	`
	rows, err := r.db.QueryContext(ctx, query, vendorID, agentID)
	if err != nil {
		return nil, errs.Persistence("query conversation", err)
	}
	defer rows.Close()

	messages := []Message{}
	for rows.Next() {
		var msg Message
		if err := rows.Scan(
			&msg.ID, &msg.Seq, &msg.Sender, &msg.SenderType,
			&msg.Receiver, &msg.ReceiverType, &msg.Text, &msg.CreatedAt,
		); err != nil {
			return nil, errs.Persistence("scan message", err)
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.Persistence("query conversation", err)
	}
	return messages, nil
}

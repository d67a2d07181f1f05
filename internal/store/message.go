package store

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/messagely/apiserver/types"
)

const messageNotFound = "message not found"

// MessageRepository handles persistence for messages.
type MessageRepository struct {
	db *sqlx.DB
}

func NewMessageRepository(db *sqlx.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

// Create inserts an unread message stamped with the store's current time.
// Unknown usernames fail on the foreign keys and surface as not found.
func (r *MessageRepository) Create(ctx context.Context, msg types.Message) (types.Message, error) {
	const query = `
		INSERT INTO messages (from_username, to_username, body, sent_at)
		VALUES ($1, $2, $3, current_timestamp)
		RETURNING id, from_username, to_username, body, sent_at, read_at`
	var created types.Message
	if err := r.db.GetContext(ctx, &created, query, msg.FromUsername, msg.ToUsername, msg.Body); err != nil {
		return types.Message{}, translate(err, messageNotFound)
	}
	return created, nil
}

// Get returns the message with both endpoints hydrated.
func (r *MessageRepository) Get(ctx context.Context, id int64) (types.MessageDetail, error) {
	const query = `
		SELECT m.id, m.body, m.sent_at, m.read_at,
		       f.username   AS "from_user.username",
		       f.first_name AS "from_user.first_name",
		       f.last_name  AS "from_user.last_name",
		       f.phone      AS "from_user.phone",
		       t.username   AS "to_user.username",
		       t.first_name AS "to_user.first_name",
		       t.last_name  AS "to_user.last_name",
		       t.phone      AS "to_user.phone"
		FROM messages AS m
		JOIN users AS f ON f.username = m.from_username
		JOIN users AS t ON t.username = m.to_username
		WHERE m.id = $1`
	var detail types.MessageDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return types.MessageDetail{}, translate(err, messageNotFound)
	}
	return detail, nil
}

// MarkRead stamps read_at on first call; later calls keep the original stamp.
func (r *MessageRepository) MarkRead(ctx context.Context, id int64) (types.ReadReceipt, error) {
	const query = `
		UPDATE messages
		SET read_at = COALESCE(read_at, current_timestamp)
		WHERE id = $1
		RETURNING id, read_at`
	var receipt types.ReadReceipt
	if err := r.db.GetContext(ctx, &receipt, query, id); err != nil {
		return types.ReadReceipt{}, translate(err, messageNotFound)
	}
	return receipt, nil
}

package types

import "time"

// Message is a direct message exactly as it is stored.
// Messages are append-only; ReadAt is the only field that changes after creation.
type Message struct {
	// ID is assigned by the store on creation.
	ID int64 `json:"id" db:"id"`

	// FromUsername references the sending user.
	FromUsername string `json:"from_username" db:"from_username"`

	// ToUsername references the receiving user.
	ToUsername string `json:"to_username" db:"to_username"`

	// Body is the message text.
	Body string `json:"body" db:"body"`

	// SentAt is set once by the store when the message is created.
	SentAt time.Time `json:"sent_at" db:"sent_at"`

	// ReadAt is nil until the recipient marks the message as read.
	ReadAt *time.Time `json:"read_at" db:"read_at"`
}

// MessageDetail is a message with both endpoints hydrated to public profiles.
type MessageDetail struct {
	ID       int64       `json:"id" db:"id"`
	Body     string      `json:"body" db:"body"`
	SentAt   time.Time   `json:"sent_at" db:"sent_at"`
	ReadAt   *time.Time  `json:"read_at" db:"read_at"`
	FromUser UserProfile `json:"from_user" db:"from_user"`
	ToUser   UserProfile `json:"to_user" db:"to_user"`
}

// SentMessage is an entry of a user's outbox, hydrated with the recipient.
type SentMessage struct {
	ID     int64       `json:"id" db:"id"`
	ToUser UserProfile `json:"to_user" db:"to_user"`
	Body   string      `json:"body" db:"body"`
	SentAt time.Time   `json:"sent_at" db:"sent_at"`
	ReadAt *time.Time  `json:"read_at" db:"read_at"`
}

// ReceivedMessage is an entry of a user's inbox, hydrated with the sender.
type ReceivedMessage struct {
	ID       int64       `json:"id" db:"id"`
	FromUser UserProfile `json:"from_user" db:"from_user"`
	Body     string      `json:"body" db:"body"`
	SentAt   time.Time   `json:"sent_at" db:"sent_at"`
	ReadAt   *time.Time  `json:"read_at" db:"read_at"`
}

// ReadReceipt is the result of marking a message as read.
type ReadReceipt struct {
	ID     int64     `json:"id" db:"id"`
	ReadAt time.Time `json:"read_at" db:"read_at"`
}

// MailboxExport describes an archived copy of a user's messages.
type MailboxExport struct {
	Bucket   string `json:"bucket"`
	Key      string `json:"key"`
	Sent     int    `json:"sent"`
	Received int    `json:"received"`
}

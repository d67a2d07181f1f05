package store

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/messagely/apiserver/internal/apperr"
	"github.com/messagely/apiserver/types"
)

const userNotFound = "user not found"

// UserRepository handles persistence for users.
type UserRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a user whose password is already hashed.
// The store stamps join_at and last_login_at with the same server time.
func (r *UserRepository) Create(ctx context.Context, user types.User) (types.User, error) {
	const query = `
		INSERT INTO users (username, password, first_name, last_name, phone, join_at, last_login_at)
		VALUES ($1, $2, $3, $4, $5, current_timestamp, current_timestamp)
		RETURNING username, password, first_name, last_name, phone, join_at, last_login_at`
	var created types.User
	err := r.db.GetContext(
		ctx,
		&created,
		query,
		user.Username,
		user.Password,
		user.FirstName,
		user.LastName,
		user.Phone,
	)
	if err != nil {
		err = translate(err, userNotFound)
		if apperr.Is(err, apperr.CodeConflict) {
			return types.User{}, apperr.Wrap(apperr.CodeConflict, "username already exists", err)
		}
		return types.User{}, err
	}
	return created, nil
}

// PasswordHash returns the stored credential for username.
func (r *UserRepository) PasswordHash(ctx context.Context, username string) (string, error) {
	const query = `SELECT password FROM users WHERE username = $1`
	var hash string
	if err := r.db.GetContext(ctx, &hash, query, username); err != nil {
		return "", translate(err, userNotFound)
	}
	return hash, nil
}

func (r *UserRepository) UpdateLoginTimestamp(ctx context.Context, username string) (types.LoginStamp, error) {
	const query = `
		UPDATE users
		SET last_login_at = current_timestamp
		WHERE username = $1
		RETURNING username, last_login_at`
	var stamp types.LoginStamp
	if err := r.db.GetContext(ctx, &stamp, query, username); err != nil {
		return types.LoginStamp{}, translate(err, userNotFound)
	}
	return stamp, nil
}

func (r *UserRepository) List(ctx context.Context) ([]types.UserProfile, error) {
	const query = `
		SELECT username, first_name, last_name, phone
		FROM users
		ORDER BY username`
	users := make([]types.UserProfile, 0)
	if err := r.db.SelectContext(ctx, &users, query); err != nil {
		return nil, translate(err, userNotFound)
	}
	return users, nil
}

// Get returns the user without its password hash.
func (r *UserRepository) Get(ctx context.Context, username string) (types.User, error) {
	const query = `
		SELECT username, first_name, last_name, phone, join_at, last_login_at
		FROM users
		WHERE username = $1`
	var user types.User
	if err := r.db.GetContext(ctx, &user, query, username); err != nil {
		return types.User{}, translate(err, userNotFound)
	}
	return user, nil
}

// MessagesFrom lists the messages sent by username, one entry per message,
// each with its own recipient profile.
func (r *UserRepository) MessagesFrom(ctx context.Context, username string) ([]types.SentMessage, error) {
	const query = `
		SELECT m.id, m.body, m.sent_at, m.read_at,
		       u.username   AS "to_user.username",
		       u.first_name AS "to_user.first_name",
		       u.last_name  AS "to_user.last_name",
		       u.phone      AS "to_user.phone"
		FROM messages AS m
		JOIN users AS u ON u.username = m.to_username
		WHERE m.from_username = $1
		ORDER BY m.id`
	messages := make([]types.SentMessage, 0)
	if err := r.db.SelectContext(ctx, &messages, query, username); err != nil {
		return nil, translate(err, userNotFound)
	}
	return messages, nil
}

// MessagesTo lists the messages received by username, one entry per message,
// each with its own sender profile.
func (r *UserRepository) MessagesTo(ctx context.Context, username string) ([]types.ReceivedMessage, error) {
	const query = `
		SELECT m.id, m.body, m.sent_at, m.read_at,
		       u.username   AS "from_user.username",
		       u.first_name AS "from_user.first_name",
		       u.last_name  AS "from_user.last_name",
		       u.phone      AS "from_user.phone"
		FROM messages AS m
		JOIN users AS u ON u.username = m.from_username
		WHERE m.to_username = $1
		ORDER BY m.id`
	messages := make([]types.ReceivedMessage, 0)
	if err := r.db.SelectContext(ctx, &messages, query, username); err != nil {
		return nil, translate(err, userNotFound)
	}
	return messages, nil
}

package store

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/messagely/apiserver/internal/apperr"
	"github.com/messagely/apiserver/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	joinedAt = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	sentAt   = time.Date(2024, 3, 2, 8, 30, 0, 0, time.UTC)
)

func TestUserRepository_Create(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	q := `(?s)^\s*INSERT\s+INTO\s+users\s*\(username,\s*password,\s*first_name,\s*last_name,\s*phone,\s*join_at,\s*last_login_at\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3,\s*\$4,\s*\$5,\s*current_timestamp,\s*current_timestamp\)\s*RETURNING .*$`
	rows := sqlmock.NewRows([]string{"username", "password", "first_name", "last_name", "phone", "join_at", "last_login_at"}).
		AddRow("alice", "$2a$hash", "Alice", "Liddell", "555-0100", joinedAt, joinedAt)
	mock.ExpectQuery(q).
		WithArgs("alice", "$2a$hash", "Alice", "Liddell", "555-0100").
		WillReturnRows(rows)

	got, err := repo.Create(context.Background(), types.User{
		Username:  "alice",
		Password:  "$2a$hash",
		FirstName: "Alice",
		LastName:  "Liddell",
		Phone:     "555-0100",
	})
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)
	assert.Equal(t, "$2a$hash", got.Password)
	assert.Equal(t, joinedAt, got.JoinAt)
	assert.Equal(t, got.JoinAt, got.LastLoginAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_Create_DuplicateUsername(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectQuery(`INSERT\s+INTO\s+users`).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "users_pkey"})

	_, err := repo.Create(context.Background(), types.User{Username: "alice", Password: "h"})
	require.Error(t, err)
	assert.Equal(t, apperr.CodeConflict, apperr.CodeOf(err))
	assert.Contains(t, err.Error(), "username already exists")
}

func TestUserRepository_PasswordHash(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewUserRepository(db)

		mock.ExpectQuery(`SELECT\s+password\s+FROM\s+users\s+WHERE\s+username\s*=\s*\$1`).
			WithArgs("alice").
			WillReturnRows(sqlmock.NewRows([]string{"password"}).AddRow("$2a$hash"))

		hash, err := repo.PasswordHash(context.Background(), "alice")
		require.NoError(t, err)
		assert.Equal(t, "$2a$hash", hash)
	})

	t.Run("missing", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewUserRepository(db)

		mock.ExpectQuery(`SELECT\s+password\s+FROM\s+users`).
			WithArgs("ghost").
			WillReturnError(sql.ErrNoRows)

		_, err := repo.PasswordHash(context.Background(), "ghost")
		assert.True(t, apperr.Is(err, apperr.CodeNotFound))
	})
}

func TestUserRepository_UpdateLoginTimestamp(t *testing.T) {
	t.Run("updated", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewUserRepository(db)

		later := joinedAt.Add(time.Hour)
		mock.ExpectQuery(`(?s)UPDATE\s+users\s+SET\s+last_login_at\s*=\s*current_timestamp\s+WHERE\s+username\s*=\s*\$1\s+RETURNING\s+username,\s*last_login_at`).
			WithArgs("alice").
			WillReturnRows(sqlmock.NewRows([]string{"username", "last_login_at"}).AddRow("alice", later))

		stamp, err := repo.UpdateLoginTimestamp(context.Background(), "alice")
		require.NoError(t, err)
		assert.Equal(t, types.LoginStamp{Username: "alice", LastLoginAt: later}, stamp)
	})

	t.Run("unknown user", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewUserRepository(db)

		mock.ExpectQuery(`UPDATE\s+users`).
			WithArgs("ghost").
			WillReturnRows(sqlmock.NewRows([]string{"username", "last_login_at"}))

		_, err := repo.UpdateLoginTimestamp(context.Background(), "ghost")
		assert.True(t, apperr.Is(err, apperr.CodeNotFound))
	})
}

func TestUserRepository_List(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectQuery(`(?s)SELECT\s+username,\s*first_name,\s*last_name,\s*phone\s+FROM\s+users\s+ORDER\s+BY\s+username`).
		WillReturnRows(sqlmock.NewRows([]string{"username", "first_name", "last_name", "phone"}).
			AddRow("alice", "Alice", "Liddell", "555-0100").
			AddRow("bob", "Bob", "Builder", "555-0101"))

	users, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []types.UserProfile{
		{Username: "alice", FirstName: "Alice", LastName: "Liddell", Phone: "555-0100"},
		{Username: "bob", FirstName: "Bob", LastName: "Builder", Phone: "555-0101"},
	}, users)
}

func TestUserRepository_Get(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewUserRepository(db)

		mock.ExpectQuery(`(?s)SELECT\s+username,\s*first_name,\s*last_name,\s*phone,\s*join_at,\s*last_login_at\s+FROM\s+users\s+WHERE\s+username\s*=\s*\$1`).
			WithArgs("alice").
			WillReturnRows(sqlmock.NewRows([]string{"username", "first_name", "last_name", "phone", "join_at", "last_login_at"}).
				AddRow("alice", "Alice", "Liddell", "555-0100", joinedAt, joinedAt))

		user, err := repo.Get(context.Background(), "alice")
		require.NoError(t, err)
		assert.Equal(t, "Liddell", user.LastName)
		assert.Empty(t, user.Password)
	})

	t.Run("missing", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewUserRepository(db)

		mock.ExpectQuery(`FROM\s+users`).
			WithArgs("ghost").
			WillReturnError(sql.ErrNoRows)

		_, err := repo.Get(context.Background(), "ghost")
		assert.True(t, apperr.Is(err, apperr.CodeNotFound))
	})
}

func TestUserRepository_MessagesFrom_OneEntryPerMessage(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	cols := []string{"id", "body", "sent_at", "read_at",
		"to_user.username", "to_user.first_name", "to_user.last_name", "to_user.phone"}
	readAt := sentAt.Add(time.Minute)
	mock.ExpectQuery(`(?s)FROM\s+messages\s+AS\s+m\s+JOIN\s+users\s+AS\s+u\s+ON\s+u\.username\s*=\s*m\.to_username\s+WHERE\s+m\.from_username\s*=\s*\$1`).
		WithArgs("alice").
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow(int64(1), "hi bob", sentAt, readAt, "bob", "Bob", "Builder", "555-0101").
			AddRow(int64(2), "hi carol", sentAt, nil, "carol", "Carol", "Danvers", "555-0102"))

	msgs, err := repo.MessagesFrom(context.Background(), "alice")
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "bob", msgs[0].ToUser.Username)
	assert.Equal(t, &readAt, msgs[0].ReadAt)
	assert.Equal(t, types.UserProfile{Username: "carol", FirstName: "Carol", LastName: "Danvers", Phone: "555-0102"}, msgs[1].ToUser)
	assert.Nil(t, msgs[1].ReadAt)
}

func TestUserRepository_MessagesTo(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	cols := []string{"id", "body", "sent_at", "read_at",
		"from_user.username", "from_user.first_name", "from_user.last_name", "from_user.phone"}
	mock.ExpectQuery(`(?s)JOIN\s+users\s+AS\s+u\s+ON\s+u\.username\s*=\s*m\.from_username\s+WHERE\s+m\.to_username\s*=\s*\$1`).
		WithArgs("bob").
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow(int64(1), "hi bob", sentAt, nil, "alice", "Alice", "Liddell", "555-0100").
			AddRow(int64(3), "yo bob", sentAt, nil, "carol", "Carol", "Danvers", "555-0102"))

	msgs, err := repo.MessagesTo(context.Background(), "bob")
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "alice", msgs[0].FromUser.Username)
	assert.Equal(t, "carol", msgs[1].FromUser.Username)
}

func TestUserRepository_MessagesTo_Empty(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectQuery(`FROM\s+messages`).
		WithArgs("bob").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	msgs, err := repo.MessagesTo(context.Background(), "bob")
	require.NoError(t, err)
	assert.NotNil(t, msgs)
	assert.Empty(t, msgs)
}

package services

import (
	"context"
	"io"

	"github.com/messagely/apiserver/internal/events"
	"github.com/messagely/apiserver/types"
	"github.com/stretchr/testify/mock"
)

// MockUserRepository is a mock implementation of UserRepository.
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user types.User) (types.User, error) {
	args := m.Called(ctx, user)
	return args.Get(0).(types.User), args.Error(1)
}

func (m *MockUserRepository) PasswordHash(ctx context.Context, username string) (string, error) {
	args := m.Called(ctx, username)
	return args.String(0), args.Error(1)
}

func (m *MockUserRepository) UpdateLoginTimestamp(ctx context.Context, username string) (types.LoginStamp, error) {
	args := m.Called(ctx, username)
	return args.Get(0).(types.LoginStamp), args.Error(1)
}

func (m *MockUserRepository) List(ctx context.Context) ([]types.UserProfile, error) {
	args := m.Called(ctx)
	return args.Get(0).([]types.UserProfile), args.Error(1)
}

func (m *MockUserRepository) Get(ctx context.Context, username string) (types.User, error) {
	args := m.Called(ctx, username)
	return args.Get(0).(types.User), args.Error(1)
}

func (m *MockUserRepository) MessagesFrom(ctx context.Context, username string) ([]types.SentMessage, error) {
	args := m.Called(ctx, username)
	return args.Get(0).([]types.SentMessage), args.Error(1)
}

func (m *MockUserRepository) MessagesTo(ctx context.Context, username string) ([]types.ReceivedMessage, error) {
	args := m.Called(ctx, username)
	return args.Get(0).([]types.ReceivedMessage), args.Error(1)
}

// MockMessageRepository is a mock implementation of MessageRepository.
type MockMessageRepository struct {
	mock.Mock
}

func (m *MockMessageRepository) Create(ctx context.Context, msg types.Message) (types.Message, error) {
	args := m.Called(ctx, msg)
	return args.Get(0).(types.Message), args.Error(1)
}

func (m *MockMessageRepository) Get(ctx context.Context, id int64) (types.MessageDetail, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(types.MessageDetail), args.Error(1)
}

func (m *MockMessageRepository) MarkRead(ctx context.Context, id int64) (types.ReadReceipt, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(types.ReadReceipt), args.Error(1)
}

// MockNotifier is a mock implementation of Notifier.
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Notify(ctx context.Context, event events.MessageEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

// MockObjectStore is a mock implementation of ObjectStore that keeps the last upload.
type MockObjectStore struct {
	mock.Mock
	body []byte
}

func (m *MockObjectStore) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.body = data
	args := m.Called(ctx, key, size, contentType)
	return args.Error(0)
}

func (m *MockObjectStore) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(io.ReadCloser), args.Error(1)
}

func (m *MockObjectStore) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockObjectStore) Bucket() string {
	return "exports-test"
}

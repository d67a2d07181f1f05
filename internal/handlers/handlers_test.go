package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/messagely/apiserver/internal/services"
	"github.com/messagely/apiserver/types"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

type MockAccounts struct {
	mock.Mock
}

func (m *MockAccounts) Register(ctx context.Context, in services.RegisterInput) (types.User, error) {
	args := m.Called(ctx, in)
	return args.Get(0).(types.User), args.Error(1)
}

func (m *MockAccounts) Authenticate(ctx context.Context, username, password string) (bool, error) {
	args := m.Called(ctx, username, password)
	return args.Bool(0), args.Error(1)
}

func (m *MockAccounts) UpdateLoginTimestamp(ctx context.Context, username string) (types.LoginStamp, error) {
	args := m.Called(ctx, username)
	return args.Get(0).(types.LoginStamp), args.Error(1)
}

type MockDirectory struct {
	mock.Mock
}

func (m *MockDirectory) All(ctx context.Context) ([]types.UserProfile, error) {
	args := m.Called(ctx)
	return args.Get(0).([]types.UserProfile), args.Error(1)
}

func (m *MockDirectory) Get(ctx context.Context, username string) (types.User, error) {
	args := m.Called(ctx, username)
	return args.Get(0).(types.User), args.Error(1)
}

func (m *MockDirectory) MessagesFrom(ctx context.Context, username string) ([]types.SentMessage, error) {
	args := m.Called(ctx, username)
	return args.Get(0).([]types.SentMessage), args.Error(1)
}

func (m *MockDirectory) MessagesTo(ctx context.Context, username string) ([]types.ReceivedMessage, error) {
	args := m.Called(ctx, username)
	return args.Get(0).([]types.ReceivedMessage), args.Error(1)
}

type MockExporter struct {
	mock.Mock
}

func (m *MockExporter) Export(ctx context.Context, username string) (types.MailboxExport, error) {
	args := m.Called(ctx, username)
	return args.Get(0).(types.MailboxExport), args.Error(1)
}

func (m *MockExporter) Fetch(ctx context.Context, username, key string) ([]byte, error) {
	args := m.Called(ctx, username, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockExporter) Remove(ctx context.Context, username, key string) error {
	args := m.Called(ctx, username, key)
	return args.Error(0)
}

type MockExchange struct {
	mock.Mock
}

func (m *MockExchange) Create(ctx context.Context, in services.NewMessage) (types.Message, error) {
	args := m.Called(ctx, in)
	return args.Get(0).(types.Message), args.Error(1)
}

func (m *MockExchange) GetFor(ctx context.Context, id int64, requester string) (types.MessageDetail, error) {
	args := m.Called(ctx, id, requester)
	return args.Get(0).(types.MessageDetail), args.Error(1)
}

func (m *MockExchange) MarkReadFor(ctx context.Context, id int64, requester string) (types.ReadReceipt, error) {
	args := m.Called(ctx, id, requester)
	return args.Get(0).(types.ReadReceipt), args.Error(1)
}

type testAPI struct {
	router    *chi.Mux
	accounts  *MockAccounts
	directory *MockDirectory
	exporter  *MockExporter
	exchange  *MockExchange
}

func newTestAPI() *testAPI {
	api := &testAPI{
		accounts:  new(MockAccounts),
		directory: new(MockDirectory),
		exporter:  new(MockExporter),
		exchange:  new(MockExchange),
	}

	auth := RequireAuth(testSecret)
	router := chi.NewRouter()
	router.Get("/healthz", Healthz)
	router.Route("/auth", func(r chi.Router) {
		AuthRouter(r, NewAuthHandler(api.accounts, testSecret, time.Hour, nil))
	})
	router.Route("/users", func(r chi.Router) {
		UserRouter(r, NewUserHandler(api.directory, api.exporter, nil), auth)
	})
	router.Route("/messages", func(r chi.Router) {
		MessageRouter(r, NewMessageHandler(api.exchange, nil), auth)
	})
	api.router = router
	return api
}

func (a *testAPI) do(t *testing.T, method, path, body, username string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if username != "" {
		token, err := issueToken(username, []byte(testSecret), time.Hour)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dst))
}

func newRequest(method, path, authorization string) (*http.Request, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, path, nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	return req, httptest.NewRecorder()
}

package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/messagely/apiserver/config"
	"github.com/messagely/apiserver/internal/logger"
	"github.com/messagely/apiserver/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_RequiresJWTSecret(t *testing.T) {
	_, err := New(context.Background(), config.Config{}, logger.Noop())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
}

func TestNewRouter(t *testing.T) {
	svcs := Services{
		Users:    services.NewUserService(nil, 4, nil),
		Messages: services.NewMessageService(nil, nil, nil),
		Exports:  services.NewExportService(nil, nil, nil),
	}
	router := NewRouter(svcs, "secret", time.Hour, logger.Noop())

	tests := []struct {
		method string
		path   string
		want   int
	}{
		{http.MethodGet, "/healthz", http.StatusOK},
		{http.MethodGet, "/users", http.StatusUnauthorized},
		{http.MethodGet, "/users/alice/from", http.StatusUnauthorized},
		{http.MethodPost, "/messages", http.StatusUnauthorized},
		{http.MethodGet, "/messages/1", http.StatusUnauthorized},
		{http.MethodGet, "/nope", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
			assert.Equal(t, tt.want, rec.Code)
			assert.NotEmpty(t, rec.Header().Get("Content-Type"))
		})
	}
}

package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/messagely/apiserver/internal/apperr"
	"github.com/messagely/apiserver/internal/logger"
	"github.com/messagely/apiserver/internal/storage"
	"github.com/messagely/apiserver/types"
)

const (
	exportContentType = "application/json"
	exportNotFound    = "export not found"

	// maxExportBytes bounds how much of a stored export Fetch will read.
	maxExportBytes = 32 << 20
)

// Mailbox reads a user's sent and received messages.
type Mailbox interface {
	MessagesFrom(ctx context.Context, username string) ([]types.SentMessage, error)
	MessagesTo(ctx context.Context, username string) ([]types.ReceivedMessage, error)
}

// ObjectStore is the subset of storage.Storage used for exports.
type ObjectStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	Bucket() string
}

type mailboxDocument struct {
	Username   string                  `json:"username"`
	ExportedAt time.Time               `json:"exported_at"`
	Sent       []types.SentMessage     `json:"sent"`
	Received   []types.ReceivedMessage `json:"received"`
}

// ExportService archives a user's mailbox to object storage.
type ExportService struct {
	mailbox Mailbox
	store   ObjectStore
	logger  *logger.Logger
	now     func() time.Time
}

// NewExportService constructs an ExportService. A nil store disables exports.
func NewExportService(mailbox Mailbox, store ObjectStore, log *logger.Logger) *ExportService {
	if log == nil {
		log = logger.Noop()
	}
	return &ExportService{
		mailbox: mailbox,
		store:   store,
		logger:  log,
		now:     time.Now,
	}
}

// Export writes one JSON document holding every message sent and received by username.
func (s *ExportService) Export(ctx context.Context, username string) (types.MailboxExport, error) {
	if s.store == nil {
		return types.MailboxExport{}, apperr.Unavailable("mailbox export is not configured")
	}

	sent, err := s.mailbox.MessagesFrom(ctx, username)
	if err != nil {
		return types.MailboxExport{}, err
	}
	received, err := s.mailbox.MessagesTo(ctx, username)
	if err != nil {
		return types.MailboxExport{}, err
	}

	now := s.now().UTC()
	data, err := json.Marshal(mailboxDocument{
		Username:   username,
		ExportedAt: now,
		Sent:       sent,
		Received:   received,
	})
	if err != nil {
		return types.MailboxExport{}, apperr.Wrap(apperr.CodeInternal, "failed to encode export", err)
	}

	key := exportKey(username, now)
	if err := s.store.Put(ctx, key, bytes.NewReader(data), int64(len(data)), exportContentType); err != nil {
		return types.MailboxExport{}, apperr.Wrap(apperr.CodeInternal, "failed to upload export", err)
	}

	s.logger.InfoContext(ctx, "mailbox exported", "username", username, "key", key, "bytes", len(data))
	return types.MailboxExport{
		Bucket:   s.store.Bucket(),
		Key:      key,
		Sent:     len(sent),
		Received: len(received),
	}, nil
}

// Fetch returns the stored export document at key. Keys outside the
// user's own export prefix are reported as not found.
func (s *ExportService) Fetch(ctx context.Context, username, key string) ([]byte, error) {
	if s.store == nil {
		return nil, apperr.Unavailable("mailbox export is not configured")
	}
	if !ownsExport(username, key) {
		return nil, apperr.NotFound(exportNotFound)
	}

	rc, err := s.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, apperr.Wrap(apperr.CodeNotFound, exportNotFound, err)
		}
		return nil, apperr.Wrap(apperr.CodeInternal, "failed to read export", err)
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, maxExportBytes))
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, "failed to read export", err)
	}
	return data, nil
}

// Remove deletes the export at key. Removing a missing export succeeds.
func (s *ExportService) Remove(ctx context.Context, username, key string) error {
	if s.store == nil {
		return apperr.Unavailable("mailbox export is not configured")
	}
	if !ownsExport(username, key) {
		return apperr.NotFound(exportNotFound)
	}
	if err := s.store.Delete(ctx, key); err != nil {
		return apperr.Wrap(apperr.CodeInternal, "failed to delete export", err)
	}
	s.logger.InfoContext(ctx, "mailbox export removed", "username", username, "key", key)
	return nil
}

func exportPrefix(username string) string {
	return "exports/" + username + "/"
}

func exportKey(username string, at time.Time) string {
	return fmt.Sprintf("%s%04d/%02d/%02d/%s.json", exportPrefix(username), at.Year(), at.Month(), at.Day(), uuid.NewString())
}

func ownsExport(username, key string) bool {
	return strings.HasPrefix(key, exportPrefix(username)) &&
		strings.HasSuffix(key, ".json") &&
		!strings.Contains(key, "..")
}

package mq

import (
	"context"
	"errors"
	"testing"

	"github.com/messagely/apiserver/config"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	published []string
	handler   Handler
	closed    bool
}

func (f *fakeBackend) Publish(_ context.Context, channel string, _ []byte, _ map[string]string) (string, error) {
	f.published = append(f.published, channel)
	return "id-1", nil
}

func (f *fakeBackend) Subscribe(_ context.Context, _ string, handler Handler) error {
	f.handler = handler
	return nil
}

func (f *fakeBackend) Close() error {
	f.closed = true
	return nil
}

func TestMQ_DelegatesToBackend(t *testing.T) {
	backend := &fakeBackend{}
	q := New(backend)

	id, err := q.Publish(context.Background(), "message.created", []byte("{}"), nil)
	require.NoError(t, err)
	assert.Equal(t, "id-1", id)
	assert.Equal(t, []string{"message.created"}, backend.published)

	require.NoError(t, q.Subscribe(context.Background(), "message.created", func(context.Context, Message) error {
		return errors.New("retry")
	}))
	assert.Error(t, backend.handler(context.Background(), Message{}))

	require.NoError(t, q.Close())
	assert.True(t, backend.closed)
}

func TestOpen(t *testing.T) {
	q, err := Open(context.Background(), config.MQConfig{})
	require.NoError(t, err)
	assert.Nil(t, q)

	_, err = Open(context.Background(), config.MQConfig{Backend: "kafka"})
	assert.EqualError(t, err, `unknown mq backend "kafka"`)

	_, err = Open(context.Background(), config.MQConfig{Backend: "rabbitmq"})
	assert.Error(t, err)

	_, err = Open(context.Background(), config.MQConfig{Backend: "pubsub"})
	assert.Error(t, err)
}

func TestHeadersToAttributes(t *testing.T) {
	attrs := headersToAttributes(amqp.Table{
		"type":    "message.read",
		"raw":     []byte("bytes"),
		"attempt": int32(2),
	})

	assert.Equal(t, map[string]string{
		"type":    "message.read",
		"raw":     "bytes",
		"attempt": "2",
	}, attrs)
	assert.Empty(t, headersToAttributes(nil))
}

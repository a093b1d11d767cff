package kafka

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/MAKORA-ltd/anime-play/pkg/checksum"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	mu     sync.Mutex
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func TestNewProducer_Validate(t *testing.T) {
	_, err := NewProducer(&Config{})
	assert.ErrorIs(t, err, ErrEmptyTopic)
}

func TestProducer_Publish(t *testing.T) {
	w := &fakeWriter{}
	var order []string
	mw := func(name string) ProducerMiddleware {
		return func(ctx context.Context, msg *Message, next PublishFunc) error {
			order = append(order, name)
			return next(ctx, msg)
		}
	}

	p, err := NewProducer(&Config{Topic: "anime.events"},
		WithWriter(w),
		WithMiddleware(mw("outer"), mw("inner"), TracingMiddleware("test")),
	)
	require.NoError(t, err)

	err = p.Publish(context.Background(), &Message{
		Key:     []byte("42"),
		Value:   []byte(`{"type":"capture"}`),
		Headers: map[string]string{"event_type": "capture"},
	})
	require.NoError(t, err)

	require.Len(t, w.msgs, 1)
	assert.Equal(t, "anime.events", w.msgs[0].Topic)
	assert.Equal(t, []byte("42"), w.msgs[0].Key)
	assert.Equal(t, []string{"outer", "inner"}, order)
	assert.EqualValues(t, 1, p.Stats().MessagesSucceeded)

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
	assert.ErrorIs(t, p.Publish(context.Background(), &Message{}), ErrProducerClosed)
}

func TestChecksumMiddleware(t *testing.T) {
	w := &fakeWriter{}
	p, err := NewProducer(&Config{Topic: "t"}, WithWriter(w), WithMiddleware(ChecksumMiddleware(checksum.Default())))
	require.NoError(t, err)

	require.NoError(t, p.Publish(context.Background(), &Message{Value: []byte("123456789")}))
	require.Len(t, w.msgs, 1)

	headers := map[string]string{}
	for _, h := range w.msgs[0].Headers {
		headers[h.Key] = string(h.Value)
	}
	assert.Equal(t, "e3069283", headers[HeaderChecksum])
	assert.Equal(t, "crc32c", headers[HeaderChecksumAlg])
}

func TestProducer_PublishFailure(t *testing.T) {
	w := &fakeWriter{err: errors.New("broker down")}
	p, err := NewProducer(&Config{Topic: "t"}, WithWriter(w))
	require.NoError(t, err)

	assert.Error(t, p.Publish(context.Background(), &Message{Value: []byte("x")}))
	assert.EqualValues(t, 1, p.Stats().MessagesFailed)
}

func TestNewSASLMechanism(t *testing.T) {
	m, err := newSASLMechanism(&SASLConfig{Mechanism: "scram-sha-512", Username: "u", Password: "p"})
	require.NoError(t, err)
	assert.Equal(t, "SCRAM-SHA-512", m.Name())

	_, err = newSASLMechanism(&SASLConfig{Mechanism: "GSSAPI", Username: "u"})
	assert.Error(t, err)
}

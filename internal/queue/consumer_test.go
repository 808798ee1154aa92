package queue

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConsumerHandle_AppendsLine(t *testing.T) {
	c := NewConsumer("amqp://unused", "", slog.New(slog.NewTextHandler(io.Discard, nil)))
	c.LogPath = filepath.Join(t.TempDir(), "logs", "reservation.log")
	assert.Equal(t, DefaultQueue, c.Queue)

	ev := ReservationEvent{
		ReservationID: 7,
		CabinID:       1,
		CustomerID:    3,
		Action:        ActionCreated,
		Status:        "pending",
		CheckIn:       "2026-05-01",
		CheckOut:      "2026-05-04",
		Actor:         "staff:1",
		OccurredAt:    "2026-04-01T10:00:00Z",
	}
	body, err := json.Marshal(ev)
	require.NoError(t, err)

	require.NoError(t, c.Handle(body))
	require.NoError(t, c.Handle(body))

	data, err := os.ReadFile(c.LogPath)
	require.NoError(t, err)
	assert.Equal(t, ev.LogLine()+ev.LogLine(), string(data))
	assert.Contains(t, string(data), "reservation_id=7")
	assert.Contains(t, string(data), "stay=2026-05-01..2026-05-04")
}

func TestConsumerHandle_RejectsBadPayload(t *testing.T) {
	c := NewConsumer("amqp://unused", "q", slog.New(slog.NewTextHandler(io.Discard, nil)))
	c.LogPath = filepath.Join(t.TempDir(), "reservation.log")

	assert.Error(t, c.Handle([]byte("{not json")))
	assert.Error(t, c.Handle([]byte(`{"action":"created"}`)))
	_, err := os.Stat(c.LogPath)
	assert.True(t, os.IsNotExist(err))
}

func TestReservationEventKey(t *testing.T) {
	assert.Equal(t, "cabin-4", ReservationEvent{CabinID: 4}.Key())
}

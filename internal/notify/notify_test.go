package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingNotifier struct {
	calls int
	err   error
}

func (c *countingNotifier) Notify(context.Context, string, string, map[string]interface{}) error {
	c.calls++
	return c.err
}

func TestMultiDeliversToAll(t *testing.T) {
	boom := errors.New("socket closed")
	first := &countingNotifier{err: boom}
	second := &countingNotifier{}

	err := Multi{first, second}.Notify(context.Background(), "U1", "hi", nil)

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, first.calls)
	assert.Equal(t, 1, second.calls)
}

func TestMultiEmpty(t *testing.T) {
	assert.NoError(t, Multi(nil).Notify(context.Background(), "U1", "hi", nil))
}

func TestEncode(t *testing.T) {
	at := time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC)

	subject, data, err := encode("U1", "Your BiteSwipe session has a winner", map[string]interface{}{
		"type":         "session_completed",
		"restaurantId": "C1",
	}, at)
	require.NoError(t, err)
	assert.Equal(t, "notifications.U1", subject)

	var n Notification
	require.NoError(t, json.Unmarshal(data, &n))
	assert.Equal(t, "U1", n.UserID)
	assert.Equal(t, "C1", n.Payload["restaurantId"])
	assert.True(t, at.Equal(n.SentAt))
}

func TestEncodeRejectsUnmarshalablePayload(t *testing.T) {
	_, _, err := encode("U1", "hi", map[string]interface{}{"bad": make(chan int)}, time.Now())
	assert.Error(t, err)
}

package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	edited := time.Date(2025, 6, 1, 10, 30, 0, 0, time.UTC)
	cases := []Event{
		MessageCreated{Message: Message{
			ID:        "m1",
			ChatID:    "c1",
			SenderID:  "u1",
			Kind:      "TEXT",
			Content:   "hello",
			ClientRef: "tmp-1",
			CreatedAt: time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC),
		}},
		MessageEdited{Message: Message{
			ID:        "m1",
			ChatID:    "c1",
			SenderID:  "u1",
			Kind:      "TEXT",
			Content:   "hello there",
			CreatedAt: time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC),
			EditedAt:  &edited,
		}},
		MessageDeleted{MessageID: "m1", ChatID: "c1"},
		NotificationNew{Notification: Notification{
			ID:        "n1",
			UserID:    "u2",
			Kind:      "due_soon",
			Title:     "Task due soon",
			Link:      "t1",
			CreatedAt: time.Date(2025, 6, 1, 11, 0, 0, 0, time.UTC),
		}},
		Typing{ChatID: "c1", UserID: "u1", UserName: "Alice", IsTyping: true},
	}

	for _, ev := range cases {
		data, err := Encode(ev)
		require.NoError(t, err)

		decoded, err := Decode(data)
		require.NoError(t, err)
		assert.Equal(t, ev.EventName(), decoded.EventName())
		assert.Equal(t, ev, decoded)
	}
}

func TestDecodeRejectsUnknownEvent(t *testing.T) {
	_, err := Decode([]byte(`{"event":"message:reacted","payload":{}}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "message:reacted")
}

func TestDecodeRejectsMalformedEnvelope(t *testing.T) {
	_, err := Decode([]byte(`not json`))
	assert.Error(t, err)

	_, err = Decode([]byte(`{"event":"typing","payload":"not an object"}`))
	assert.Error(t, err)
}

func TestRoomAddresses(t *testing.T) {
	assert.Equal(t, "chat:42", ChatRoom("42"))
	assert.Equal(t, "user:u7", UserChannel("u7"))
}

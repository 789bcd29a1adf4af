package websocket

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManagerTracksConnectionsPerUser(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := NewManager()
	m.Start(ctx)

	first := NewClient("alice", nil)
	second := NewClient("alice", nil)
	require.True(t, m.Attach(first))
	require.True(t, m.Attach(second))
	assert.Eventually(t, func() bool { return m.ConnectionCount("alice") == 2 }, time.Second, 5*time.Millisecond)

	assert.Equal(t, 2, m.SendToUser("alice", MessageTypePresence, "presence:bob", map[string]bool{"online": true}))

	raw := <-first.Send
	var frame WSMessage
	require.NoError(t, json.Unmarshal(raw, &frame))
	assert.Equal(t, MessageTypePresence, frame.Type)
	assert.Equal(t, "presence:bob", frame.Key)
	assert.JSONEq(t, `{"online":true}`, string(frame.Data))

	m.Detach(first)
	assert.Eventually(t, func() bool { return m.ConnectionCount("alice") == 1 }, time.Second, 5*time.Millisecond)
	assert.False(t, first.Push(MessageTypePong, "", nil), "a detached client accepts nothing")

	cancel()
	assert.Eventually(t, func() bool { return m.ConnectionCount("alice") == 0 }, time.Second, 5*time.Millisecond)
	assert.False(t, m.Attach(NewClient("bob", nil)))
}

func TestSlowClientIsClosed(t *testing.T) {
	client := NewClient("alice", nil)
	for i := 0; i < sendBuffer; i++ {
		require.True(t, client.Push(MessageTypePong, "", nil))
	}
	assert.False(t, client.Push(MessageTypePong, "", nil))

	drained := 0
	for range client.Send {
		drained++
	}
	assert.Equal(t, sendBuffer, drained, "Send is closed after overflow")
}

func TestDecodeFrame(t *testing.T) {
	frame, err := DecodeFrame([]byte(`{"type":"subscribe_typing","data":{"chat_id":"a_b","user_id":"b"}}`))
	require.NoError(t, err)
	assert.Equal(t, MessageTypeSubscribeTyping, frame.Type)

	var data TypingSubscribeData
	require.NoError(t, frame.DecodeData(&data))
	assert.Equal(t, TypingSubscribeData{ChatID: "a_b", UserID: "b"}, data)

	_, err = DecodeFrame([]byte(`{"data":{}}`))
	assert.ErrorIs(t, err, ErrMissingType)

	_, err = DecodeFrame([]byte(`not json`))
	assert.Error(t, err)
}

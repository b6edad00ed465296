package ws

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestHub_PublishEncodesType(t *testing.T) {
	h := NewHub(zap.NewNop())

	h.Publish("low_stock", map[string]interface{}{"product_id": "p-1", "stock": 2})

	select {
	case msg := <-h.Broadcast:
		var got map[string]interface{}
		require.NoError(t, json.Unmarshal(msg, &got))
		assert.Equal(t, "low_stock", got["type"])
		assert.Equal(t, "p-1", got["product_id"])
		assert.EqualValues(t, 2, got["stock"])
	case <-time.After(time.Second):
		t.Fatal("event was not broadcast")
	}
	assert.Zero(t, h.ClientCount())
}

func TestHub_PublishDropsWhenQueueFull(t *testing.T) {
	h := NewHub(zap.NewNop())

	done := make(chan struct{})
	go func() {
		for i := 0; i < cap(h.Broadcast)+10; i++ {
			h.Publish("stock_update", map[string]interface{}{"seq": i})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked without a running hub")
	}

	require.Len(t, h.Broadcast, cap(h.Broadcast))
	var first map[string]interface{}
	require.NoError(t, json.Unmarshal(<-h.Broadcast, &first))
	assert.EqualValues(t, 0, first["seq"])
}

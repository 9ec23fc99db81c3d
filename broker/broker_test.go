package broker

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/softex1/tably-paket1/hub"
)

func TestRelayHandleRepublishesToHub(t *testing.T) {
	h := hub.NewHub(4)
	sub := h.Subscribe("admin")
	r := NewRelay("amqp://unused", "", h)
	assert.Equal(t, DefaultExchange, r.Exchange)

	body := []byte(`{"event":"call_created","data":{"id":7,"type":"WAITER","resolved":false}}`)
	require.NoError(t, r.handle(body))

	msg := <-sub.C()
	assert.Equal(t, hub.EventCallCreated, msg.Event)

	// the raw payload is forwarded untouched
	out, err := json.Marshal(msg)
	require.NoError(t, err)
	assert.JSONEq(t, string(body), string(out))
}

func TestRelayHandleRejectsGarbage(t *testing.T) {
	h := hub.NewHub(1)
	sub := h.Subscribe("admin")
	r := NewRelay("amqp://unused", "x", h)

	assert.Error(t, r.handle([]byte("not json")))
	assert.Error(t, r.handle([]byte(`{"data":{}}`)))

	select {
	case msg := <-sub.C():
		t.Fatalf("unexpected message %v", msg)
	default:
	}
}

func TestPublisherDropsWhenQueueFull(t *testing.T) {
	p := NewPublisher("amqp://unused", "", 2)
	for i := 0; i < 5; i++ {
		p.Publish(hub.Message{Event: hub.EventCallCreated})
	}
	assert.Equal(t, int64(3), p.Dropped())
	assert.Len(t, p.queue, 2)
}

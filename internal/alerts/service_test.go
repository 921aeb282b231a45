package alerts

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ariefcatur/warung-market.git/internal/market"
	"github.com/ariefcatur/warung-market.git/internal/notify"
)

func envelopeMessage(t *testing.T, eventType string, alert market.NewOrderAlert) kafkago.Message {
	t.Helper()
	payload, err := json.Marshal(alert)
	require.NoError(t, err)
	value, err := json.Marshal(market.Envelope{
		EventID:      "evt-1",
		EventType:    eventType,
		EventVersion: 1,
		OccurredAt:   time.Now().UTC(),
		Producer:     "warung-api",
		Payload:      payload,
	})
	require.NoError(t, err)
	return kafkago.Message{Key: market.PartitionKey(alert.PesananID), Value: value}
}

func TestHandleOrderCreatedRelaysToWarungRoom(t *testing.T) {
	hub := notify.NewHub()
	go hub.Run()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		notify.ServeWS(hub, w, r)
	}))
	t.Cleanup(func() {
		srv.Close()
		close(hub.Quit)
	})

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?warung_id=w-a"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	// First frame is the room ack.
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err = conn.ReadMessage()
	require.NoError(t, err)

	deadline := time.Now().Add(2 * time.Second)
	for hub.Subscribers(market.RoomWarung("w-a")) == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	svc := &Service{Hub: hub, ServiceName: "warung-alerts"}
	msg := envelopeMessage(t, market.EventOrderCreated, market.NewOrderAlert{
		PesananID:  "o-1",
		Pemesan:    "budi",
		TotalHarga: 7000,
		WarungID:   "w-a",
		WarungNama: "Warung Bu Sri",
	})
	require.NoError(t, svc.HandleOrderCreated(context.Background(), msg))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var frame notify.Frame
	require.NoError(t, json.Unmarshal(data, &frame))
	assert.Equal(t, "new_order_alert", frame.Event)

	var alert market.NewOrderAlert
	require.NoError(t, json.Unmarshal(frame.Data, &alert))
	assert.Equal(t, "o-1", alert.PesananID)
	assert.Equal(t, "Warung Bu Sri", alert.WarungNama)
	assert.InDelta(t, 7000.0, alert.TotalHarga, 0.001)
}

func TestHandleOrderCreatedIgnoresOtherEventTypes(t *testing.T) {
	hub := notify.NewHub()
	svc := &Service{Hub: hub, ServiceName: "warung-alerts"}

	msg := envelopeMessage(t, "StockAdjusted", market.NewOrderAlert{PesananID: "o-1", WarungID: "w-a"})
	assert.NoError(t, svc.HandleOrderCreated(context.Background(), msg))
}

func TestHandleOrderCreatedRejectsGarbage(t *testing.T) {
	hub := notify.NewHub()
	svc := &Service{Hub: hub, ServiceName: "warung-alerts"}

	err := svc.HandleOrderCreated(context.Background(), kafkago.Message{Value: []byte("not json")})
	assert.Error(t, err)
}

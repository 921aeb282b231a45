package market

import (
	"encoding/json"
	"fmt"
	"time"
)

const (
	EventOrderCreated = "OrderCreated"

	TopicOrderCreated = "order.created"
)

// Envelope wraps every event on the bus.
type Envelope struct {
	EventID       string          `json:"event_id"`      // uuid
	EventType     string          `json:"event_type"`    // e.g. OrderCreated
	EventVersion  int             `json:"event_version"` // 1
	OccurredAt    time.Time       `json:"occurred_at"`   // RFC3339
	Producer      string          `json:"producer"`      // e.g. "warung-api"
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"` // order id
	Payload       json.RawMessage `json:"payload"`
}

// NewOrderAlert is the OrderCreated payload, pushed verbatim to the owning
// warung's room by the alerts service.
type NewOrderAlert struct {
	PesananID  string  `json:"pesanan_id"`
	Pemesan    string  `json:"pemesan"`
	TotalHarga float64 `json:"total_harga"`
	WarungID   string  `json:"warung_id"`
	WarungNama string  `json:"warung_nama"`
}

// Partition key = order id, so every event of one order keeps its order.
func PartitionKey(orderID string) []byte { return []byte(orderID) }

// RoomWarung names the fan-out room for one warung.
func RoomWarung(warungID string) string { return fmt.Sprintf("warung_%s", warungID) }

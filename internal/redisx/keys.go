package redisx

import "time"

const (
	// Session token dari layanan auth: session:{token} -> user_id
	KeySession = "session:%s"

	// Cache status pesanan: order_status:{order_id} -> {"status": "..."}
	KeyOrderStatus = "order_status:%s"

	// Dedup event processing: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"
)

var (
	TTLStatusCache = 5 * time.Minute
	TTLDedup       = 48 * time.Hour
)

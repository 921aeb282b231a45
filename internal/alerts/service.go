package alerts

import (
	"context"
	"fmt"

	kafkax "github.com/ariefcatur/warung-market.git/internal/kafka"
	"github.com/ariefcatur/warung-market.git/internal/market"
	"github.com/ariefcatur/warung-market.git/internal/notify"
	"github.com/ariefcatur/warung-market.git/internal/redisx"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
)

// Service relays OrderCreated events from the bus into warung rooms. Losing
// an event here never affects the checkout that produced it.
type Service struct {
	Hub         *notify.Hub
	Redis       *redis.Client
	ServiceName string
}

// HandleOrderCreated is installed as the consumer handler.
func (s *Service) HandleOrderCreated(ctx context.Context, m kafkago.Message) error {
	var env market.Envelope
	if err := kafkax.UnmarshalEnvelope(m.Value, &env); err != nil {
		return err
	}
	if env.EventType != market.EventOrderCreated {
		return nil
	} // ignore

	// dedup via Redis (by event_id); rebalances may redeliver
	if s.Redis != nil {
		dkey := fmt.Sprintf(redisx.KeyDedup, "alerts", env.EventID)
		exists, _ := redisx.Exists(ctx, s.Redis, dkey)
		if exists {
			return nil
		}
		_ = s.Redis.Set(ctx, dkey, "1", redisx.TTLDedup).Err()
	}

	alert, err := kafkax.UnwrapPayload[market.NewOrderAlert](env.Payload)
	if err != nil {
		return err
	}

	s.Hub.Broadcast(market.RoomWarung(alert.WarungID), notify.Frame{
		Event: "new_order_alert",
		Data:  env.Payload,
	})
	return nil
}

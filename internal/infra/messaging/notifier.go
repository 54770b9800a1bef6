package messaging

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/yuzpew2/casadbendang/internal/app/bookings"
	"github.com/yuzpew2/casadbendang/internal/infra/broker/kafka"
)

const bookingRequestedTopic = "booking.events.v1"

// KafkaNotifier publishes booking handoff events for the WhatsApp
// message-composition service to consume.
type KafkaNotifier struct {
	producer    *kafka.Producer
	topicPrefix string
}

func NewKafkaNotifier(producer *kafka.Producer, topicPrefix string) *KafkaNotifier {
	return &KafkaNotifier{producer: producer, topicPrefix: topicPrefix}
}

func (n *KafkaNotifier) BookingRequested(ctx context.Context, evt bookings.HandoffEvent) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	return n.producer.Publish(ctx, n.topicPrefix+bookingRequestedTopic, evt.BookingID, payload)
}

// LogNotifier stands in when no broker is configured (memory mode, tests).
type LogNotifier struct {
	Log *slog.Logger
}

func (n LogNotifier) BookingRequested(ctx context.Context, evt bookings.HandoffEvent) error {
	n.Log.Info("booking requested",
		"booking_id", evt.BookingID,
		"guest", evt.GuestName,
		"start", evt.StartDate,
		"end", evt.EndDate,
		"total", evt.TotalDisplay,
	)
	return nil
}

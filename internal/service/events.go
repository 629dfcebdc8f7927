package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"

	"marketplace-service/internal/entity"
)

type orderEvent struct {
	OrderID     int64           `json:"order_id"`
	UserID      int64           `json:"user_id"`
	Status      string          `json:"status"`
	FinalAmount decimal.Decimal `json:"final_amount"`
	OccurredAt  time.Time       `json:"occurred_at"`
}

// publishOrderEvent emits a lifecycle event after the fact. Failures are
// logged and swallowed: the order is already committed.
func publishOrderEvent(ctx context.Context, writer *kafka.Writer, event string, order *entity.Order) {
	if writer == nil {
		return
	}

	payload, err := json.Marshal(orderEvent{
		OrderID:     order.ID,
		UserID:      order.UserID,
		Status:      string(order.Status),
		FinalAmount: order.FinalAmount,
		OccurredAt:  time.Now().UTC(),
	})
	if err != nil {
		logger.Error().Err(err).Int64("order_id", order.ID).Msg("marshal order event")
		return
	}

	msg := kafka.Message{
		Key:   []byte(fmt.Sprintf("order-%s-%d", event, order.ID)),
		Value: payload,
	}
	if err := writer.WriteMessages(ctx, msg); err != nil {
		logger.Error().Err(err).Int64("order_id", order.ID).Str("event", event).
			Msg("publish order event")
	}
}

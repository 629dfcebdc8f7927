package service

import (
	"context"

	"github.com/segmentio/kafka-go"

	"marketplace-service/internal/entity"
)

// OrderService covers order history and the seller-side status transitions.
type OrderService struct {
	orderRepo   OrderRepository
	kafkaWriter *kafka.Writer
}

func NewOrderService(orderRepo OrderRepository, kafkaWriter *kafka.Writer) *OrderService {
	return &OrderService{orderRepo: orderRepo, kafkaWriter: kafkaWriter}
}

func (s *OrderService) ListOrders(ctx context.Context, userID int64) ([]entity.Order, error) {
	return s.orderRepo.ListByUser(ctx, userID)
}

func (s *OrderService) GetOrder(ctx context.Context, userID, orderID int64) (*entity.Order, error) {
	return s.orderRepo.GetForBuyer(ctx, userID, orderID)
}

func (s *OrderService) ListSellerOrders(ctx context.Context, sellerID int64) ([]entity.Order, error) {
	return s.orderRepo.ListForSeller(ctx, sellerID)
}

func (s *OrderService) GetSellerOrder(ctx context.Context, sellerID, orderID int64) (*entity.Order, error) {
	return s.orderRepo.GetForSeller(ctx, sellerID, orderID)
}

// UpdateStatus moves an order to a new status on behalf of a seller with
// items in it. A transition into cancelled restores the seller's item
// quantities to stock, atomically with the status write, and only once:
// cancelling an already-cancelled order restores nothing.
func (s *OrderService) UpdateStatus(ctx context.Context, sellerID, orderID int64, status string) (*entity.Order, error) {
	if !entity.ValidOrderStatus(status) {
		return nil, &entity.ValidationError{Fields: map[string]string{
			"status": "status must be one of pending, processing, shipped, delivered, cancelled",
		}}
	}

	order, err := s.orderRepo.UpdateStatusForSeller(ctx, sellerID, orderID, entity.OrderStatus(status))
	if err != nil {
		return nil, err
	}

	logger.Info().Int64("order_id", orderID).Int64("seller_id", sellerID).
		Str("status", status).Msg("order status updated")
	publishOrderEvent(ctx, s.kafkaWriter, "status-updated", order)
	return order, nil
}

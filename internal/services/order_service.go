package services

import (
	"context"
	"errors"
	"fmt"

	"payme-merchant/internal/models"
	"payme-merchant/internal/protocol"

	"gorm.io/gorm"
)

// OrderService is the gateway to merchant orders. It is the sole writer of
// order state; which transitions are legal is decided by the callers.
type OrderService struct {
	db                   *gorm.DB
	allowCancelCompleted bool
}

// NewOrderService creates a new order service
func NewOrderService(db *gorm.DB, allowCancelCompleted bool) *OrderService {
	return &OrderService{db: db, allowCancelCompleted: allowCancelCompleted}
}

// Find resolves an order by its id. Returns nil without error when no such
// order exists.
func (s *OrderService) Find(ctx context.Context, orderID uint) (*models.Order, error) {
	var order models.Order
	result := s.db.WithContext(ctx).First(&order, orderID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find order: %w", result.Error)
	}
	return &order, nil
}

// Validate checks the amount and account parameters against the stored
// order and returns the order when it is ready to be paid.
func (s *OrderService) Validate(ctx context.Context, params protocol.Params) (*models.Order, error) {
	amount, ok := params.AmountMinor()
	if !ok {
		return nil, protocol.NewError(protocol.ErrInvalidAmount, "Incorrect amount.")
	}

	orderID, ok := params.AccountOrderID()
	if !ok {
		return nil, protocol.NewErrorData(
			protocol.ErrInvalidAccount,
			protocol.Localized("Неверный код заказа.", "Harid kodida xatolik.", "Incorrect order code."),
			"order_id",
		)
	}

	order, err := s.Find(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, protocol.NewErrorData(
			protocol.ErrInvalidAccount,
			protocol.Localized("Неверный код заказа.", "Harid kodida xatolik.", "Incorrect order code."),
			"order_id",
		)
	}

	// Both sides are in tiyins, compare directly
	if order.Amount != amount {
		return nil, protocol.NewError(protocol.ErrInvalidAmount, "Incorrect amount.")
	}

	if order.State != models.OrderStateWaitingPay {
		return nil, protocol.NewError(protocol.ErrCouldNotPerform, "Order state is invalid.")
	}

	return order, nil
}

// ChangeState persists a new order state. Legality of the transition is
// the caller's concern; only recognized values are accepted here.
func (s *OrderService) ChangeState(ctx context.Context, order *models.Order, state models.OrderState) error {
	if !state.Valid() {
		return fmt.Errorf("unknown order state %d", state)
	}

	result := s.db.WithContext(ctx).Model(order).Update("state", state)
	if result.Error != nil {
		return fmt.Errorf("failed to change order state: %w", result.Error)
	}
	order.State = state
	return nil
}

// AllowCancel answers whether a completed (paid) order may still be
// reversed. With no fulfillment tracking in the model this is a
// deployment-wide policy flag.
func (s *OrderService) AllowCancel(order *models.Order) bool {
	return s.allowCancelCompleted
}

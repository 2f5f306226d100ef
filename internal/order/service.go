package order

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/znasser/storefront/internal/logging"
	"github.com/znasser/storefront/internal/models"
)

var (
	ErrValidation = errors.New("validation") // 400
	ErrNotFound   = errors.New("not found")  // 404
	ErrConflict   = errors.New("conflict")   // 409, client totals diverge from recomputed ones
)

// Epsilon is the tolerance used when comparing client-submitted money
// values against server-recomputed ones.
const Epsilon = 0.01

const topic = "order_events"

type EventPublisher interface {
	PublishEvent(ctx context.Context, topic, key string, event interface{}) error
}

type Service struct {
	Repo     *GormRepo
	Producer EventPublisher
}

type CreateOrderItem struct {
	ProductID   uint    `json:"product_id"`
	ProductName string  `json:"product_name"`
	Color       string  `json:"color"`
	Size        string  `json:"size"`
	Quantity    uint    `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	Subtotal    float64 `json:"subtotal"`
}

type CreateOrderRequest struct {
	CustomerName string            `json:"customer_name"`
	Phone        string            `json:"phone"`
	Address      string            `json:"address"`
	City         string            `json:"city"`
	TotalPrice   float64           `json:"total_price"`
	Items        []CreateOrderItem `json:"items"`
}

type ItemInput struct {
	ProductID   uint    `json:"product_id"`
	ProductName string  `json:"product_name"`
	Color       string  `json:"color"`
	Size        string  `json:"size"`
	Quantity    uint    `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
}

type UpdateItemInput struct {
	Quantity  *uint    `json:"quantity"`
	UnitPrice *float64 `json:"unit_price"`
}

// CreateOrder validates the submission, recomputes every money field from
// quantity and unit price, and persists the order with its items in one
// transaction. Client-sent subtotals and the client-sent total are checked
// against the recomputed values within Epsilon; divergence rejects the
// whole submission and nothing is written. Shipping is free at creation,
// the fee is set later by the back office.
func (svc *Service) CreateOrder(ctx context.Context, req CreateOrderRequest) (*models.Order, error) {
	if len(req.Items) == 0 {
		return nil, fmt.Errorf("%w: items required", ErrValidation)
	}

	var itemsTotal float64
	items := make([]models.OrderItem, 0, len(req.Items))

	for i := range req.Items {
		in := req.Items[i]
		if in.ProductID == 0 {
			return nil, fmt.Errorf("%w: product_id required", ErrValidation)
		}
		if in.Quantity == 0 {
			return nil, fmt.Errorf("%w: quantity must be > 0", ErrValidation)
		}
		if in.UnitPrice < 0 {
			return nil, fmt.Errorf("%w: unit price must be >= 0", ErrValidation)
		}

		subtotal := float64(in.Quantity) * in.UnitPrice
		if math.Abs(subtotal-in.Subtotal) > Epsilon {
			return nil, fmt.Errorf("%w: subtotal mismatch for product %d: sent %.2f, computed %.2f",
				ErrConflict, in.ProductID, in.Subtotal, subtotal)
		}

		items = append(items, models.OrderItem{
			ProductID:   in.ProductID,
			ProductName: in.ProductName,
			Color:       in.Color,
			Size:        in.Size,
			Quantity:    in.Quantity,
			UnitPrice:   in.UnitPrice,
			Subtotal:    subtotal,
		})
		itemsTotal += subtotal
	}

	if math.Abs(itemsTotal-req.TotalPrice) > Epsilon {
		return nil, fmt.Errorf("%w: total mismatch: sent %.2f, computed %.2f",
			ErrConflict, req.TotalPrice, itemsTotal)
	}

	order := &models.Order{
		Number:       uuid.NewString(),
		CustomerName: req.CustomerName,
		Phone:        req.Phone,
		Address:      req.Address,
		City:         req.City,
		ShippingFee:  0,
		TotalPrice:   itemsTotal,
		Status:       models.OrderStatusPending,
		CreatedAt:    time.Now().Unix(),
		Items:        items,
	}

	if err := svc.Repo.CreateOrder(ctx, order); err != nil {
		return nil, err
	}

	svc.publish(ctx, order.Number, map[string]any{
		"type":    "order_created",
		"orderID": order.ID,
		"number":  order.Number,
		"total":   order.TotalPrice,
	})
	return order, nil
}

func (svc *Service) GetOrder(ctx context.Context, id uint) (*models.Order, error) {
	order, err := svc.Repo.GetOrder(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: order %d", ErrNotFound, id)
	}
	return order, err
}

func (svc *Service) GetOrderByNumber(ctx context.Context, number string) (*models.Order, error) {
	order, err := svc.Repo.GetOrderByNumber(ctx, number)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: order %s", ErrNotFound, number)
	}
	return order, err
}

func (svc *Service) ListOrders(ctx context.Context, limit, offset int) ([]models.Order, int64, error) {
	return svc.Repo.ListOrders(ctx, limit, offset)
}

func (svc *Service) UpdateStatus(ctx context.Context, id uint, status string) (*models.Order, error) {
	if !models.ValidOrderStatus(status) {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, status)
	}
	if err := svc.Repo.UpdateStatus(ctx, id, status); err != nil {
		return nil, svc.mapNotFound(err, id)
	}

	svc.publish(ctx, fmt.Sprint(id), map[string]any{
		"type":    "order_status_changed",
		"orderID": id,
		"status":  status,
	})
	return svc.GetOrder(ctx, id)
}

func (svc *Service) UpdateShippingFee(ctx context.Context, id uint, fee float64) (*models.Order, error) {
	if fee < 0 {
		return nil, fmt.Errorf("%w: shipping fee must be >= 0", ErrValidation)
	}
	if err := svc.Repo.UpdateShippingFee(ctx, id, fee); err != nil {
		return nil, svc.mapNotFound(err, id)
	}

	svc.publish(ctx, fmt.Sprint(id), map[string]any{
		"type":         "order_shipping_fee_changed",
		"orderID":      id,
		"shipping_fee": fee,
	})
	return svc.GetOrder(ctx, id)
}

func (svc *Service) AddItem(ctx context.Context, orderID uint, in ItemInput) (*models.OrderItem, error) {
	if in.ProductID == 0 {
		return nil, fmt.Errorf("%w: product_id required", ErrValidation)
	}
	if in.Quantity == 0 {
		return nil, fmt.Errorf("%w: quantity must be > 0", ErrValidation)
	}
	if in.UnitPrice < 0 {
		return nil, fmt.Errorf("%w: unit price must be >= 0", ErrValidation)
	}

	item := &models.OrderItem{
		OrderID:     orderID,
		ProductID:   in.ProductID,
		ProductName: in.ProductName,
		Color:       in.Color,
		Size:        in.Size,
		Quantity:    in.Quantity,
		UnitPrice:   in.UnitPrice,
		Subtotal:    float64(in.Quantity) * in.UnitPrice,
	}
	if err := svc.Repo.AddItem(ctx, item); err != nil {
		return nil, svc.mapNotFound(err, orderID)
	}

	svc.publish(ctx, fmt.Sprint(orderID), map[string]any{
		"type":    "order_item_added",
		"orderID": orderID,
		"itemID":  item.ID,
	})
	return item, nil
}

func (svc *Service) UpdateItem(ctx context.Context, orderID, itemID uint, in UpdateItemInput) (*models.OrderItem, error) {
	if in.Quantity == nil && in.UnitPrice == nil {
		return nil, fmt.Errorf("%w: nothing to update", ErrValidation)
	}
	if in.Quantity != nil && *in.Quantity == 0 {
		return nil, fmt.Errorf("%w: quantity must be > 0", ErrValidation)
	}
	if in.UnitPrice != nil && *in.UnitPrice < 0 {
		return nil, fmt.Errorf("%w: unit price must be >= 0", ErrValidation)
	}

	item, err := svc.Repo.UpdateItem(ctx, orderID, itemID, in.Quantity, in.UnitPrice)
	if err != nil {
		return nil, svc.mapItemNotFound(err, orderID, itemID)
	}

	svc.publish(ctx, fmt.Sprint(orderID), map[string]any{
		"type":    "order_item_updated",
		"orderID": orderID,
		"itemID":  itemID,
	})
	return item, nil
}

func (svc *Service) DeleteItem(ctx context.Context, orderID, itemID uint) error {
	if err := svc.Repo.DeleteItem(ctx, orderID, itemID); err != nil {
		return svc.mapItemNotFound(err, orderID, itemID)
	}

	svc.publish(ctx, fmt.Sprint(orderID), map[string]any{
		"type":    "order_item_deleted",
		"orderID": orderID,
		"itemID":  itemID,
	})
	return nil
}

func (svc *Service) DeleteOrder(ctx context.Context, id uint) error {
	if err := svc.Repo.DeleteOrder(ctx, id); err != nil {
		return svc.mapNotFound(err, id)
	}

	svc.publish(ctx, fmt.Sprint(id), map[string]any{
		"type":    "order_deleted",
		"orderID": id,
	})
	return nil
}

// Reconcile recomputes the order's total from its persisted items and
// shipping fee. The mutation paths already reconcile in their own
// transactions; this entry point exists for explicit repair.
func (svc *Service) Reconcile(ctx context.Context, orderID uint) error {
	if err := svc.Repo.Reconcile(ctx, orderID); err != nil {
		return svc.mapNotFound(err, orderID)
	}
	return nil
}

func (svc *Service) mapNotFound(err error, id uint) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: order %d", ErrNotFound, id)
	}
	return err
}

func (svc *Service) mapItemNotFound(err error, orderID, itemID uint) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: item %d of order %d", ErrNotFound, itemID, orderID)
	}
	return err
}

// publish is best effort: event delivery failures are logged, never
// surfaced to the caller.
func (svc *Service) publish(ctx context.Context, key string, event map[string]any) {
	if svc.Producer == nil {
		return
	}
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := svc.Producer.PublishEvent(pubCtx, topic, key, event); err != nil {
		logging.FromContext(ctx).Error("kafka publish error", "topic", topic, "error", err)
	}
}

package order

import (
	"context"

	"gorm.io/gorm"

	"github.com/znasser/storefront/internal/models"
)

type GormRepo struct {
	DB *gorm.DB
}

func (r *GormRepo) CreateOrder(ctx context.Context, order *models.Order) error {
	return r.DB.WithContext(ctx).Create(order).Error
}

func (r *GormRepo) GetOrder(ctx context.Context, id uint) (*models.Order, error) {
	var order models.Order
	if err := r.DB.WithContext(ctx).Preload("Items").First(&order, id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *GormRepo) GetOrderByNumber(ctx context.Context, number string) (*models.Order, error) {
	var order models.Order
	err := r.DB.WithContext(ctx).Preload("Items").First(&order, "number = ?", number).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *GormRepo) ListOrders(ctx context.Context, limit, offset int) ([]models.Order, int64, error) {
	q := r.DB.WithContext(ctx).Model(&models.Order{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var orders []models.Order
	if err := q.Order("created_at DESC, id DESC").Limit(limit).Offset(offset).Find(&orders).Error; err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

func (r *GormRepo) UpdateStatus(ctx context.Context, id uint, status string) error {
	res := r.DB.WithContext(ctx).Model(&models.Order{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeleteOrder hard-deletes the order and its items in one transaction.
func (r *GormRepo) DeleteOrder(ctx context.Context, id uint) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("order_id = ?", id).Delete(&models.OrderItem{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Order{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// AddItem inserts the item and reconciles the order total in the same
// transaction, so a crash can never leave the total stale.
func (r *GormRepo) AddItem(ctx context.Context, item *models.OrderItem) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&models.Order{}, item.OrderID).Error; err != nil {
			return err
		}
		if err := tx.Create(item).Error; err != nil {
			return err
		}
		return r.reconcile(tx, item.OrderID)
	})
}

// UpdateItem applies the provided quantity and/or unit price, recomputes
// the subtotal from the resulting values and reconciles. The stored row is
// the source for any value the caller did not provide; a client-sent
// subtotal is never written.
func (r *GormRepo) UpdateItem(ctx context.Context, orderID, itemID uint, quantity *uint, unitPrice *float64) (*models.OrderItem, error) {
	var item models.OrderItem
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&item, "id = ? AND order_id = ?", itemID, orderID).Error; err != nil {
			return err
		}
		if quantity != nil {
			item.Quantity = *quantity
		}
		if unitPrice != nil {
			item.UnitPrice = *unitPrice
		}
		item.Subtotal = float64(item.Quantity) * item.UnitPrice
		if err := tx.Save(&item).Error; err != nil {
			return err
		}
		return r.reconcile(tx, orderID)
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *GormRepo) DeleteItem(ctx context.Context, orderID, itemID uint) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ? AND order_id = ?", itemID, orderID).Delete(&models.OrderItem{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return r.reconcile(tx, orderID)
	})
}

func (r *GormRepo) UpdateShippingFee(ctx context.Context, orderID uint, fee float64) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Order{}).Where("id = ?", orderID).Update("shipping_fee", fee)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return r.reconcile(tx, orderID)
	})
}

// Reconcile recomputes the order total from its persisted items and
// shipping fee. Idempotent.
func (r *GormRepo) Reconcile(ctx context.Context, orderID uint) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&models.Order{}, orderID).Error; err != nil {
			return err
		}
		return r.reconcile(tx, orderID)
	})
}

func (r *GormRepo) reconcile(tx *gorm.DB, orderID uint) error {
	var itemsTotal float64
	err := tx.Model(&models.OrderItem{}).
		Where("order_id = ?", orderID).
		Select("COALESCE(SUM(subtotal), 0)").
		Scan(&itemsTotal).Error
	if err != nil {
		return err
	}

	var order models.Order
	if err := tx.Select("shipping_fee").First(&order, orderID).Error; err != nil {
		return err
	}

	return tx.Model(&models.Order{}).
		Where("id = ?", orderID).
		Update("total_price", itemsTotal+order.ShippingFee).Error
}

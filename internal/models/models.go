package models

const (
	OrderStatusPending   = "pending"
	OrderStatusConfirmed = "confirmed"
	OrderStatusShipped   = "shipped"
	OrderStatusDelivered = "delivered"
	OrderStatusCancelled = "cancelled"
)

// ValidOrderStatus reports whether s is one of the order status values.
func ValidOrderStatus(s string) bool {
	switch s {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

type Product struct {
	ID          uint     `gorm:"primaryKey;autoIncrement"  json:"id"`
	Name        string   `gorm:"not null"                  json:"name"`
	Slug        string   `gorm:"uniqueIndex;not null"      json:"slug"`
	Description string   `gorm:"not null"                  json:"description"`
	Price       float64  `gorm:"not null"                  json:"price"`
	Images      []string `gorm:"serializer:json"           json:"images"`
	Colors      []string `gorm:"serializer:json"           json:"colors"`
	Sizes       []string `gorm:"serializer:json"           json:"sizes"`
	Count       uint     `json:"count"`
}

type Order struct {
	ID           uint        `gorm:"primaryKey"                  json:"id"`
	Number       string      `gorm:"uniqueIndex;not null"        json:"number"`
	CustomerName string      `gorm:"not null"                    json:"customer_name"`
	Phone        string      `gorm:"not null"                    json:"phone"`
	Address      string      `gorm:"not null"                    json:"address"`
	City         string      `gorm:"not null"                    json:"city"`
	ShippingFee  float64     `gorm:"not null;default:0"          json:"shipping_fee"`
	TotalPrice   float64     `gorm:"not null"                    json:"total_price"`
	Status       string      `gorm:"not null"                    json:"status"`
	CreatedAt    int64       `gorm:"not null"                    json:"created_at"`
	Items        []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items,omitempty"`
}

type OrderItem struct {
	ID          uint    `gorm:"primaryKey"                  json:"id"`
	OrderID     uint    `gorm:"index;not null"              json:"order_id"`
	ProductID   uint    `gorm:"not null"                    json:"product_id"`
	ProductName string  `gorm:"not null"                    json:"product_name"`
	Color       string  `json:"color"`
	Size        string  `json:"size"`
	Quantity    uint    `gorm:"default:1;check:quantity>0"  json:"quantity"`
	UnitPrice   float64 `gorm:"not null"                    json:"unit_price"`
	Subtotal    float64 `gorm:"not null"                    json:"subtotal"`
}

// CartRecord is the durable key-value row backing session carts and their
// checkout captcha, one JSON payload per key.
type CartRecord struct {
	Key       string `gorm:"primaryKey"  json:"key"`
	Payload   string `gorm:"not null"    json:"payload"`
	UpdatedAt int64  `gorm:"not null"    json:"updated_at"`
}

package models

import (
	"context"
	"errors"
	"time"

	pkgerrors "github.com/pkg/errors"
	"gorm.io/gorm"
)

// OrderStatusNew is the status a freshly submitted order starts with. Status
// is otherwise free text set by the back-office.
const OrderStatusNew = "new"

// Order is a customer's contact request about a product. The product link is
// by name and code only.
type Order struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	CustomerName      string    `gorm:"not null" json:"customer_name"`
	Email             string    `gorm:"not null" json:"email"`
	Phone             string    `gorm:"not null" json:"phone"`
	Address           string    `json:"address"`
	ProductName       string    `json:"product_name"`
	ProductCode       string    `gorm:"index" json:"product_code"`
	WoodType          string    `json:"wood_type"`
	CushionType       string    `json:"cushion_type"`
	CustomizationNote string    `json:"customization_note"`
	Status            string    `gorm:"index;not null;default:new" json:"status"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

func (o *Order) TableName() string {
	return "orders"
}

// ErrOrderNotFound is returned when an order is not found.
var ErrOrderNotFound = errors.New("order not found")

type OrdersRepository struct {
	db *gorm.DB
}

func NewOrdersRepository(db *gorm.DB) *OrdersRepository {
	return &OrdersRepository{db: db}
}

func (r *OrdersRepository) Create(ctx context.Context, o *Order) error {
	if o.Status == "" {
		o.Status = OrderStatusNew
	}
	if err := r.db.WithContext(ctx).Create(o).Error; err != nil {
		return pkgerrors.Wrap(err, "insert order")
	}
	return nil
}

// List returns every order, newest first. An empty status means no filter.
func (r *OrdersRepository) List(ctx context.Context, status string) ([]Order, error) {
	var orders []Order
	query := r.db.WithContext(ctx).Order("created_at DESC, id DESC")
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Find(&orders).Error; err != nil {
		return nil, pkgerrors.Wrap(err, "list orders")
	}
	return orders, nil
}

func (r *OrdersRepository) UpdateStatus(ctx context.Context, id uint, status string) error {
	res := r.db.WithContext(ctx).Model(&Order{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return pkgerrors.Wrap(res.Error, "update order status")
	}
	if res.RowsAffected == 0 {
		return ErrOrderNotFound
	}
	return nil
}

func (r *OrdersRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&Order{}, id)
	if res.Error != nil {
		return pkgerrors.Wrap(res.Error, "delete order")
	}
	if res.RowsAffected == 0 {
		return ErrOrderNotFound
	}
	return nil
}

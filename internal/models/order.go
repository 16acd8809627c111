package models

import "time"

const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusShipped    = "shipped"
	StatusDelivered  = "delivered"
	StatusCancelled  = "cancelled"
)

var orderStatuses = map[string]struct{}{
	StatusPending:    {},
	StatusProcessing: {},
	StatusCompleted:  {},
	StatusShipped:    {},
	StatusDelivered:  {},
	StatusCancelled:  {},
}

func ValidOrderStatus(s string) bool {
	_, ok := orderStatuses[s]
	return ok
}

// Order doubles as the shopping cart while Status is "pending": the
// cart is just the set of lines hanging off the single pending order
// of a user. Total and PlacedAt stay NULL until checkout seals the
// order, at which point both are written together with the status.
type Order struct {
	ID        uint       `gorm:"primaryKey"                                           json:"id"`
	UserID    uint       `gorm:"index;uniqueIndex:idx_orders_user_pending,where:status = 'pending';not null" json:"user_id"`
	Status    string     `gorm:"not null;default:pending"                             json:"status"`
	Total     *float64   `json:"total"`
	PlacedAt  *time.Time `json:"placed_at"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// OrderLine keeps the unit price frozen at add time, so later catalog
// price changes never rewrite historical totals.
type OrderLine struct {
	ID        uint      `gorm:"primaryKey"                                json:"id"`
	OrderID   uint      `gorm:"uniqueIndex:idx_lines_order_book;not null" json:"order_id"`
	BookID    uint      `gorm:"uniqueIndex:idx_lines_order_book;not null" json:"book_id"`
	Quantity  uint      `gorm:"not null;check:quantity>0"                 json:"quantity"`
	UnitPrice float64   `gorm:"not null"                                  json:"unit_price"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// LinesTotal computes the cart/checkout total from scratch on every
// call; a pending order never stores its total.
func LinesTotal(lines []OrderLine) float64 {
	var total float64
	for _, l := range lines {
		total += float64(l.Quantity) * l.UnitPrice
	}
	return total
}

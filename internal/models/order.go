package models

// OrderState is the lifecycle state of an order.
type OrderState int

const (
	OrderStateAvailable   OrderState = 0
	OrderStateWaitingPay  OrderState = 1
	OrderStatePayAccepted OrderState = 2
	OrderStateCancelled   OrderState = 3
)

// Valid reports whether s is a recognized order state.
func (s OrderState) Valid() bool {
	return s >= OrderStateAvailable && s <= OrderStateCancelled
}

// Order represents a merchant order awaiting payment.
// ProductIDs is stored as a JSON array string; amount is in tiyins
// (minor currency units). Amount and ProductIDs never change after
// creation, only State does.
type Order struct {
	BaseModel

	ProductIDs string     `json:"product_ids" gorm:"not null;size:255"`
	Amount     int64      `json:"amount" gorm:"not null"`
	State      OrderState `json:"state" gorm:"not null;index"`
	UserID     string     `json:"user_id" gorm:"size:100"`
	Phone      string     `json:"phone" gorm:"size:15"`
}

// TableName 指定表名
func (Order) TableName() string {
	return "orders"
}

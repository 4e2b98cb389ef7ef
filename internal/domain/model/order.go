package model

import "time"

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "Pending"
	OrderStatusConfirmed OrderStatus = "Confirmed"
	OrderStatusShipped   OrderStatus = "Shipped"
	OrderStatusDelivered OrderStatus = "Delivered"
	OrderStatusCancelled OrderStatus = "Cancelled"
)

type PaymentMethod string

const (
	PaymentMethodCOD     PaymentMethod = "COD"
	PaymentMethodOnline  PaymentMethod = "ONLINE"
	PaymentMethodUnknown PaymentMethod = "UNKNOWN"
)

type Order struct {
	ID     int64 `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID int64 `gorm:"not null;index" json:"user_id"`

	//旧ID体系の注文トークン（order_<unixms>_<suffix>）。両方で検索できる。
	LegacyOrderID string `gorm:"type:varchar(64);index" json:"legacy_order_id"`

	Subtotal    float64 `gorm:"not null" json:"subtotal"`
	DeliveryFee float64 `gorm:"not null" json:"delivery_fee"`
	Total       float64 `gorm:"not null" json:"total"`

	PaymentMethod PaymentMethod `gorm:"type:varchar(20);not null;default:'UNKNOWN'" json:"payment_method"`
	Status        OrderStatus   `gorm:"type:varchar(20);not null;index" json:"status"`

	//住所は参照ではなくコピーを保存する
	ShippingAddress *AddressSnapshot `gorm:"serializer:json" json:"shipping_address"`

	RazorpayOrderID   string `gorm:"type:varchar(64);index" json:"razorpay_order_id"`
	RazorpayPaymentID string `gorm:"type:varchar(64)" json:"razorpay_payment_id"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

// 注文ステータスの遷移表。
// Pending→Confirmed、Confirmed→Shipped→Delivered、
// Pending/Confirmed→Cancelled のみ許可。
func CanTransition(from, to OrderStatus) bool {
	switch from {
	case OrderStatusPending:
		return to == OrderStatusConfirmed || to == OrderStatusCancelled
	case OrderStatusConfirmed:
		return to == OrderStatusShipped || to == OrderStatusCancelled
	case OrderStatusShipped:
		return to == OrderStatusDelivered
	default:
		//Delivered/Cancelledは終端
		return false
	}
}

// 支払い方法の表記ゆれをCOD/ONLINE/UNKNOWNに寄せる
func NormalizePaymentMethod(s string) PaymentMethod {
	switch normalizeMethodKey(s) {
	case "cod", "cash", "cashondelivery":
		return PaymentMethodCOD
	case "online", "razorpay", "card", "upi", "netbanking":
		return PaymentMethodOnline
	default:
		return PaymentMethodUnknown
	}
}

func normalizeMethodKey(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		switch {
		case r >= 'A' && r <= 'Z':
			out = append(out, r+('a'-'A'))
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			out = append(out, r)
		}
		//空白・ハイフン等は無視
	}
	return string(out)
}

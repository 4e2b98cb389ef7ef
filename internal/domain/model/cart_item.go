package model

import "time"

// カートの明細。カートは「ユーザーが持つ明細の集合」で、
// カート自体のレコードは持たない。
type CartItem struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    int64     `gorm:"not null;index:idx_cart_user_product,unique" json:"user_id"`
	ProductID int64     `gorm:"not null;index:idx_cart_user_product,unique" json:"product_id"`
	Quantity  int64     `gorm:"not null" json:"quantity"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

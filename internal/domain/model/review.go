package model

import "time"

// 商品レビュー。1ユーザーにつき1商品1件まで。
type Review struct {
	ID        int64 `gorm:"primaryKey;autoIncrement" json:"id"`
	ProductID int64 `gorm:"not null;index:idx_review_product_user,unique" json:"product_id"`
	UserID    int64 `gorm:"not null;index:idx_review_product_user,unique" json:"user_id"`

	//投稿時点の表示名を保存する
	UserName string `gorm:"type:varchar(255);not null" json:"user_name"`

	//1〜5
	Rating  int64  `gorm:"not null" json:"rating"`
	Comment string `gorm:"type:text;not null" json:"comment"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}

package model

import (
	"time"

	"gorm.io/gorm"
)

type Product struct {
	ID          int64   `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string  `gorm:"type:varchar(255);not null" json:"name"`
	Description string  `gorm:"type:text" json:"description"`
	Price       float64 `gorm:"not null" json:"price"`

	//商品は必ず1つのカテゴリに属する
	CategoryID int64 `gorm:"not null;index" json:"category_id"`

	ImageURL string `gorm:"type:varchar(512)" json:"image_url"`

	//自由形式のスペック（brand/weight/colorなど）
	Specifications map[string]string `gorm:"serializer:json" json:"specifications"`

	Stock       int64 `gorm:"not null;default:0" json:"stock"`
	IsAvailable bool  `gorm:"not null;default:true" json:"is_available"`

	//レビューから再計算される値。直接書き換えない。
	AverageRating float64 `gorm:"not null;default:0" json:"average_rating"`
	TotalReviews  int64   `gorm:"not null;default:0" json:"total_reviews"`

	//nameから生成。name変更時に作り直す。
	Slug string `gorm:"type:varchar(255);index" json:"slug"`

	Tags []string `gorm:"serializer:json" json:"tags"`
	SKU  string   `gorm:"type:varchar(100)" json:"sku"`

	CreatedAt time.Time      `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

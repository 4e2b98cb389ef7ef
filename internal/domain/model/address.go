package model

import "time"

// 配送先住所
type Address struct {
	ID     int64 `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID int64 `gorm:"not null;index" json:"user_id"`

	//宛名
	FullName string `gorm:"type:varchar(255);not null" json:"full_name"`

	//電話番号
	Mobile string `gorm:"type:varchar(30)" json:"mobile"`

	Street  string `gorm:"type:varchar(255);not null" json:"street"`
	City    string `gorm:"type:varchar(255);not null" json:"city"`
	State   string `gorm:"type:varchar(100)" json:"state"`
	Zip     string `gorm:"type:varchar(20)" json:"zip"`
	Country string `gorm:"type:varchar(100)" json:"country"`

	//このユーザーのデフォルト住所か（1件まで。書き込み時に揃える）
	IsDefault bool `gorm:"not null;default:false" json:"is_default"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

// 注文に焼き込む住所のコピー。
// 後から住所を編集しても過去の注文は変わらない。
type AddressSnapshot struct {
	FullName string `json:"full_name"`
	Mobile   string `json:"mobile"`
	Street   string `json:"street"`
	City     string `json:"city"`
	State    string `json:"state"`
	Zip      string `json:"zip"`
	Country  string `json:"country"`
}

func SnapshotOf(a Address) AddressSnapshot {
	return AddressSnapshot{
		FullName: a.FullName,
		Mobile:   a.Mobile,
		Street:   a.Street,
		City:     a.City,
		State:    a.State,
		Zip:      a.Zip,
		Country:  a.Country,
	}
}

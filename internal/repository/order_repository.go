package repository

import (
	"context"
	"strconv"
	"time"

	"shopmart/internal/domain/model"
)

// OrderRef は注文の識別子。DBネイティブのIDと
// 旧体系のテキストトークンの2種類を1つの入力に畳む。
type OrderRef struct {
	NativeID int64
	Legacy   string
}

// 数値ならネイティブID、それ以外は旧トークンとして扱う
func ParseOrderRef(s string) OrderRef {
	if id, err := strconv.ParseInt(s, 10, 64); err == nil && id > 0 {
		return OrderRef{NativeID: id}
	}
	return OrderRef{Legacy: s}
}

func (r OrderRef) IsZero() bool {
	return r.NativeID <= 0 && r.Legacy == ""
}

type AdminOrderListFilter struct {
	Page   int
	Limit  int
	Status string
	UserID *int64
	From   *time.Time
	To     *time.Time
}

type OrderRepository interface {
	//タグ付きIDで1件取得。ネイティブID優先、無ければ旧トークンで探す。
	FindByRef(ctx context.Context, ref OrderRef) (model.Order, error)

	//オンライン決済の検証で使う（ゲートウェイ側の注文IDから引く）
	FindByRazorpayOrderID(ctx context.Context, razorpayOrderID string) (model.Order, error)

	ListByUserID(ctx context.Context, userID int64, page int, limit int) ([]model.Order, int64, error)
	Create(ctx context.Context, order model.Order) (int64, error)

	//ステータス・支払い方法・ゲートウェイ対応IDの更新
	Update(ctx context.Context, order model.Order) error
	UpdateStatus(ctx context.Context, orderID int64, status model.OrderStatus) error

	//管理者用の注文一覧
	ListAdmin(ctx context.Context, f AdminOrderListFilter) ([]model.Order, int64, error)
}

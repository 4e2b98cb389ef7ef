package repository

import (
	"context"

	"shopmart/internal/domain/model"
)

// カートはユーザーに紐づく明細の集合。user_id単位で操作する。
type CartRepository interface {
	ListByUserID(ctx context.Context, userID int64) ([]model.CartItem, error)

	//チェックアウト系のトランザクション内で使う。
	//同一ユーザーの同時チェックアウトを行ロックで直列化する。
	ListByUserIDForUpdate(ctx context.Context, userID int64) ([]model.CartItem, error)

	// 同一商品はプラス
	AddQuantity(ctx context.Context, userID int64, productID int64, addQty int64) error

	//明細が無ければErrNotFound
	UpdateQuantity(ctx context.Context, userID int64, productID int64, qty int64) error

	//指定商品の明細を削除（存在しないIDはそのまま無視）
	RemoveProducts(ctx context.Context, userID int64, productIDs []int64) error

	Clear(ctx context.Context, userID int64) error
}

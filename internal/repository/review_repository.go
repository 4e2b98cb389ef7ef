package repository

import (
	"context"

	"shopmart/internal/domain/model"
)

type ReviewRepository interface {
	ListByProductID(ctx context.Context, productID int64) ([]model.Review, error)

	//既にレビュー済みかどうかの確認に使う
	FindByProductAndUser(ctx context.Context, productID, userID int64) (model.Review, bool, error)

	Create(ctx context.Context, r model.Review) (model.Review, error)
}

package repository

import (
	"context"
	"errors"

	"shopmart/internal/domain/model"
	repo "shopmart/internal/repository"

	"gorm.io/gorm"
)

type reviewGormRepository struct {
	db *gorm.DB
}

// DI
func NewReviewGormRepository(db *gorm.DB) repo.ReviewRepository {
	return &reviewGormRepository{db: db}
}

func (r *reviewGormRepository) ListByProductID(ctx context.Context, productID int64) ([]model.Review, error) {
	var list []model.Review
	if err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("id asc").
		Find(&list).Error; err != nil {
		return []model.Review{}, err
	}
	return list, nil
}

func (r *reviewGormRepository) FindByProductAndUser(ctx context.Context, productID, userID int64) (model.Review, bool, error) {
	var rv model.Review
	err := r.db.WithContext(ctx).
		Where("product_id = ? AND user_id = ?", productID, userID).
		First(&rv).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Review{}, false, nil
	}
	if err != nil {
		return model.Review{}, false, err
	}
	return rv, true, nil
}

func (r *reviewGormRepository) Create(ctx context.Context, rv model.Review) (model.Review, error) {
	if err := r.db.WithContext(ctx).Create(&rv).Error; err != nil {
		return model.Review{}, err
	}
	return rv, nil
}

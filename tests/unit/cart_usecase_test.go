package unit

import (
	"context"
	"testing"

	"shopmart/internal/config"
	"shopmart/internal/domain/model"
	repo "shopmart/internal/repository"
	"shopmart/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func newCartUsecase(cartRepo *CartRepoMock, productRepo *ProductRepoMock) *usecase.CartUsecase {
	cfg := config.Config{DeliveryFee: 50}
	return usecase.NewCartUsecase(cfg, cartRepo, productRepo)
}

func TestCartUsecase_GetCart_Empty_NoDeliveryFee(t *testing.T) {
	ctx := context.Background()

	cartRepo := new(CartRepoMock)
	productRepo := new(ProductRepoMock)
	uc := newCartUsecase(cartRepo, productRepo)

	cartRepo.On("ListByUserID", mock.Anything, int64(1)).Return([]model.CartItem{}, nil)

	out, err := uc.GetCart(ctx, 1)
	assert.NoError(t, err)
	assert.Equal(t, 0, len(out.Items))
	assert.Equal(t, float64(0), out.Subtotal)
	assert.Equal(t, float64(0), out.DeliveryFee)
	assert.Equal(t, float64(0), out.Total)

	cartRepo.AssertExpectations(t)
}

func TestCartUsecase_GetCart_Totals(t *testing.T) {
	ctx := context.Background()

	cartRepo := new(CartRepoMock)
	productRepo := new(ProductRepoMock)
	uc := newCartUsecase(cartRepo, productRepo)

	cartRepo.On("ListByUserID", mock.Anything, int64(1)).Return([]model.CartItem{
		{UserID: 1, ProductID: 10, Quantity: 2},
	}, nil)
	productRepo.On("FindByID", mock.Anything, int64(10)).Return(model.Product{
		ID: 10, Name: "Keyboard", Price: 100, IsAvailable: true,
	}, nil)

	out, err := uc.GetCart(ctx, 1)
	assert.NoError(t, err)
	assert.Equal(t, 1, len(out.Items))
	assert.Equal(t, float64(200), out.Subtotal)
	assert.Equal(t, float64(50), out.DeliveryFee)
	assert.Equal(t, float64(250), out.Total)

	cartRepo.AssertExpectations(t)
	productRepo.AssertExpectations(t)
}

// 消えた商品の明細はレスポンスから外れ、DBからも削除される
func TestCartUsecase_GetCart_PrunesDanglingItems(t *testing.T) {
	ctx := context.Background()

	cartRepo := new(CartRepoMock)
	productRepo := new(ProductRepoMock)
	uc := newCartUsecase(cartRepo, productRepo)

	cartRepo.On("ListByUserID", mock.Anything, int64(1)).Return([]model.CartItem{
		{UserID: 1, ProductID: 10, Quantity: 1},
		{UserID: 1, ProductID: 11, Quantity: 1},
		{UserID: 1, ProductID: 12, Quantity: 1},
	}, nil)

	productRepo.On("FindByID", mock.Anything, int64(10)).Return(model.Product{
		ID: 10, Name: "Alive", Price: 30, IsAvailable: true,
	}, nil)
	//削除済み
	productRepo.On("FindByID", mock.Anything, int64(11)).Return(model.Product{}, repo.ErrNotFound)
	//非公開
	productRepo.On("FindByID", mock.Anything, int64(12)).Return(model.Product{
		ID: 12, IsAvailable: false,
	}, nil)

	cartRepo.On("RemoveProducts", mock.Anything, int64(1), []int64{11, 12}).Return(nil)

	out, err := uc.GetCart(ctx, 1)
	assert.NoError(t, err)
	assert.Equal(t, 1, len(out.Items))
	assert.Equal(t, int64(10), out.Items[0].ProductID)

	cartRepo.AssertExpectations(t)
	productRepo.AssertExpectations(t)
}

func TestCartUsecase_AddItem_ProductNotFound(t *testing.T) {
	ctx := context.Background()

	cartRepo := new(CartRepoMock)
	productRepo := new(ProductRepoMock)
	uc := newCartUsecase(cartRepo, productRepo)

	productRepo.On("FindByID", mock.Anything, int64(99)).Return(model.Product{}, repo.ErrNotFound)

	_, err := uc.AddItem(ctx, 1, usecase.AddCartInput{ProductID: 99, Quantity: 1})
	assertErrContains(t, err, "product not found")

	cartRepo.AssertNotCalled(t, "AddQuantity", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCartUsecase_AddItem_UnavailableProduct(t *testing.T) {
	ctx := context.Background()

	cartRepo := new(CartRepoMock)
	productRepo := new(ProductRepoMock)
	uc := newCartUsecase(cartRepo, productRepo)

	productRepo.On("FindByID", mock.Anything, int64(10)).Return(model.Product{
		ID: 10, IsAvailable: false,
	}, nil)

	_, err := uc.AddItem(ctx, 1, usecase.AddCartInput{ProductID: 10, Quantity: 1})
	assertErrContains(t, err, "product not found")
}

func TestCartUsecase_AddItem_InvalidQuantity(t *testing.T) {
	uc := newCartUsecase(new(CartRepoMock), new(ProductRepoMock))

	_, err := uc.AddItem(context.Background(), 1, usecase.AddCartInput{ProductID: 10, Quantity: 0})
	assertErrContains(t, err, "invalid quantity")
}

// 同一商品の追加は数量加算
func TestCartUsecase_AddItem_Success(t *testing.T) {
	ctx := context.Background()

	cartRepo := new(CartRepoMock)
	productRepo := new(ProductRepoMock)
	uc := newCartUsecase(cartRepo, productRepo)

	productRepo.On("FindByID", mock.Anything, int64(10)).Return(model.Product{
		ID: 10, Name: "Keyboard", Price: 100, IsAvailable: true,
	}, nil)
	cartRepo.On("AddQuantity", mock.Anything, int64(1), int64(10), int64(2)).Return(nil)
	cartRepo.On("ListByUserID", mock.Anything, int64(1)).Return([]model.CartItem{
		{UserID: 1, ProductID: 10, Quantity: 2},
	}, nil)

	out, err := uc.AddItem(ctx, 1, usecase.AddCartInput{ProductID: 10, Quantity: 2})
	assert.NoError(t, err)
	assert.Equal(t, float64(250), out.Total)

	cartRepo.AssertExpectations(t)
	productRepo.AssertExpectations(t)
}

func TestCartUsecase_UpdateQuantity_ItemNotFound(t *testing.T) {
	ctx := context.Background()

	cartRepo := new(CartRepoMock)
	uc := newCartUsecase(cartRepo, new(ProductRepoMock))

	cartRepo.On("UpdateQuantity", mock.Anything, int64(1), int64(10), int64(3)).Return(repo.ErrNotFound)

	_, err := uc.UpdateQuantity(ctx, 1, 10, usecase.UpdateCartItemInput{Quantity: 3})
	assertErrContains(t, err, "cart item not found")
}

func TestCartUsecase_UpdateQuantity_InvalidQuantity(t *testing.T) {
	uc := newCartUsecase(new(CartRepoMock), new(ProductRepoMock))

	_, err := uc.UpdateQuantity(context.Background(), 1, 10, usecase.UpdateCartItemInput{Quantity: 0})
	assertErrContains(t, err, "invalid quantity")
}

func TestCartUsecase_RemoveItem_Success(t *testing.T) {
	ctx := context.Background()

	cartRepo := new(CartRepoMock)
	uc := newCartUsecase(cartRepo, new(ProductRepoMock))

	cartRepo.On("RemoveProducts", mock.Anything, int64(1), []int64{10}).Return(nil)
	cartRepo.On("ListByUserID", mock.Anything, int64(1)).Return([]model.CartItem{}, nil)

	out, err := uc.RemoveItem(ctx, 1, 10)
	assert.NoError(t, err)
	assert.Equal(t, 0, len(out.Items))

	cartRepo.AssertExpectations(t)
}

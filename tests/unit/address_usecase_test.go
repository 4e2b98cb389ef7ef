package unit

import (
	"context"
	"testing"

	"shopmart/internal/domain/model"
	"shopmart/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func newAddressUsecase(tx *txReposStub) *usecase.AddressUsecase {
	return usecase.NewAddressUsecase(&txManagerStub{repos: tx}, tx.addresses)
}

func validAddressInput() usecase.SaveAddressInput {
	return usecase.SaveAddressInput{
		FullName: "Taro",
		Mobile:   "09012345678",
		Street:   "1-2-3 Chiyoda",
		City:     "Tokyo",
		State:    "Tokyo",
		Zip:      "100-0001",
		Country:  "JP",
	}
}

func TestAddressUsecase_Create_Success(t *testing.T) {
	ctx := context.Background()

	tx := newTxReposStub()
	uc := newAddressUsecase(tx)

	tx.addresses.On("Create", mock.Anything, mock.MatchedBy(func(a model.Address) bool {
		return a.UserID == 1 && a.FullName == "Taro" && !a.IsDefault
	})).Return(model.Address{ID: 5, UserID: 1, FullName: "Taro"}, nil)

	out, err := uc.Create(ctx, 1, validAddressInput())
	assert.NoError(t, err)
	assert.Equal(t, int64(5), out.ID)

	//デフォルト指定が無ければ既存デフォルトに触らない
	tx.addresses.AssertNotCalled(t, "ClearDefault", mock.Anything, mock.Anything)
}

// デフォルト指定なら既存のデフォルトを外してから作る
func TestAddressUsecase_Create_AsDefault(t *testing.T) {
	ctx := context.Background()

	tx := newTxReposStub()
	uc := newAddressUsecase(tx)

	tx.addresses.On("ClearDefault", mock.Anything, int64(1)).Return(nil)
	tx.addresses.On("Create", mock.Anything, mock.MatchedBy(func(a model.Address) bool {
		return a.IsDefault
	})).Return(model.Address{ID: 5, UserID: 1, IsDefault: true}, nil)

	in := validAddressInput()
	in.IsDefault = true

	out, err := uc.Create(ctx, 1, in)
	assert.NoError(t, err)
	assert.True(t, out.IsDefault)

	tx.addresses.AssertExpectations(t)
}

func TestAddressUsecase_Create_MissingFields(t *testing.T) {
	uc := newAddressUsecase(newTxReposStub())

	in := validAddressInput()
	in.Street = " "
	_, err := uc.Create(context.Background(), 1, in)
	assertErrContains(t, err, "street required")

	in = validAddressInput()
	in.City = ""
	_, err = uc.Create(context.Background(), 1, in)
	assertErrContains(t, err, "city required")
}

// 他人の住所は更新できない
func TestAddressUsecase_Update_NotOwned(t *testing.T) {
	ctx := context.Background()

	tx := newTxReposStub()
	uc := newAddressUsecase(tx)

	tx.addresses.On("IsOwnedByUser", mock.Anything, int64(5), int64(1)).Return(false, nil)

	_, err := uc.Update(ctx, 1, 5, validAddressInput())
	assertErrContains(t, err, "address not found")

	tx.addresses.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestAddressUsecase_Update_Success(t *testing.T) {
	ctx := context.Background()

	tx := newTxReposStub()
	uc := newAddressUsecase(tx)

	tx.addresses.On("IsOwnedByUser", mock.Anything, int64(5), int64(1)).Return(true, nil)
	tx.addresses.On("Update", mock.Anything, mock.MatchedBy(func(a model.Address) bool {
		return a.ID == 5 && a.UserID == 1 && a.City == "Tokyo"
	})).Return(nil)
	tx.addresses.On("FindByID", mock.Anything, int64(5)).Return(model.Address{
		ID: 5, UserID: 1, City: "Tokyo",
	}, nil)

	out, err := uc.Update(ctx, 1, 5, validAddressInput())
	assert.NoError(t, err)
	assert.Equal(t, "Tokyo", out.City)

	tx.addresses.AssertExpectations(t)
}

func TestAddressUsecase_Delete_NotOwned(t *testing.T) {
	ctx := context.Background()

	tx := newTxReposStub()
	uc := newAddressUsecase(tx)

	tx.addresses.On("IsOwnedByUser", mock.Anything, int64(5), int64(1)).Return(false, nil)

	err := uc.Delete(ctx, 1, 5)
	assertErrContains(t, err, "address not found")

	tx.addresses.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestAddressUsecase_SetDefault_Success(t *testing.T) {
	ctx := context.Background()

	tx := newTxReposStub()
	uc := newAddressUsecase(tx)

	tx.addresses.On("IsOwnedByUser", mock.Anything, int64(5), int64(1)).Return(true, nil)
	tx.addresses.On("SetDefault", mock.Anything, int64(1), int64(5)).Return(nil)

	err := uc.SetDefault(ctx, 1, 5)
	assert.NoError(t, err)

	tx.addresses.AssertExpectations(t)
}

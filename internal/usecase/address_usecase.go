package usecase

import (
	"context"
	"net/http"
	"strings"

	"shopmart/internal/domain/model"
	repo "shopmart/internal/repository"
)

type AddressUsecase struct {
	txm         repo.TransactionManager
	addressRepo repo.AddressRepository
}

// DI
func NewAddressUsecase(txm repo.TransactionManager, addressRepo repo.AddressRepository) *AddressUsecase {
	return &AddressUsecase{
		txm:         txm,
		addressRepo: addressRepo,
	}
}

type SaveAddressInput struct {
	FullName  string `json:"full_name"`
	Mobile    string `json:"mobile"`
	Street    string `json:"street"`
	City      string `json:"city"`
	State     string `json:"state"`
	Zip       string `json:"zip"`
	Country   string `json:"country"`
	IsDefault bool   `json:"is_default"`
}

func (u *AddressUsecase) List(ctx context.Context, userID int64) ([]model.Address, error) {
	if userID <= 0 {
		return nil, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	list, err := u.addressRepo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return list, nil
}

// Create は住所を追加する。is_defaultが立っていれば
// 既存のデフォルトを外してから作る（ユーザー内で1件だけ）。
func (u *AddressUsecase) Create(ctx context.Context, userID int64, in SaveAddressInput) (model.Address, error) {
	if userID <= 0 {
		return model.Address{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if err := validateAddressInput(in); err != nil {
		return model.Address{}, err
	}

	a := model.Address{
		UserID:    userID,
		FullName:  strings.TrimSpace(in.FullName),
		Mobile:    strings.TrimSpace(in.Mobile),
		Street:    strings.TrimSpace(in.Street),
		City:      strings.TrimSpace(in.City),
		State:     strings.TrimSpace(in.State),
		Zip:       strings.TrimSpace(in.Zip),
		Country:   strings.TrimSpace(in.Country),
		IsDefault: in.IsDefault,
	}

	var created model.Address

	err := u.txm.WithinTx(ctx, func(r repo.TxRepos) error {
		if a.IsDefault {
			if err := r.Addresses().ClearDefault(ctx, userID); err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
		}

		var err error
		created, err = r.Addresses().Create(ctx, a)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		return nil
	})
	if err != nil {
		return model.Address{}, err
	}

	return created, nil
}

func (u *AddressUsecase) Update(ctx context.Context, userID int64, addressID int64, in SaveAddressInput) (model.Address, error) {
	if userID <= 0 {
		return model.Address{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if addressID <= 0 {
		return model.Address{}, NewHTTPError(http.StatusBadRequest, "invalid address id")
	}
	if err := validateAddressInput(in); err != nil {
		return model.Address{}, err
	}

	//所有チェック（本人のみ）
	owned, err := u.addressRepo.IsOwnedByUser(ctx, addressID, userID)
	if err != nil {
		return model.Address{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if !owned {
		return model.Address{}, NewHTTPError(http.StatusNotFound, "address not found")
	}

	a := model.Address{
		ID:       addressID,
		UserID:   userID,
		FullName: strings.TrimSpace(in.FullName),
		Mobile:   strings.TrimSpace(in.Mobile),
		Street:   strings.TrimSpace(in.Street),
		City:     strings.TrimSpace(in.City),
		State:    strings.TrimSpace(in.State),
		Zip:      strings.TrimSpace(in.Zip),
		Country:  strings.TrimSpace(in.Country),
	}

	if err := u.addressRepo.Update(ctx, a); err != nil {
		if err == repo.ErrNotFound {
			return model.Address{}, NewHTTPError(http.StatusNotFound, "address not found")
		}
		return model.Address{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	updated, err := u.addressRepo.FindByID(ctx, addressID)
	if err != nil {
		return model.Address{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return updated, nil
}

func (u *AddressUsecase) Delete(ctx context.Context, userID int64, addressID int64) error {
	if userID <= 0 {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if addressID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid address id")
	}

	owned, err := u.addressRepo.IsOwnedByUser(ctx, addressID, userID)
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if !owned {
		return NewHTTPError(http.StatusNotFound, "address not found")
	}

	if err := u.addressRepo.Delete(ctx, addressID); err != nil {
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "address not found")
		}
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return nil
}

// SetDefault はデフォルト住所を切り替える。ユーザー内で1件だけ。
func (u *AddressUsecase) SetDefault(ctx context.Context, userID int64, addressID int64) error {
	if userID <= 0 {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if addressID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid address id")
	}

	owned, err := u.addressRepo.IsOwnedByUser(ctx, addressID, userID)
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if !owned {
		return NewHTTPError(http.StatusNotFound, "address not found")
	}

	if err := u.addressRepo.SetDefault(ctx, userID, addressID); err != nil {
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "address not found")
		}
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return nil
}

func validateAddressInput(in SaveAddressInput) error {
	if strings.TrimSpace(in.FullName) == "" {
		return NewHTTPError(http.StatusBadRequest, "full_name required")
	}
	if strings.TrimSpace(in.Street) == "" {
		return NewHTTPError(http.StatusBadRequest, "street required")
	}
	if strings.TrimSpace(in.City) == "" {
		return NewHTTPError(http.StatusBadRequest, "city required")
	}
	return nil
}

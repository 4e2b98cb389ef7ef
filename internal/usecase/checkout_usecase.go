package usecase

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	"shopmart/internal/config"
	"shopmart/internal/domain/model"
	repo "shopmart/internal/repository"

	"github.com/google/uuid"
)

// クライアント申告の合計と再計算値のずれの許容幅。
// 端数処理の差だけを吸収する。
const totalTolerance = 1.0

// CheckoutUsecase は注文確定までの一連を扱う。
// 金額は必ずサーバー側で再計算する。
type CheckoutUsecase struct {
	txm         repo.TransactionManager
	cartRepo    repo.CartRepository
	productRepo repo.ProductRepository
	addressRepo repo.AddressRepository
	orderRepo   repo.OrderRepository
	deliveryFee float64
}

// DI
func NewCheckoutUsecase(
	cfg config.Config,
	txm repo.TransactionManager,
	cartRepo repo.CartRepository,
	productRepo repo.ProductRepository,
	addressRepo repo.AddressRepository,
	orderRepo repo.OrderRepository,
) *CheckoutUsecase {
	return &CheckoutUsecase{
		txm:         txm,
		cartRepo:    cartRepo,
		productRepo: productRepo,
		addressRepo: addressRepo,
		orderRepo:   orderRepo,
		deliveryFee: cfg.DeliveryFee,
	}
}

type CheckoutSummary struct {
	Items       []CartLine      `json:"items"`
	Subtotal    float64         `json:"subtotal"`
	DeliveryFee float64         `json:"delivery_fee"`
	Total       float64         `json:"total"`
	Addresses   []model.Address `json:"addresses"`
}

type PlaceOrderInput struct {
	AddressID     *int64  `json:"address_id"`
	PaymentMethod string  `json:"payment_method"`
	Total         float64 `json:"total"`
}

// GetCheckoutSummary は確定前の内訳を返す。
func (u *CheckoutUsecase) GetCheckoutSummary(ctx context.Context, userID int64) (CheckoutSummary, error) {
	if userID <= 0 {
		return CheckoutSummary{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	items, err := u.cartRepo.ListByUserID(ctx, userID)
	if err != nil {
		return CheckoutSummary{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	lines, subtotal, _, err := u.priceCart(ctx, u.productRepo, items)
	if err != nil {
		return CheckoutSummary{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	addresses, err := u.addressRepo.ListByUserID(ctx, userID)
	if err != nil {
		return CheckoutSummary{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	s := CheckoutSummary{
		Items:     lines,
		Subtotal:  subtotal,
		Addresses: addresses,
	}
	if len(lines) > 0 {
		s.DeliveryFee = u.deliveryFee
	}
	s.Total = s.Subtotal + s.DeliveryFee

	return s, nil
}

// PlaceOrder は注文をPendingで作成する。
// カート明細を行ロックして、同一ユーザーの同時チェックアウトを直列化する。
// カートはこの時点では消さない（確定時に消す）。
func (u *CheckoutUsecase) PlaceOrder(ctx context.Context, userID int64, in PlaceOrderInput) (OrderDTO, error) {
	if userID <= 0 {
		return OrderDTO{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if in.Total < 0 {
		return OrderDTO{}, NewHTTPError(http.StatusBadRequest, "invalid total")
	}

	var out OrderDTO

	err := u.txm.WithinTx(ctx, func(r repo.TxRepos) error {
		items, err := r.Carts().ListByUserIDForUpdate(ctx, userID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		lines, subtotal, prune, err := u.priceCart(ctx, r.Products(), items)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if len(prune) > 0 {
			if err := r.Carts().RemoveProducts(ctx, userID, prune); err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
		}
		if len(lines) == 0 {
			return NewHTTPError(http.StatusBadRequest, "cart is empty")
		}

		deliveryFee := u.deliveryFee
		total := subtotal + deliveryFee

		//端数処理の差（±1）までは受け入れる
		if math.Abs(total-in.Total) > totalTolerance {
			return NewHTTPError(http.StatusBadRequest, "total amount mismatch")
		}

		//住所解決: 指定 → デフォルト → なし
		shipping, err := u.resolveAddress(ctx, r.Addresses(), userID, in.AddressID)
		if err != nil {
			return err
		}

		order := model.Order{
			UserID:          userID,
			LegacyOrderID:   newLegacyOrderID(),
			Subtotal:        subtotal,
			DeliveryFee:     deliveryFee,
			Total:           total,
			PaymentMethod:   model.NormalizePaymentMethod(in.PaymentMethod),
			Status:          model.OrderStatusPending,
			ShippingAddress: shipping,
		}

		orderID, err := r.Orders().Create(ctx, order)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		order.ID = orderID

		orderItems := make([]model.OrderItem, 0, len(lines))
		for _, line := range lines {
			orderItems = append(orderItems, model.OrderItem{
				ProductID:           line.ProductID,
				ProductNameSnapshot: line.Name,
				UnitPriceSnapshot:   line.Price,
				Quantity:            line.Quantity,
			})
		}
		if err := r.OrderItems().CreateBulk(ctx, orderID, orderItems); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		out = toOrderDTO(order, orderItems)
		return nil
	})
	if err != nil {
		return OrderDTO{}, err
	}

	return out, nil
}

// ConfirmCOD は代引き注文を確定してカートを空にする。
// 確定済み注文に再度来た場合は何も変えずに成功を返す。
func (u *CheckoutUsecase) ConfirmCOD(ctx context.Context, userID int64, ref string) (OrderDTO, error) {
	if userID <= 0 {
		return OrderDTO{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	orderRef := repo.ParseOrderRef(strings.TrimSpace(ref))
	if orderRef.IsZero() {
		return OrderDTO{}, NewHTTPError(http.StatusBadRequest, "invalid order id")
	}

	var out OrderDTO

	err := u.txm.WithinTx(ctx, func(r repo.TxRepos) error {
		order, err := r.Orders().FindByRef(ctx, orderRef)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "order not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		//他人の注文は存在ごと隠す
		if order.UserID != userID {
			return NewHTTPError(http.StatusNotFound, "order not found")
		}

		if order.PaymentMethod == model.PaymentMethodOnline {
			return NewHTTPError(http.StatusBadRequest, "not a cod order")
		}

		//確定済みへの再確定は成功扱い（リトライ対策）
		if order.Status == model.OrderStatusConfirmed {
			items, err := r.OrderItems().ListByOrderID(ctx, order.ID)
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			out = toOrderDTO(order, items)
			return nil
		}

		if !model.CanTransition(order.Status, model.OrderStatusConfirmed) {
			return NewHTTPError(http.StatusConflict, "invalid status transition")
		}

		//注文作成から確定までの間にカートが空になっていたら確定させない
		cartItems, err := r.Carts().ListByUserIDForUpdate(ctx, userID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if len(cartItems) == 0 {
			return NewHTTPError(http.StatusBadRequest, "cart is empty")
		}

		order.Status = model.OrderStatusConfirmed
		order.PaymentMethod = model.PaymentMethodCOD

		//注文の確定が先、カートを空にするのは後。
		//途中で失敗したらトランザクションごと巻き戻る。
		if err := r.Orders().Update(ctx, order); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if err := r.Carts().Clear(ctx, userID); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		items, err := r.OrderItems().ListByOrderID(ctx, order.ID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		out = toOrderDTO(order, items)
		return nil
	})
	if err != nil {
		return OrderDTO{}, err
	}

	return out, nil
}

// カート明細を商品と突き合わせて価格計算する。
// 解決できなかった商品IDは第3戻り値。
func (u *CheckoutUsecase) priceCart(ctx context.Context, products repo.ProductRepository, items []model.CartItem) ([]CartLine, float64, []int64, error) {
	lines := make([]CartLine, 0, len(items))
	prune := make([]int64, 0)
	var subtotal float64

	for _, it := range items {
		p, err := products.FindByID(ctx, it.ProductID)
		if err == repo.ErrNotFound {
			prune = append(prune, it.ProductID)
			continue
		}
		if err != nil {
			return nil, 0, nil, err
		}
		if !p.IsAvailable {
			prune = append(prune, it.ProductID)
			continue
		}

		lineTotal := p.Price * float64(it.Quantity)
		lines = append(lines, CartLine{
			ProductID: it.ProductID,
			Name:      p.Name,
			ImageURL:  p.ImageURL,
			Price:     p.Price,
			Quantity:  it.Quantity,
			LineTotal: lineTotal,
		})
		subtotal += lineTotal
	}

	return lines, subtotal, prune, nil
}

// 住所IDが指定されていれば所有確認つきで使う。
// 指定が無ければデフォルト住所。どちらも無ければ住所なしで進める。
func (u *CheckoutUsecase) resolveAddress(ctx context.Context, addresses repo.AddressRepository, userID int64, addressID *int64) (*model.AddressSnapshot, error) {
	if addressID != nil {
		if *addressID <= 0 {
			return nil, NewHTTPError(http.StatusBadRequest, "invalid address_id")
		}
		a, err := addresses.FindByID(ctx, *addressID)
		if err == repo.ErrNotFound {
			return nil, NewHTTPError(http.StatusNotFound, "address not found")
		}
		if err != nil {
			return nil, NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if a.UserID != userID {
			return nil, NewHTTPError(http.StatusNotFound, "address not found")
		}
		snap := model.SnapshotOf(a)
		return &snap, nil
	}

	a, err := addresses.FindDefaultByUserID(ctx, userID)
	if err == repo.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	snap := model.SnapshotOf(a)
	return &snap, nil
}

// 旧体系のトークン。ミリ秒時刻＋短いランダム列。
func newLegacyOrderID() string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:9]
	return fmt.Sprintf("order_%d_%s", time.Now().UnixMilli(), suffix)
}

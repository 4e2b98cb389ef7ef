package usecase

import (
	"context"
	"math"
	"net/http"
	"strings"

	"shopmart/internal/domain/model"
	repo "shopmart/internal/repository"
)

// PaymentGateway は外部決済への窓口。
// 実体はinfra/gatewayのRazorpayクライアント。
type PaymentGateway interface {
	CreateOrder(ctx context.Context, amountMinor int64, currency string, receipt string, notes map[string]interface{}) (string, error)
	VerifySignature(gatewayOrderID, paymentID, signature string) bool
	KeyID() string
}

type PaymentUsecase struct {
	txm       repo.TransactionManager
	orderRepo repo.OrderRepository
	gateway   PaymentGateway
}

// DI
func NewPaymentUsecase(txm repo.TransactionManager, orderRepo repo.OrderRepository, gateway PaymentGateway) *PaymentUsecase {
	return &PaymentUsecase{
		txm:       txm,
		orderRepo: orderRepo,
		gateway:   gateway,
	}
}

// フロントが決済ウィジェットを開くのに必要な値
type InitiatePaymentResponse struct {
	KeyID           string  `json:"key_id"`
	GatewayOrderID  string  `json:"gateway_order_id"`
	AmountMinor     int64   `json:"amount_minor"`
	Currency        string  `json:"currency"`
	OrderID         int64   `json:"order_id"`
	LegacyOrderID   string  `json:"legacy_order_id"`
	Total           float64 `json:"total"`
}

type VerifyPaymentInput struct {
	GatewayOrderID string `json:"razorpay_order_id"`
	PaymentID      string `json:"razorpay_payment_id"`
	Signature      string `json:"razorpay_signature"`
}

// InitiateOnline はゲートウェイ側の注文を作ってIDを対応づける。
// カートはここでは消えない（検証が通るまで残す）。
func (u *PaymentUsecase) InitiateOnline(ctx context.Context, userID int64, ref string) (InitiatePaymentResponse, error) {
	if userID <= 0 {
		return InitiatePaymentResponse{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	orderRef := repo.ParseOrderRef(strings.TrimSpace(ref))
	if orderRef.IsZero() {
		return InitiatePaymentResponse{}, NewHTTPError(http.StatusBadRequest, "invalid order id")
	}

	order, err := u.orderRepo.FindByRef(ctx, orderRef)
	if err == repo.ErrNotFound {
		return InitiatePaymentResponse{}, NewHTTPError(http.StatusNotFound, "order not found")
	}
	if err != nil {
		return InitiatePaymentResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if order.UserID != userID {
		return InitiatePaymentResponse{}, NewHTTPError(http.StatusNotFound, "order not found")
	}
	if order.Status != model.OrderStatusPending {
		return InitiatePaymentResponse{}, NewHTTPError(http.StatusConflict, "order already processed")
	}

	//リトライで二重にゲートウェイ注文を作らない
	if order.RazorpayOrderID != "" {
		return u.buildInitiateResponse(order), nil
	}

	//最小通貨単位（paise）に変換
	amountMinor := int64(math.Round(order.Total * 100))

	gatewayOrderID, err := u.gateway.CreateOrder(ctx, amountMinor, "INR", order.LegacyOrderID, map[string]interface{}{
		"order_id": order.ID,
		"user_id":  order.UserID,
	})
	if err != nil {
		return InitiatePaymentResponse{}, NewHTTPError(http.StatusBadGateway, "payment gateway error")
	}

	order.RazorpayOrderID = gatewayOrderID
	order.PaymentMethod = model.PaymentMethodOnline
	if err := u.orderRepo.Update(ctx, order); err != nil {
		return InitiatePaymentResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return u.buildInitiateResponse(order), nil
}

// VerifyPayment は署名を検証してから注文を確定し、カートを空にする。
// 署名が合わない限り何も書き換えない。
func (u *PaymentUsecase) VerifyPayment(ctx context.Context, userID int64, in VerifyPaymentInput) (OrderDTO, error) {
	if userID <= 0 {
		return OrderDTO{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if in.GatewayOrderID == "" || in.PaymentID == "" || in.Signature == "" {
		return OrderDTO{}, NewHTTPError(http.StatusBadRequest, "missing payment fields")
	}

	//先に署名。DBより前に落とす。
	if !u.gateway.VerifySignature(in.GatewayOrderID, in.PaymentID, in.Signature) {
		return OrderDTO{}, NewHTTPError(http.StatusBadRequest, "invalid payment signature")
	}

	var out OrderDTO

	err := u.txm.WithinTx(ctx, func(r repo.TxRepos) error {
		order, err := r.Orders().FindByRazorpayOrderID(ctx, in.GatewayOrderID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "order not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if order.UserID != userID {
			return NewHTTPError(http.StatusNotFound, "order not found")
		}

		//同じ支払いの再検証は成功扱い（リトライ対策）
		if order.Status == model.OrderStatusConfirmed {
			if order.RazorpayPaymentID != in.PaymentID {
				return NewHTTPError(http.StatusConflict, "order already processed")
			}
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

		order.Status = model.OrderStatusConfirmed
		order.PaymentMethod = model.PaymentMethodOnline
		order.RazorpayPaymentID = in.PaymentID

		//注文の確定が先、カートを空にするのは後
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

func (u *PaymentUsecase) buildInitiateResponse(order model.Order) InitiatePaymentResponse {
	return InitiatePaymentResponse{
		KeyID:          u.gateway.KeyID(),
		GatewayOrderID: order.RazorpayOrderID,
		AmountMinor:    int64(math.Round(order.Total * 100)),
		Currency:       "INR",
		OrderID:        order.ID,
		LegacyOrderID:  order.LegacyOrderID,
		Total:          order.Total,
	}
}

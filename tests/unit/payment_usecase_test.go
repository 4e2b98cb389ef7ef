package unit

import (
	"context"
	"errors"
	"testing"

	"shopmart/internal/domain/model"
	repo "shopmart/internal/repository"
	"shopmart/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type GatewayMock struct{ mock.Mock }

func (m *GatewayMock) CreateOrder(ctx context.Context, amountMinor int64, currency string, receipt string, notes map[string]interface{}) (string, error) {
	args := m.Called(ctx, amountMinor, currency, receipt, notes)
	return args.String(0), args.Error(1)
}

func (m *GatewayMock) VerifySignature(gatewayOrderID, paymentID, signature string) bool {
	args := m.Called(gatewayOrderID, paymentID, signature)
	return args.Bool(0)
}

func (m *GatewayMock) KeyID() string {
	args := m.Called()
	return args.String(0)
}

func newPaymentUsecase(tx *txReposStub, gw *GatewayMock) *usecase.PaymentUsecase {
	return usecase.NewPaymentUsecase(&txManagerStub{repos: tx}, tx.orders, gw)
}

// 合計250円 → 25000 paise でゲートウェイ注文を作り、対応IDを保存する
func TestPaymentUsecase_InitiateOnline_Success(t *testing.T) {
	ctx := context.Background()

	tx := newTxReposStub()
	gw := new(GatewayMock)
	uc := newPaymentUsecase(tx, gw)

	tx.orders.On("FindByRef", mock.Anything, repo.OrderRef{NativeID: 77}).Return(model.Order{
		ID: 77, UserID: 1, Status: model.OrderStatusPending, Total: 250, LegacyOrderID: "order_1712345678901_ab12cd34e",
	}, nil)
	gw.On("CreateOrder", mock.Anything, int64(25000), "INR", "order_1712345678901_ab12cd34e", mock.Anything).
		Return("rzp_order_abc", nil)
	tx.orders.On("Update", mock.Anything, mock.MatchedBy(func(o model.Order) bool {
		return o.ID == 77 &&
			o.RazorpayOrderID == "rzp_order_abc" &&
			o.PaymentMethod == model.PaymentMethodOnline
	})).Return(nil)
	gw.On("KeyID").Return("rzp_test_key")

	out, err := uc.InitiateOnline(ctx, 1, "77")
	assert.NoError(t, err)
	assert.Equal(t, "rzp_test_key", out.KeyID)
	assert.Equal(t, "rzp_order_abc", out.GatewayOrderID)
	assert.Equal(t, int64(25000), out.AmountMinor)
	assert.Equal(t, "INR", out.Currency)

	tx.orders.AssertExpectations(t)
	gw.AssertExpectations(t)
}

// 対応ID作成済みの注文は再利用し、ゲートウェイを呼び直さない
func TestPaymentUsecase_InitiateOnline_ReusesExistingGatewayOrder(t *testing.T) {
	ctx := context.Background()

	tx := newTxReposStub()
	gw := new(GatewayMock)
	uc := newPaymentUsecase(tx, gw)

	tx.orders.On("FindByRef", mock.Anything, repo.OrderRef{NativeID: 77}).Return(model.Order{
		ID: 77, UserID: 1, Status: model.OrderStatusPending, Total: 250, RazorpayOrderID: "rzp_order_abc",
	}, nil)
	gw.On("KeyID").Return("rzp_test_key")

	out, err := uc.InitiateOnline(ctx, 1, "77")
	assert.NoError(t, err)
	assert.Equal(t, "rzp_order_abc", out.GatewayOrderID)

	gw.AssertNotCalled(t, "CreateOrder", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	tx.orders.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestPaymentUsecase_InitiateOnline_GatewayError(t *testing.T) {
	ctx := context.Background()

	tx := newTxReposStub()
	gw := new(GatewayMock)
	uc := newPaymentUsecase(tx, gw)

	tx.orders.On("FindByRef", mock.Anything, repo.OrderRef{NativeID: 77}).Return(model.Order{
		ID: 77, UserID: 1, Status: model.OrderStatusPending, Total: 250,
	}, nil)
	gw.On("CreateOrder", mock.Anything, int64(25000), "INR", mock.Anything, mock.Anything).
		Return("", errors.New("connection refused"))

	_, err := uc.InitiateOnline(ctx, 1, "77")
	assertErrContains(t, err, "payment gateway error")

	tx.orders.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestPaymentUsecase_InitiateOnline_AlreadyProcessed(t *testing.T) {
	ctx := context.Background()

	tx := newTxReposStub()
	gw := new(GatewayMock)
	uc := newPaymentUsecase(tx, gw)

	tx.orders.On("FindByRef", mock.Anything, repo.OrderRef{NativeID: 77}).Return(model.Order{
		ID: 77, UserID: 1, Status: model.OrderStatusConfirmed, Total: 250,
	}, nil)

	_, err := uc.InitiateOnline(ctx, 1, "77")
	assertErrContains(t, err, "order already processed")
}

func TestPaymentUsecase_InitiateOnline_ForeignOrder(t *testing.T) {
	ctx := context.Background()

	tx := newTxReposStub()
	gw := new(GatewayMock)
	uc := newPaymentUsecase(tx, gw)

	tx.orders.On("FindByRef", mock.Anything, repo.OrderRef{NativeID: 77}).Return(model.Order{
		ID: 77, UserID: 2, Status: model.OrderStatusPending,
	}, nil)

	_, err := uc.InitiateOnline(ctx, 1, "77")
	assertErrContains(t, err, "order not found")
}

// 署名不一致ならDBに触れずに拒否する
func TestPaymentUsecase_VerifyPayment_InvalidSignature(t *testing.T) {
	ctx := context.Background()

	tx := newTxReposStub()
	gw := new(GatewayMock)
	uc := newPaymentUsecase(tx, gw)

	gw.On("VerifySignature", "rzp_order_abc", "pay_123", "bad").Return(false)

	_, err := uc.VerifyPayment(ctx, 1, usecase.VerifyPaymentInput{
		GatewayOrderID: "rzp_order_abc",
		PaymentID:      "pay_123",
		Signature:      "bad",
	})
	assertErrContains(t, err, "invalid payment signature")

	tx.orders.AssertNotCalled(t, "FindByRazorpayOrderID", mock.Anything, mock.Anything)
	tx.orders.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	tx.carts.AssertNotCalled(t, "Clear", mock.Anything, mock.Anything)
}

func TestPaymentUsecase_VerifyPayment_MissingFields(t *testing.T) {
	tx := newTxReposStub()
	gw := new(GatewayMock)
	uc := newPaymentUsecase(tx, gw)

	_, err := uc.VerifyPayment(context.Background(), 1, usecase.VerifyPaymentInput{
		GatewayOrderID: "rzp_order_abc",
	})
	assertErrContains(t, err, "missing payment fields")

	gw.AssertNotCalled(t, "VerifySignature", mock.Anything, mock.Anything, mock.Anything)
}

// 検証成功で注文がConfirmedになり、カートが空になる
func TestPaymentUsecase_VerifyPayment_Success(t *testing.T) {
	ctx := context.Background()

	tx := newTxReposStub()
	gw := new(GatewayMock)
	uc := newPaymentUsecase(tx, gw)

	gw.On("VerifySignature", "rzp_order_abc", "pay_123", "sig").Return(true)
	tx.orders.On("FindByRazorpayOrderID", mock.Anything, "rzp_order_abc").Return(model.Order{
		ID: 77, UserID: 1, Status: model.OrderStatusPending, RazorpayOrderID: "rzp_order_abc", Total: 250,
	}, nil)
	tx.orders.On("Update", mock.Anything, mock.MatchedBy(func(o model.Order) bool {
		return o.ID == 77 &&
			o.Status == model.OrderStatusConfirmed &&
			o.PaymentMethod == model.PaymentMethodOnline &&
			o.RazorpayPaymentID == "pay_123"
	})).Return(nil)
	tx.carts.On("Clear", mock.Anything, int64(1)).Return(nil)
	tx.orderItems.On("ListByOrderID", mock.Anything, int64(77)).Return([]model.OrderItem{}, nil)

	out, err := uc.VerifyPayment(ctx, 1, usecase.VerifyPaymentInput{
		GatewayOrderID: "rzp_order_abc",
		PaymentID:      "pay_123",
		Signature:      "sig",
	})
	assert.NoError(t, err)
	assert.Equal(t, "Confirmed", out.Status)
	assert.Equal(t, "ONLINE", out.PaymentMethod)

	tx.orders.AssertExpectations(t)
	tx.carts.AssertExpectations(t)
}

// 同じ支払いIDの再検証は成功扱いで、何も書き換えない
func TestPaymentUsecase_VerifyPayment_IdempotentReplay(t *testing.T) {
	ctx := context.Background()

	tx := newTxReposStub()
	gw := new(GatewayMock)
	uc := newPaymentUsecase(tx, gw)

	gw.On("VerifySignature", "rzp_order_abc", "pay_123", "sig").Return(true)
	tx.orders.On("FindByRazorpayOrderID", mock.Anything, "rzp_order_abc").Return(model.Order{
		ID: 77, UserID: 1, Status: model.OrderStatusConfirmed,
		RazorpayOrderID: "rzp_order_abc", RazorpayPaymentID: "pay_123",
	}, nil)
	tx.orderItems.On("ListByOrderID", mock.Anything, int64(77)).Return([]model.OrderItem{}, nil)

	out, err := uc.VerifyPayment(ctx, 1, usecase.VerifyPaymentInput{
		GatewayOrderID: "rzp_order_abc",
		PaymentID:      "pay_123",
		Signature:      "sig",
	})
	assert.NoError(t, err)
	assert.Equal(t, "Confirmed", out.Status)

	tx.orders.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	tx.carts.AssertNotCalled(t, "Clear", mock.Anything, mock.Anything)
}

// 確定済み注文に別の支払いIDが来たら競合
func TestPaymentUsecase_VerifyPayment_DifferentPaymentOnConfirmed(t *testing.T) {
	ctx := context.Background()

	tx := newTxReposStub()
	gw := new(GatewayMock)
	uc := newPaymentUsecase(tx, gw)

	gw.On("VerifySignature", "rzp_order_abc", "pay_999", "sig").Return(true)
	tx.orders.On("FindByRazorpayOrderID", mock.Anything, "rzp_order_abc").Return(model.Order{
		ID: 77, UserID: 1, Status: model.OrderStatusConfirmed,
		RazorpayOrderID: "rzp_order_abc", RazorpayPaymentID: "pay_123",
	}, nil)

	_, err := uc.VerifyPayment(ctx, 1, usecase.VerifyPaymentInput{
		GatewayOrderID: "rzp_order_abc",
		PaymentID:      "pay_999",
		Signature:      "sig",
	})
	assertErrContains(t, err, "order already processed")
}

func TestPaymentUsecase_VerifyPayment_CancelledOrder(t *testing.T) {
	ctx := context.Background()

	tx := newTxReposStub()
	gw := new(GatewayMock)
	uc := newPaymentUsecase(tx, gw)

	gw.On("VerifySignature", "rzp_order_abc", "pay_123", "sig").Return(true)
	tx.orders.On("FindByRazorpayOrderID", mock.Anything, "rzp_order_abc").Return(model.Order{
		ID: 77, UserID: 1, Status: model.OrderStatusCancelled, RazorpayOrderID: "rzp_order_abc",
	}, nil)

	_, err := uc.VerifyPayment(ctx, 1, usecase.VerifyPaymentInput{
		GatewayOrderID: "rzp_order_abc",
		PaymentID:      "pay_123",
		Signature:      "sig",
	})
	assertErrContains(t, err, "invalid status transition")

	tx.orders.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

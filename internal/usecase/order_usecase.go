package usecase

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"shopmart/internal/domain/model"
	repo "shopmart/internal/repository"
)

type OrderItemDTO struct {
	ProductID int64   `json:"product_id"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Quantity  int64   `json:"quantity"`
}

type OrderDTO struct {
	ID              int64                  `json:"id"`
	LegacyOrderID   string                 `json:"legacy_order_id"`
	Items           []OrderItemDTO         `json:"items"`
	Subtotal        float64                `json:"subtotal"`
	DeliveryFee     float64                `json:"delivery_fee"`
	Total           float64                `json:"total"`
	PaymentMethod   string                 `json:"payment_method"`
	Status          string                 `json:"status"`
	ShippingAddress *model.AddressSnapshot `json:"shipping_address"`
	CreatedAt       string                 `json:"created_at"`
}

type OrderListOutput struct {
	Items []OrderDTO `json:"items"`
	Total int64      `json:"total"`
	Page  int        `json:"page"`
	Limit int        `json:"limit"`
}

type OrderUsecase struct {
	orderRepo     repo.OrderRepository
	orderItemRepo repo.OrderItemRepository
	auditRepo     repo.AuditLogRepository
}

// DI
func NewOrderUsecase(
	orderRepo repo.OrderRepository,
	orderItemRepo repo.OrderItemRepository,
	auditRepo repo.AuditLogRepository,
) *OrderUsecase {
	return &OrderUsecase{
		orderRepo:     orderRepo,
		orderItemRepo: orderItemRepo,
		auditRepo:     auditRepo,
	}
}

// ListMyOrders は自分の注文一覧（新しい順）。
func (u *OrderUsecase) ListMyOrders(ctx context.Context, userID int64, page int, limit int) (OrderListOutput, error) {
	if userID <= 0 {
		return OrderListOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	orders, total, err := u.orderRepo.ListByUserID(ctx, userID, page, limit)
	if err != nil {
		return OrderListOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	items, err := u.attachItems(ctx, orders)
	if err != nil {
		return OrderListOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return OrderListOutput{
		Items: items,
		Total: total,
		Page:  page,
		Limit: limit,
	}, nil
}

// GetMyOrderDetail は注文詳細。
// ネイティブIDと旧トークンのどちらでも引ける。他人の注文は404。
func (u *OrderUsecase) GetMyOrderDetail(ctx context.Context, userID int64, ref string) (OrderDTO, error) {
	if userID <= 0 {
		return OrderDTO{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	orderRef := repo.ParseOrderRef(strings.TrimSpace(ref))
	if orderRef.IsZero() {
		return OrderDTO{}, NewHTTPError(http.StatusBadRequest, "invalid order id")
	}

	order, err := u.orderRepo.FindByRef(ctx, orderRef)
	if err == repo.ErrNotFound {
		return OrderDTO{}, NewHTTPError(http.StatusNotFound, "order not found")
	}
	if err != nil {
		return OrderDTO{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if order.UserID != userID {
		return OrderDTO{}, NewHTTPError(http.StatusNotFound, "order not found")
	}

	items, err := u.orderItemRepo.ListByOrderID(ctx, order.ID)
	if err != nil {
		return OrderDTO{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return toOrderDTO(order, items), nil
}

type AdminOrderListInput struct {
	Page   int
	Limit  int
	Status string
	UserID *int64
	From   *time.Time
	To     *time.Time
}

// AdminListOrders は管理者用の全注文一覧。
func (u *OrderUsecase) AdminListOrders(ctx context.Context, adminUserID int64, in AdminOrderListInput) (OrderListOutput, error) {
	if adminUserID <= 0 {
		return OrderListOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if in.Page < 1 {
		in.Page = 1
	}
	if in.Limit < 1 || in.Limit > 100 {
		in.Limit = 50
	}
	if in.Status != "" {
		switch model.OrderStatus(in.Status) {
		case model.OrderStatusPending, model.OrderStatusConfirmed, model.OrderStatusShipped,
			model.OrderStatusDelivered, model.OrderStatusCancelled:
		default:
			return OrderListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid status")
		}
	}

	orders, total, err := u.orderRepo.ListAdmin(ctx, repo.AdminOrderListFilter{
		Page:   in.Page,
		Limit:  in.Limit,
		Status: in.Status,
		UserID: in.UserID,
		From:   in.From,
		To:     in.To,
	})
	if err != nil {
		return OrderListOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	items, err := u.attachItems(ctx, orders)
	if err != nil {
		return OrderListOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return OrderListOutput{
		Items: items,
		Total: total,
		Page:  in.Page,
		Limit: in.Limit,
	}, nil
}

// AdminUpdateStatus は注文ステータスを進める。
// 遷移表にない変更は拒否する。
func (u *OrderUsecase) AdminUpdateStatus(ctx context.Context, adminUserID int64, ref string, newStatus string) (OrderDTO, error) {
	if adminUserID <= 0 {
		return OrderDTO{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	orderRef := repo.ParseOrderRef(strings.TrimSpace(ref))
	if orderRef.IsZero() {
		return OrderDTO{}, NewHTTPError(http.StatusBadRequest, "invalid order id")
	}

	to := model.OrderStatus(newStatus)
	switch to {
	case model.OrderStatusConfirmed, model.OrderStatusShipped,
		model.OrderStatusDelivered, model.OrderStatusCancelled:
	default:
		return OrderDTO{}, NewHTTPError(http.StatusBadRequest, "invalid status")
	}

	order, err := u.orderRepo.FindByRef(ctx, orderRef)
	if err == repo.ErrNotFound {
		return OrderDTO{}, NewHTTPError(http.StatusNotFound, "order not found")
	}
	if err != nil {
		return OrderDTO{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	if !model.CanTransition(order.Status, to) {
		return OrderDTO{}, NewHTTPError(http.StatusBadRequest, "invalid status transition")
	}

	before := order.Status

	if err := u.orderRepo.UpdateStatus(ctx, order.ID, to); err != nil {
		if err == repo.ErrNotFound {
			return OrderDTO{}, NewHTTPError(http.StatusNotFound, "order not found")
		}
		return OrderDTO{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	order.Status = to

	//誰がどの注文をどう動かしたかを残す
	if err := u.auditRepo.Create(ctx, model.AuditLog{
		ActorUserID:  adminUserID,
		Action:       model.AuditActionUpdateOrderStatus,
		ResourceType: model.AuditResourceOrder,
		ResourceID:   order.ID,
		BeforeJSON:   fmt.Sprintf(`{"status":%q}`, before),
		AfterJSON:    fmt.Sprintf(`{"status":%q}`, to),
		CreatedAt:    time.Now(),
	}); err != nil {
		return OrderDTO{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	items, err := u.orderItemRepo.ListByOrderID(ctx, order.ID)
	if err != nil {
		return OrderDTO{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return toOrderDTO(order, items), nil
}

func (u *OrderUsecase) attachItems(ctx context.Context, orders []model.Order) ([]OrderDTO, error) {
	out := make([]OrderDTO, 0, len(orders))
	for _, o := range orders {
		items, err := u.orderItemRepo.ListByOrderID(ctx, o.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, toOrderDTO(o, items))
	}
	return out, nil
}

func toOrderDTO(o model.Order, items []model.OrderItem) OrderDTO {
	dtoItems := make([]OrderItemDTO, 0, len(items))
	for _, it := range items {
		dtoItems = append(dtoItems, OrderItemDTO{
			ProductID: it.ProductID,
			Name:      it.ProductNameSnapshot,
			Price:     it.UnitPriceSnapshot,
			Quantity:  it.Quantity,
		})
	}

	return OrderDTO{
		ID:              o.ID,
		LegacyOrderID:   o.LegacyOrderID,
		Items:           dtoItems,
		Subtotal:        o.Subtotal,
		DeliveryFee:     o.DeliveryFee,
		Total:           o.Total,
		PaymentMethod:   string(o.PaymentMethod),
		Status:          string(o.Status),
		ShippingAddress: o.ShippingAddress,
		CreatedAt:       o.CreatedAt.Format(time.RFC3339),
	}
}

package usecase

import (
	"context"
	"net/http"

	"shopmart/internal/config"
	"shopmart/internal/domain/model"
	repo "shopmart/internal/repository"
)

// CartUsecase は /cart の業務ロジック。
// カートは読むたびに商品と突き合わせて自己修復する。
type CartUsecase struct {
	cartRepo    repo.CartRepository
	productRepo repo.ProductRepository
	deliveryFee float64
}

// DI
func NewCartUsecase(cfg config.Config, cartRepo repo.CartRepository, productRepo repo.ProductRepository) *CartUsecase {
	return &CartUsecase{
		cartRepo:    cartRepo,
		productRepo: productRepo,
		deliveryFee: cfg.DeliveryFee,
	}
}

// priceは現在の商品価格（スナップショットではない）
type CartLine struct {
	ProductID int64   `json:"product_id"`
	Name      string  `json:"name"`
	ImageURL  string  `json:"image_url"`
	Price     float64 `json:"price"`
	Quantity  int64   `json:"quantity"`
	LineTotal float64 `json:"line_total"`
}

type CartResponse struct {
	Items       []CartLine `json:"items"`
	Subtotal    float64    `json:"subtotal"`
	DeliveryFee float64    `json:"delivery_fee"`
	Total       float64    `json:"total"`
}

type AddCartInput struct {
	ProductID int64 `json:"product_id"`
	Quantity  int64 `json:"quantity"`
}

type UpdateCartItemInput struct {
	Quantity int64 `json:"quantity"`
}

// GetCart はカートを返す。消えた商品・非公開になった商品の明細は
// このタイミングで読み捨てではなくDBからも削除する（自己修復）。
func (u *CartUsecase) GetCart(ctx context.Context, userID int64) (CartResponse, error) {
	if userID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	items, err := u.cartRepo.ListByUserID(ctx, userID)
	if err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	resp, dangling := u.buildCartResponse(ctx, items)

	if len(dangling) > 0 {
		if err := u.cartRepo.RemoveProducts(ctx, userID, dangling); err != nil {
			return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
		}
	}

	return resp, nil
}

// AddItem はカートに追加（同一商品は数量加算）。
func (u *CartUsecase) AddItem(ctx context.Context, userID int64, in AddCartInput) (CartResponse, error) {
	if userID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if in.ProductID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid product_id")
	}
	if in.Quantity < 1 {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid quantity")
	}

	//公開中の商品だけ追加できる
	p, err := u.productRepo.FindByID(ctx, in.ProductID)
	if err == repo.ErrNotFound {
		return CartResponse{}, NewHTTPError(http.StatusNotFound, "product not found")
	}
	if err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if !p.IsAvailable {
		return CartResponse{}, NewHTTPError(http.StatusNotFound, "product not found")
	}

	if err := u.cartRepo.AddQuantity(ctx, userID, in.ProductID, in.Quantity); err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return u.GetCart(ctx, userID)
}

// UpdateQuantity は明細の数量を置き換える。明細が無ければ404。
func (u *CartUsecase) UpdateQuantity(ctx context.Context, userID int64, productID int64, in UpdateCartItemInput) (CartResponse, error) {
	if userID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if productID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid product_id")
	}
	if in.Quantity < 1 {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid quantity")
	}

	if err := u.cartRepo.UpdateQuantity(ctx, userID, productID, in.Quantity); err != nil {
		if err == repo.ErrNotFound {
			return CartResponse{}, NewHTTPError(http.StatusNotFound, "cart item not found")
		}
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return u.GetCart(ctx, userID)
}

// RemoveItem は明細を削除する。無い商品IDでもエラーにしない。
func (u *CartUsecase) RemoveItem(ctx context.Context, userID int64, productID int64) (CartResponse, error) {
	if userID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if productID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid product_id")
	}

	if err := u.cartRepo.RemoveProducts(ctx, userID, []int64{productID}); err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return u.GetCart(ctx, userID)
}

// 明細を商品と突き合わせてレスポンスを作る。
// 解決できなかった商品IDは第2戻り値で返す（呼び出し側が削除する）。
func (u *CartUsecase) buildCartResponse(ctx context.Context, items []model.CartItem) (CartResponse, []int64) {
	lines := make([]CartLine, 0, len(items))
	dangling := make([]int64, 0)
	var subtotal float64

	for _, it := range items {
		p, err := u.productRepo.FindByID(ctx, it.ProductID)
		if err == repo.ErrNotFound {
			dangling = append(dangling, it.ProductID)
			continue
		}
		if err != nil {
			//一時的なDBエラーでは明細を消さない
			continue
		}
		if !p.IsAvailable {
			dangling = append(dangling, it.ProductID)
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

	resp := CartResponse{
		Items:    lines,
		Subtotal: subtotal,
	}

	//空カートには配送料を載せない
	if len(lines) > 0 {
		resp.DeliveryFee = u.deliveryFee
	}
	resp.Total = resp.Subtotal + resp.DeliveryFee

	return resp, dangling
}

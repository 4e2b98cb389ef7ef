package handler

import (
	"net/http"
	"strconv"

	"shopmart/internal/cache"
	"shopmart/internal/config"
	"shopmart/internal/middleware"
	"shopmart/internal/repository"
	"shopmart/internal/usecase"

	"github.com/labstack/echo/v4"
)

// /products の公開API＋レビュー投稿
type ProductHandler struct {
	uc        *usecase.ProductUsecase
	cfg       config.Config
	respCache *cache.Cache
}

// DI
func NewProductHandler(uc *usecase.ProductUsecase, cfg config.Config, respCache *cache.Cache) *ProductHandler {
	return &ProductHandler{uc: uc, cfg: cfg, respCache: respCache}
}

func (h *ProductHandler) RegisterRoutes(e *echo.Echo, userRepo repository.UserRepository) {
	//公開カタログだけレスポンスキャッシュを通す
	g := e.Group("/products")
	g.Use(middleware.ResponseCache(h.respCache, h.cfg.CacheTTL))
	g.GET("", h.list)
	g.GET("/:ref", h.detail)

	r := e.Group("/products")
	r.Use(middleware.AuthJWT(h.cfg, userRepo))
	r.POST("/:id/reviews", h.addReview)
}

func (h *ProductHandler) list(c echo.Context) error {
	in := usecase.ListProductsInput{
		Q:    c.QueryParam("q"),
		Sort: c.QueryParam("sort"),
	}

	in.Page, _ = strconv.Atoi(c.QueryParam("page"))
	in.Limit, _ = strconv.Atoi(c.QueryParam("limit"))

	if v := c.QueryParam("category_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil || id <= 0 {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid category_id"})
		}
		in.CategoryID = &id
	}
	if v := c.QueryParam("min_price"); v != "" {
		p, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid min_price"})
		}
		in.MinPrice = &p
	}
	if v := c.QueryParam("max_price"); v != "" {
		p, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid max_price"})
		}
		in.MaxPrice = &p
	}

	out, err := h.uc.ListPublicProducts(c.Request().Context(), in)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

func (h *ProductHandler) detail(c echo.Context) error {
	out, err := h.uc.GetProductDetail(c.Request().Context(), c.Param("ref"))
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

func (h *ProductHandler) addReview(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	productID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid product id"})
	}

	var req usecase.AddReviewInput
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.uc.AddReview(c.Request().Context(), userID, productID, req)
	if err != nil {
		return writeError(c, err)
	}

	//評価集計が変わるのでカタログのキャッシュを捨てる
	h.respCache.DeleteByPrefix("/products")

	return c.JSON(http.StatusCreated, out)
}

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

// 管理者用の商品・カテゴリ管理
type AdminProductHandler struct {
	productUC  *usecase.ProductUsecase
	categoryUC *usecase.CategoryUsecase
	cfg        config.Config
	respCache  *cache.Cache
}

// DI
func NewAdminProductHandler(
	productUC *usecase.ProductUsecase,
	categoryUC *usecase.CategoryUsecase,
	cfg config.Config,
	respCache *cache.Cache,
) *AdminProductHandler {
	return &AdminProductHandler{
		productUC:  productUC,
		categoryUC: categoryUC,
		cfg:        cfg,
		respCache:  respCache,
	}
}

func (h *AdminProductHandler) RegisterRoutes(e *echo.Echo, userRepo repository.UserRepository) {
	g := e.Group("/admin")
	g.Use(middleware.AuthJWT(h.cfg, userRepo))
	g.Use(middleware.AdminRoleGuard())

	g.POST("/products", h.createProduct)
	g.PUT("/products/:id", h.updateProduct)
	g.DELETE("/products/:id", h.deleteProduct)

	g.POST("/categories", h.createCategory)
	g.PUT("/categories/:id", h.updateCategory)
}

func (h *AdminProductHandler) createProduct(c echo.Context) error {
	adminID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	var req usecase.AdminProductInput
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.productUC.AdminCreateProduct(c.Request().Context(), adminID, req)
	if err != nil {
		return writeError(c, err)
	}

	h.invalidateCatalogCache()

	return c.JSON(http.StatusCreated, out)
}

func (h *AdminProductHandler) updateProduct(c echo.Context) error {
	adminID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	productID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	var req usecase.AdminProductInput
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.productUC.AdminUpdateProduct(c.Request().Context(), adminID, productID, req)
	if err != nil {
		return writeError(c, err)
	}

	h.invalidateCatalogCache()

	return c.JSON(http.StatusOK, out)
}

func (h *AdminProductHandler) deleteProduct(c echo.Context) error {
	adminID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	productID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	if err := h.productUC.AdminDeleteProduct(c.Request().Context(), adminID, productID); err != nil {
		return writeError(c, err)
	}

	h.invalidateCatalogCache()

	return c.JSON(http.StatusOK, map[string]string{"message": "deleted"})
}

func (h *AdminProductHandler) createCategory(c echo.Context) error {
	adminID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	var req usecase.AdminCategoryInput
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.categoryUC.AdminCreateCategory(c.Request().Context(), adminID, req)
	if err != nil {
		return writeError(c, err)
	}

	h.invalidateCatalogCache()

	return c.JSON(http.StatusCreated, out)
}

func (h *AdminProductHandler) updateCategory(c echo.Context) error {
	adminID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	categoryID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	var req usecase.AdminCategoryInput
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.categoryUC.AdminUpdateCategory(c.Request().Context(), adminID, categoryID, req)
	if err != nil {
		return writeError(c, err)
	}

	h.invalidateCatalogCache()

	return c.JSON(http.StatusOK, out)
}

// 管理側の書き込み後は公開カタログのキャッシュを全部捨てる
func (h *AdminProductHandler) invalidateCatalogCache() {
	h.respCache.DeleteByPrefix("/products")
	h.respCache.DeleteByPrefix("/categories")
}

package handler

import (
	"net/http"

	"shopmart/internal/cache"
	"shopmart/internal/config"
	"shopmart/internal/middleware"
	"shopmart/internal/usecase"

	"github.com/labstack/echo/v4"
)

// /categories の公開API
type CategoryHandler struct {
	uc        *usecase.CategoryUsecase
	cfg       config.Config
	respCache *cache.Cache
}

// DI
func NewCategoryHandler(uc *usecase.CategoryUsecase, cfg config.Config, respCache *cache.Cache) *CategoryHandler {
	return &CategoryHandler{uc: uc, cfg: cfg, respCache: respCache}
}

func (h *CategoryHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/categories")
	g.Use(middleware.ResponseCache(h.respCache, h.cfg.CacheTTL))
	g.GET("", h.list)
	g.GET("/:ref", h.detail)
}

func (h *CategoryHandler) list(c echo.Context) error {
	out, err := h.uc.ListCategories(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

func (h *CategoryHandler) detail(c echo.Context) error {
	out, err := h.uc.GetCategory(c.Request().Context(), c.Param("ref"))
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

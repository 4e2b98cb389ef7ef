package usecase

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"shopmart/internal/domain/model"
	repo "shopmart/internal/repository"
)

type CategoryUsecase struct {
	categoryRepo repo.CategoryRepository
	auditRepo    repo.AuditLogRepository
}

// DI
func NewCategoryUsecase(categoryRepo repo.CategoryRepository, auditRepo repo.AuditLogRepository) *CategoryUsecase {
	return &CategoryUsecase{
		categoryRepo: categoryRepo,
		auditRepo:    auditRepo,
	}
}

func (u *CategoryUsecase) ListCategories(ctx context.Context) ([]model.Category, error) {
	items, err := u.categoryRepo.List(ctx)
	if err != nil {
		return nil, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return items, nil
}

// GetCategory はIDまたはスラッグで1件返す。
func (u *CategoryUsecase) GetCategory(ctx context.Context, ref string) (model.Category, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return model.Category{}, NewHTTPError(http.StatusBadRequest, "invalid category id")
	}

	var (
		c   model.Category
		err error
	)
	if id, convErr := strconv.ParseInt(ref, 10, 64); convErr == nil && id > 0 {
		c, err = u.categoryRepo.FindByID(ctx, id)
	} else {
		c, err = u.categoryRepo.FindBySlug(ctx, ref)
	}
	if err == repo.ErrNotFound {
		return model.Category{}, NewHTTPError(http.StatusNotFound, "category not found")
	}
	if err != nil {
		return model.Category{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return c, nil
}

type AdminCategoryInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	ImageURL    string `json:"image_url"`
}

func (u *CategoryUsecase) AdminCreateCategory(ctx context.Context, adminUserID int64, in AdminCategoryInput) (model.Category, error) {
	if adminUserID <= 0 {
		return model.Category{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	name := strings.TrimSpace(in.Name)
	if name == "" {
		return model.Category{}, NewHTTPError(http.StatusBadRequest, "name required")
	}

	//名前の重複は409
	if _, err := u.categoryRepo.FindBySlug(ctx, model.Slugify(name)); err == nil {
		return model.Category{}, NewHTTPError(http.StatusConflict, "category already exists")
	} else if err != repo.ErrNotFound {
		return model.Category{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	c, err := u.categoryRepo.Create(ctx, model.Category{
		Name:        name,
		Slug:        model.Slugify(name),
		Description: in.Description,
		ImageURL:    in.ImageURL,
	})
	if err != nil {
		return model.Category{}, NewHTTPError(http.StatusConflict, "category already exists")
	}

	u.audit(ctx, adminUserID, model.AuditActionCreateCategory, c.ID, nil, c)

	return c, nil
}

func (u *CategoryUsecase) AdminUpdateCategory(ctx context.Context, adminUserID int64, categoryID int64, in AdminCategoryInput) (model.Category, error) {
	if adminUserID <= 0 {
		return model.Category{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if categoryID <= 0 {
		return model.Category{}, NewHTTPError(http.StatusBadRequest, "invalid category id")
	}

	name := strings.TrimSpace(in.Name)
	if name == "" {
		return model.Category{}, NewHTTPError(http.StatusBadRequest, "name required")
	}

	before, err := u.categoryRepo.FindByID(ctx, categoryID)
	if err == repo.ErrNotFound {
		return model.Category{}, NewHTTPError(http.StatusNotFound, "category not found")
	}
	if err != nil {
		return model.Category{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	after := before
	after.Name = name
	after.Description = in.Description
	after.ImageURL = in.ImageURL
	if name != before.Name {
		after.Slug = model.Slugify(name)
	}

	if err := u.categoryRepo.Update(ctx, after); err != nil {
		if err == repo.ErrNotFound {
			return model.Category{}, NewHTTPError(http.StatusNotFound, "category not found")
		}
		return model.Category{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	u.audit(ctx, adminUserID, model.AuditActionUpdateCategory, categoryID, before, after)

	return after, nil
}

func (u *CategoryUsecase) audit(ctx context.Context, actorID int64, action model.AuditAction, categoryID int64, before, after interface{}) {
	log := model.AuditLog{
		ActorUserID:  actorID,
		Action:       action,
		ResourceType: model.AuditResourceCategory,
		ResourceID:   categoryID,
		CreatedAt:    time.Now(),
	}
	if before != nil {
		if b, err := json.Marshal(before); err == nil {
			log.BeforeJSON = string(b)
		}
	}
	if after != nil {
		if b, err := json.Marshal(after); err == nil {
			log.AfterJSON = string(b)
		}
	}
	_ = u.auditRepo.Create(ctx, log)
}

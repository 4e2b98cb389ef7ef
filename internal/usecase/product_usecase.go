package usecase

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"shopmart/internal/domain/model"
	repo "shopmart/internal/repository"
)

type ProductUsecase struct {
	txm         repo.TransactionManager
	productRepo repo.ProductRepository
	reviewRepo  repo.ReviewRepository
	userRepo    repo.UserRepository
	auditRepo   repo.AuditLogRepository
}

// DI
func NewProductUsecase(
	txm repo.TransactionManager,
	productRepo repo.ProductRepository,
	reviewRepo repo.ReviewRepository,
	userRepo repo.UserRepository,
	auditRepo repo.AuditLogRepository,
) *ProductUsecase {
	return &ProductUsecase{
		txm:         txm,
		productRepo: productRepo,
		reviewRepo:  reviewRepo,
		userRepo:    userRepo,
		auditRepo:   auditRepo,
	}
}

type ListProductsInput struct {
	Page       int
	Limit      int
	Q          string
	CategoryID *int64
	MinPrice   *float64
	MaxPrice   *float64
	Sort       string
}

type ProductListOutput struct {
	Items []model.Product `json:"items"`
	Total int64           `json:"total"`
	Page  int             `json:"page"`
	Limit int             `json:"limit"`
}

// 商品詳細にレビューを同梱して返す
type ProductDetailOutput struct {
	Product model.Product  `json:"product"`
	Reviews []model.Review `json:"reviews"`
}

func (u *ProductUsecase) ListPublicProducts(ctx context.Context, in ListProductsInput) (ProductListOutput, error) {
	if in.Page < 1 {
		in.Page = 1
	}
	if in.Limit < 1 || in.Limit > 100 {
		in.Limit = 20
	}
	if len(in.Q) > 100 {
		return ProductListOutput{}, NewHTTPError(http.StatusBadRequest, "q too long")
	}
	if in.MinPrice != nil && *in.MinPrice < 0 {
		return ProductListOutput{}, NewHTTPError(http.StatusBadRequest, "min_price must be >= 0")
	}
	if in.MaxPrice != nil && *in.MaxPrice < 0 {
		return ProductListOutput{}, NewHTTPError(http.StatusBadRequest, "max_price must be >= 0")
	}
	if in.MinPrice != nil && in.MaxPrice != nil && *in.MinPrice > *in.MaxPrice {
		return ProductListOutput{}, NewHTTPError(http.StatusBadRequest, "min_price must be <= max_price")
	}
	switch in.Sort {
	case "", "new", "price_asc", "price_desc", "rating":
	default:
		return ProductListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid sort")
	}

	items, total, err := u.productRepo.ListPublic(ctx, repo.ProductListQuery{
		Page:       in.Page,
		Limit:      in.Limit,
		Q:          strings.TrimSpace(in.Q),
		CategoryID: in.CategoryID,
		MinPrice:   in.MinPrice,
		MaxPrice:   in.MaxPrice,
		Sort:       in.Sort,
	})
	if err != nil {
		return ProductListOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return ProductListOutput{
		Items: items,
		Total: total,
		Page:  in.Page,
		Limit: in.Limit,
	}, nil
}

// GetProductDetail はIDまたはスラッグで1件返す。
func (u *ProductUsecase) GetProductDetail(ctx context.Context, ref string) (ProductDetailOutput, error) {
	p, err := u.findByRef(ctx, ref)
	if err != nil {
		return ProductDetailOutput{}, err
	}

	if !p.IsAvailable {
		return ProductDetailOutput{}, NewHTTPError(http.StatusNotFound, "product not found")
	}

	reviews, err := u.reviewRepo.ListByProductID(ctx, p.ID)
	if err != nil {
		return ProductDetailOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return ProductDetailOutput{Product: p, Reviews: reviews}, nil
}

type AddReviewInput struct {
	Rating  int64  `json:"rating"`
	Comment string `json:"comment"`
}

// AddReview はレビューを1件追加して、商品の評価集計を同じ
// トランザクション内で再計算する。1商品につき1ユーザー1件。
func (u *ProductUsecase) AddReview(ctx context.Context, userID int64, productID int64, in AddReviewInput) (model.Review, error) {
	if userID <= 0 {
		return model.Review{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if productID <= 0 {
		return model.Review{}, NewHTTPError(http.StatusBadRequest, "invalid product id")
	}
	if in.Rating < 1 || in.Rating > 5 {
		return model.Review{}, NewHTTPError(http.StatusBadRequest, "rating must be between 1 and 5")
	}
	if strings.TrimSpace(in.Comment) == "" {
		return model.Review{}, NewHTTPError(http.StatusBadRequest, "comment required")
	}

	user, err := u.userRepo.FindByID(ctx, userID)
	if err != nil {
		return model.Review{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if user == nil {
		return model.Review{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	var created model.Review

	err = u.txm.WithinTx(ctx, func(r repo.TxRepos) error {
		p, err := r.Products().FindByID(ctx, productID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "product not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		_, exists, err := r.Reviews().FindByProductAndUser(ctx, productID, userID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if exists {
			return NewHTTPError(http.StatusBadRequest, "already reviewed")
		}

		created, err = r.Reviews().Create(ctx, model.Review{
			ProductID: productID,
			UserID:    userID,
			UserName:  user.FullName,
			Rating:    in.Rating,
			Comment:   strings.TrimSpace(in.Comment),
		})
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		//集計はレビュー全件から作り直す（小数1桁に丸め）
		reviews, err := r.Reviews().ListByProductID(ctx, productID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		var sum int64
		for _, rv := range reviews {
			sum += rv.Rating
		}
		total := int64(len(reviews))
		average := math.Round(float64(sum)/float64(total)*10) / 10

		if err := r.Products().UpdateRatingAggregate(ctx, p.ID, average, total); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		return nil
	})
	if err != nil {
		return model.Review{}, err
	}

	return created, nil
}

type AdminProductInput struct {
	Name           string            `json:"name"`
	Description    string            `json:"description"`
	Price          float64           `json:"price"`
	CategoryID     int64             `json:"category_id"`
	ImageURL       string            `json:"image_url"`
	Specifications map[string]string `json:"specifications"`
	Stock          int64             `json:"stock"`
	IsAvailable    bool              `json:"is_available"`
	Tags           []string          `json:"tags"`
	SKU            string            `json:"sku"`
}

func (u *ProductUsecase) AdminCreateProduct(ctx context.Context, adminUserID int64, in AdminProductInput) (model.Product, error) {
	if adminUserID <= 0 {
		return model.Product{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if err := validateProductInput(in); err != nil {
		return model.Product{}, err
	}

	name := strings.TrimSpace(in.Name)

	p, err := u.productRepo.Create(ctx, model.Product{
		Name:           name,
		Description:    in.Description,
		Price:          in.Price,
		CategoryID:     in.CategoryID,
		ImageURL:       in.ImageURL,
		Specifications: in.Specifications,
		Stock:          in.Stock,
		IsAvailable:    in.IsAvailable,
		Slug:           model.Slugify(name),
		Tags:           in.Tags,
		SKU:            in.SKU,
	})
	if err != nil {
		return model.Product{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	u.audit(ctx, adminUserID, model.AuditActionCreateProduct, model.AuditResourceProduct, p.ID, nil, p)

	return p, nil
}

func (u *ProductUsecase) AdminUpdateProduct(ctx context.Context, adminUserID int64, productID int64, in AdminProductInput) (model.Product, error) {
	if adminUserID <= 0 {
		return model.Product{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if productID <= 0 {
		return model.Product{}, NewHTTPError(http.StatusBadRequest, "invalid product id")
	}
	if err := validateProductInput(in); err != nil {
		return model.Product{}, err
	}

	before, err := u.productRepo.FindByID(ctx, productID)
	if err == repo.ErrNotFound {
		return model.Product{}, NewHTTPError(http.StatusNotFound, "product not found")
	}
	if err != nil {
		return model.Product{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	name := strings.TrimSpace(in.Name)

	after := before
	after.Name = name
	after.Description = in.Description
	after.Price = in.Price
	after.CategoryID = in.CategoryID
	after.ImageURL = in.ImageURL
	after.Specifications = in.Specifications
	after.Stock = in.Stock
	after.IsAvailable = in.IsAvailable
	after.Tags = in.Tags
	after.SKU = in.SKU

	//名前が変わったらスラッグを作り直す
	if name != before.Name {
		after.Slug = model.Slugify(name)
	}

	if err := u.productRepo.Update(ctx, after); err != nil {
		if err == repo.ErrNotFound {
			return model.Product{}, NewHTTPError(http.StatusNotFound, "product not found")
		}
		return model.Product{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	u.audit(ctx, adminUserID, model.AuditActionUpdateProduct, model.AuditResourceProduct, productID, before, after)

	return after, nil
}

func (u *ProductUsecase) AdminDeleteProduct(ctx context.Context, adminUserID int64, productID int64) error {
	if adminUserID <= 0 {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if productID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid product id")
	}

	before, err := u.productRepo.FindByID(ctx, productID)
	if err == repo.ErrNotFound {
		return NewHTTPError(http.StatusNotFound, "product not found")
	}
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}

	if err := u.productRepo.SoftDelete(ctx, productID); err != nil {
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "product not found")
		}
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}

	u.audit(ctx, adminUserID, model.AuditActionDeleteProduct, model.AuditResourceProduct, productID, before, nil)

	return nil
}

func (u *ProductUsecase) findByRef(ctx context.Context, ref string) (model.Product, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return model.Product{}, NewHTTPError(http.StatusBadRequest, "invalid product id")
	}

	//数値ならID、それ以外はスラッグ
	if id, convErr := strconv.ParseInt(ref, 10, 64); convErr == nil && id > 0 {
		p, err := u.productRepo.FindByID(ctx, id)
		if err == repo.ErrNotFound {
			return model.Product{}, NewHTTPError(http.StatusNotFound, "product not found")
		}
		if err != nil {
			return model.Product{}, NewHTTPError(http.StatusInternalServerError, "db error")
		}
		return p, nil
	}

	p, err := u.productRepo.FindBySlug(ctx, ref)
	if err == repo.ErrNotFound {
		return model.Product{}, NewHTTPError(http.StatusNotFound, "product not found")
	}
	if err != nil {
		return model.Product{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return p, nil
}

func validateProductInput(in AdminProductInput) error {
	if strings.TrimSpace(in.Name) == "" {
		return NewHTTPError(http.StatusBadRequest, "name required")
	}
	if in.Price < 0 {
		return NewHTTPError(http.StatusBadRequest, "price must be >= 0")
	}
	if in.CategoryID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "category_id required")
	}
	if in.Stock < 0 {
		return NewHTTPError(http.StatusBadRequest, "stock must be >= 0")
	}
	return nil
}

// 監査ログの失敗で本処理は落とさない
func (u *ProductUsecase) audit(ctx context.Context, actorID int64, action model.AuditAction, resource model.AuditResourceType, resourceID int64, before, after interface{}) {
	log := model.AuditLog{
		ActorUserID:  actorID,
		Action:       action,
		ResourceType: resource,
		ResourceID:   resourceID,
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

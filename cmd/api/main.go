package main

import (
	"log"

	"shopmart/internal/cache"
	"shopmart/internal/config"
	"shopmart/internal/domain/model"
	"shopmart/internal/handler"
	"shopmart/internal/infra/db"
	"shopmart/internal/infra/gateway"
	infraRepo "shopmart/internal/infra/repository"
	"shopmart/internal/server"
	"shopmart/internal/usecase"
	"shopmart/internal/validator"

	"github.com/joho/godotenv"
)

func main() {
	//.envは無くても動く（本番は環境変数で渡す）
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	//DB接続
	gormDB, err := db.Connect()
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}

	if err := gormDB.AutoMigrate(
		&model.User{},
		&model.Address{},
		&model.Category{},
		&model.Product{},
		&model.Review{},
		&model.CartItem{},
		&model.Order{},
		&model.OrderItem{},
		&model.AuditLog{},
	); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	//Repository（GORM実装）生成
	userRepo := infraRepo.NewUserGormRepository(gormDB)
	productRepo := infraRepo.NewProductGormRepository(gormDB)
	categoryRepo := infraRepo.NewCategoryGormRepository(gormDB)
	reviewRepo := infraRepo.NewReviewGormRepository(gormDB)
	cartRepo := infraRepo.NewCartGormRepository(gormDB)
	orderRepo := infraRepo.NewOrderGormRepository(gormDB)
	orderItemRepo := infraRepo.NewOrderItemGormRepository(gormDB)
	addressRepo := infraRepo.NewAddressGormRepository(gormDB)
	auditRepo := infraRepo.NewAuditLogGormRepository(gormDB)
	txManager := infraRepo.NewTxManagerGorm(gormDB)

	//外部決済
	razorpay := gateway.NewRazorpayGateway(cfg.RazorpayKeyID, cfg.RazorpayKeySecret)

	//レスポンスキャッシュ
	respCache := cache.New(cfg.CacheTTL)

	//Usecase生成
	authValidator := validator.NewAuthValidator()
	authUC := usecase.NewAuthUsecase(cfg, userRepo, authValidator)
	productUC := usecase.NewProductUsecase(txManager, productRepo, reviewRepo, userRepo, auditRepo)
	categoryUC := usecase.NewCategoryUsecase(categoryRepo, auditRepo)
	cartUC := usecase.NewCartUsecase(cfg, cartRepo, productRepo)
	checkoutUC := usecase.NewCheckoutUsecase(cfg, txManager, cartRepo, productRepo, addressRepo, orderRepo)
	paymentUC := usecase.NewPaymentUsecase(txManager, orderRepo, razorpay)
	orderUC := usecase.NewOrderUsecase(orderRepo, orderItemRepo, auditRepo)
	addressUC := usecase.NewAddressUsecase(txManager, addressRepo)

	//Handler生成＋ルート登録
	e := server.New(cfg)

	handler.NewAuthHandler(authUC, cfg).RegisterRoutes(e, userRepo)
	handler.NewProductHandler(productUC, cfg, respCache).RegisterRoutes(e, userRepo)
	handler.NewCategoryHandler(categoryUC, cfg, respCache).RegisterRoutes(e)
	handler.NewCartHandler(cartUC, cfg).RegisterRoutes(e, userRepo)
	handler.NewOrderHandler(checkoutUC, orderUC, cfg).RegisterRoutes(e, userRepo)
	handler.NewPaymentHandler(paymentUC, cfg).RegisterRoutes(e, userRepo)
	handler.NewAddressHandler(addressUC, cfg).RegisterRoutes(e, userRepo)
	handler.NewAdminProductHandler(productUC, categoryUC, cfg, respCache).RegisterRoutes(e, userRepo)
	handler.NewAdminOrderHandler(orderUC, cfg).RegisterRoutes(e, userRepo)

	if err := server.Start(e, cfg); err != nil {
		log.Fatalf("server: %v", err)
	}
}

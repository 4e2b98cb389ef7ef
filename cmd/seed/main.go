package main

import (
	"log"
	"os"

	"shopmart/internal/config"
	"shopmart/internal/domain/model"
	"shopmart/internal/infra/db"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// 初期データ投入。何度実行しても増えない（冪等）。
func main() {
	_ = godotenv.Load()

	if _, err := config.Load(); err != nil {
		log.Fatalf("config: %v", err)
	}

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

	if err := seedAdmin(gormDB); err != nil {
		log.Fatalf("seed admin: %v", err)
	}
	if err := seedCategories(gormDB); err != nil {
		log.Fatalf("seed categories: %v", err)
	}

	log.Println("seed done")
}

// 管理者ユーザー。メール・パスワードは環境変数から。
func seedAdmin(gormDB *gorm.DB) error {
	email := os.Getenv("ADMIN_EMAIL")
	password := os.Getenv("ADMIN_PASSWORD")
	if email == "" || password == "" {
		log.Println("ADMIN_EMAIL/ADMIN_PASSWORD not set, skipping admin seed")
		return nil
	}

	var count int64
	if err := gormDB.Model(&model.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	admin := model.User{
		FullName:     "Admin",
		Email:        email,
		PasswordHash: string(hash),
		Role:         model.RoleAdmin,
		IsVerified:   true,
	}
	return gormDB.Create(&admin).Error
}

func seedCategories(gormDB *gorm.DB) error {
	names := []string{"Electronics", "Fashion", "Home & Kitchen", "Books", "Sports"}

	for _, name := range names {
		slug := model.Slugify(name)

		var count int64
		if err := gormDB.Model(&model.Category{}).Where("slug = ?", slug).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			continue
		}

		c := model.Category{Name: name, Slug: slug}
		if err := gormDB.Create(&c).Error; err != nil {
			return err
		}
	}

	return nil
}

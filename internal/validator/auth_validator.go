package validator

import (
	"context"
	"net/http"
	"regexp"
	"strings"

	"shopmart/internal/usecase"
)

var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

type authValidator struct{}

// Usecaseは interface を依存注入
func NewAuthValidator() usecase.AuthValidator {
	return &authValidator{}
}

// サインアップの入力を検証。重複チェックはusecase側。
func (v *authValidator) ValidateSignup(ctx context.Context, fullName string, email string, password string) error {
	if strings.TrimSpace(fullName) == "" {
		return usecase.NewHTTPError(http.StatusBadRequest, "full_name required")
	}

	email = strings.TrimSpace(email)
	if email == "" {
		return usecase.NewHTTPError(http.StatusBadRequest, "email required")
	}
	if !emailRe.MatchString(email) {
		return usecase.NewHTTPError(http.StatusBadRequest, "invalid email format")
	}

	//パスワード最低文字数（8）
	if len(password) < 8 {
		return usecase.NewHTTPError(http.StatusBadRequest, "password must be at least 8 characters")
	}

	return nil
}

// ログインの入力を検証
func (v *authValidator) ValidateLogin(ctx context.Context, email string, password string) error {
	email = strings.TrimSpace(email)

	if email == "" || password == "" {
		return usecase.NewHTTPError(http.StatusBadRequest, "email and password required")
	}
	if !emailRe.MatchString(email) {
		return usecase.NewHTTPError(http.StatusBadRequest, "invalid email format")
	}

	return nil
}

package unit

import (
	"context"
	"testing"
	"time"

	"shopmart/internal/config"
	"shopmart/internal/domain/model"
	"shopmart/internal/usecase"
	"shopmart/internal/validator"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"golang.org/x/crypto/bcrypt"
)

func newAuthUsecase(users *UserRepoMock) *usecase.AuthUsecase {
	cfg := config.Config{
		JWTSecret: "unit-test-secret",
		TokenTTL:  7 * 24 * time.Hour,
	}
	return usecase.NewAuthUsecase(cfg, users, validator.NewAuthValidator())
}

func hashOf(t *testing.T, password string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	assert.NoError(t, err)
	return string(h)
}

func TestAuthUsecase_Signup_Success(t *testing.T) {
	ctx := context.Background()

	users := new(UserRepoMock)
	uc := newAuthUsecase(users)

	users.On("FindByEmail", mock.Anything, "taro@example.com").Return(nil, nil)
	users.On("Create", mock.Anything, mock.MatchedBy(func(u *model.User) bool {
		//平文がそのまま保存されないこと
		return u.Email == "taro@example.com" &&
			u.Role == model.RoleUser &&
			u.PasswordHash != "password123" &&
			bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("password123")) == nil
	})).Return(nil)

	out, err := uc.Signup(ctx, usecase.SignupInput{
		FullName: "Taro",
		//メールは小文字化して保存する
		Email:    " Taro@Example.com ",
		Password: "password123",
	})
	assert.NoError(t, err)
	assert.Equal(t, "taro@example.com", out.Email)
	assert.Equal(t, "USER", out.Role)

	users.AssertExpectations(t)
}

func TestAuthUsecase_Signup_DuplicateEmail(t *testing.T) {
	ctx := context.Background()

	users := new(UserRepoMock)
	uc := newAuthUsecase(users)

	users.On("FindByEmail", mock.Anything, "taro@example.com").Return(&model.User{
		ID: 1, Email: "taro@example.com",
	}, nil)

	_, err := uc.Signup(ctx, usecase.SignupInput{
		FullName: "Taro",
		Email:    "taro@example.com",
		Password: "password123",
	})
	assertErrContains(t, err, "email already registered")

	users.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestAuthUsecase_Signup_ShortPassword(t *testing.T) {
	users := new(UserRepoMock)
	uc := newAuthUsecase(users)

	_, err := uc.Signup(context.Background(), usecase.SignupInput{
		FullName: "Taro",
		Email:    "taro@example.com",
		Password: "short",
	})
	assertErrContains(t, err, "at least 8 characters")

	users.AssertNotCalled(t, "FindByEmail", mock.Anything, mock.Anything)
}

func TestAuthUsecase_Signup_InvalidEmail(t *testing.T) {
	uc := newAuthUsecase(new(UserRepoMock))

	_, err := uc.Signup(context.Background(), usecase.SignupInput{
		FullName: "Taro",
		Email:    "not-an-email",
		Password: "password123",
	})
	assertErrContains(t, err, "invalid email format")
}

func TestAuthUsecase_Login_Success(t *testing.T) {
	ctx := context.Background()

	users := new(UserRepoMock)
	uc := newAuthUsecase(users)

	users.On("FindByEmail", mock.Anything, "taro@example.com").Return(&model.User{
		ID: 1, Email: "taro@example.com", Role: model.RoleUser,
		PasswordHash: hashOf(t, "password123"),
	}, nil)

	out, err := uc.Login(ctx, usecase.LoginInput{
		Email:    "taro@example.com",
		Password: "password123",
	})
	assert.NoError(t, err)
	assert.NotEmpty(t, out.Token)
	assert.Equal(t, int64(1), out.User.ID)
}

// 未登録とパスワード違いは同じメッセージ
func TestAuthUsecase_Login_UnknownEmail(t *testing.T) {
	ctx := context.Background()

	users := new(UserRepoMock)
	uc := newAuthUsecase(users)

	users.On("FindByEmail", mock.Anything, "nobody@example.com").Return(nil, nil)

	_, err := uc.Login(ctx, usecase.LoginInput{
		Email:    "nobody@example.com",
		Password: "password123",
	})
	assertErrContains(t, err, "invalid email or password")
}

func TestAuthUsecase_Login_WrongPassword(t *testing.T) {
	ctx := context.Background()

	users := new(UserRepoMock)
	uc := newAuthUsecase(users)

	users.On("FindByEmail", mock.Anything, "taro@example.com").Return(&model.User{
		ID: 1, Email: "taro@example.com",
		PasswordHash: hashOf(t, "password123"),
	}, nil)

	_, err := uc.Login(ctx, usecase.LoginInput{
		Email:    "taro@example.com",
		Password: "wrongwrong",
	})
	assertErrContains(t, err, "invalid email or password")
}

func TestAuthUsecase_Me_UserGone(t *testing.T) {
	ctx := context.Background()

	users := new(UserRepoMock)
	uc := newAuthUsecase(users)

	users.On("FindByID", mock.Anything, int64(1)).Return(nil, nil)

	_, err := uc.Me(ctx, 1)
	assertErrContains(t, err, "unauthorized")
}

func TestAuthUsecase_UpdateProfile_PartialUpdate(t *testing.T) {
	ctx := context.Background()

	users := new(UserRepoMock)
	uc := newAuthUsecase(users)

	users.On("FindByID", mock.Anything, int64(1)).Return(&model.User{
		ID: 1, FullName: "Taro", Contact: "000", Email: "taro@example.com",
	}, nil)
	users.On("Update", mock.Anything, mock.MatchedBy(func(u *model.User) bool {
		//指定されたフィールドだけ変わる
		return u.FullName == "Jiro" && u.Contact == "000"
	})).Return(nil)

	name := "Jiro"
	out, err := uc.UpdateProfile(ctx, 1, usecase.UpdateProfileInput{FullName: &name})
	assert.NoError(t, err)
	assert.Equal(t, "Jiro", out.FullName)

	users.AssertExpectations(t)
}

func TestAuthUsecase_UpdateProfile_EmptyName(t *testing.T) {
	ctx := context.Background()

	users := new(UserRepoMock)
	uc := newAuthUsecase(users)

	users.On("FindByID", mock.Anything, int64(1)).Return(&model.User{ID: 1, FullName: "Taro"}, nil)

	empty := "  "
	_, err := uc.UpdateProfile(ctx, 1, usecase.UpdateProfileInput{FullName: &empty})
	assertErrContains(t, err, "full_name must not be empty")

	users.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

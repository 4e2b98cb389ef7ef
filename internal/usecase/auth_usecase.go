package usecase

import (
	"context"
	"net/http"
	"strings"
	"time"

	"shopmart/internal/config"
	"shopmart/internal/domain/model"
	"shopmart/internal/repository"

	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/bcrypt"
)

// usecaseがValidatorInterfaceに依存する約束
type AuthValidator interface {
	ValidateSignup(ctx context.Context, fullName string, email string, password string) error
	ValidateLogin(ctx context.Context, email string, password string) error
}

type UserDTO struct {
	ID         int64  `json:"id"`
	FullName   string `json:"full_name"`
	Email      string `json:"email"`
	Contact    string `json:"contact"`
	Role       string `json:"role"`
	IsVerified bool   `json:"is_verified"`
	ProfilePic string `json:"profile_pic"`
}

type SignupInput struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Contact  string `json:"contact"`
	Password string `json:"password"`
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// トークンはhandlerがCookieにもbodyにも載せる
type LoginResult struct {
	User  UserDTO `json:"user"`
	Token string  `json:"token"`
}

type UpdateProfileInput struct {
	FullName   *string `json:"full_name"`
	Contact    *string `json:"contact"`
	ProfilePic *string `json:"profile_pic"`
}

type AuthUsecase struct {
	cfg       config.Config
	users     repository.UserRepository
	validator AuthValidator
}

// DI
func NewAuthUsecase(cfg config.Config, users repository.UserRepository, validator AuthValidator) *AuthUsecase {
	return &AuthUsecase{
		cfg:       cfg,
		users:     users,
		validator: validator,
	}
}

// Signup は新規ユーザーを作る。メール重複は409。
func (u *AuthUsecase) Signup(ctx context.Context, in SignupInput) (UserDTO, error) {
	if err := u.validator.ValidateSignup(ctx, in.FullName, in.Email, in.Password); err != nil {
		return UserDTO{}, err
	}

	email := normalizeEmail(in.Email)

	//重複チェック（FindByEmailは見つからなければnil,nil）
	existing, err := u.users.FindByEmail(ctx, email)
	if err != nil {
		return UserDTO{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if existing != nil {
		return UserDTO{}, NewHTTPError(http.StatusConflict, "email already registered")
	}

	//パスワードは必ずハッシュ化して保存（平文保存しない）
	pwHash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return UserDTO{}, NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	user := &model.User{
		FullName:     strings.TrimSpace(in.FullName),
		Email:        email,
		Contact:      strings.TrimSpace(in.Contact),
		PasswordHash: string(pwHash),
		Role:         model.RoleUser,
	}

	if err := u.users.Create(ctx, user); err != nil {
		//uniqueインデックス違反（同時登録の競合）もここに来る
		return UserDTO{}, NewHTTPError(http.StatusConflict, "email already registered")
	}

	return toUserDTO(user), nil
}

// Login はメール＋パスワードで認証してJWTを返す。
// 未登録とパスワード違いはどちらも同じ401にする。
func (u *AuthUsecase) Login(ctx context.Context, in LoginInput) (LoginResult, error) {
	if err := u.validator.ValidateLogin(ctx, in.Email, in.Password); err != nil {
		return LoginResult{}, err
	}

	user, err := u.users.FindByEmail(ctx, normalizeEmail(in.Email))
	if err != nil {
		return LoginResult{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if user == nil {
		return LoginResult{}, NewHTTPError(http.StatusUnauthorized, "invalid email or password")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		return LoginResult{}, NewHTTPError(http.StatusUnauthorized, "invalid email or password")
	}

	token, err := u.IssueToken(user)
	if err != nil {
		return LoginResult{}, NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	return LoginResult{
		User:  toUserDTO(user),
		Token: token,
	}, nil
}

// Me は自分のプロフィールを返す。
func (u *AuthUsecase) Me(ctx context.Context, userID int64) (UserDTO, error) {
	if userID <= 0 {
		return UserDTO{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	user, err := u.users.FindByID(ctx, userID)
	if err != nil {
		return UserDTO{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if user == nil {
		return UserDTO{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	return toUserDTO(user), nil
}

// UpdateProfile は渡されたフィールドだけ更新する。
// メール・ロール・パスワードはここでは変えない。
func (u *AuthUsecase) UpdateProfile(ctx context.Context, userID int64, in UpdateProfileInput) (UserDTO, error) {
	if userID <= 0 {
		return UserDTO{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	user, err := u.users.FindByID(ctx, userID)
	if err != nil {
		return UserDTO{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if user == nil {
		return UserDTO{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	if in.FullName != nil {
		name := strings.TrimSpace(*in.FullName)
		if name == "" {
			return UserDTO{}, NewHTTPError(http.StatusBadRequest, "full_name must not be empty")
		}
		user.FullName = name
	}
	if in.Contact != nil {
		user.Contact = strings.TrimSpace(*in.Contact)
	}
	if in.ProfilePic != nil {
		user.ProfilePic = strings.TrimSpace(*in.ProfilePic)
	}

	if err := u.users.Update(ctx, user); err != nil {
		return UserDTO{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return toUserDTO(user), nil
}

// jwt発行（HS256、subとroleのみ）
func (u *AuthUsecase) IssueToken(user *model.User) (string, error) {
	now := time.Now()

	claims := jwt.MapClaims{
		"sub":  user.ID,
		"role": string(user.Role),
		"iat":  now.Unix(),
		"exp":  now.Add(u.cfg.TokenTTL).Unix(),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(u.cfg.JWTSecret))
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func toUserDTO(u *model.User) UserDTO {
	return UserDTO{
		ID:         u.ID,
		FullName:   u.FullName,
		Email:      u.Email,
		Contact:    u.Contact,
		Role:       string(u.Role),
		IsVerified: u.IsVerified,
		ProfilePic: u.ProfilePic,
	}
}

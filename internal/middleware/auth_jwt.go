package middleware

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"shopmart/internal/config"
	"shopmart/internal/repository"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
)

const (
	CtxUserIDKey   = "user_id"   // int64
	CtxUserRoleKey = "user_role" // string

	// ログインCookieの名前
	TokenCookieName = "token"
)

// AuthJWT はBearerヘッダとCookieの両方からトークンを受け付ける。
// ヘッダ優先。ヘッダのトークンが無効でもCookieがあればそちらも試す。
// 検証に通ったらDBの最新ユーザーを引き直してcontextに積む。
func AuthJWT(cfg config.Config, users repository.UserRepository) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			candidates := tokenCandidates(c)
			if len(candidates) == 0 {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}

			for _, raw := range candidates {
				userID, err := verifyToken(cfg.JWTSecret, raw)
				if err != nil {
					continue
				}

				//トークンが正しくてもユーザーが消えていれば無効
				user, err := users.FindByID(c.Request().Context(), userID)
				if err != nil || user == nil {
					continue
				}

				c.Set(CtxUserIDKey, user.ID)
				c.Set(CtxUserRoleKey, string(user.Role))
				return next(c)
			}

			return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
		}
	}
}

// ヘッダ→Cookieの順でトークン候補を集める（重複は1つに）
func tokenCandidates(c echo.Context) []string {
	out := make([]string, 0, 2)

	authz := c.Request().Header.Get("Authorization")
	if authz != "" {
		parts := strings.SplitN(authz, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			if t := strings.TrimSpace(parts[1]); t != "" {
				out = append(out, t)
			}
		}
	}

	if cookie, err := c.Cookie(TokenCookieName); err == nil && cookie.Value != "" {
		if len(out) == 0 || out[0] != cookie.Value {
			out = append(out, cookie.Value)
		}
	}

	return out
}

// HS256のJWTを検証してsub（ユーザーID）を返す
func verifyToken(secret string, raw string) (int64, error) {
	token, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil || token == nil || !token.Valid {
		return 0, errors.New("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, errors.New("invalid claims")
	}

	userID, err := parseUserID(claims["sub"])
	if err != nil || userID <= 0 {
		return 0, errors.New("invalid sub")
	}

	return userID, nil
}

type errorResponse struct {
	Error string `json:"error"`
}

func errorJSON(msg string) errorResponse {
	return errorResponse{Error: msg}
}

// user_idをint64に変換する
func parseUserID(v interface{}) (int64, error) {
	switch t := v.(type) {
	case float64:
		return int64(t), nil
	case string:
		return strconv.ParseInt(t, 10, 64)
	default:
		return 0, errors.New("invalid sub")
	}
}

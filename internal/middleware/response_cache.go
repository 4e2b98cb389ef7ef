package middleware

import (
	"bytes"
	"net/http"
	"time"

	"shopmart/internal/cache"

	"github.com/labstack/echo/v4"
)

// bodyを横取りするラッパー
type cachingWriter struct {
	http.ResponseWriter
	body   *bytes.Buffer
	status int
}

func (w *cachingWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func (w *cachingWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

// ResponseCache は公開GETのレスポンスをTTL付きで保持する。
// キーはパス＋クエリ。200のJSONだけをキャッシュする。
// 管理系の書き込み後はhandlerがDeleteByPrefixで無効化する。
func ResponseCache(c *cache.Cache, ttl time.Duration) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ec echo.Context) error {
			if ec.Request().Method != http.MethodGet {
				return next(ec)
			}

			key := ec.Request().URL.RequestURI()

			if body, ok := c.Get(key); ok {
				return ec.JSONBlob(http.StatusOK, body)
			}

			writer := &cachingWriter{
				ResponseWriter: ec.Response().Writer,
				body:           &bytes.Buffer{},
				status:         http.StatusOK,
			}
			ec.Response().Writer = writer

			if err := next(ec); err != nil {
				return err
			}

			if writer.status == http.StatusOK && writer.body.Len() > 0 {
				c.Set(key, writer.body.Bytes(), ttl)
			}

			return nil
		}
	}
}

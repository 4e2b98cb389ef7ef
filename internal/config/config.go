package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Configはアプリ全体の設定
type Config struct {
	Port string // サーバーポート（8080）

	JWTSecret string // JWT署名シークレット
	TokenTTL  time.Duration

	RazorpayKeyID     string // ゲートウェイ公開キー
	RazorpayKeySecret string // ゲートウェイ秘密キー

	DeliveryFee float64       // カートが空でないときの固定配送料
	CacheTTL    time.Duration // 公開カタログのレスポンスキャッシュTTL

	GoEnv        string // dev/prod
	CookieSecure bool   // Secure属性を付けるか
	FEURL        string // フロントURL（CORSで使う）
}

// Loadは環境変数から設定を読む
func Load() (Config, error) {
	cfg := Config{
		Port: getenv("PORT", "8080"),

		JWTSecret: os.Getenv("JWT_SECRET"),
		TokenTTL:  7 * 24 * time.Hour,

		RazorpayKeyID:     os.Getenv("RAZORPAY_KEY_ID"),
		RazorpayKeySecret: os.Getenv("RAZORPAY_KEY_SECRET"),

		GoEnv: getenv("GO_ENV", "dev"),
		FEURL: getenv("FE_URL", "http://localhost:3000"),
	}

	fee, err := floatEnv("DELIVERY_FEE", 50)
	if err != nil {
		return Config{}, err
	}
	cfg.DeliveryFee = fee

	cacheSec, err := intEnv("CACHE_TTL_SECONDS", 60)
	if err != nil {
		return Config{}, err
	}
	cfg.CacheTTL = time.Duration(cacheSec) * time.Second

	cfg.CookieSecure = cfg.GoEnv == "prod"

	//必須チェック
	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.RazorpayKeyID == "" {
		return Config{}, fmt.Errorf("RAZORPAY_KEY_ID is required")
	}
	if cfg.RazorpayKeySecret == "" {
		return Config{}, fmt.Errorf("RAZORPAY_KEY_SECRET is required")
	}

	return cfg, nil
}

func getenv(key string, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func intEnv(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be number: %w", key, err)
	}
	return i, nil
}

func floatEnv(key string, def float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be number: %w", key, err)
	}
	return f, nil
}

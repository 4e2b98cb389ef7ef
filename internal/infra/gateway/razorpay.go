package gateway

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	razorpay "github.com/razorpay/razorpay-go"
)

// Razorpayの注文API呼び出しと署名検証。
// usecase側はPaymentGatewayインターフェース越しに使う。
type RazorpayGateway struct {
	keyID     string
	keySecret string
	client    *razorpay.Client
}

// DI
func NewRazorpayGateway(keyID, keySecret string) *RazorpayGateway {
	return &RazorpayGateway{
		keyID:     keyID,
		keySecret: keySecret,
		client:    razorpay.NewClient(keyID, keySecret),
	}
}

// フロントに渡す公開キー
func (g *RazorpayGateway) KeyID() string {
	return g.keyID
}

// ゲートウェイ側の注文を作成して、そのIDを返す。
// amountMinorは最小通貨単位（INRならpaise）。
func (g *RazorpayGateway) CreateOrder(ctx context.Context, amountMinor int64, currency string, receipt string, notes map[string]interface{}) (string, error) {
	data := map[string]interface{}{
		"amount":   amountMinor,
		"currency": currency,
		"receipt":  receipt,
		"notes":    notes,
	}

	body, err := g.client.Order.Create(data, nil)
	if err != nil {
		return "", fmt.Errorf("razorpay order create: %w", err)
	}

	id, ok := body["id"].(string)
	if !ok || id == "" {
		return "", fmt.Errorf("razorpay order create: missing order id")
	}

	return id, nil
}

// チェックアウト完了時の署名を検証
func (g *RazorpayGateway) VerifySignature(gatewayOrderID, paymentID, signature string) bool {
	return VerifySignature(gatewayOrderID, paymentID, signature, g.keySecret)
}

// VerifySignature は "<orderId>|<paymentId>" のHMAC-SHA256を
// 秘密鍵で計算し、送られてきた署名と定数時間で比較する。
func VerifySignature(gatewayOrderID, paymentID, signature, secret string) bool {
	if gatewayOrderID == "" || paymentID == "" || signature == "" {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(gatewayOrderID + "|" + paymentID))
	expected := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(signature))
}

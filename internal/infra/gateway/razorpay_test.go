package gateway

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
)

func signPayload(secret, orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifySignature_Valid(t *testing.T) {
	secret := "test-secret"
	sig := signPayload(secret, "order_abc", "pay_123")

	assert.True(t, VerifySignature("order_abc", "pay_123", sig, secret))
}

func TestVerifySignature_Tampered(t *testing.T) {
	secret := "test-secret"
	sig := signPayload(secret, "order_abc", "pay_123")

	//支払いIDをすり替えると通らない
	assert.False(t, VerifySignature("order_abc", "pay_999", sig, secret))
	//鍵違いも通らない
	assert.False(t, VerifySignature("order_abc", "pay_123", sig, "other-secret"))
	//署名そのものの改ざん
	assert.False(t, VerifySignature("order_abc", "pay_123", sig+"00", secret))
}

func TestVerifySignature_EmptyFields(t *testing.T) {
	secret := "test-secret"
	sig := signPayload(secret, "order_abc", "pay_123")

	assert.False(t, VerifySignature("", "pay_123", sig, secret))
	assert.False(t, VerifySignature("order_abc", "", sig, secret))
	assert.False(t, VerifySignature("order_abc", "pay_123", "", secret))
}

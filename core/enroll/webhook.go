package enroll

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// OrderStatusPaid is the only order status that triggers unlock logic; all
// other statuses are acknowledged without any state change.
const OrderStatusPaid = "paid"

// SignatureHeader carries the hex HMAC-SHA256 digest of the raw request body.
const SignatureHeader = "X-Signature"

// OrderNotification is the payment provider's purchase notification payload.
type OrderNotification struct {
	OrderRef    string `json:"order_ref"`
	OrderStatus string `json:"order_status"`
	Customer    struct {
		Email string `json:"email"`
		Name  string `json:"name"`
	} `json:"Customer"`
	Product struct {
		ProductID string `json:"product_id"`
		Name      string `json:"name"`
	} `json:"Product"`
}

func (n OrderNotification) Paid() bool {
	return n.OrderStatus == OrderStatusPaid
}

// VerifySignature checks the provider's signature over the exact raw body:
// hex HMAC-SHA256 with the shared secret, compared in constant time.
// A missing header or an unconfigured secret never verifies.
func VerifySignature(body []byte, signature, secret string) bool {
	signature = strings.TrimSpace(signature)
	if signature == "" || secret == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(strings.ToLower(signature)))
}

// SignBody computes the hex HMAC-SHA256 signature the provider would send
// for the given body. Used by tests and the admin diagnostics command.
func SignBody(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

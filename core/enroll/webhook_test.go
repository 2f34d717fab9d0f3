package enroll

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestVerifySignature(t *testing.T) {
	secret := "whsec_test"
	body := []byte(`{"order_ref":"ord_1","order_status":"paid"}`)

	tests := []struct {
		name      string
		body      []byte
		signature string
		secret    string
		want      bool
	}{
		{name: "valid signature", body: body, signature: SignBody(body, secret), secret: secret, want: true},
		{name: "uppercase hex accepted", body: body, signature: strings.ToUpper(SignBody(body, secret)), secret: secret, want: true},
		{name: "surrounding whitespace trimmed", body: body, signature: " " + SignBody(body, secret) + "\n", secret: secret, want: true},
		{name: "wrong secret", body: body, signature: SignBody(body, "whsec_other"), secret: secret, want: false},
		{name: "tampered body", body: []byte(`{"order_ref":"ord_2","order_status":"paid"}`), signature: SignBody(body, secret), secret: secret, want: false},
		{name: "missing signature", body: body, signature: "", secret: secret, want: false},
		{name: "unconfigured secret never verifies", body: body, signature: SignBody(body, ""), secret: "", want: false},
		{name: "garbage signature", body: body, signature: "not-hex", secret: secret, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := VerifySignature(tt.body, tt.signature, tt.secret); got != tt.want {
				t.Errorf("VerifySignature() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestOrderNotification_Paid(t *testing.T) {
	tests := []struct {
		status string
		want   bool
	}{
		{status: "paid", want: true},
		{status: "pending", want: false},
		{status: "refunded", want: false},
		{status: "", want: false},
		{status: "Paid", want: false}, // provider sends lowercase only
	}
	for _, tt := range tests {
		t.Run("status "+tt.status, func(t *testing.T) {
			n := OrderNotification{OrderStatus: tt.status}
			if got := n.Paid(); got != tt.want {
				t.Errorf("Paid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestOrderNotification_unmarshal(t *testing.T) {
	payload := []byte(`{
		"order_ref": "ord_42",
		"order_status": "paid",
		"Customer": {"email": "Parent@Gmail.com", "name": "A Parent"},
		"Product": {"product_id": "prod_alphabet", "name": "Alphabet Adventures"}
	}`)

	var n OrderNotification
	if err := json.Unmarshal(payload, &n); err != nil {
		t.Fatalf("Unmarshal() failed, %v", err)
	}
	if n.OrderRef != "ord_42" {
		t.Errorf("OrderRef = %s, want ord_42", n.OrderRef)
	}
	if !n.Paid() {
		t.Error("Paid() = false, want true")
	}
	if n.Customer.Email != "Parent@Gmail.com" {
		t.Errorf("Customer.Email = %s", n.Customer.Email)
	}
	if n.Product.ProductID != "prod_alphabet" {
		t.Errorf("Product.ProductID = %s", n.Product.ProductID)
	}
}

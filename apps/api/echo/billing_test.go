package echoapi

import (
	"context"
	"net/http"
	"testing"

	"github.com/kusoma/backend/core/course"
	"github.com/kusoma/backend/core/enroll"
)

func webhookPayload(t *testing.T, email, productID, status string) []byte {
	t.Helper()

	return marshallObj(t, map[string]interface{}{
		"order_ref":    "ord_1",
		"order_status": status,
		"Customer":     map[string]string{"email": email, "name": "A Parent"},
		"Product":      map[string]string{"product_id": productID, "name": "Module"},
	})
}

func Test_billingApi_webhook(t *testing.T) {
	env := setup(t)
	usr := env.createUser(t, "A Parent", "aparent", "parent@test.cd", strongPwd)
	env.createProgress(t, usr)

	t.Run("rejects a missing signature", func(t *testing.T) {
		req, rec := newRequest(http.MethodPost, "/v1/billing/webhook", webhookPayload(t, usr.Email, "prod_alphabet", "paid"))
		env.server.ServeHTTP(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Errorf("code = %d, want %d", rec.Code, http.StatusUnauthorized)
		}
	})

	t.Run("rejects a bad signature", func(t *testing.T) {
		body := webhookPayload(t, usr.Email, "prod_alphabet", "paid")
		req, rec := newRequest(http.MethodPost, "/v1/billing/webhook", body)
		req.Header.Set(enroll.SignatureHeader, enroll.SignBody(body, "whsec_wrong"))
		env.server.ServeHTTP(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Errorf("code = %d, want %d", rec.Code, http.StatusUnauthorized)
		}
		var res WebhookResponse
		decodeBody(t, rec, &res)
		if res.Success {
			t.Error("success = true, want false")
		}
	})

	t.Run("rejects a signature over different bytes", func(t *testing.T) {
		body := webhookPayload(t, usr.Email, "prod_alphabet", "paid")
		req, rec := newRequest(http.MethodPost, "/v1/billing/webhook", body)
		req.Header.Set(enroll.SignatureHeader, enroll.SignBody([]byte("other"), webhookTestSecret))
		env.server.ServeHTTP(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Errorf("code = %d, want %d", rec.Code, http.StatusUnauthorized)
		}
	})

	t.Run("rejects malformed json even when signed", func(t *testing.T) {
		body := []byte("{not json")
		req, rec := newRequest(http.MethodPost, "/v1/billing/webhook", body)
		req.Header.Set(enroll.SignatureHeader, enroll.SignBody(body, webhookTestSecret))
		env.server.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("code = %d, want %d", rec.Code, http.StatusBadRequest)
		}
	})

	t.Run("rejects a paid order missing the customer email", func(t *testing.T) {
		body := webhookPayload(t, "", "prod_alphabet", "paid")
		req, rec := newRequest(http.MethodPost, "/v1/billing/webhook", body)
		req.Header.Set(enroll.SignatureHeader, enroll.SignBody(body, webhookTestSecret))
		env.server.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("code = %d, want %d; body %s", rec.Code, http.StatusBadRequest, rec.Body.String())
		}
		var res WebhookResponse
		decodeBody(t, rec, &res)
		if res.Success {
			t.Error("success = true, want false")
		}
		// nothing was recorded under the empty email
		if _, err := env.enrollRepo.GetPendingPurchase(context.Background(), ""); err != enroll.ErrNoPending {
			t.Errorf("GetPendingPurchase() error = %v, want ErrNoPending", err)
		}
	})

	t.Run("rejects a paid order missing the product id", func(t *testing.T) {
		body := webhookPayload(t, usr.Email, "", "paid")
		req, rec := newRequest(http.MethodPost, "/v1/billing/webhook", body)
		req.Header.Set(enroll.SignatureHeader, enroll.SignBody(body, webhookTestSecret))
		env.server.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("code = %d, want %d; body %s", rec.Code, http.StatusBadRequest, rec.Body.String())
		}
		if env.getProgress(t, usr).Progress.Granted(course.ModuleAlphabet) {
			t.Error("alphabet module granted by an order without a product id")
		}
	})

	t.Run("acknowledges non-paid statuses without state change", func(t *testing.T) {
		body := webhookPayload(t, usr.Email, "prod_alphabet", "refunded")
		req, rec := newRequest(http.MethodPost, "/v1/billing/webhook", body)
		req.Header.Set(enroll.SignatureHeader, enroll.SignBody(body, webhookTestSecret))
		env.server.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("code = %d, want %d; body %s", rec.Code, http.StatusOK, rec.Body.String())
		}
		if env.getProgress(t, usr).Progress.Granted(course.ModuleAlphabet) {
			t.Error("alphabet module granted by a refunded order")
		}
	})

	t.Run("acknowledges unknown products", func(t *testing.T) {
		body := webhookPayload(t, usr.Email, "prod_tshirt", "paid")
		req, rec := newRequest(http.MethodPost, "/v1/billing/webhook", body)
		req.Header.Set(enroll.SignatureHeader, enroll.SignBody(body, webhookTestSecret))
		env.server.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("code = %d, want %d; body %s", rec.Code, http.StatusOK, rec.Body.String())
		}
		var res WebhookResponse
		decodeBody(t, rec, &res)
		if !res.Success {
			t.Error("success = false, want true")
		}
	})

	t.Run("paid order unlocks an existing account", func(t *testing.T) {
		body := webhookPayload(t, usr.Email, "prod_alphabet", "paid")
		req, rec := newRequest(http.MethodPost, "/v1/billing/webhook", body)
		req.Header.Set(enroll.SignatureHeader, enroll.SignBody(body, webhookTestSecret))
		env.server.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("code = %d, want %d; body %s", rec.Code, http.StatusOK, rec.Body.String())
		}
		if !env.getProgress(t, usr).Progress.Granted(course.ModuleAlphabet) {
			t.Error("alphabet module not granted")
		}
	})

	t.Run("paid order without an account is recorded as pending", func(t *testing.T) {
		body := webhookPayload(t, "Early.Bird+kusoma@gmail.com", "prod_phonographism", "paid")
		req, rec := newRequest(http.MethodPost, "/v1/billing/webhook", body)
		req.Header.Set(enroll.SignatureHeader, enroll.SignBody(body, webhookTestSecret))
		env.server.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("code = %d, want %d; body %s", rec.Code, http.StatusOK, rec.Body.String())
		}

		// the record is keyed by the canonical form of the buyer's email
		pp, err := env.enrollRepo.GetPendingPurchase(context.Background(), "earlybird@gmail.com")
		if err != nil {
			t.Fatalf("GetPendingPurchase() failed, %v", err)
		}
		if !pp.Modules.Contains(course.ModulePhonographism) {
			t.Errorf("pending modules = %v, want phonographism", pp.Modules)
		}
	})
}

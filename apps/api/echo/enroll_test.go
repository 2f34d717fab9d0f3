package echoapi

import (
	"context"
	"net/http"
	"testing"

	"github.com/kusoma/backend/core/course"
)

func Test_enrollApi_reconcile(t *testing.T) {
	env := setup(t)
	usr := env.createUser(t, "A Parent", "aparent", "parent@test.cd", strongPwd)
	env.createProgress(t, usr)

	t.Run("requires a token", func(t *testing.T) {
		req, rec := newRequest(http.MethodPost, "/v1/enrollments/reconcile")
		env.server.ServeHTTP(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Errorf("code = %d, want %d", rec.Code, http.StatusUnauthorized)
		}
	})

	t.Run("no pending purchase reports applied=false", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/enrollments/reconcile", getToken(t, usr))
		env.server.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("code = %d, want %d; body %s", rec.Code, http.StatusOK, rec.Body.String())
		}
		var res ReconcileResponse
		decodeBody(t, rec, &res)
		if !res.Ok || res.Applied {
			t.Errorf("response = %+v, want ok and not applied", res)
		}
	})

	t.Run("settles a pending purchase on demand", func(t *testing.T) {
		if err := env.enrollRepo.AddPendingModules(context.Background(), usr.Email, []string{course.ModuleAlphabet}); err != nil {
			t.Fatalf("AddPendingModules() failed, %v", err)
		}

		req, rec := newAuthRequest(http.MethodPost, "/v1/enrollments/reconcile", getToken(t, usr))
		env.server.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("code = %d, want %d; body %s", rec.Code, http.StatusOK, rec.Body.String())
		}
		var res ReconcileResponse
		decodeBody(t, rec, &res)
		if !res.Applied {
			t.Fatalf("response = %+v, want applied", res)
		}
		if !env.getProgress(t, usr).Progress.Granted(course.ModuleAlphabet) {
			t.Error("alphabet module not granted")
		}
	})
}

func Test_enrollApi_grant(t *testing.T) {
	env := setup(t)
	admin := env.createAdmin(t, "Ops", "ops", "ops@test.cd", strongPwd)
	usr := env.createUser(t, "A Parent", "aparent", "parent@test.cd", strongPwd)
	env.createProgress(t, usr)

	grantBody := func(email string, modules ...string) []byte {
		return marshallObj(t, GrantRequest{Email: email, Modules: modules})
	}

	t.Run("requires a token", func(t *testing.T) {
		req, rec := newRequest(http.MethodPost, "/v1/enrollments/grant", grantBody(usr.Email, course.ModuleAlphabet))
		env.server.ServeHTTP(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Errorf("code = %d, want %d", rec.Code, http.StatusUnauthorized)
		}
	})

	t.Run("refuses non-admin callers", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/enrollments/grant", getToken(t, usr), grantBody(usr.Email, course.ModuleAlphabet))
		env.server.ServeHTTP(rec, req)

		if rec.Code != http.StatusForbidden {
			t.Errorf("code = %d, want %d", rec.Code, http.StatusForbidden)
		}
	})

	t.Run("rejects unknown module IDs", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/enrollments/grant", getToken(t, admin), grantBody(usr.Email, "astrology"))
		env.server.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("code = %d, want %d; body %s", rec.Code, http.StatusBadRequest, rec.Body.String())
		}
	})

	t.Run("admin grant unlocks an existing account", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/enrollments/grant", getToken(t, admin), grantBody(usr.Email, course.ModuleComprehension))
		env.server.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("code = %d, want %d; body %s", rec.Code, http.StatusOK, rec.Body.String())
		}
		if !env.getProgress(t, usr).Progress.Granted(course.ModuleComprehension) {
			t.Error("comprehension module not granted")
		}
	})

	t.Run("grant without an account stays pending", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/enrollments/grant", getToken(t, admin), grantBody("future@test.cd", course.ModuleAlphabet))
		env.server.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("code = %d, want %d; body %s", rec.Code, http.StatusOK, rec.Body.String())
		}
		pp, err := env.enrollRepo.GetPendingPurchase(context.Background(), "future@test.cd")
		if err != nil {
			t.Fatalf("GetPendingPurchase() failed, %v", err)
		}
		if !pp.Modules.Contains(course.ModuleAlphabet) {
			t.Errorf("pending modules = %v, want alphabet", pp.Modules)
		}
	})
}

func Test_courseApi_progress(t *testing.T) {
	env := setup(t)
	usr := env.createUser(t, "A Parent", "aparent", "parent@test.cd", strongPwd)
	env.createProgress(t, usr)

	t.Run("requires a token", func(t *testing.T) {
		req, rec := newRequest(http.MethodGet, "/v1/courses/progress")
		env.server.ServeHTTP(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Errorf("code = %d, want %d", rec.Code, http.StatusUnauthorized)
		}
	})

	t.Run("returns the caller's document", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/courses/progress", getToken(t, usr))
		env.server.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("code = %d, want %d; body %s", rec.Code, http.StatusOK, rec.Body.String())
		}
		var doc course.ProgressDoc
		decodeBody(t, rec, &doc)
		if doc.UserID != usr.ID {
			t.Errorf("UserID = %s, want %s", doc.UserID, usr.ID)
		}
		if len(doc.Progress) != len(env.catalog.Modules()) {
			t.Errorf("document has %d modules, want %d", len(doc.Progress), len(env.catalog.Modules()))
		}
	})

	t.Run("creates the document for accounts that predate it", func(t *testing.T) {
		legacy := env.createUser(t, "Legacy Parent", "legacy", "legacy@test.cd", strongPwd)

		req, rec := newAuthRequest(http.MethodGet, "/v1/courses/progress", getToken(t, legacy))
		env.server.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("code = %d, want %d; body %s", rec.Code, http.StatusOK, rec.Body.String())
		}
		var doc course.ProgressDoc
		decodeBody(t, rec, &doc)
		if doc.UserID != legacy.ID {
			t.Errorf("UserID = %s, want %s", doc.UserID, legacy.ID)
		}
	})
}

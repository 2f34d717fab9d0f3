package echoapi

import (
	"context"
	"net/http"
	"testing"

	"github.com/kusoma/backend/core/course"
	"github.com/kusoma/backend/core/user"
)

const strongPwd = "b00k$hel!f-Tales"

func Test_userApi_register(t *testing.T) {
	env := setup(t)

	body := func(name, uname, email, pwd string) []byte {
		return marshallObj(t, map[string]string{
			"name":             name,
			"username":         uname,
			"email":            email,
			"password":         pwd,
			"password_confirm": pwd,
		})
	}

	t.Run("creates a parent account with an all-locked document", func(t *testing.T) {
		req, rec := newRequest(http.MethodPost, "/v1/users/register", body("A Parent", "aparent", "parent@test.cd", strongPwd))
		env.server.ServeHTTP(rec, req)

		if rec.Code != http.StatusCreated {
			t.Fatalf("code = %d, want %d; body %s", rec.Code, http.StatusCreated, rec.Body.String())
		}
		var usr user.User
		decodeBody(t, rec, &usr)
		if !usr.IsParent() {
			t.Errorf("roles = %v, want parent", usr.Roles)
		}

		doc := env.getProgress(t, usr)
		for _, m := range env.catalog.Modules() {
			if doc.Progress.Granted(m.ID) {
				t.Errorf("module %s granted on fresh account", m.ID)
			}
		}
	})

	t.Run("settles a purchase made before signup", func(t *testing.T) {
		if err := env.enrollRepo.AddPendingModules(context.Background(), "early@test.cd", []string{course.ModuleAlphabet}); err != nil {
			t.Fatalf("AddPendingModules() failed, %v", err)
		}

		req, rec := newRequest(http.MethodPost, "/v1/users/register", body("Early Bird", "earlybird", "early@test.cd", strongPwd))
		env.server.ServeHTTP(rec, req)

		if rec.Code != http.StatusCreated {
			t.Fatalf("code = %d, want %d; body %s", rec.Code, http.StatusCreated, rec.Body.String())
		}
		var usr user.User
		decodeBody(t, rec, &usr)
		if !env.getProgress(t, usr).Progress.Granted(course.ModuleAlphabet) {
			t.Error("alphabet module not granted on signup")
		}
	})

	t.Run("rejects a weak password", func(t *testing.T) {
		req, rec := newRequest(http.MethodPost, "/v1/users/register", body("B Parent", "bparent", "bparent@test.cd", "1234567"))
		env.server.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("code = %d, want %d; body %s", rec.Code, http.StatusBadRequest, rec.Body.String())
		}
	})

	t.Run("rejects a duplicate email", func(t *testing.T) {
		req, rec := newRequest(http.MethodPost, "/v1/users/register", body("A Parent", "aparent2", "parent@test.cd", strongPwd))
		env.server.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("code = %d, want %d; body %s", rec.Code, http.StatusBadRequest, rec.Body.String())
		}
	})
}

func Test_userApi_login(t *testing.T) {
	env := setup(t)
	usr := env.createUser(t, "A Parent", "aparent", "parent@test.cd", strongPwd)
	env.createProgress(t, usr)

	body := func(uname, pwd string) []byte {
		return marshallObj(t, map[string]string{"username": uname, "password": pwd})
	}

	t.Run("returns a token on valid credentials", func(t *testing.T) {
		req, rec := newRequest(http.MethodPost, "/v1/users/login", body(usr.Username, strongPwd))
		env.server.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("code = %d, want %d; body %s", rec.Code, http.StatusOK, rec.Body.String())
		}
		var res LoginResponse
		decodeBody(t, rec, &res)
		if res.Token == "" {
			t.Error("empty token")
		}
	})

	t.Run("rejects a wrong password", func(t *testing.T) {
		req, rec := newRequest(http.MethodPost, "/v1/users/login", body(usr.Username, "nope"))
		env.server.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("code = %d, want %d", rec.Code, http.StatusBadRequest)
		}
	})

	t.Run("settles pending purchases on login", func(t *testing.T) {
		if err := env.enrollRepo.AddPendingModules(context.Background(), usr.Email, []string{course.ModuleComprehension}); err != nil {
			t.Fatalf("AddPendingModules() failed, %v", err)
		}

		req, rec := newRequest(http.MethodPost, "/v1/users/login", body(usr.Email, strongPwd))
		env.server.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("code = %d, want %d; body %s", rec.Code, http.StatusOK, rec.Body.String())
		}
		if !env.getProgress(t, usr).Progress.Granted(course.ModuleComprehension) {
			t.Error("comprehension module not granted on login")
		}
	})
}

func Test_userApi_refreshToken(t *testing.T) {
	env := setup(t)
	usr := env.createUser(t, "A Parent", "aparent", "parent@test.cd", strongPwd)

	t.Run("requires a token", func(t *testing.T) {
		req, rec := newRequest(http.MethodPost, "/v1/users/token-refresh")
		env.server.ServeHTTP(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Errorf("code = %d, want %d", rec.Code, http.StatusUnauthorized)
		}
	})

	t.Run("issues a fresh token", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/users/token-refresh", getToken(t, usr))
		env.server.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("code = %d, want %d; body %s", rec.Code, http.StatusOK, rec.Body.String())
		}
		var res LoginResponse
		decodeBody(t, rec, &res)
		if res.Token == "" {
			t.Error("empty token")
		}
	})
}

func Test_userApi_passwordReset(t *testing.T) {
	env := setup(t)
	env.createUser(t, "A Parent", "aparent", "parent@test.cd", strongPwd)

	t.Run("accepts a known email", func(t *testing.T) {
		req, rec := newRequest(http.MethodPost, "/v1/users/password-reset", marshallObj(t, map[string]string{"email": "parent@test.cd"}))
		env.server.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("code = %d, want %d; body %s", rec.Code, http.StatusOK, rec.Body.String())
		}
	})

	t.Run("does not leak unknown emails", func(t *testing.T) {
		req, rec := newRequest(http.MethodPost, "/v1/users/password-reset", marshallObj(t, map[string]string{"email": "nobody@test.cd"}))
		env.server.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("code = %d, want %d", rec.Code, http.StatusOK)
		}
	})
}

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/pathik-bd/pathik-api/internal/model"
)

const testSecret = "test-secret"

func signed(t *testing.T, claims jwt.MapClaims, secret string) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return s
}

func claimsFor(sub, role string) jwt.MapClaims {
	return jwt.MapClaims{
		"sub":   sub,
		"role":  role,
		"name":  "Rafi",
		"photo": "https://example.com/r.png",
		"exp":   time.Now().Add(time.Hour).Unix(),
	}
}

// adminEcho mounts a single admin-only route that echoes the identity.
func adminEcho() *echo.Echo {
	e := echo.New()
	g := e.Group("/admin", JWTAuth(testSecret), RequireRole(model.RoleAdmin))
	g.GET("/whoami", func(c echo.Context) error {
		return c.JSON(http.StatusOK, CurrentIdentity(c))
	})
	return e
}

func do(e *echo.Echo, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/admin/whoami", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestAdminRouteAccess(t *testing.T) {
	e := adminEcho()
	expired := claimsFor("u1", model.RoleAdmin)
	expired["exp"] = time.Now().Add(-time.Minute).Unix()

	tests := []struct {
		name  string
		token string
		want  int
	}{
		{"no token", "", http.StatusUnauthorized},
		{"garbage", "not-a-jwt", http.StatusUnauthorized},
		{"wrong secret", signed(t, claimsFor("u1", model.RoleAdmin), "other"), http.StatusUnauthorized},
		{"expired", signed(t, expired, testSecret), http.StatusUnauthorized},
		{"missing sub", signed(t, claimsFor("", model.RoleAdmin), testSecret), http.StatusUnauthorized},
		{"user role", signed(t, claimsFor("u1", model.RoleUser), testSecret), http.StatusForbidden},
		{"admin role", signed(t, claimsFor("u1", model.RoleAdmin), testSecret), http.StatusOK},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if rec := do(e, tc.token); rec.Code != tc.want {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tc.want, rec.Body.String())
			}
		})
	}
}

func TestCurrentIdentityFromClaims(t *testing.T) {
	e := echo.New()
	var got model.Identity
	e.GET("/me", func(c echo.Context) error {
		got = CurrentIdentity(c)
		return c.NoContent(http.StatusNoContent)
	}, JWTAuth(testSecret))

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+signed(t, claimsFor("u-42", model.RoleUser), testSecret))
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d", rec.Code)
	}
	want := model.Identity{UserID: "u-42", DisplayName: "Rafi", PhotoURL: "https://example.com/r.png", Role: model.RoleUser}
	if got != want {
		t.Fatalf("identity = %+v, want %+v", got, want)
	}
}

func TestCurrentIdentityAnonymous(t *testing.T) {
	c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	if id := CurrentIdentity(c); id != (model.Identity{}) {
		t.Fatalf("identity = %+v", id)
	}
	if currentUserID(c) != "anon" {
		t.Fatal("expected anon rate-limit key")
	}
}

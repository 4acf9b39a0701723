package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"journal-management-api/models"

	"github.com/gin-gonic/gin"
)

func newAuthContext(t *testing.T, header string) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	recorder := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(recorder)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/manuscripts", nil)
	if header != "" {
		c.Request.Header.Set("Authorization", header)
	}
	return c, recorder
}

func TestAuthMiddlewareRejectsMissingHeader(t *testing.T) {
	c, recorder := newAuthContext(t, "")

	AuthMiddleware()(c)

	if !c.IsAborted() {
		t.Fatal("request without Authorization header must be aborted")
	}
	if recorder.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", recorder.Code)
	}
}

func TestAuthMiddlewareRejectsNonBearerScheme(t *testing.T) {
	c, recorder := newAuthContext(t, "Basic dXNlcjpwYXNz")

	AuthMiddleware()(c)

	if !c.IsAborted() {
		t.Fatal("non-Bearer Authorization header must be aborted")
	}
	if recorder.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", recorder.Code)
	}
}

func TestAuthMiddlewareRejectsGarbageToken(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	c, recorder := newAuthContext(t, "Bearer not.a.token")

	AuthMiddleware()(c)

	if !c.IsAborted() {
		t.Fatal("unparseable token must be aborted")
	}
	if recorder.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", recorder.Code)
	}
}

func TestRequireRole(t *testing.T) {
	tests := []struct {
		name    string
		role    int
		allowed []int
		wantOK  bool
	}{
		{"editor on editor route", models.RoleEditor, []int{models.RoleEditor, models.RoleAdmin}, true},
		{"admin on editor route", models.RoleAdmin, []int{models.RoleEditor, models.RoleAdmin}, true},
		{"author on editor route", models.RoleAuthor, []int{models.RoleEditor, models.RoleAdmin}, false},
		{"reviewer on admin route", models.RoleReviewer, []int{models.RoleAdmin}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, recorder := newAuthContext(t, "")
			c.Set("roleID", tt.role)

			RequireRole(tt.allowed...)(c)

			if tt.wantOK {
				if c.IsAborted() {
					t.Fatalf("role %d should pass, got status %d", tt.role, recorder.Code)
				}
				return
			}
			if !c.IsAborted() {
				t.Fatalf("role %d should be rejected", tt.role)
			}
			if recorder.Code != http.StatusForbidden {
				t.Errorf("status = %d, want 403", recorder.Code)
			}
		})
	}
}

func TestRequireRoleWithoutIdentity(t *testing.T) {
	c, recorder := newAuthContext(t, "")

	RequireRole(models.RoleEditor)(c)

	if !c.IsAborted() {
		t.Fatal("request without an authenticated role must be aborted")
	}
	if recorder.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", recorder.Code)
	}
}

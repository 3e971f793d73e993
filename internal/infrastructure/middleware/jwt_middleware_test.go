package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kindergarten_server/internal/model"
	"kindergarten_server/pkg/errorx"
	"kindergarten_server/pkg/util/jwt"
)

func init() {
	jwt.Init("middleware-test-secret", 10, 24)
}

func newRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	auth := r.Group("/", JWTAuth())
	auth.GET("/me", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"uid": CurrentUserID(c), "role": CurrentRole(c)})
	})
	auth.GET("/admin", RequireRoles(model.RoleAdmin, model.RolePrincipal), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return r
}

func do(r *gin.Engine, path, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestJWTAuth(t *testing.T) {
	r := newRouter()
	access, err := jwt.GenerateAccessToken("12", model.RoleParent)
	require.NoError(t, err)
	refresh, _, err := jwt.GenerateRefreshToken("12", model.RoleParent)
	require.NoError(t, err)
	bad, err := jwt.GenerateAccessToken("abc", model.RoleParent)
	require.NoError(t, err)

	tests := []struct {
		name   string
		path   string
		header string
		status int
	}{
		{"no token", "/me", "", http.StatusUnauthorized},
		{"wrong scheme", "/me", "Token " + access, http.StatusUnauthorized},
		{"garbage", "/me", "Bearer not-a-jwt", http.StatusUnauthorized},
		{"refresh token rejected", "/me", "Bearer " + refresh, http.StatusUnauthorized},
		{"non numeric user id", "/me", "Bearer " + bad, http.StatusUnauthorized},
		{"valid header", "/me", "Bearer " + access, http.StatusOK},
		{"query token", "/me?token=" + access, "", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(r, tt.path, tt.header)
			assert.Equal(t, tt.status, w.Code)
			if tt.status == http.StatusUnauthorized {
				var body map[string]any
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
				assert.Equal(t, false, body["success"])
				assert.EqualValues(t, errorx.CodeUnauthorized, body["code"])
			}
		})
	}

	w := do(r, "/me", "Bearer "+access)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.EqualValues(t, 12, body["uid"])
	assert.Equal(t, model.RoleParent, body["role"])
}

func TestRequireRoles(t *testing.T) {
	r := newRouter()
	parent, _ := jwt.GenerateAccessToken("3", model.RoleParent)
	principal, _ := jwt.GenerateAccessToken("4", model.RolePrincipal)

	assert.Equal(t, http.StatusForbidden, do(r, "/admin", "Bearer "+parent).Code)
	assert.Equal(t, http.StatusNoContent, do(r, "/admin", "Bearer "+principal).Code)
}

func TestTlsHandler_RedirectsPlainHTTP(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(TlsHandler("example.com", 443, false))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "http://example.com/ping", nil))
	assert.Equal(t, http.StatusMovedPermanently, w.Code)
	assert.Contains(t, w.Header().Get("Location"), "https://example.com:443/ping")

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "http://example.com/ping", nil)
	req.Header.Set("X-Forwarded-Proto", "https")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/visionary-built/MyCourierBackend/internal/models"
)

func rbacRequest(t *testing.T, claims *models.JWTClaims, roles ...models.UserRole) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	r := gin.New()
	if claims != nil {
		r.Use(func(c *gin.Context) {
			c.Set(ContextUserKey, claims)
		})
	}
	r.GET("/guarded", RequireRoles(roles...), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	req, _ := http.NewRequest(http.MethodGet, "/guarded", nil)
	r.ServeHTTP(w, req)
	return w
}

func TestRBACAllowsMatchingRole(t *testing.T) {
	w := rbacRequest(t, &models.JWTClaims{UserID: "u1", Role: models.RoleAdmin}, models.RoleAdmin, models.RoleRider)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRBACForbidsOtherRole(t *testing.T) {
	w := rbacRequest(t, &models.JWTClaims{UserID: "u1", Role: models.RoleCustomer}, models.RoleAdmin)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRBACRequiresAuthentication(t *testing.T) {
	w := rbacRequest(t, nil, models.RoleAdmin)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

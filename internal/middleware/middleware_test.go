package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"expense_tribute/internal/model"
	"expense_tribute/internal/repository"
	"expense_tribute/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "middleware-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

func newProtectedRouter(jwtUtil *utils.JWTUtil, extra ...gin.HandlerFunc) *gin.Engine {
	router := gin.New()
	handlers := append([]gin.HandlerFunc{JWTAuthMiddleware(jwtUtil)}, extra...)
	handlers = append(handlers, func(c *gin.Context) {
		claims, ok := GetClaims(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": claims.UserID})
	})
	router.GET("/protected", handlers...)
	return router
}

func do(router *gin.Engine, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestJWTAuthMiddleware(t *testing.T) {
	jwtUtil := utils.NewJWTUtil(testSecret, utils.TokenTTL)
	router := newProtectedRouter(jwtUtil)
	user := &model.User{ID: "u1", Username: "ann", Email: "ann@example.com"}

	valid, err := jwtUtil.GenerateToken(user)
	require.NoError(t, err)
	expired, err := utils.NewJWTUtil(testSecret, -time.Hour).GenerateToken(user)
	require.NoError(t, err)
	foreign, err := utils.NewJWTUtil("other-secret", utils.TokenTTL).GenerateToken(user)
	require.NoError(t, err)
	hs384, err := jwt.NewWithClaims(jwt.SigningMethodHS384, &utils.JWTClaims{UserID: "u1"}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantBody   string
	}{
		{name: "valid", header: "Bearer " + valid, wantStatus: http.StatusOK, wantBody: `{"id":"u1"}`},
		{name: "lowercase scheme", header: "bearer " + valid, wantStatus: http.StatusOK, wantBody: `{"id":"u1"}`},
		{name: "missing header", wantStatus: http.StatusUnauthorized, wantBody: `{"error":"Access denied. No token provided."}`},
		{name: "scheme only", header: "Bearer", wantStatus: http.StatusUnauthorized, wantBody: `{"error":"Access denied. No token provided."}`},
		{name: "garbage", header: "Bearer not-a-jwt", wantStatus: http.StatusForbidden, wantBody: `{"error":"Invalid token."}`},
		{name: "expired", header: "Bearer " + expired, wantStatus: http.StatusForbidden, wantBody: `{"error":"Invalid token."}`},
		{name: "wrong secret", header: "Bearer " + foreign, wantStatus: http.StatusForbidden, wantBody: `{"error":"Invalid token."}`},
		{name: "wrong algorithm", header: "Bearer " + hs384, wantStatus: http.StatusForbidden, wantBody: `{"error":"Invalid token."}`},
		{name: "wrong scheme", header: "Basic " + valid, wantStatus: http.StatusForbidden, wantBody: `{"error":"Invalid token."}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(router, tt.header)
			assert.Equal(t, tt.wantStatus, w.Code)
			assert.JSONEq(t, tt.wantBody, w.Body.String())
		})
	}
}

func TestAdminMiddleware(t *testing.T) {
	store, err := repository.NewFileStore(t.TempDir())
	require.NoError(t, err)
	users := store.Users()
	ctx := context.Background()

	require.NoError(t, users.Create(ctx, &model.User{ID: "u1", Username: "flagged", Email: "flagged@example.com", IsAdmin: true}))
	require.NoError(t, users.Create(ctx, &model.User{ID: "u2", Username: "listed", Email: "listed@example.com"}))
	require.NoError(t, users.Create(ctx, &model.User{ID: "u3", Username: "plain", Email: "plain@example.com"}))

	jwtUtil := utils.NewJWTUtil(testSecret, utils.TokenTTL)
	router := newProtectedRouter(jwtUtil, AdminMiddleware(users, model.NewAllowlist([]string{"LISTED@example.com"})))

	tokenFor := func(id string) string {
		token, err := jwtUtil.GenerateToken(&model.User{ID: id})
		require.NoError(t, err)
		return "Bearer " + token
	}

	assert.Equal(t, http.StatusOK, do(router, tokenFor("u1")).Code)
	assert.Equal(t, http.StatusOK, do(router, tokenFor("u2")).Code)

	w := do(router, tokenFor("u3"))
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.JSONEq(t, `{"error":"Access denied. Admin privileges required."}`, w.Body.String())

	assert.Equal(t, http.StatusForbidden, do(router, tokenFor("ghost")).Code)
	assert.Equal(t, http.StatusUnauthorized, do(router, "").Code)
}

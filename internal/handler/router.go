package handler

import (
	"context"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"expense_tribute/internal/log"
	"expense_tribute/internal/metrics"
	"expense_tribute/internal/middleware"
	"expense_tribute/internal/model"
	"expense_tribute/internal/repository"
	"expense_tribute/internal/service"
	"expense_tribute/internal/utils"

	"github.com/gin-gonic/gin"
)

// RouterDeps is everything NewRouter wires together
type RouterDeps struct {
	Auth      service.AuthService
	Expenses  service.ExpenseService
	Admin     service.AdminService
	Users     repository.UserRepository
	JWT       *utils.JWTUtil
	Allowlist model.Allowlist
	Ping      func(ctx context.Context) error
	StaticDir string
	Logger    *log.Logger
}

// NewRouter builds the gin engine with every route and middleware
func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), log.GinLogger(deps.Logger), metrics.GinMiddleware())

	// Simple CORS middleware (allow all for development)
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})

	jwtAuthMW := middleware.JWTAuthMiddleware(deps.JWT)
	adminMW := middleware.AdminMiddleware(deps.Users, deps.Allowlist)

	apiGroup := router.Group("/api")
	NewAuthHandler(deps.Auth, deps.Logger).RegisterAuthRoutes(apiGroup, jwtAuthMW)
	NewExpenseHandler(deps.Expenses, deps.Logger).RegisterExpenseRoutes(apiGroup, jwtAuthMW)
	NewAdminHandler(deps.Admin, deps.Logger).RegisterAdminRoutes(apiGroup, jwtAuthMW, adminMW)

	router.GET("/health", func(c *gin.Context) {
		if deps.Ping != nil {
			if err := deps.Ping(c.Request.Context()); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "error", "error": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", metrics.Handler())

	router.NoRoute(noRoute(deps.StaticDir))
	return router
}

// noRoute answers unknown API paths with JSON and hands everything else to
// the client bundle, falling back to index.html for client-side routes.
func noRoute(staticDir string) gin.HandlerFunc {
	return func(c *gin.Context) {
		reqPath := c.Request.URL.Path
		if reqPath == "/api" || strings.HasPrefix(reqPath, "/api/") {
			c.JSON(http.StatusNotFound, gin.H{"error": "API endpoint not found"})
			return
		}
		if staticDir == "" || (c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
			return
		}

		file := filepath.Join(staticDir, filepath.FromSlash(path.Clean("/"+reqPath)))
		if info, err := os.Stat(file); err == nil && !info.IsDir() {
			c.File(file)
			return
		}
		c.File(filepath.Join(staticDir, "index.html"))
	}
}

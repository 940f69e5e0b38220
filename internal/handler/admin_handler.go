package handler

import (
	"net/http"

	"expense_tribute/internal/log"
	"expense_tribute/internal/service"

	"github.com/gin-gonic/gin"
)

// AdminHandler serves the admin portal endpoints
type AdminHandler struct {
	service service.AdminService
	logger  *log.Logger
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(s service.AdminService, logger *log.Logger) *AdminHandler {
	return &AdminHandler{service: s, logger: logger.WithComponent(log.ComponentAdmin)}
}

func (h *AdminHandler) GetAllUsers(c *gin.Context) {
	users, err := h.service.ListUsers(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

func (h *AdminHandler) GetAllExpenses(c *gin.Context) {
	expenses, err := h.service.ListExpenses(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, expenses)
}

func (h *AdminHandler) GetStats(c *gin.Context) {
	stats, err := h.service.Stats(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// RegisterAdminRoutes registers admin routes behind both middlewares
func (h *AdminHandler) RegisterAdminRoutes(rg *gin.RouterGroup, authMW, adminMW gin.HandlerFunc) {
	adminGroup := rg.Group("/admin")
	adminGroup.Use(authMW, adminMW)
	{
		adminGroup.GET("/users", h.GetAllUsers)
		adminGroup.GET("/expenses", h.GetAllExpenses)
		adminGroup.GET("/stats", h.GetStats)
	}
}

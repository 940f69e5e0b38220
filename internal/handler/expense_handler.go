package handler

import (
	"net/http"

	"expense_tribute/internal/log"
	"expense_tribute/internal/model"
	"expense_tribute/internal/service"

	"github.com/gin-gonic/gin"
)

// ExpenseHandler handles the caller's expenses and the leaderboard
type ExpenseHandler struct {
	service service.ExpenseService
	logger  *log.Logger
}

// NewExpenseHandler creates a new ExpenseHandler
func NewExpenseHandler(s service.ExpenseService, logger *log.Logger) *ExpenseHandler {
	return &ExpenseHandler{service: s, logger: logger.WithComponent(log.ComponentExpense)}
}

func (h *ExpenseHandler) GetMyExpenses(c *gin.Context) {
	userID, err := getAuthUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	expenses, err := h.service.ListForUser(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, expenses)
}

func (h *ExpenseHandler) CreateExpense(c *gin.Context) {
	userID, err := getAuthUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	// Any userId in the body is not part of the request type and is dropped.
	var req model.CreateExpenseRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, h.logger, err)
		return
	}

	expense, err := h.service.Create(c.Request.Context(), userID, req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, expense)
}

func (h *ExpenseHandler) UpdateExpense(c *gin.Context) {
	userID, err := getAuthUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	var patch model.ExpensePatch
	if err := bindJSON(c, &patch); err != nil {
		respondError(c, h.logger, err)
		return
	}

	expense, err := h.service.Update(c.Request.Context(), c.Param("id"), userID, patch)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, expense)
}

func (h *ExpenseHandler) DeleteExpense(c *gin.Context) {
	userID, err := getAuthUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	if err := h.service.Delete(c.Request.Context(), c.Param("id"), userID); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *ExpenseHandler) GetLeaderboard(c *gin.Context) {
	board, err := h.service.Leaderboard(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, board)
}

// RegisterExpenseRoutes registers expense and leaderboard routes
func (h *ExpenseHandler) RegisterExpenseRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	expenseGroup := rg.Group("/expenses")
	expenseGroup.Use(authMW)
	{
		expenseGroup.GET("", h.GetMyExpenses)
		expenseGroup.POST("", h.CreateExpense)
		expenseGroup.PUT("/:id", h.UpdateExpense)
		expenseGroup.DELETE("/:id", h.DeleteExpense)
	}

	rg.GET("/leaderboard", authMW, h.GetLeaderboard)
}

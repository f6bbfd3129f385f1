package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/vanshika/fintrace/internal/domain"
	"github.com/vanshika/fintrace/internal/service"
)

// APIHandlers exposes HTTP handlers for the REST API.
type APIHandlers struct {
	logger  *slog.Logger
	service *service.RelationshipService
}

// NewAPIHandlers constructs an APIHandlers instance.
func NewAPIHandlers(logger *slog.Logger, svc *service.RelationshipService) *APIHandlers {
	return &APIHandlers{
		logger:  logger,
		service: svc,
	}
}

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

type countResponse struct {
	Count int64 `json:"count"`
}

func (h *APIHandlers) upsertUser(c *gin.Context) {
	var payload service.UserInput
	if err := c.ShouldBindJSON(&payload); err != nil {
		writeError(c, http.StatusBadRequest, "invalid request body", err)
		return
	}

	user, err := h.service.UpsertUser(c.Request.Context(), payload)
	if err != nil {
		h.fail(c, "Failed to upsert user", err, "userId", payload.ID)
		return
	}
	c.JSON(http.StatusCreated, user.Properties())
}

func (h *APIHandlers) listUsers(c *gin.Context) {
	limit, skip := pageQuery(c)
	users, err := h.service.ListUsers(c.Request.Context(), limit, skip)
	if err != nil {
		h.fail(c, "Failed to list users", err)
		return
	}
	c.JSON(http.StatusOK, userProps(users))
}

func (h *APIHandlers) countUsers(c *gin.Context) {
	n, err := h.service.CountUsers(c.Request.Context())
	if err != nil {
		h.fail(c, "Failed to count users", err)
		return
	}
	c.JSON(http.StatusOK, countResponse{Count: n})
}

func (h *APIHandlers) exportUsers(c *gin.Context) {
	users, err := h.service.ExportUsers(c.Request.Context())
	if err != nil {
		h.fail(c, "Failed to export users", err)
		return
	}
	h.attachment(c, "users.json", userProps(users))
}

func (h *APIHandlers) createTransaction(c *gin.Context) {
	var payload service.TransactionInput
	if err := c.ShouldBindJSON(&payload); err != nil {
		writeError(c, http.StatusBadRequest, "invalid request body", err)
		return
	}

	tx, err := h.service.CreateTransaction(c.Request.Context(), payload)
	if err != nil {
		h.fail(c, "Failed to create transaction", err, "transactionId", payload.ID)
		return
	}
	c.JSON(http.StatusCreated, tx.Properties())
}

func (h *APIHandlers) listTransactions(c *gin.Context) {
	limit, skip := pageQuery(c)
	txs, err := h.service.ListTransactions(c.Request.Context(), limit, skip)
	if err != nil {
		h.fail(c, "Failed to list transactions", err)
		return
	}
	c.JSON(http.StatusOK, transactionProps(txs))
}

func (h *APIHandlers) countTransactions(c *gin.Context) {
	n, err := h.service.CountTransactions(c.Request.Context())
	if err != nil {
		h.fail(c, "Failed to count transactions", err)
		return
	}
	c.JSON(http.StatusOK, countResponse{Count: n})
}

func (h *APIHandlers) exportTransactions(c *gin.Context) {
	txs, err := h.service.ExportTransactions(c.Request.Context())
	if err != nil {
		h.fail(c, "Failed to export transactions", err)
		return
	}
	h.attachment(c, "transactions.json", transactionProps(txs))
}

func (h *APIHandlers) userRelationships(c *gin.Context) {
	userID := strings.TrimSpace(c.Param("id"))
	if userID == "" {
		writeError(c, http.StatusBadRequest, "user ID is required", nil)
		return
	}

	graph, err := h.service.UserNeighborhood(c.Request.Context(), userID)
	if err != nil {
		h.fail(c, "Failed to fetch user relationships", err, "userId", userID)
		return
	}
	c.JSON(http.StatusOK, graph)
}

func (h *APIHandlers) transactionRelationships(c *gin.Context) {
	txID := strings.TrimSpace(c.Param("id"))
	if txID == "" {
		writeError(c, http.StatusBadRequest, "transaction ID is required", nil)
		return
	}

	graph, err := h.service.TransactionNeighborhood(c.Request.Context(), txID)
	if err != nil {
		h.fail(c, "Failed to fetch transaction relationships", err, "transactionId", txID)
		return
	}
	c.JSON(http.StatusOK, graph)
}

// fail maps a service error to a response: rejected input is a 400, anything
// else is logged and answered with a 500.
func (h *APIHandlers) fail(c *gin.Context, msg string, err error, attrs ...any) {
	if errors.Is(err, service.ErrInvalidInput) {
		writeError(c, http.StatusBadRequest, msg, err)
		return
	}
	h.logger.Error(strings.ToLower(msg), append([]any{"error", err}, attrs...)...)
	writeError(c, http.StatusInternalServerError, msg, err)
}

func (h *APIHandlers) attachment(c *gin.Context, filename string, data any) {
	body, err := json.Marshal(data)
	if err != nil {
		h.fail(c, "Failed to encode export", err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Data(http.StatusOK, "application/json", body)
}

func writeError(c *gin.Context, status int, msg string, err error) {
	resp := errorResponse{Error: msg}
	if err != nil {
		resp.Details = err.Error()
	}
	c.AbortWithStatusJSON(status, resp)
}

func pageQuery(c *gin.Context) (limit, skip int) {
	return parseInt(c.Query("limit"), service.DefaultPageLimit), parseInt(c.Query("skip"), 0)
}

func parseInt(value string, fallback int) int {
	if value == "" {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return n
}

func userProps(users []domain.User) []map[string]any {
	out := make([]map[string]any, 0, len(users))
	for _, u := range users {
		out = append(out, u.Properties())
	}
	return out
}

func transactionProps(txs []domain.Transaction) []map[string]any {
	out := make([]map[string]any, 0, len(txs))
	for _, t := range txs {
		out = append(out, t.Properties())
	}
	return out
}

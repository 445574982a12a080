package handler

import (
	"net/http"

	"github.com/healthstock/healthstock-backend/internal/inventory/service"
	"github.com/healthstock/healthstock-backend/pkg/httputil"
	"github.com/healthstock/healthstock-backend/pkg/logger"
)

// TransactionHandler exposes the read-only stock transaction log
type TransactionHandler struct {
	service *service.InventoryService
	logger  *logger.Logger
}

// NewTransactionHandler creates a new transaction handler
func NewTransactionHandler(svc *service.InventoryService, log *logger.Logger) *TransactionHandler {
	return &TransactionHandler{
		service: svc,
		logger:  log,
	}
}

// List lists stock transactions, newest first
func (h *TransactionHandler) List(w http.ResponseWriter, r *http.Request) {
	page, perPage := pagination(r)
	itemID := r.URL.Query().Get("inventory_item")

	txns, total, err := h.service.ListTransactions(r.Context(), itemID, page, perPage)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSONWithMeta(w, http.StatusOK, txns, meta(page, perPage, total))
}

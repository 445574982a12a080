package handler_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/healthstock/healthstock-backend/internal/inventory/handler"
	"github.com/healthstock/healthstock-backend/internal/inventory/repository"
	"github.com/healthstock/healthstock-backend/internal/inventory/service"
	"github.com/healthstock/healthstock-backend/pkg/logger"
	"github.com/healthstock/healthstock-backend/pkg/testutil"
)

const testItemID = "0c9a3e52-4b7d-4e0a-9f13-5a6b7c8d9e0f"

func newItemRouter(mockDB *testutil.MockDB) chi.Router {
	itemRepo := repository.NewItemRepository(mockDB.DB)
	txnRepo := repository.NewTransactionRepository(mockDB.DB)
	log := logger.New("test", "test")

	svc := service.NewInventoryService(mockDB.DB, itemRepo, txnRepo, nil, nil, log)
	h := handler.NewItemHandler(svc, log)

	r := chi.NewRouter()
	r.Get("/api/inventory/low_stock", h.LowStock)
	r.Get("/api/inventory/{id}", h.Get)
	r.Post("/api/inventory/{id}/adjust_stock", h.AdjustStock)
	return r
}

func fullItemRow(quantity int) *sqlmock.Rows {
	now := time.Now()
	return testutil.MockRows(
		"id", "name", "description", "sku", "category", "quantity", "unit",
		"minimum_stock", "maximum_stock", "expiry_date", "batch_number",
		"supplier_id", "supplier_name", "location", "unit_price",
		"last_restocked", "created_at", "updated_at",
	).AddRow(
		testItemID, "Paracetamol 500mg", nil, "MED-001", "medicine", quantity, "boxes",
		10, nil, nil, nil,
		nil, nil, nil, "4.50",
		now, now, now,
	)
}

// --- AdjustStock Tests ---

func TestAdjustStockEndpoint_MissingQuantityChange(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	router := newItemRouter(mockDB)

	req := testutil.NewHTTPRequest(http.MethodPost, "/api/inventory/"+testItemID+"/adjust_stock",
		map[string]interface{}{"notes": "no change field"})
	req = testutil.WithActor(req, testutil.TestActor())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	code, message := testutil.DecodeError(t, rec)
	assert.Equal(t, "BAD_REQUEST", code)
	assert.Equal(t, "quantity_change is required", message)

	// The bad request never reached the database.
	mockDB.ExpectationsWereMet(t)
}

func TestAdjustStockEndpoint_ReturnsUpdatedItem(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	router := newItemRouter(mockDB)

	mockDB.ExpectBegin()
	mockDB.ExpectQuery("SELECT quantity FROM inventory_items").
		WillReturnRows(testutil.MockRows("quantity").AddRow(10))
	mockDB.ExpectExec("UPDATE inventory_items").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mockDB.ExpectQuery("INSERT INTO stock_transactions").
		WillReturnRows(testutil.MockRows("performed_at").AddRow(time.Now()))
	mockDB.ExpectQuery("SELECT").WillReturnRows(fullItemRow(15))
	mockDB.ExpectCommit()

	req := testutil.NewHTTPRequest(http.MethodPost, "/api/inventory/"+testItemID+"/adjust_stock",
		map[string]interface{}{"quantity_change": 5})
	req = testutil.WithActor(req, testutil.TestActor())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var item repository.InventoryItem
	testutil.DecodeResponse(t, rec, &item)
	assert.Equal(t, 15, item.Quantity)
	assert.Equal(t, "MED-001", item.SKU)

	mockDB.ExpectationsWereMet(t)
}

func TestGetItemEndpoint_NotFound(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	router := newItemRouter(mockDB)

	mockDB.ExpectQuery("SELECT").WillReturnRows(testutil.MockRows(
		"id", "name", "description", "sku", "category", "quantity", "unit",
		"minimum_stock", "maximum_stock", "expiry_date", "batch_number",
		"supplier_id", "supplier_name", "location", "unit_price",
		"last_restocked", "created_at", "updated_at",
	))

	req := testutil.NewHTTPRequest(http.MethodGet, "/api/inventory/"+testItemID, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	code, _ := testutil.DecodeError(t, rec)
	assert.Equal(t, "NOT_FOUND", code)

	mockDB.ExpectationsWereMet(t)
}

func TestLowStockEndpoint(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	router := newItemRouter(mockDB)

	mockDB.ExpectQuery("SELECT").WillReturnRows(fullItemRow(2))

	req := testutil.NewHTTPRequest(http.MethodGet, "/api/inventory/low_stock", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var items []repository.InventoryItem
	testutil.DecodeResponse(t, rec, &items)
	require.Len(t, items, 1)
	assert.Equal(t, 2, items[0].Quantity)

	mockDB.ExpectationsWereMet(t)
}

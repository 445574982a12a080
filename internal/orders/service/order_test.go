package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/healthstock/healthstock-backend/internal/orders/repository"
	"github.com/healthstock/healthstock-backend/internal/orders/service"
	"github.com/healthstock/healthstock-backend/pkg/errors"
	"github.com/healthstock/healthstock-backend/pkg/logger"
	"github.com/healthstock/healthstock-backend/pkg/testutil"
)

const (
	testSupplierID = "f3b1c2d4-0a1b-4c2d-8e3f-123456789abc"
	testItemA      = "11111111-2222-4333-8444-555555555555"
	testItemB      = "66666666-7777-4888-9999-aaaaaaaaaaaa"
)

func newTestOrderService(mockDB *testutil.MockDB) *service.OrderService {
	orderRepo := repository.NewOrderRepository(mockDB.DB)
	log := logger.New("test", "test")
	return service.NewOrderService(mockDB.DB, orderRepo, nil, log)
}

func orderHeaderRow(id, total, status string) *sqlmock.Rows {
	now := time.Now()
	return testutil.MockRows(
		"id", "order_number", "supplier_id", "supplier_name", "order_date",
		"expected_delivery", "status", "total_amount", "created_by",
		"created_by_name", "approved_by", "approved_by_name", "notes",
		"created_at", "updated_at",
	).AddRow(
		id, "PO-2026-001", testSupplierID, "MedSupply Co", now,
		nil, status, total, testutil.TestActor().ID,
		"jdoe", nil, nil, nil,
		now, now,
	)
}

// --- CreateOrder Tests ---

func TestCreateOrder_ComputesTotals(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	svc := newTestOrderService(mockDB)
	now := time.Now()

	mockDB.ExpectBegin()
	mockDB.ExpectQuery("INSERT INTO purchase_orders").
		WillReturnRows(testutil.MockRows("created_at", "updated_at").AddRow(now, now))
	mockDB.ExpectExec("INSERT INTO order_items").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mockDB.ExpectExec("INSERT INTO order_items").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mockDB.ExpectExec("UPDATE purchase_orders SET total_amount").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mockDB.ExpectCommit()

	// Re-read after commit: header, then lines
	mockDB.ExpectQuery("SELECT").WillReturnRows(orderHeaderRow("", "40.00", "pending"))
	mockDB.ExpectQuery("SELECT").WillReturnRows(testutil.MockRows(
		"id", "order_id", "inventory_item_id", "inventory_item_name",
		"inventory_item_sku", "quantity", "unit_price", "total_price",
	).
		AddRow("line-1", "order-1", testItemA, "Paracetamol 500mg", "MED-001", 3, "10.00", "30.00").
		AddRow("line-2", "order-1", testItemB, "Surgical Gloves", "SUP-002", 2, "5.00", "10.00"))

	order, err := svc.CreateOrder(context.Background(), service.CreateOrderRequest{
		OrderNumber: "PO-2026-001",
		SupplierID:  testSupplierID,
		Items: []service.OrderLineRequest{
			{InventoryItemID: testItemA, Quantity: 3, UnitPrice: decimal.RequireFromString("10.00")},
			{InventoryItemID: testItemB, Quantity: 2, UnitPrice: decimal.RequireFromString("5.00")},
		},
	}, testutil.TestActor())
	require.NoError(t, err)

	assert.Equal(t, "pending", order.Status)
	assert.True(t, order.TotalAmount.Equal(decimal.RequireFromString("40.00")),
		"total_amount = %s", order.TotalAmount)
	require.Len(t, order.Items, 2)
	assert.True(t, order.Items[0].TotalPrice.Equal(decimal.RequireFromString("30.00")))
	assert.True(t, order.Items[1].TotalPrice.Equal(decimal.RequireFromString("10.00")))

	mockDB.ExpectationsWereMet(t)
}

func TestCreateOrder_UnknownItemRollsBack(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	svc := newTestOrderService(mockDB)
	now := time.Now()

	mockDB.ExpectBegin()
	mockDB.ExpectQuery("INSERT INTO purchase_orders").
		WillReturnRows(testutil.MockRows("created_at", "updated_at").AddRow(now, now))
	mockDB.ExpectExec("INSERT INTO order_items").
		WillReturnError(&pq.Error{Code: "23503", Constraint: "order_items_inventory_item_id_fkey"})
	mockDB.ExpectRollback()

	order, err := svc.CreateOrder(context.Background(), service.CreateOrderRequest{
		OrderNumber: "PO-2026-002",
		SupplierID:  testSupplierID,
		Items: []service.OrderLineRequest{
			{InventoryItemID: testItemA, Quantity: 1, UnitPrice: decimal.RequireFromString("1.00")},
		},
	}, testutil.TestActor())
	assert.Nil(t, order)
	require.Error(t, err)

	var appErr *errors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "BAD_REQUEST", appErr.Code)

	mockDB.ExpectationsWereMet(t)
}

func TestCreateOrder_DuplicateOrderNumber(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	svc := newTestOrderService(mockDB)

	mockDB.ExpectBegin()
	mockDB.ExpectQuery("INSERT INTO purchase_orders").
		WillReturnError(&pq.Error{Code: "23505", Constraint: "purchase_orders_order_number_key"})
	mockDB.ExpectRollback()

	order, err := svc.CreateOrder(context.Background(), service.CreateOrderRequest{
		OrderNumber: "PO-2026-001",
		SupplierID:  testSupplierID,
		Items: []service.OrderLineRequest{
			{InventoryItemID: testItemA, Quantity: 1, UnitPrice: decimal.RequireFromString("1.00")},
		},
	}, testutil.TestActor())
	assert.Nil(t, order)
	require.Error(t, err)

	var appErr *errors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "CONFLICT", appErr.Code)
	assert.Equal(t, "a purchase order with this order number already exists", appErr.Message)

	mockDB.ExpectationsWereMet(t)
}

func TestCreateOrder_NegativeUnitPrice(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	svc := newTestOrderService(mockDB)

	order, err := svc.CreateOrder(context.Background(), service.CreateOrderRequest{
		OrderNumber: "PO-2026-003",
		SupplierID:  testSupplierID,
		Items: []service.OrderLineRequest{
			{InventoryItemID: testItemA, Quantity: 1, UnitPrice: decimal.RequireFromString("-0.01")},
		},
	}, testutil.TestActor())
	assert.Nil(t, order)
	require.Error(t, err)

	var appErr *errors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "BAD_REQUEST", appErr.Code)

	mockDB.ExpectationsWereMet(t)
}

// --- UpdateStatus Tests ---

func TestUpdateStatus_ApprovalRecordsApprover(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	svc := newTestOrderService(mockDB)

	mockDB.ExpectExec("UPDATE purchase_orders").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mockDB.ExpectQuery("SELECT").WillReturnRows(orderHeaderRow("order-1", "40.00", "approved"))
	mockDB.ExpectQuery("SELECT").WillReturnRows(testutil.MockRows(
		"id", "order_id", "inventory_item_id", "inventory_item_name",
		"inventory_item_sku", "quantity", "unit_price", "total_price",
	))

	order, err := svc.UpdateStatus(context.Background(), "order-1", "approved", testutil.TestActor())
	require.NoError(t, err)
	assert.Equal(t, "approved", order.Status)

	mockDB.ExpectationsWereMet(t)
}

func TestUpdateStatus_InvalidStatus(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	svc := newTestOrderService(mockDB)

	order, err := svc.UpdateStatus(context.Background(), "order-1", "shipped", testutil.TestActor())
	assert.Nil(t, order)
	require.Error(t, err)

	var appErr *errors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "BAD_REQUEST", appErr.Code)

	mockDB.ExpectationsWereMet(t)
}

package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/averybrooks/fonezone/internal/models"
)

type repairsResponse struct {
	Repairs []models.RepairTicket `json:"repairs"`
}

// A customer files a repair, a technician claims it from the queue and walks
// it to completed, and the customer sees every transition.
func TestRepairLifecycleOverHTTP(t *testing.T) {
	app := newTestApp(t, "")
	custCookies := app.registerCustomer(t, "cust@x.com")
	techCookies := app.registerEmployee(t, "tech@fonezone.lk", models.CategoryRepairTechnician)

	rec := app.do(t, http.MethodPost, "/api/user/repairs", map[string]string{
		"device": "iPhone 13",
		"issue":  "cracked screen",
	}, custCookies)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var ticket models.RepairTicket
	decodeBody(t, rec, &ticket)
	require.NotEmpty(t, ticket.ID)
	assert.Equal(t, models.RepairPending, ticket.Status)

	// The unclaimed ticket shows up in the technician queue.
	rec = app.do(t, http.MethodGet, "/api/employee/repairs", nil, techCookies)
	require.Equal(t, http.StatusOK, rec.Code)
	var queue repairsResponse
	decodeBody(t, rec, &queue)
	require.Len(t, queue.Repairs, 1)

	rec = app.do(t, http.MethodPost, "/api/employee/repairs/"+ticket.ID+"/claim", nil, techCookies)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	decodeBody(t, rec, &ticket)
	assert.Equal(t, "tech@fonezone.lk", ticket.AssignedTo)
	assert.Equal(t, models.RepairProcessing, ticket.Status)

	// A second claim on the same ticket loses.
	other := app.registerEmployee(t, "tech2@fonezone.lk", models.CategoryRepairTechnician)
	rec = app.do(t, http.MethodPost, "/api/employee/repairs/"+ticket.ID+"/claim", nil, other)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = app.do(t, http.MethodPost, "/api/employee/repairs/"+ticket.ID+"/advance", nil, techCookies)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &ticket)
	assert.Equal(t, models.RepairCompleted, ticket.Status)

	// The customer sees the final state under their own dashboard.
	rec = app.do(t, http.MethodGet, "/api/user/repairs", nil, custCookies)
	require.Equal(t, http.StatusOK, rec.Code)
	var mine repairsResponse
	decodeBody(t, rec, &mine)
	require.Len(t, mine.Repairs, 1)
	assert.Equal(t, models.RepairCompleted, mine.Repairs[0].Status)
}

func TestCustomerCancelsOwnPendingRepair(t *testing.T) {
	app := newTestApp(t, "")
	cookies := app.registerCustomer(t, "cust@x.com")

	rec := app.do(t, http.MethodPost, "/api/user/repairs", map[string]string{
		"device": "Pixel 8", "issue": "battery drain",
	}, cookies)
	require.Equal(t, http.StatusCreated, rec.Code)
	var ticket models.RepairTicket
	decodeBody(t, rec, &ticket)

	rec = app.do(t, http.MethodDelete, "/api/user/repairs/"+ticket.ID, nil, cookies)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = app.do(t, http.MethodGet, "/api/user/repairs", nil, cookies)
	var mine repairsResponse
	decodeBody(t, rec, &mine)
	assert.Empty(t, mine.Repairs)
}

// Admin creates a delivery pre-assigned to a driver; the driver walks it
// pending -> delivering -> delivered, and a further advance conflicts.
func TestDeliveryLifecycleOverHTTP(t *testing.T) {
	app := newTestApp(t, "")
	adminCookies := app.loginAdmin(t)
	driverCookies := app.registerEmployee(t, "driver@fonezone.lk", models.CategoryDeliveryDriver)

	rec := app.do(t, http.MethodPost, "/api/admin/deliveries", map[string]string{
		"driver_email": "driver@fonezone.lk",
		"customer":     "cust@x.com",
		"address":      "12 Galle Rd, Colombo",
	}, adminCookies)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var job models.DeliveryJob
	decodeBody(t, rec, &job)
	assert.Equal(t, models.DeliveryPending, job.Status)

	rec = app.do(t, http.MethodGet, "/api/employee/delivery", nil, driverCookies)
	require.Equal(t, http.StatusOK, rec.Code)
	var queue struct {
		Deliveries []models.DeliveryJob `json:"deliveries"`
	}
	decodeBody(t, rec, &queue)
	require.Len(t, queue.Deliveries, 1)

	for _, want := range []models.DeliveryStatus{models.DeliveryDelivering, models.DeliveryDelivered} {
		rec = app.do(t, http.MethodPost, "/api/employee/delivery/"+job.ID+"/advance", nil, driverCookies)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		decodeBody(t, rec, &job)
		assert.Equal(t, want, job.Status)
	}

	rec = app.do(t, http.MethodPost, "/api/employee/delivery/"+job.ID+"/advance", nil, driverCookies)
	assert.Equal(t, http.StatusConflict, rec.Code, "delivered is terminal")
}

// Customer and support agent exchange messages through their own surfaces
// and both read the same thread.
func TestSupportChatOverHTTP(t *testing.T) {
	app := newTestApp(t, "")
	custCookies := app.registerCustomer(t, "cust@x.com")
	agentCookies := app.registerEmployee(t, "agent@fonezone.lk", models.CategorySalesSupport)

	rec := app.do(t, http.MethodPost, "/api/user/support", map[string]string{"body": "Is the iPhone 15 in stock?"}, custCookies)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = app.do(t, http.MethodGet, "/api/employee/support/customers", nil, agentCookies)
	require.Equal(t, http.StatusOK, rec.Code)
	var sidebar struct {
		Customers []string `json:"customers"`
	}
	decodeBody(t, rec, &sidebar)
	assert.Equal(t, []string{"cust@x.com"}, sidebar.Customers)

	rec = app.do(t, http.MethodPost, "/api/employee/support/cust@x.com", map[string]string{"body": "Yes, ships today."}, agentCookies)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = app.do(t, http.MethodGet, "/api/user/support", nil, custCookies)
	require.Equal(t, http.StatusOK, rec.Code)
	var thread struct {
		Messages []models.SupportMessage `json:"messages"`
	}
	decodeBody(t, rec, &thread)
	require.Len(t, thread.Messages, 2)
	assert.Equal(t, models.SenderUser, thread.Messages[0].Sender)
	assert.Equal(t, models.SenderSupport, thread.Messages[1].Sender)
}

func TestSupportConfigExposesPollInterval(t *testing.T) {
	app := newTestApp(t, "")
	agentCookies := app.registerEmployee(t, "agent@fonezone.lk", models.CategorySalesSupport)

	rec := app.do(t, http.MethodGet, "/api/employee/support/config", nil, agentCookies)
	require.Equal(t, http.StatusOK, rec.Code)
	var cfg map[string]float64
	decodeBody(t, rec, &cfg)
	assert.Equal(t, float64(5000), cfg["poll_interval_ms"])
}

func TestAdminDashboardStats(t *testing.T) {
	app := newTestApp(t, "")
	adminCookies := app.loginAdmin(t)
	custCookies := app.registerCustomer(t, "cust@x.com")

	app.do(t, http.MethodPost, "/api/user/repairs", map[string]string{"device": "d", "issue": "i"}, custCookies)
	rec := app.do(t, http.MethodPost, "/api/admin/products", map[string]any{
		"name": "Charger", "price": 19.99, "category": "accessories",
	}, adminCookies)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = app.do(t, http.MethodGet, "/api/admin/dashboard", nil, adminCookies)
	require.Equal(t, http.StatusOK, rec.Code)
	var stats struct {
		TotalProducts int `json:"total_products"`
		TotalRepairs  int `json:"total_repairs"`
	}
	decodeBody(t, rec, &stats)
	assert.Equal(t, 1, stats.TotalProducts)
	assert.Equal(t, 1, stats.TotalRepairs)
}

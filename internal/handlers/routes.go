package handlers

import (
	"net/http"
	"time"

	"github.com/averybrooks/fonezone/internal/auth"
	"github.com/averybrooks/fonezone/internal/models"
)

// NewMux wires the API route surface: public shop routes, customer-only
// /api/user, admin-only /api/admin, and the employee dashboards narrowed by
// category.
func NewMux(authH *AuthHandler, shop *ShopHandler, customer *CustomerHandler, employee *EmployeeHandler, admin *AdminHandler, guard *Guard) *http.ServeMux {
	mux := http.NewServeMux()

	customerOnly := guard.Require(auth.Requirement{Role: models.RoleCustomer})
	adminOnly := guard.Require(auth.Requirement{Role: models.RoleAdmin})
	technicianOnly := guard.Require(auth.Requirement{Role: models.RoleEmployee, Category: models.CategoryRepairTechnician})
	driverOnly := guard.Require(auth.Requirement{Role: models.RoleEmployee, Category: models.CategoryDeliveryDriver})
	supportOnly := guard.Require(auth.Requirement{Role: models.RoleEmployee, Category: models.CategorySalesSupport})
	anySession := guard.Require(auth.Requirement{})

	// Rate limiter for credential endpoints (1 attempt per second per IP)
	rateLimiter := NewRateLimiter(1 * time.Second)

	// Session surface
	mux.HandleFunc("POST /api/auth/register", rateLimiter.Middleware(authH.Register))
	mux.HandleFunc("POST /api/auth/login", rateLimiter.Middleware(authH.Login))
	mux.HandleFunc("POST /api/auth/logout", authH.Logout)
	mux.HandleFunc("GET /api/session", authH.CurrentSession)
	mux.HandleFunc("GET /api/dashboard", authH.Dashboard)
	mux.HandleFunc("POST /api/auth/reset-request", rateLimiter.Middleware(authH.RequestPasswordReset))
	mux.HandleFunc("POST /api/auth/reset", rateLimiter.Middleware(authH.ResetPassword))

	// Public shop surface
	mux.HandleFunc("GET /api/shop/products", shop.Products)
	mux.HandleFunc("GET /api/shop/search", shop.Search)

	// Cart, wishlist and checkout need a session of any role.
	mux.HandleFunc("GET /api/cart", anySession(shop.Cart))
	mux.HandleFunc("POST /api/cart", anySession(shop.AddToCart))
	mux.HandleFunc("PUT /api/cart/{productID}", anySession(shop.SetCartQuantity))
	mux.HandleFunc("GET /api/wishlist", anySession(shop.Wishlist))
	mux.HandleFunc("POST /api/wishlist/toggle", anySession(shop.ToggleWishlist))
	mux.HandleFunc("POST /api/checkout", anySession(shop.Checkout))

	// Customer dashboard
	mux.HandleFunc("POST /api/user/repairs", customerOnly(customer.SubmitRepair))
	mux.HandleFunc("GET /api/user/repairs", customerOnly(customer.MyRepairs))
	mux.HandleFunc("DELETE /api/user/repairs/{id}", customerOnly(customer.CancelRepair))
	mux.HandleFunc("GET /api/user/support", customerOnly(customer.SupportThread))
	mux.HandleFunc("POST /api/user/support", customerOnly(customer.SendSupportMessage))

	// Employee dashboards, narrowed by category
	mux.HandleFunc("GET /api/employee/repairs", technicianOnly(employee.RepairQueue))
	mux.HandleFunc("POST /api/employee/repairs/{id}/claim", technicianOnly(employee.ClaimRepair))
	mux.HandleFunc("POST /api/employee/repairs/{id}/advance", technicianOnly(employee.AdvanceRepair))
	mux.HandleFunc("GET /api/employee/delivery", driverOnly(employee.DeliveryQueue))
	mux.HandleFunc("POST /api/employee/delivery/{id}/advance", driverOnly(employee.AdvanceDelivery))
	mux.HandleFunc("GET /api/employee/support/config", supportOnly(employee.SupportConfig))
	mux.HandleFunc("GET /api/employee/support/customers", supportOnly(employee.SupportCustomers))
	mux.HandleFunc("GET /api/employee/support/{email}", supportOnly(employee.SupportThread))
	mux.HandleFunc("POST /api/employee/support/{email}", supportOnly(employee.ReplySupport))

	// Admin console
	mux.HandleFunc("GET /api/admin/dashboard", adminOnly(admin.Dashboard))
	mux.HandleFunc("POST /api/admin/products", adminOnly(admin.CreateProduct))
	mux.HandleFunc("PUT /api/admin/products/{id}", adminOnly(admin.UpdateProduct))
	mux.HandleFunc("DELETE /api/admin/products/{id}", adminOnly(admin.DeleteProduct))
	mux.HandleFunc("GET /api/admin/actors", adminOnly(admin.ListActors))
	mux.HandleFunc("POST /api/admin/actors/{email}/promote", adminOnly(admin.PromoteActor))
	mux.HandleFunc("DELETE /api/admin/actors/{email}", adminOnly(admin.DeleteActor))
	mux.HandleFunc("GET /api/admin/repairs", adminOnly(admin.AllRepairs))
	mux.HandleFunc("GET /api/admin/deliveries", adminOnly(admin.AllDeliveries))
	mux.HandleFunc("POST /api/admin/deliveries", adminOnly(admin.CreateDelivery))

	return mux
}

package auth

import "github.com/averybrooks/fonezone/internal/models"

// Route names for the storefront's navigation surface.
const (
	RouteLogin             = "/login"
	RouteUnauthorized      = "/unauthorized"
	RouteCustomerDashboard = "/user/dashboard"
	RouteAdminDashboard    = "/admin/dashboard"
	RouteEmployeeHome      = "/employee"
	RouteRepairQueue       = "/employee/repairs"
	RouteDeliveryQueue     = "/employee/delivery"
	RouteSupportConsole    = "/employee/support"
)

// LandingRoute computes where an actor goes after login, registration or a
// password reset. redirectTo overrides the role default, but only for
// customers: employees and admins always land on their own dashboard.
func LandingRoute(actor *models.Actor, redirectTo string) string {
	if actor == nil {
		return RouteLogin
	}
	switch actor.Role {
	case models.RoleAdmin:
		return RouteAdminDashboard
	case models.RoleEmployee:
		switch actor.Category {
		case models.CategoryRepairTechnician:
			return RouteRepairQueue
		case models.CategoryDeliveryDriver:
			return RouteDeliveryQueue
		case models.CategorySalesSupport:
			return RouteSupportConsole
		}
		return RouteEmployeeHome
	default:
		if redirectTo != "" {
			return redirectTo
		}
		return RouteCustomerDashboard
	}
}

// Package auth decides, for every navigation to a guarded route, whether the
// current actor may proceed and where each role lands after signing in.
package auth

import (
	"github.com/averybrooks/fonezone/internal/models"
)

// Decision is the outcome of an authorization check.
type Decision int

const (
	Allow Decision = iota
	RedirectToLogin
	RedirectToUnauthorized
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case RedirectToLogin:
		return "redirect-to-login"
	case RedirectToUnauthorized:
		return "redirect-to-unauthorized"
	}
	return "unknown"
}

// Requirement narrows a route to a role and, for employees, a category.
// The zero value guards only against anonymous access.
type Requirement struct {
	Role     models.Role
	Category models.Category
}

// Authorize runs the single authorization algorithm shared by every guarded
// route. A missing session always redirects to login; an authenticated actor
// with the wrong role or category always redirects to unauthorized. The
// decision is computed fresh on every call, never cached, because the
// session actor can change between navigations.
func Authorize(actor *models.Actor, req Requirement) Decision {
	if actor == nil {
		return RedirectToLogin
	}
	if req.Role != "" && actor.Role != req.Role {
		return RedirectToUnauthorized
	}
	if req.Category != "" {
		if actor.Role != models.RoleEmployee || actor.Category != req.Category {
			return RedirectToUnauthorized
		}
	}
	return Allow
}

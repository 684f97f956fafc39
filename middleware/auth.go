package middleware

import (
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"
)

const (
	RoleSuperuser = "superuser"
	RoleAdmin     = "admin"

	localsUser = "current_user"
)

// CurrentUser is the identity the gateway forwards. ID doubles as the account key.
type CurrentUser struct {
	ID    string
	Roles []string
}

func (u CurrentUser) HasRole(role string) bool {
	for _, r := range u.Roles {
		if strings.EqualFold(r, role) {
			return true
		}
	}
	return false
}

func (u CurrentUser) IsSuperuser() bool {
	return u.HasRole(RoleSuperuser) || u.HasRole(RoleAdmin)
}

// UserContextMiddleware reads X-User-ID / X-User-Roles set by the gateway.
// Mount it on the /s group only; every request under it must carry a user.
func UserContextMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := strings.TrimSpace(c.Get("X-User-ID"))
		if userID == "" {
			log.Printf("❌ [USER_CTX] X-User-ID required but missing on secured route: %s", c.Path())
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "missing X-User-ID — request must come through gateway with auth context",
			})
		}

		var roles []string
		for _, r := range strings.Split(c.Get("X-User-Roles"), ",") {
			if r = strings.TrimSpace(r); r != "" {
				roles = append(roles, r)
			}
		}

		c.Locals(localsUser, CurrentUser{ID: userID, Roles: roles})
		return c.Next()
	}
}

// RequireSuperuser must run after UserContextMiddleware.
func RequireSuperuser() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, ok := GetCurrentUser(c)
		if !ok || !user.IsSuperuser() {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "The user doesn't have enough privileges",
			})
		}
		return c.Next()
	}
}

func GetCurrentUser(c *fiber.Ctx) (CurrentUser, bool) {
	user, ok := c.Locals(localsUser).(CurrentUser)
	return user, ok
}

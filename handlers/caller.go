package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/fenilmodi00/market-backend/models"
)

// CallerIDHeader carries the identity the auth gateway already verified
const CallerIDHeader = "X-Caller-ID"

const callerLocalsKey = "caller"

// CallerIdentity copies the forwarded caller id into the request context.
// Requests without the header proceed as the anonymous caller.
func CallerIdentity() fiber.Handler {
	return func(c *fiber.Ctx) error {
		caller := models.Caller{ID: strings.TrimSpace(c.Get(CallerIDHeader))}
		if caller.ID == "" {
			caller.ID = models.AnonymousCaller
		}

		c.SetUserContext(models.WithCaller(c.UserContext(), caller))
		c.Locals(callerLocalsKey, caller)
		return c.Next()
	}
}

// Package signetfiber attaches the per-exchange state to Fiber requests.
//
// The middleware seeds one exchange.State per request into c.Locals; handlers
// and later stages retrieve it with State. Retrieval is get-or-create, so the
// accessors also work without the middleware installed.
//
// Concurrency: All exported functions are safe for concurrent use.
package signetfiber

import (
	"github.com/gofiber/fiber/v2"

	"github.com/perchsec/goSignet/exchange"
)

// StateLocalsKey is the key under which the exchange.State is stored in
// c.Locals.
const StateLocalsKey = "signet.exchange"

// Middleware returns a Fiber middleware that attaches a fresh exchange.State
// to each request before invoking the next handler.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals(StateLocalsKey, exchange.NewState())
		return c.Next()
	}
}

// State returns the exchange.State for the current request, creating and
// attaching one if none exists yet. All callers within one request observe
// the same instance.
func State(c *fiber.Ctx) *exchange.State {
	if st, ok := c.Locals(StateLocalsKey).(*exchange.State); ok {
		return st
	}
	st := exchange.NewState()
	c.Locals(StateLocalsKey, st)
	return st
}

// Package signetfasthttp attaches the per-exchange state to fasthttp
// requests.
//
// The middleware seeds one exchange.State per request into the RequestCtx
// user values; handlers retrieve it with State. Retrieval is get-or-create,
// so the accessors also work without the middleware installed.
//
// Concurrency: All exported functions are safe for concurrent use.
package signetfasthttp

import (
	"github.com/valyala/fasthttp"

	"github.com/perchsec/goSignet/exchange"
)

// StateUserValueKey is the key under which the exchange.State is stored in
// the fasthttp.RequestCtx user values.
const StateUserValueKey = "signet.exchange"

// Middleware returns a fasthttp handler that attaches a fresh exchange.State
// to each request before invoking next.
func Middleware(next fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		ctx.SetUserValue(StateUserValueKey, exchange.NewState())
		next(ctx)
	}
}

// State returns the exchange.State for the current request, creating and
// attaching one if none exists yet. All callers within one request observe
// the same instance.
func State(ctx *fasthttp.RequestCtx) *exchange.State {
	if st, ok := ctx.UserValue(StateUserValueKey).(*exchange.State); ok {
		return st
	}
	st := exchange.NewState()
	ctx.SetUserValue(StateUserValueKey, st)
	return st
}

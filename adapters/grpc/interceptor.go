// Package signetgrpc attaches the per-exchange state to gRPC calls.
//
// The interceptors seed one exchange.State per RPC into the call context;
// handlers retrieve it with StateFromContext. Each RPC is one exchange.
//
// Concurrency: All exported functions are safe for concurrent use.
package signetgrpc

import (
	"context"

	"google.golang.org/grpc"

	"github.com/perchsec/goSignet/exchange"
)

// StateFromContext returns the exchange.State stored in the context by one of
// the interceptors. Returns nil if no state is present.
func StateFromContext(ctx context.Context) *exchange.State {
	st, _ := exchange.FromContext(ctx)
	return st
}

// UnaryServerInterceptor returns a gRPC unary server interceptor that
// attaches a fresh exchange.State to each call's context.
func UnaryServerInterceptor() grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req any,
		_ *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (any, error) {
		ctx = exchange.NewContext(ctx, exchange.NewState())
		return handler(ctx, req)
	}
}

// StreamServerInterceptor returns a gRPC stream server interceptor that
// attaches a fresh exchange.State to the stream's context.
func StreamServerInterceptor() grpc.StreamServerInterceptor {
	return func(
		srv any,
		ss grpc.ServerStream,
		_ *grpc.StreamServerInfo,
		handler grpc.StreamHandler,
	) error {
		wrapped := &stateStream{
			ServerStream: ss,
			ctx:          exchange.NewContext(ss.Context(), exchange.NewState()),
		}
		return handler(srv, wrapped)
	}
}

// stateStream overrides Context to expose the state-carrying context.
type stateStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (s *stateStream) Context() context.Context { return s.ctx }

// Package kit holds the small cross-transport plumbing shared by the HTTP
// and MCP surfaces: request-scoped context keys and the glue that exposes
// an Endpoint as an MCP tool.
package kit

import "context"

// Endpoint is a transport-agnostic operation: decoded request in,
// serialisable response out.
type Endpoint func(ctx context.Context, request any) (any, error)

type contextKey string

const (
	TransportKey contextKey = "kit_transport" // "http", "mcp_stdio"
	RequestIDKey contextKey = "kit_request_id"
	TraceIDKey   contextKey = "kit_trace_id"
)

func WithTransport(ctx context.Context, t string) context.Context {
	return context.WithValue(ctx, TransportKey, t)
}
func GetTransport(ctx context.Context) string {
	if v, ok := ctx.Value(TransportKey).(string); ok {
		return v
	}
	return "http"
}

func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, RequestIDKey, id)
}
func GetRequestID(ctx context.Context) string {
	v, _ := ctx.Value(RequestIDKey).(string)
	return v
}

func WithTraceID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, TraceIDKey, id)
}
func GetTraceID(ctx context.Context) string {
	v, _ := ctx.Value(TraceIDKey).(string)
	return v
}

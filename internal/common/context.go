package common

import (
	"context"
	"time"
)

// Context keys for storing values in context
type contextKey string

const (
	ContextKeyRequestID  contextKey = "request_id"
	ContextKeyClientAddr contextKey = "client_addr"
	ContextKeyItemID     contextKey = "item_id"
)

// WithRequestID adds a request ID to the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}

// RequestIDFromContext extracts the request ID from context
func RequestIDFromContext(ctx context.Context) string {
	if requestID, ok := ctx.Value(ContextKeyRequestID).(string); ok {
		return requestID
	}
	return ""
}

// WithClientAddr records the address the rate limiter keyed this request on.
func WithClientAddr(ctx context.Context, addr string) context.Context {
	return context.WithValue(ctx, ContextKeyClientAddr, addr)
}

func ClientAddrFromContext(ctx context.Context) string {
	if addr, ok := ctx.Value(ContextKeyClientAddr).(string); ok {
		return addr
	}
	return ""
}

// WithItemID tags work done on behalf of one upload queue item.
func WithItemID(ctx context.Context, itemID string) context.Context {
	return context.WithValue(ctx, ContextKeyItemID, itemID)
}

func ItemIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(ContextKeyItemID).(string); ok {
		return id
	}
	return ""
}

// TraceID returns the request ID, or the queue item ID when there is no request.
func TraceID(ctx context.Context) string {
	if id := RequestIDFromContext(ctx); id != "" {
		return id
	}
	return ItemIDFromContext(ctx)
}

// WithTimeout creates a context with the specified timeout
func WithTimeout(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, timeout)
}

package pkglog

import "context"

// placeholder returned by GetCorrelationID for contexts without an id.
const invalidCorrelationID = "[invalid_chain_id]"

type correlationKey struct{}

// SetCorrelationID tags ctx with cid. HTTP requests get one from the router
// middleware; export runs use their run ID.
func SetCorrelationID(ctx context.Context, cid string) context.Context {
	return context.WithValue(ctx, correlationKey{}, cid)
}

// CorrelationID reports the id carried by ctx, if any.
func CorrelationID(ctx context.Context) (string, bool) {
	cid, ok := ctx.Value(correlationKey{}).(string)
	if !ok || cid == "" {
		return "", false
	}
	return cid, true
}

// GetCorrelationID is CorrelationID for log lines: a context without an id
// yields a fixed placeholder rather than an empty string.
func GetCorrelationID(ctx context.Context) string {
	if cid, ok := CorrelationID(ctx); ok {
		return cid
	}
	return invalidCorrelationID
}

package middlewares

// gin context keys shared across the middleware chain
const (
	CtxRequestID = "request_id"
	CtxClaims    = "auth.claims"
)

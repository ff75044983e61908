package transport

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

// RequestIDHeader is the header name for request ID.
const RequestIDHeader = "X-Request-ID"

type contextKey string

const requestIDKey = contextKey("request_id")

// ContextWithRequestID pins the request ID used for requests made with ctx.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestID sets X-Request-ID on outgoing requests.
// An ID already on the request or pinned in its context is kept;
// otherwise a new UUID is generated.
func RequestID() Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
			if r.Header.Get(RequestIDHeader) != "" {
				return next.RoundTrip(r)
			}

			id, _ := r.Context().Value(requestIDKey).(string)
			if id == "" {
				id = uuid.NewString()
			}

			r = r.Clone(r.Context())
			r.Header.Set(RequestIDHeader, id)
			return next.RoundTrip(r)
		})
	}
}

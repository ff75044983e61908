package transport

import (
	"net/http"

	"golang.org/x/time/rate"
)

// RateLimit delays requests so that no more than rps are sent per second,
// allowing bursts of up to burst. Waiting honours the request context.
func RateLimit(rps float64, burst int) Middleware {
	limiter := rate.NewLimiter(rate.Limit(rps), burst)

	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
			if err := limiter.Wait(r.Context()); err != nil {
				return nil, err
			}
			return next.RoundTrip(r)
		})
	}
}

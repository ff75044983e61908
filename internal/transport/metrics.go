package transport

import (
	"net/http"
	"sync/atomic"
)

// Counters holds request metrics collected by the Metrics middleware.
type Counters struct {
	Requests atomic.Int64
	Errors   atomic.Int64
}

// Metrics counts requests and errors (4xx, 5xx and transport failures).
func Metrics(c *Counters) Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
			c.Requests.Add(1)

			resp, err := next.RoundTrip(r)
			if err != nil || resp.StatusCode >= 400 {
				c.Errors.Add(1)
			}
			return resp, err
		})
	}
}

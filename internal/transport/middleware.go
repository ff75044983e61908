package transport

import "net/http"

// Middleware wraps a RoundTripper. Interceptors may add headers, wait, or
// observe responses; they must not retry.
type Middleware func(http.RoundTripper) http.RoundTripper

// RoundTripperFunc adapts a function to http.RoundTripper.
type RoundTripperFunc func(*http.Request) (*http.Response, error)

func (f RoundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

// Chain wraps base so that mw[0] sees the request first.
func Chain(base http.RoundTripper, mw ...Middleware) http.RoundTripper {
	rt := base
	for i := len(mw) - 1; i >= 0; i-- {
		rt = mw[i](rt)
	}
	return rt
}

// UserAgent sets the User-Agent header on every request.
func UserAgent(ua string) Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
			r = r.Clone(r.Context())
			r.Header.Set("User-Agent", ua)
			return next.RoundTrip(r)
		})
	}
}

package transport

import (
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Logging logs each request with structured fields once it completes.
func Logging(logger *zap.Logger) Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
			start := time.Now()

			resp, err := next.RoundTrip(r)

			fields := []zap.Field{
				zap.String("method", r.Method),
				zap.String("host", r.URL.Host),
				zap.String("path", r.URL.Path),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", r.Header.Get(RequestIDHeader)),
			}
			if err != nil {
				logger.Warn("http request failed", append(fields, zap.Error(err))...)
				return resp, err
			}

			fields = append(fields, zap.Int("status", resp.StatusCode))
			if resp.StatusCode >= 400 {
				logger.Info("http request", fields...)
			} else {
				logger.Debug("http request", fields...)
			}
			return resp, nil
		})
	}
}

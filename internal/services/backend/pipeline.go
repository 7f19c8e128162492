package backend

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"prepcoach/internal/logging"
	"prepcoach/internal/services"
)

// RequestIDHeader carries the per-request correlation identifier.
const RequestIDHeader = "X-Request-ID"

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) { return f(req) }

type middleware func(next http.RoundTripper) http.RoundTripper

// newPipeline wraps base with mws so that the first middleware sees the
// request first. A nil base uses http.DefaultTransport.
func newPipeline(base http.RoundTripper, mws ...middleware) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	for i := len(mws) - 1; i >= 0; i-- {
		base = mws[i](base)
	}
	return base
}

func withUserAgent(agent string) middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return roundTripperFunc(func(req *http.Request) (*http.Response, error) {
			if req.Header.Get("User-Agent") != "" {
				return next.RoundTrip(req)
			}
			clone := req.Clone(req.Context())
			clone.Header.Set("User-Agent", agent)
			return next.RoundTrip(clone)
		})
	}
}

// withRequestID reuses the correlation id carried by the context, or mints one.
func withRequestID() middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return roundTripperFunc(func(req *http.Request) (*http.Response, error) {
			if req.Header.Get(RequestIDHeader) != "" {
				return next.RoundTrip(req)
			}
			id, ok := services.RequestIDFromContext(req.Context())
			if !ok {
				id = uuid.NewString()
			}
			clone := req.Clone(services.WithRequestID(req.Context(), id))
			clone.Header.Set(RequestIDHeader, id)
			return next.RoundTrip(clone)
		})
	}
}

func withBearer(tokens TokenSource) middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		if tokens == nil {
			return next
		}
		return roundTripperFunc(func(req *http.Request) (*http.Response, error) {
			token := strings.TrimSpace(tokens.Token())
			if token == "" || req.Header.Get("Authorization") != "" {
				return next.RoundTrip(req)
			}
			clone := req.Clone(req.Context())
			clone.Header.Set("Authorization", "Bearer "+token)
			return next.RoundTrip(clone)
		})
	}
}

func withTrace(logger *slog.Logger) middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		if logger == nil {
			return next
		}
		return roundTripperFunc(func(req *http.Request) (*http.Response, error) {
			started := time.Now()
			resp, err := next.RoundTrip(req)
			attrs := []logging.Attr{
				logging.String("method", req.Method),
				logging.String("path", req.URL.Path),
				logging.Duration("elapsed", time.Since(started)),
			}
			if err != nil {
				attrs = append(attrs, logging.Error(err))
			} else {
				attrs = append(attrs, logging.Int("status", resp.StatusCode))
			}
			logger.DebugContext(req.Context(), "backend request", logging.Args(attrs...)...)
			return resp, err
		})
	}
}

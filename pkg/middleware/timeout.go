package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/cinemahub/catalog-service/pkg/logger"
)

// Timeout bounds every request. A handler that exceeds the limit and has not
// started writing gets the catalog's JSON error envelope with a 504; once
// the timeout response is sent, any late handler output is discarded so the
// two writers never interleave on the same connection.
func Timeout(limit time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), limit)
			defer cancel()

			gw := &guardedWriter{inner: w}
			done := make(chan struct{})
			go func() {
				defer close(done)
				next.ServeHTTP(gw, r.WithContext(ctx))
			}()

			select {
			case <-done:
			case <-ctx.Done():
				if !gw.expire() {
					return
				}
				logger.FromContext(r.Context()).Warn("request deadline exceeded",
					"method", r.Method, "path", r.URL.Path, "limit", limit)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusGatewayTimeout)
				json.NewEncoder(w).Encode(map[string]string{
					"error": "request timed out",
				})
			}
		})
	}
}

// guardedWriter hands the response to exactly one writer: the handler or the
// timeout branch, whichever gets there first.
type guardedWriter struct {
	inner   http.ResponseWriter
	mu      sync.Mutex
	wrote   bool
	expired bool
}

func (g *guardedWriter) Header() http.Header {
	return g.inner.Header()
}

func (g *guardedWriter) WriteHeader(code int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.expired {
		return
	}
	g.wrote = true
	g.inner.WriteHeader(code)
}

func (g *guardedWriter) Write(b []byte) (int, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.expired {
		return len(b), nil
	}
	g.wrote = true
	return g.inner.Write(b)
}

// expire claims the response for the timeout branch. It fails when the
// handler already wrote; a partially sent response cannot be replaced.
func (g *guardedWriter) expire() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.wrote {
		return false
	}
	g.expired = true
	return true
}

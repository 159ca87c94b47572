package middleware

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"

	"loan-workflow-engine/internal/infrastructure/metrics"

	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
)

const (
	// reservationTTL bounds how long a crashed handler can block its request id.
	reservationTTL = 60 * time.Second
	maxClockSkew   = 10 * time.Minute
	storeTimeout   = 2 * time.Second
)

// ReplayStore holds one JSON entry per request key. cache.JSONCache
// satisfies it.
type ReplayStore interface {
	Reserve(ctx context.Context, key string, v any, ttl time.Duration) (bool, error)
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// replayEntry is Pending while the first request runs and holds its answer after.
type replayEntry struct {
	Pending   bool      `json:"pending"`
	Status    int       `json:"status,omitempty"`
	Response  []byte    `json:"response,omitempty"`
	BodyHash  string    `json:"body_hash"`
	RequestAt time.Time `json:"request_at"`
}

// teeWriter copies whatever the handler writes.
type teeWriter struct {
	http.ResponseWriter
	buf    bytes.Buffer
	status int
}

func (w *teeWriter) Write(b []byte) (int, error) {
	w.buf.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *teeWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// IdempotencyMiddleware makes mutating requests safe to retry under the same
// Ax-Request-Id. The key includes the actor id, so it must run after JWTAuth.
// A repeated request with the same body gets the stored answer; a different
// body, or a repeat while the first is still running, gets 409. Server
// errors are forgotten so the client can retry them.
func IdempotencyMiddleware(store ReplayStore, ttl time.Duration) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			switch req.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				return next(c)
			}

			meta, err := readRequestMeta(req.Header, time.Now().UTC())
			if err != nil {
				return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
			}
			a, ok := ActorFrom(c)
			if !ok {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "missing actor"})
			}

			var body []byte
			if req.Body != nil {
				body, _ = io.ReadAll(req.Body)
			}
			req.Body = io.NopCloser(bytes.NewReader(body))
			hash := bodyHash(body)
			key := replayKey(req.Method, c.Path(), a.ID, meta.ID)

			ctx, cancel := context.WithTimeout(req.Context(), storeTimeout)
			defer cancel()

			fresh, err := store.Reserve(ctx, key, replayEntry{Pending: true, BodyHash: hash, RequestAt: meta.At}, reservationTTL)
			if err != nil {
				metrics.IdempotentRequests.WithLabelValues("store_error").Inc()
				log.Errorf("idempotency: reserve %s: %v", key, err)
				c.Response().Header().Set("Retry-After", "1")
				return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "idempotency store unavailable"})
			}
			if !fresh {
				return replay(ctx, c, store, key, hash)
			}

			tee := &teeWriter{ResponseWriter: c.Response().Writer, status: http.StatusOK}
			c.Response().Writer = tee
			if err := next(c); err != nil {
				c.Error(err)
			}

			// the request context may already be done; the answer is stored regardless
			bg, done := context.WithTimeout(context.Background(), storeTimeout)
			defer done()
			if tee.status >= http.StatusInternalServerError {
				metrics.IdempotentRequests.WithLabelValues("dropped").Inc()
				if err := store.Delete(bg, key); err != nil {
					log.Warnf("idempotency: release %s: %v", key, err)
				}
				return nil
			}
			final := replayEntry{Status: tee.status, Response: tee.buf.Bytes(), BodyHash: hash, RequestAt: meta.At}
			if err := store.Set(bg, key, final, ttl); err != nil {
				log.Warnf("idempotency: save %s: %v", key, err)
				return nil
			}
			metrics.IdempotentRequests.WithLabelValues("stored").Inc()
			return nil
		}
	}
}

func replay(ctx context.Context, c echo.Context, store ReplayStore, key, hash string) error {
	var cur replayEntry
	if _, err := store.Get(ctx, key, &cur); err != nil {
		log.Warnf("idempotency: load %s: %v", key, err)
	}
	switch {
	case cur.BodyHash != "" && cur.BodyHash != hash:
		metrics.IdempotentRequests.WithLabelValues("conflict").Inc()
		return c.JSON(http.StatusConflict, map[string]string{"error": "Ax-Request-Id reused with different body"})
	case !cur.Pending && cur.Status != 0 && len(cur.Response) > 0:
		metrics.IdempotentRequests.WithLabelValues("replayed").Inc()
		c.Response().Header().Set("Ax-Replayed", "true")
		return c.Blob(cur.Status, echo.MIMEApplicationJSON, cur.Response)
	}
	metrics.IdempotentRequests.WithLabelValues("in_progress").Inc()
	return c.JSON(http.StatusConflict, map[string]string{"error": "request is already in progress"})
}

package middleware

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"loan-workflow-engine/pkg/id"

	"github.com/google/uuid"
)

func bodyHash(b []byte) string { s := sha256.Sum256(b); return hex.EncodeToString(s[:]) }

// replayKey scopes a request id to the route and the actor that sent it.
func replayKey(method, route, actorID, requestID string) string {
	return strings.Join([]string{"ax", strings.ToLower(method), route, actorID, requestID}, ":")
}

// validReqID accepts our own 32-hex ids or a lowercase RFC 4122 UUID, versions 1 to 5.
func validReqID(s string) bool {
	if id.Valid(s) {
		return true
	}
	if len(s) != 36 || s != strings.ToLower(s) {
		return false
	}
	u, err := uuid.Parse(s)
	if err != nil || u.Variant() != uuid.RFC4122 {
		return false
	}
	v := u.Version()
	return v >= 1 && v <= 5
}

var errRequestAt = errors.New("Ax-Request-At must be epoch seconds, epoch milliseconds or RFC3339 with a zone")

// parseRequestAt reads Ax-Request-At. Timestamps without a zone are refused.
func parseRequestAt(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, errors.New("missing Ax-Request-At")
	}
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		if n > 1e12 {
			return time.UnixMilli(n).UTC(), nil
		}
		return time.Unix(n, 0).UTC(), nil
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, errRequestAt
	}
	return t.UTC(), nil
}

// requestMeta is what the replay guard needs from the Ax-* headers.
type requestMeta struct {
	ID string
	At time.Time
}

func readRequestMeta(h http.Header, now time.Time) (requestMeta, error) {
	reqID := strings.TrimSpace(h.Get("Ax-Request-Id"))
	switch {
	case reqID == "":
		return requestMeta{}, errors.New("missing Ax-Request-Id")
	case !validReqID(reqID):
		return requestMeta{}, errors.New("invalid Ax-Request-Id format")
	}
	at, err := parseRequestAt(h.Get("Ax-Request-At"))
	if err != nil {
		return requestMeta{}, err
	}
	if at.Before(now.Add(-maxClockSkew)) || at.After(now.Add(maxClockSkew)) {
		return requestMeta{}, errors.New("Ax-Request-At too skewed")
	}
	return requestMeta{ID: reqID, At: at}, nil
}

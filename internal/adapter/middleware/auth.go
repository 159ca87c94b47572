package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"loan-workflow-engine/internal/domain/actor"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
)

const actorKey = "actor"

// Claims carry the admin id in sub and the approver role.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// JWTAuth requires a valid HS256 Bearer token and stores the actor on the context.
func JWTAuth(secret []byte) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := c.Request().Header.Get(echo.HeaderAuthorization)
			token, ok := strings.CutPrefix(raw, "Bearer ")
			if !ok || strings.TrimSpace(token) == "" {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "missing bearer token"})
			}
			a, err := ParseToken(secret, strings.TrimSpace(token))
			if err != nil {
				log.Warnf("auth: rejected token on %s %s: %v", c.Request().Method, c.Path(), err)
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid token"})
			}
			c.Set(actorKey, a)
			return next(c)
		}
	}
}

// ParseToken validates signature and expiry and maps the claims to an actor.
func ParseToken(secret []byte, token string) (actor.Actor, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return actor.Actor{}, err
	}
	role, err := actor.ParseRole(claims.Role)
	if err != nil {
		return actor.Actor{}, err
	}
	a := actor.Actor{ID: claims.Subject, Role: role}
	if !a.Valid() {
		return actor.Actor{}, errors.New("token has no subject")
	}
	return a, nil
}

// IssueToken signs a token for a; used by tooling and tests.
func IssueToken(secret []byte, a actor.Actor, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Role: string(a.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   a.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// ActorFrom returns the actor stored by JWTAuth.
func ActorFrom(c echo.Context) (actor.Actor, bool) {
	a, ok := c.Get(actorKey).(actor.Actor)
	return a, ok
}

// WithActor stores a directly; handler tests use it instead of a token.
func WithActor(c echo.Context, a actor.Actor) { c.Set(actorKey, a) }

package mw

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

const (
	// ActorKey is the echo.Context key holding the token subject.
	ActorKey = "userID"
	// leeway absorbs clock skew between the console and the issuer.
	leeway = 30 * time.Second
)

// AuthConfig configures JWTAuth.
type AuthConfig struct {
	// Subject owns the session. When set, tokens for any other subject are
	// refused, since every remote call runs as the session credential.
	Subject string
	// Secret verifies HS256 signatures. When empty, claims are read unverified.
	Secret string
	// Now is the clock for expiry checks; nil means time.Now.
	Now func() time.Time
}

// JWTAuth requires a Bearer token for the session owner. The token only
// authenticates the caller to this console; it is never sent upstream.
func JWTAuth(cfg AuthConfig) echo.MiddlewareFunc {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(leeway),
		jwt.WithTimeFunc(now),
	)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, "Bearer ") {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing bearer token")
			}
			tokenStr := strings.TrimPrefix(authHeader, "Bearer ")

			claims, err := readClaims(parser, tokenStr, cfg.Secret, now)
			if err != nil {
				log.Debug().Err(err).Msg("rejecting bearer token")
				return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
			}

			userID, _ := claims.GetSubject()
			if cfg.Subject != "" && userID != cfg.Subject {
				log.Warn().Str("sub", userID).Msg("token subject does not own this session")
				return echo.NewHTTPError(http.StatusForbidden, "token subject does not own this session")
			}
			c.Set(ActorKey, userID)

			return next(c)
		}
	}
}

func readClaims(parser *jwt.Parser, tokenStr, secret string, now func() time.Time) (jwt.MapClaims, error) {
	if secret != "" {
		claims := jwt.MapClaims{}
		_, err := parser.ParseWithClaims(tokenStr, claims, func(*jwt.Token) (any, error) {
			return []byte(secret), nil
		})
		if err != nil {
			return nil, fmt.Errorf("invalid token: %w", err)
		}
		return claims, nil
	}

	unverified, _, err := parser.ParseUnverified(tokenStr, jwt.MapClaims{})
	if err != nil {
		return nil, errors.New("invalid token format")
	}
	claims, ok := unverified.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("invalid claims")
	}

	exp, err := claims.GetExpirationTime()
	if err != nil {
		return nil, errors.New("invalid exp claim")
	}
	if exp != nil && now().After(exp.Add(leeway)) {
		return nil, errors.New("token expired")
	}
	return claims, nil
}

// Actor returns the subject set by JWTAuth, or "" outside it.
func Actor(c echo.Context) string {
	userID, _ := c.Get(ActorKey).(string)
	return userID
}

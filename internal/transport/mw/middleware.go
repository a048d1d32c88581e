package mw

import (
	"fmt"
	"net/http"
	"slices"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// Context keys set by JWTAuth.
const (
	KeyUserID = "userID"
	KeyRoles  = "roles"
)

// JWTAuth validates the HS256 Bearer token issued by the storefront auth service.
// The subject and roles are stored in echo.Context for downstream use.
func JWTAuth(secret string) echo.MiddlewareFunc {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, "Bearer ") {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing bearer token")
			}
			tokenStr := strings.TrimPrefix(authHeader, "Bearer ")

			claims := jwt.MapClaims{}
			_, err := parser.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
				if secret == "" {
					return nil, fmt.Errorf("no signing secret configured")
				}
				return []byte(secret), nil
			})
			if err != nil {
				log.Warn().Err(err).Msg("JWT verification failed")
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			userID, _ := claims.GetSubject()
			if userID == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "token has no subject")
			}

			c.Set(KeyUserID, userID)
			c.Set(KeyRoles, rolesFrom(claims))
			return next(c)
		}
	}
}

// RequireRole rejects requests whose token does not carry role.
// Must run after JWTAuth.
func RequireRole(role string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			roles, _ := c.Get(KeyRoles).([]string)
			if !slices.Contains(roles, role) {
				return echo.NewHTTPError(http.StatusForbidden, "insufficient role")
			}
			return next(c)
		}
	}
}

// rolesFrom accepts both a single "role" string and a "roles" array.
func rolesFrom(claims jwt.MapClaims) []string {
	var roles []string
	if r, ok := claims["role"].(string); ok && r != "" {
		roles = append(roles, r)
	}
	if list, ok := claims["roles"].([]any); ok {
		for _, v := range list {
			if s, ok := v.(string); ok && s != "" {
				roles = append(roles, s)
			}
		}
	}
	return roles
}

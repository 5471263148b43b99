package auth

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

// Claims carries the identity of the mobile app user making the request.
type Claims struct {
	jwt.RegisteredClaims
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// Requester is the resolved identity attached to the echo context.
type Requester struct {
	UserID string
	Name   string
	Phone  string
}

type JWTConfig struct {
	Issuer     string
	SigningKey []byte
}

// JWTMiddleware verifies a Bearer token and attaches the requester identity
// to the context.
func JWTMiddleware(cfg JWTConfig) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing bearer token")
			}
			raw := strings.TrimPrefix(header, "Bearer ")

			claims := &Claims{}
			token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
				}
				return cfg.SigningKey, nil
			})
			if err != nil || !token.Valid {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}
			if cfg.Issuer != "" && claims.Issuer != cfg.Issuer {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token issuer")
			}
			if claims.Subject == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "token missing subject")
			}

			c.Set("requester", Requester{
				UserID: claims.Subject,
				Name:   claims.Name,
				Phone:  claims.Phone,
			})
			return next(c)
		}
	}
}

// DevAuthMiddleware assigns a fixed development identity to every request.
// Never use outside development.
func DevAuthMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set("requester", Requester{
				UserID: "dev-user",
				Name:   "Dev User",
				Phone:  "+10000000000",
			})
			return next(c)
		}
	}
}

// RequesterFromContext returns the identity attached by the auth middleware.
func RequesterFromContext(c echo.Context) (Requester, bool) {
	r, ok := c.Get("requester").(Requester)
	return r, ok
}

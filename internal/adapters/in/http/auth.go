package http

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

const (
	adminPrefix = "/admin/"
	adminRole   = "admin"
	bearer      = "Bearer "
)

// AdminClaims is the token payload accepted on the back office routes.
type AdminClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// AdminAuth guards every route under /admin/ with an HS256 bearer token
// carrying role "admin". An empty secret closes those routes entirely.
func AdminAuth(secret []byte) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !strings.HasPrefix(c.Path(), adminPrefix) {
				return next(c)
			}
			if len(secret) == 0 {
				return errorJSON(c, http.StatusUnauthorized, "Admin API disabled")
			}

			header := c.Request().Header.Get(echo.HeaderAuthorization)
			if !strings.HasPrefix(header, bearer) {
				return errorJSON(c, http.StatusUnauthorized, "Missing bearer token")
			}

			claims := &AdminClaims{}
			token, err := jwt.ParseWithClaims(header[len(bearer):], claims, func(*jwt.Token) (any, error) {
				return secret, nil
			}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
			if err != nil || !token.Valid || claims.Role != adminRole {
				return errorJSON(c, http.StatusUnauthorized, "Invalid token")
			}

			if sub, err := claims.GetSubject(); err == nil && sub != "" {
				c.Set("admin", sub)
			}
			return next(c)
		}
	}
}

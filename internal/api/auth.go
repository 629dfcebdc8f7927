package api

import (
	"net/http"

	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	"github.com/golang-jwt/jwt/v5"
)

const RoleSeller = "seller"

// JwtCustomClaims carries the authenticated identity. Token issuance is an
// external concern; this service only reads the claims.
type JwtCustomClaims struct {
	UserID int64  `json:"user_id"`
	Name   string `json:"name"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// AuthMiddleware validates bearer tokens and attaches the claims.
func AuthMiddleware(secret string) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		NewClaimsFunc: func(c echo.Context) jwt.Claims { return new(JwtCustomClaims) },
		SigningKey:    []byte(secret),
	})
}

// RequireSeller rejects tokens without the seller role.
func RequireSeller(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if cl := claims(c); cl == nil || cl.Role != RoleSeller {
			return respondMessage(c, http.StatusForbidden, "Seller access required")
		}
		return next(c)
	}
}

func claims(c echo.Context) *JwtCustomClaims {
	token, ok := c.Get("user").(*jwt.Token)
	if !ok {
		return nil
	}
	cl, _ := token.Claims.(*JwtCustomClaims)
	return cl
}

func currentUserID(c echo.Context) int64 {
	if cl := claims(c); cl != nil {
		return cl.UserID
	}
	return 0
}

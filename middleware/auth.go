package middleware

import (
	"log"
	"os"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

const tokenTTL = 24 * time.Hour

// Claims carried by the access token. Email is the verified identity every
// downstream authorization check keys on.
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

func tokenSecret() []byte {
	return []byte(os.Getenv("ACCESS_TOKEN_SECRET"))
}

// IssueToken signs an access token for the given identity.
func IssueToken(email string) (string, error) {
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "contest-hub",
		},
	})
	return tok.SignedString(tokenSecret())
}

// Protected validates the Bearer token and stores the verified email in
// c.Locals("email") for downstream handlers.
func Protected() fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "authorization token missing",
			})
		}

		tokenStr := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenStr == authHeader {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "authorization header must be a Bearer token",
			})
		}

		tok, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return tokenSecret(), nil
		})
		if err != nil || !tok.Valid {
			log.Printf("[AUTH] rejected token for %s: %v", c.Path(), err)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "invalid or expired token",
			})
		}

		claims, ok := tok.Claims.(*Claims)
		if !ok || claims.Email == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "token carries no identity",
			})
		}

		c.Locals("email", claims.Email)
		return c.Next()
	}
}

// CallerEmail returns the identity set by Protected. Empty string means the
// route was not behind the auth middleware.
func CallerEmail(c *fiber.Ctx) string {
	email, _ := c.Locals("email").(string)
	return email
}

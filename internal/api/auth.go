package api

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	jwtware "github.com/gofiber/jwt/v3"
	jwtv4 "github.com/golang-jwt/jwt/v4"
	"github.com/golang-jwt/jwt/v5"
)

var ErrMissingSecret = errors.New("JWT secret is not configured")

const adminRole = "admin"

// IssueAdminToken signs an HS256 token accepted by the admin routes.
func IssueAdminToken(secret, subject string, ttl time.Duration, now time.Time) (string, error) {
	if secret == "" {
		return "", ErrMissingSecret
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  subject,
		"role": adminRole,
		"exp":  now.Add(ttl).Unix(),
		"iat":  now.Unix(),
	})
	return token.SignedString([]byte(secret))
}

// requireAdmin accepts HS256 tokens signed with the configured secret that
// carry role=admin. It rejects every request when no secret is configured.
func (s *Server) requireAdmin() fiber.Handler {
	if s.cfg.JWT.Secret == "" {
		return func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Admin access is disabled",
			})
		}
	}

	return jwtware.New(jwtware.Config{
		SigningKey: []byte(s.cfg.JWT.Secret),
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid or missing token",
			})
		},
		SuccessHandler: func(c *fiber.Ctx) error {
			// The middleware parses with jwt/v4 and stores the token under "user".
			token, ok := c.Locals("user").(*jwtv4.Token)
			if !ok {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
					"error": "Invalid or missing token",
				})
			}
			claims, ok := token.Claims.(jwtv4.MapClaims)
			if !ok || claims["role"] != adminRole {
				return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
					"error": "Admin role required",
				})
			}
			return c.Next()
		},
	})
}

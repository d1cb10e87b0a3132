package middleware

import (
	"fmt"
	"strconv"

	"github.com/gofiber/fiber/v2"
	jwtware "github.com/gofiber/jwt/v3"
	"github.com/golang-jwt/jwt/v4"
	"github.com/meinhoongagan/spa-booking/utils"
	"github.com/rs/zerolog/log"
)

const (
	localUserID = "userID"
	localRole   = "role"
)

// Protected validates the bearer access token and stores the caller's id and
// role name in the request locals.
func Protected(secret string) fiber.Handler {
	return jwtware.New(jwtware.Config{
		SigningKey:   []byte(secret),
		ErrorHandler: jwtError,
		SuccessHandler: func(c *fiber.Ctx) error {
			token, ok := c.Locals("user").(*jwt.Token)
			if !ok {
				return unauthorized(c, "Invalid token")
			}
			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok {
				return unauthorized(c, "Invalid token claims")
			}
			if typ, _ := claims["type"].(string); typ == utils.TokenTypeRefresh {
				return unauthorized(c, "Refresh token cannot be used for API access")
			}

			userID, err := extractUserID(claims)
			if err != nil {
				log.Debug().Err(err).Msg("rejecting token")
				return unauthorized(c, "Invalid user ID in token")
			}
			role, err := extractRole(claims)
			if err != nil {
				log.Debug().Err(err).Msg("rejecting token")
				return unauthorized(c, "Invalid role in token")
			}

			c.Locals(localUserID, userID)
			c.Locals(localRole, role)
			return c.Next()
		},
	})
}

// CurrentUserID returns the authenticated user id, 0 when unauthenticated.
func CurrentUserID(c *fiber.Ctx) uint {
	id, _ := c.Locals(localUserID).(uint)
	return id
}

func CurrentRole(c *fiber.Ctx) string {
	role, _ := c.Locals(localRole).(string)
	return role
}

// extractUserID handles multiple potential formats of user ID in token
func extractUserID(claims jwt.MapClaims) (uint, error) {
	switch v := claims["id"].(type) {
	case nil:
		return 0, fmt.Errorf("no ID found in claims")
	case float64:
		return uint(v), nil
	case string:
		parsed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("could not parse ID string: %v", err)
		}
		return uint(parsed), nil
	default:
		return 0, fmt.Errorf("unsupported ID type: %T", v)
	}
}

func extractRole(claims jwt.MapClaims) (string, error) {
	switch v := claims["role"].(type) {
	case string:
		return v, nil
	case map[string]interface{}:
		if name, ok := v["name"].(string); ok {
			return name, nil
		}
		return "", fmt.Errorf("could not extract role name")
	default:
		return "", fmt.Errorf("unsupported role type: %T", v)
	}
}

func jwtError(c *fiber.Ctx, err error) error {
	log.Debug().Err(err).Str("path", c.Path()).Msg("jwt rejected")
	return unauthorized(c, "Invalid or expired token")
}

func unauthorized(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(utils.ErrorResponse{
		Message: message,
		Error:   "Unauthorized",
	})
}

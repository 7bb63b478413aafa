package middleware

import (
	"fmt"
	"strings"
	"time"

	"tugas-api/internal/config"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
)

// UseToken memverifikasi header Authorization: Bearer <token>.
// Header yang hilang/salah format -> 401.
// Token yang gagal diverifikasi (signature, expired, claims) -> 403.
func UseToken(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"message": "No token provided",
			"success": false,
			"status":  401,
		})
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"message": "Invalid token format",
			"success": false,
			"status":  401,
		})
	}
	token, err := jwt.Parse(parts[1], func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return config.SecretKey, nil
	})
	if err != nil || !token.Valid {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"message": "Invalid token",
			"success": false,
			"status":  403,
		})
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"message": "Invalid token claims",
			"success": false,
			"status":  403,
		})
	}
	if exp, ok := claims["exp"].(float64); !ok || int64(exp) < time.Now().Unix() {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"message": "Token expired",
			"success": false,
			"status":  403,
		})
	}
	userID, ok := claims["user_id"].(string)
	if !ok {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"message": "Invalid user ID in token",
			"success": false,
			"status":  403,
		})
	}
	role, ok := claims["role"].(string)
	if !ok {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"message": "Invalid role in token",
			"success": false,
			"status":  403,
		})
	}
	c.Locals("userID", userID)
	c.Locals("role", role)
	return c.Next()
}

// RequireRoles membatasi route untuk role tertentu.
// Dipasang setelah UseToken, jadi role di locals sudah terisi.
func RequireRoles(roles ...string) fiber.Handler {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(c *fiber.Ctx) error {
		role, _ := c.Locals("role").(string)
		if !allowed[role] {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"message": "Forbidden",
				"success": false,
				"status":  403,
			})
		}
		return c.Next()
	}
}

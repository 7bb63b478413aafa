package handlers

import (
	"database/sql"
	"time"

	"tugas-api/internal/config"
	"tugas-api/pkg/hash"
	"tugas-api/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/lib/pq"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// generateToken membuat JWT HS256 berisi user_id dan role,
// berlaku 1 jam sejak diterbitkan. Expiry adalah satu-satunya
// lifecycle control: tidak ada refresh token maupun revocation list.
func generateToken(userID, role string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID,
		"role":    role,
		"exp":     time.Now().Add(time.Hour * 1).Unix(),
	})
	return token.SignedString(config.SecretKey)
}

// Auth handlers
func Register(c *fiber.Ctx) error {
	// struct RegisterRequest menerima inputan dari user
	type RegisterRequest struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required,min=6"`
		Role     string `json:"role" validate:"omitempty,oneof=ADMIN USER"`
	}

	// variabel req digunakan untuk menerima inputan dari user
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		logger.ErrorLogger.Error("Bad request in register", zap.Error(err))
		return c.Status(400).JSON(fiber.Map{
			"message": "Bad request",
			"success": false,
			"status":  400,
		})
	}

	// Validasi dengan validator
	if err := config.Validate.Struct(req); err != nil {
		logger.AuditLogger.Warn("Validation error during register", zap.Error(err))
		return validationErrorResponse(c, err)
	}

	// Role default USER jika tidak dikirim
	if req.Role == "" {
		req.Role = "USER"
	}

	// Hash password dengan bcrypt
	hashedPassword, err := hash.HashPassword(req.Password)
	if err != nil {
		logger.ErrorLogger.Error("Error hashing password", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{
			"message": "Error hashing password",
			"success": false,
			"status":  500,
		})
	}

	// Insert data user ke dalam database.
	// Email yang sudah terdaftar (unique violation) dikembalikan sebagai 400.
	userID := primitive.NewObjectID().Hex()
	_, err = config.DB.Exec(
		"INSERT INTO users (id, email, password, role) VALUES ($1, $2, $3, $4)",
		userID, req.Email, hashedPassword, req.Role)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			if pqErr.Code == "23505" {
				logger.SecurityLogger.Warn("Duplicate email", zap.String("email", req.Email))
				return c.Status(400).JSON(fiber.Map{
					"message": "User already exists",
					"success": false,
					"status":  400,
				})
			}
		}
		logger.ErrorLogger.Error("Error creating user", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{
			"message": "Error creating user",
			"success": false,
			"status":  500,
		})
	}

	logger.AuditLogger.Info("User registered successfully", zap.String("userID", userID))
	return c.Status(201).JSON(fiber.Map{
		"message": "User registered successfully",
		"success": true,
		"status":  201,
		"data": fiber.Map{
			"id": userID,
		},
	})
}

// fungsi login dengan menggunakan JSON Web Token (JWT)
func Login(c *fiber.Ctx) error {
	// struct LoginRequest menerima inputan dari user
	type LoginRequest struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}

	// variabel req digunakan untuk menerima inputan dari user
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		logger.ErrorLogger.Error("Bad request in login", zap.Error(err))
		return c.Status(400).JSON(fiber.Map{
			"message": "Bad request",
			"success": false,
			"status":  400,
		})
	}

	if err := config.Validate.Struct(req); err != nil {
		logger.AuditLogger.Warn("Validation error during login", zap.Error(err))
		return validationErrorResponse(c, err)
	}

	// variabel user digunakan untuk menerima data user dari database
	var user struct {
		ID       string
		Email    string
		Password *string
		Role     string
	}

	// Email tidak ditemukan dan password salah sengaja dibuat
	// menghasilkan response yang identik, supaya tidak bocor
	// apakah sebuah email terdaftar atau tidak.
	// Kegagalan storage bukan soal kredensial, jadi tetap 500.
	err := config.DB.QueryRow(
		"SELECT id, email, password, role FROM users WHERE email = $1",
		req.Email).Scan(&user.ID, &user.Email, &user.Password, &user.Role)
	if err != nil {
		if err != sql.ErrNoRows {
			logger.ErrorLogger.Error("Error fetching user", zap.Error(err))
			return c.Status(500).JSON(fiber.Map{
				"message": "Error fetching user",
				"success": false,
				"status":  500,
			})
		}
		logger.SecurityLogger.Warn("User not found", zap.String("email", req.Email))
		return c.Status(400).JSON(fiber.Map{
			"message": "Invalid credentials",
			"success": false,
			"status":  400,
		})
	}

	// Akun hasil Google OAuth bisa saja tidak punya password
	if user.Password == nil || !hash.CheckPassword(req.Password, *user.Password) {
		logger.SecurityLogger.Warn("Invalid password", zap.String("email", req.Email))
		return c.Status(400).JSON(fiber.Map{
			"message": "Invalid credentials",
			"success": false,
			"status":  400,
		})
	}

	// token JWT di encode menjadi string
	tokenString, err := generateToken(user.ID, user.Role)
	if err != nil {
		logger.ErrorLogger.Error("Error generating token", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{
			"message": "Error generating token",
			"success": false,
			"status":  500,
		})
	}

	// kembalikan response success
	logger.AuditLogger.Info("Login success", zap.String("user_id", user.ID), zap.String("role", user.Role))
	return c.JSON(fiber.Map{
		"message": "Login success",
		"success": true,
		"status":  200,
		"data": fiber.Map{
			"user_id": user.ID,
			"role":    user.Role,
			"token":   tokenString,
		},
	})
}

package handlers

import (
	"database/sql"
	"encoding/json"
	"time"

	"tugas-api/internal/config"
	"tugas-api/internal/models"
	"tugas-api/pkg/hash"
	"tugas-api/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/lib/pq"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// User handlers

// UserRequest dipakai create dan update (PUT = full replace),
// jadi semua field wajib, mengikuti rule validasi user.
type UserRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Role     string `json:"role" validate:"required,oneof=ADMIN USER"`
}

// GetAllUsers mengembalikan semua user.
// Route ini dibatasi untuk role ADMIN lewat middleware.RequireRoles.
func GetAllUsers(c *fiber.Ctx) error {
	// Ambil semua data user dari database
	rows, err := config.DB.Query(
		"SELECT id, email, google_id, role, created_at, updated_at FROM users")
	if err != nil {
		logger.ErrorLogger.Error("Error fetching users", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{
			"message": "Error fetching users",
			"success": false,
			"status":  500,
		})
	}
	// .Close() digunakan untuk menutup koneksi setelah selesai digunakan
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		var user models.User
		err := rows.Scan(&user.ID, &user.Email, &user.GoogleID, &user.Role, &user.CreatedAt, &user.UpdatedAt)
		if err != nil {
			logger.ErrorLogger.Error("Error scanning users", zap.Error(err))
			return c.Status(500).JSON(fiber.Map{
				"message": "Error scanning users",
				"success": false,
				"status":  500,
			})
		}
		users = append(users, user)
	}

	if err = rows.Err(); err != nil {
		logger.ErrorLogger.Error("Error iterating over users", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{
			"message": "Error iterating over users",
			"success": false,
			"status":  500,
		})
	}

	// kembalikan response success
	logger.AuditLogger.Info("Users fetched successfully")
	return c.JSON(fiber.Map{
		"message": "Users fetched successfully",
		"success": true,
		"status":  200,
		"data":    users,
	})
}

// GetUser mengambil satu user berdasarkan ID (24-hex).
func GetUser(c *fiber.Ctx) error {
	targetID := c.Params("id")

	// Coba ambil data dari cache Redis
	cacheKey := "user:" + targetID
	if cached, err := config.RedisClient.Get(config.Ctx, cacheKey).Result(); err == nil {
		var user models.User
		if err = json.Unmarshal([]byte(cached), &user); err == nil {
			return c.JSON(fiber.Map{
				"message": "User found (from cache)",
				"success": true,
				"status":  200,
				"data":    user,
			})
		}
	}

	// Jika tidak ada di cache, ambil data dari database.
	// 404 hanya untuk id yang tidak ada; kegagalan storage lain -> 500.
	var user models.User
	err := config.DB.QueryRow(
		"SELECT id, email, google_id, role, created_at, updated_at FROM users WHERE id = $1",
		targetID).Scan(&user.ID, &user.Email, &user.GoogleID, &user.Role, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			logger.SecurityLogger.Warn("User not found", zap.String("target_id", targetID))
			return c.Status(404).JSON(fiber.Map{
				"message": "User not found",
				"success": false,
				"status":  404,
			})
		}
		logger.ErrorLogger.Error("Error fetching user", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{
			"message": "Error fetching user",
			"success": false,
			"status":  500,
		})
	}

	// Simpan data user ke cache Redis selama 1 jam
	userJSON, err := json.Marshal(user)
	if err == nil {
		config.RedisClient.SetEX(config.Ctx, cacheKey, userJSON, time.Hour)
	}

	// Kembalikan response
	logger.AuditLogger.Info("User found", zap.String("user_id", user.ID))
	return c.JSON(fiber.Map{
		"message": "User found",
		"success": true,
		"status":  200,
		"data":    user,
	})
}

// CreateUser membuat user baru lewat endpoint /users.
func CreateUser(c *fiber.Ctx) error {
	var req UserRequest
	if err := c.BodyParser(&req); err != nil {
		logger.ErrorLogger.Error("Bad request in create user", zap.Error(err))
		return c.Status(400).JSON(fiber.Map{
			"message": "Bad request",
			"success": false,
			"status":  400,
		})
	}

	// Validasi dengan validator, sebelum menyentuh database
	if err := config.Validate.Struct(req); err != nil {
		logger.AuditLogger.Warn("Validation error during create user", zap.Error(err))
		return validationErrorResponse(c, err)
	}

	hashedPassword, err := hash.HashPassword(req.Password)
	if err != nil {
		logger.ErrorLogger.Error("Error hashing password", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{
			"message": "Error hashing password",
			"success": false,
			"status":  500,
		})
	}

	var user models.User
	userID := primitive.NewObjectID().Hex()
	err = config.DB.QueryRow(
		`INSERT INTO users (id, email, password, role) VALUES ($1, $2, $3, $4)
		 RETURNING id, email, role, created_at, updated_at`,
		userID, req.Email, hashedPassword, req.Role,
	).Scan(&user.ID, &user.Email, &user.Role, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		// Unique violation pada email -> 400
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			logger.SecurityLogger.Warn("Duplicate email", zap.String("email", req.Email))
			return c.Status(400).JSON(fiber.Map{
				"message": "User already exists",
				"success": false,
				"status":  400,
			})
		}
		logger.ErrorLogger.Error("Error creating user", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{
			"message": "Error creating user",
			"success": false,
			"status":  500,
		})
	}

	logger.AuditLogger.Info("User created successfully", zap.String("user_id", user.ID))
	return c.Status(201).JSON(fiber.Map{
		"message": "User created successfully",
		"success": true,
		"status":  201,
		"data":    user,
	})
}

// UpdateUser mengganti seluruh record user (full replace):
// email, password, dan role semuanya wajib dikirim.
func UpdateUser(c *fiber.Ctx) error {
	targetID := c.Params("id")

	var req UserRequest
	if err := c.BodyParser(&req); err != nil {
		logger.ErrorLogger.Error("Bad request in update user", zap.Error(err))
		return c.Status(400).JSON(fiber.Map{
			"message": "Bad request",
			"success": false,
			"status":  400,
		})
	}

	if err := config.Validate.Struct(req); err != nil {
		logger.AuditLogger.Warn("Validation error during update user", zap.Error(err))
		return validationErrorResponse(c, err)
	}

	hashedPassword, err := hash.HashPassword(req.Password)
	if err != nil {
		logger.ErrorLogger.Error("Error hashing password", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{
			"message": "Error hashing password",
			"success": false,
			"status":  500,
		})
	}

	var updatedUser models.User
	err = config.DB.QueryRow(
		`UPDATE users
		 SET email = $1, password = $2, role = $3, updated_at = CURRENT_TIMESTAMP
		 WHERE id = $4
		 RETURNING id, email, google_id, role, created_at, updated_at`,
		req.Email, hashedPassword, req.Role, targetID,
	).Scan(&updatedUser.ID, &updatedUser.Email, &updatedUser.GoogleID, &updatedUser.Role,
		&updatedUser.CreatedAt, &updatedUser.UpdatedAt)
	if err != nil {
		// UPDATE ... RETURNING tanpa baris berarti id tidak ada
		if err == sql.ErrNoRows {
			logger.SecurityLogger.Warn("User not found", zap.String("target_id", targetID))
			return c.Status(404).JSON(fiber.Map{
				"message": "User not found",
				"success": false,
				"status":  404,
			})
		}
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			logger.SecurityLogger.Warn("Duplicate email", zap.String("email", req.Email))
			return c.Status(400).JSON(fiber.Map{
				"message": "User already exists",
				"success": false,
				"status":  400,
			})
		}
		logger.ErrorLogger.Error("Error updating user", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{
			"message": "Error updating user",
			"success": false,
			"status":  500,
		})
	}

	// Perbarui cache Redis
	cacheKey := "user:" + targetID
	config.RedisClient.Del(config.Ctx, cacheKey)
	userJSON, err := json.Marshal(updatedUser)
	if err == nil {
		config.RedisClient.SetEX(config.Ctx, cacheKey, userJSON, time.Hour)
	}

	// Kembalikan respons sukses jika user berhasil diperbarui
	logger.AuditLogger.Info("User updated successfully", zap.String("user_id", targetID))
	return c.JSON(fiber.Map{
		"message": "User updated successfully",
		"success": true,
		"status":  200,
		"data":    updatedUser,
	})
}

// DeleteUser menghapus user. Route ini dibatasi untuk ADMIN.
func DeleteUser(c *fiber.Ctx) error {
	targetID := c.Params("id")

	res, err := config.DB.Exec("DELETE FROM users WHERE id = $1", targetID)
	if err != nil {
		logger.ErrorLogger.Error("Error deleting user", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{
			"message": "Error deleting user",
			"success": false,
			"status":  500,
		})
	}

	affected, err := res.RowsAffected()
	if err != nil {
		logger.ErrorLogger.Error("Error deleting user", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{
			"message": "Error deleting user",
			"success": false,
			"status":  500,
		})
	}
	if affected == 0 {
		logger.SecurityLogger.Warn("User not found", zap.String("target_id", targetID))
		return c.Status(404).JSON(fiber.Map{
			"message": "User not found",
			"success": false,
			"status":  404,
		})
	}

	// Hapus cache Redis untuk user ini
	config.RedisClient.Del(config.Ctx, "user:"+targetID)

	// 204: sukses tanpa body
	logger.AuditLogger.Info("User deleted successfully", zap.String("user_id", targetID))
	return c.SendStatus(fiber.StatusNoContent)
}

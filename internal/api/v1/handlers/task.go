package handlers

import (
	"database/sql"
	"encoding/json"
	"time"

	"tugas-api/internal/config"
	"tugas-api/internal/models"
	"tugas-api/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/lib/pq"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Task handlers

// TaskRequest dipakai create dan update (PUT = full replace).
// Field opsional yang tidak dikirim dikembalikan ke nilai default:
// description/assignee jadi NULL, status PENDING, tags kosong, color #FFFFFF.
type TaskRequest struct {
	Title       string   `json:"title" validate:"required"`
	Description *string  `json:"description"`
	Status      string   `json:"status" validate:"omitempty,oneof=OPEN PENDING DONE CANCELLED"`
	Assignee    *string  `json:"assignee" validate:"omitempty,len=24,hexadecimal"`
	Tags        []string `json:"tags"`
	Color       string   `json:"color" validate:"omitempty,hexcolor"`
}

func (req *TaskRequest) applyDefaults() {
	if req.Status == "" {
		req.Status = "PENDING"
	}
	if req.Color == "" {
		req.Color = "#FFFFFF"
	}
	if req.Tags == nil {
		req.Tags = []string{}
	}
}

const taskSelectExpanded = `
SELECT t.id, t.title, t.description, t.status, t.tags, t.color, t.created_at, t.updated_at,
       u.id, u.email, u.role
FROM tasks t
LEFT JOIN users u ON u.id = t.assignee`

// scanTaskExpanded membaca satu baris hasil join tasks-users.
// Kolom user bernilai NULL jika assignee kosong atau usernya sudah dihapus
// (referensi lemah, tanpa cascading delete).
func scanTaskExpanded(scan func(dest ...interface{}) error) (models.TaskWithAssignee, error) {
	var task models.TaskWithAssignee
	var assigneeID, assigneeEmail, assigneeRole sql.NullString
	err := scan(
		&task.ID, &task.Title, &task.Description, &task.Status, &task.Tags, &task.Color,
		&task.CreatedAt, &task.UpdatedAt,
		&assigneeID, &assigneeEmail, &assigneeRole,
	)
	if err != nil {
		return task, err
	}
	if assigneeID.Valid {
		task.Assignee = &models.UserSummary{
			ID:    assigneeID.String,
			Email: assigneeEmail.String,
			Role:  assigneeRole.String,
		}
	}
	return task, nil
}

// CreateTask membuat task baru.
func CreateTask(c *fiber.Ctx) error {
	// variabel req digunakan untuk menerima inputan dari user
	var req TaskRequest
	if err := c.BodyParser(&req); err != nil {
		logger.ErrorLogger.Error("Bad request in create task", zap.Error(err))
		return c.Status(400).JSON(fiber.Map{
			"message": "Bad request",
			"success": false,
			"status":  400,
		})
	}

	// Validasi dijalankan sebelum menyentuh database:
	// kalau gagal, tidak ada record yang dibuat.
	if err := config.Validate.Struct(req); err != nil {
		logger.AuditLogger.Warn("Validation error during create task", zap.Error(err))
		return validationErrorResponse(c, err)
	}
	req.applyDefaults()

	task := models.Task{
		ID:          primitive.NewObjectID().Hex(),
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		Assignee:    req.Assignee,
		Tags:        pq.StringArray(req.Tags),
		Color:       req.Color,
	}
	err := config.DB.QueryRow(
		`INSERT INTO tasks (id, title, description, status, assignee, tags, color)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING created_at, updated_at`,
		task.ID, task.Title, task.Description, task.Status, task.Assignee,
		pq.Array(req.Tags), task.Color,
	).Scan(&task.CreatedAt, &task.UpdatedAt)
	if err != nil {
		logger.ErrorLogger.Error("Error creating task", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{
			"message": "Error creating task",
			"success": false,
			"status":  500,
		})
	}

	// kembalikan dokumen yang dibuat, termasuk id yang digenerate
	logger.AuditLogger.Info("Task created successfully", zap.String("task_id", task.ID))
	return c.Status(201).JSON(fiber.Map{
		"message": "Task created successfully",
		"success": true,
		"status":  201,
		"data":    task,
	})
}

// ListTasks mengembalikan semua task dengan assignee yang sudah
// di-expand menjadi ringkasan user (id, email, role).
func ListTasks(c *fiber.Ctx) error {
	rows, err := config.DB.Query(taskSelectExpanded + " ORDER BY t.created_at")
	if err != nil {
		logger.ErrorLogger.Error("Error fetching tasks", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{
			"message": "Error fetching tasks",
			"success": false,
			"status":  500,
		})
	}
	// .Close() digunakan untuk menutup koneksi setelah selesai digunakan
	defer rows.Close()

	tasks := []models.TaskWithAssignee{}
	for rows.Next() {
		task, err := scanTaskExpanded(rows.Scan)
		if err != nil {
			logger.ErrorLogger.Error("Error scanning tasks", zap.Error(err))
			return c.Status(500).JSON(fiber.Map{
				"message": "Error scanning tasks",
				"success": false,
				"status":  500,
			})
		}
		tasks = append(tasks, task)
	}

	if err = rows.Err(); err != nil {
		logger.ErrorLogger.Error("Error iterating over tasks", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{
			"message": "Error iterating over tasks",
			"success": false,
			"status":  500,
		})
	}

	// kembalikan respons sukses jika task berhasil diambil
	logger.AuditLogger.Info("Tasks fetched successfully")
	return c.JSON(fiber.Map{
		"message": "Tasks fetched successfully",
		"success": true,
		"status":  200,
		"data":    tasks,
	})
}

// GetTask mengambil satu task berdasarkan ID.
func GetTask(c *fiber.Ctx) error {
	taskID := c.Params("id")

	// Coba ambil data task dari cache Redis
	cacheKey := "task:" + taskID
	if cached, err := config.RedisClient.Get(config.Ctx, cacheKey).Result(); err == nil {
		var task models.TaskWithAssignee
		if err = json.Unmarshal([]byte(cached), &task); err == nil {
			logger.AuditLogger.Info("Task found (from cache)", zap.String("task_id", taskID))
			return c.JSON(fiber.Map{
				"message": "Task found (from cache)",
				"success": true,
				"status":  200,
				"data":    task,
			})
		}
	}

	// Ambil data task dari database.
	// 404 hanya untuk id yang tidak ada; kegagalan storage lain -> 500.
	task, err := scanTaskExpanded(
		config.DB.QueryRow(taskSelectExpanded+" WHERE t.id = $1", taskID).Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			logger.ErrorLogger.Error("Task not found", zap.String("task_id", taskID))
			return c.Status(404).JSON(fiber.Map{
				"message": "Task not found",
				"success": false,
				"status":  404,
			})
		}
		logger.ErrorLogger.Error("Error fetching task", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{
			"message": "Error fetching task",
			"success": false,
			"status":  500,
		})
	}

	// Simpan data task ke cache selama 1 jam
	taskJSON, err := json.Marshal(task)
	if err == nil {
		config.RedisClient.SetEX(config.Ctx, cacheKey, taskJSON, time.Hour)
	}

	// Kembalikan respons sukses jika task ditemukan
	logger.AuditLogger.Info("Task found", zap.String("task_id", taskID))
	return c.JSON(fiber.Map{
		"message": "Task found",
		"success": true,
		"status":  200,
		"data":    task,
	})
}

// UpdateTask mengganti seluruh record task (full replace).
func UpdateTask(c *fiber.Ctx) error {
	taskID := c.Params("id")

	var req TaskRequest
	if err := c.BodyParser(&req); err != nil {
		logger.ErrorLogger.Error("Bad request in update task", zap.Error(err))
		return c.Status(400).JSON(fiber.Map{
			"message": "Bad request",
			"success": false,
			"status":  400,
		})
	}

	if err := config.Validate.Struct(req); err != nil {
		logger.AuditLogger.Warn("Validation error during update task", zap.Error(err))
		return validationErrorResponse(c, err)
	}
	req.applyDefaults()

	res, err := config.DB.Exec(
		`UPDATE tasks
		 SET title = $1, description = $2, status = $3, assignee = $4,
		     tags = $5, color = $6, updated_at = CURRENT_TIMESTAMP
		 WHERE id = $7`,
		req.Title, req.Description, req.Status, req.Assignee,
		pq.Array(req.Tags), req.Color, taskID,
	)
	if err != nil {
		logger.ErrorLogger.Error("Error updating task", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{
			"message": "Error updating task",
			"success": false,
			"status":  500,
		})
	}
	affected, err := res.RowsAffected()
	if err != nil {
		logger.ErrorLogger.Error("Error updating task", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{
			"message": "Error updating task",
			"success": false,
			"status":  500,
		})
	}
	if affected == 0 {
		logger.ErrorLogger.Error("Task not found", zap.String("task_id", taskID))
		return c.Status(404).JSON(fiber.Map{
			"message": "Task not found",
			"success": false,
			"status":  404,
		})
	}

	// Ambil data task terbaru (dengan assignee di-expand)
	updatedTask, err := scanTaskExpanded(
		config.DB.QueryRow(taskSelectExpanded+" WHERE t.id = $1", taskID).Scan)
	if err != nil {
		logger.ErrorLogger.Error("Error fetching updated task", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{
			"message": "Error fetching updated task",
			"success": false,
			"status":  500,
		})
	}

	// Perbarui cache Redis untuk task ini
	cacheKey := "task:" + taskID
	config.RedisClient.Del(config.Ctx, cacheKey)
	taskJSON, err := json.Marshal(updatedTask)
	if err == nil {
		config.RedisClient.SetEX(config.Ctx, cacheKey, taskJSON, time.Hour)
	}

	// kembalikan respons sukses jika task berhasil diupdate
	logger.AuditLogger.Info("Task updated", zap.String("task_id", taskID))
	return c.JSON(fiber.Map{
		"message": "Task updated successfully",
		"success": true,
		"status":  200,
		"data":    updatedTask,
	})
}

// DeleteTask menghapus task. Delete kedua pada id yang sama
// tetap menghasilkan 404 (idempoten dalam arti itu).
func DeleteTask(c *fiber.Ctx) error {
	taskID := c.Params("id")

	res, err := config.DB.Exec("DELETE FROM tasks WHERE id = $1", taskID)
	if err != nil {
		logger.ErrorLogger.Error("Error deleting task", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{
			"message": "Error deleting task",
			"success": false,
			"status":  500,
		})
	}
	affected, err := res.RowsAffected()
	if err != nil {
		logger.ErrorLogger.Error("Error deleting task", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{
			"message": "Error deleting task",
			"success": false,
			"status":  500,
		})
	}
	if affected == 0 {
		logger.ErrorLogger.Error("Task not found", zap.String("task_id", taskID))
		return c.Status(404).JSON(fiber.Map{
			"message": "Task not found",
			"success": false,
			"status":  404,
		})
	}

	// Hapus cache Redis untuk task ini
	config.RedisClient.Del(config.Ctx, "task:"+taskID)

	// 204: sukses tanpa body
	logger.AuditLogger.Info("Task deleted", zap.String("task_id", taskID))
	return c.SendStatus(fiber.StatusNoContent)
}

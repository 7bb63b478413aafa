package v1

import (
	"tugas-api/internal/api/v1/handlers"
	"tugas-api/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

// RegisterRoutes mendaftarkan semua route API v1.
// oauth dioper dari main sebagai dependency eksplisit.
func RegisterRoutes(app *fiber.App, oauth *handlers.OAuthHandler) {
	api := app.Group("/api/v1")

	// Auth
	authRoutes := api.Group("/auth")
	authRoutes.Post("/register", handlers.Register)
	authRoutes.Post("/login", handlers.Login)

	// Google OAuth
	oauthRoutes := api.Group("/oauth")
	oauthRoutes.Get("/google", oauth.GoogleRedirect)
	oauthRoutes.Get("/google/callback", oauth.GoogleCallback)

	// User
	userRoutes := api.Group("/users", middleware.UseToken)
	userRoutes.Get("/", middleware.RequireRoles("ADMIN"), handlers.GetAllUsers)
	userRoutes.Get("/:id", handlers.GetUser)
	userRoutes.Post("/", handlers.CreateUser)
	userRoutes.Put("/:id", handlers.UpdateUser)
	userRoutes.Delete("/:id", middleware.RequireRoles("ADMIN"), handlers.DeleteUser)

	// Task
	taskRoutes := api.Group("/tasks", middleware.UseToken)
	taskRoutes.Post("/", handlers.CreateTask)
	taskRoutes.Get("/", handlers.ListTasks)
	taskRoutes.Get("/:id", handlers.GetTask)
	taskRoutes.Put("/:id", handlers.UpdateTask)
	taskRoutes.Delete("/:id", handlers.DeleteTask)
}

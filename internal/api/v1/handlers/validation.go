package handlers

import (
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// validationMessage menerjemahkan satu FieldError menjadi pesan
// yang konsisten untuk setiap kombinasi field + rule.
func validationMessage(e validator.FieldError) string {
	switch e.Field() {
	case "Email":
		if e.Tag() == "email" {
			return "Invalid email format"
		}
		return "Email is required and cannot be empty or null"
	case "Password":
		if e.Tag() == "min" {
			return "Password must be at least 6 characters long"
		}
		return "Password is required and cannot be empty or null"
	case "Role":
		if e.Tag() == "oneof" {
			return "The user must have a role either ADMIN or USER"
		}
		return "Role is required and cannot be empty or null"
	case "Title":
		return "Title is required"
	case "Status":
		return "Status must be OPEN, PENDING, CANCELLED, or DONE"
	case "Assignee":
		return "A valid assignee ID is required for a task"
	case "Color":
		return "Color must be a hex color code"
	default:
		return strings.ToLower(e.Field()) + " is invalid"
	}
}

// validationErrorResponse mengubah error dari validator menjadi response 400
// dengan daftar {field, message} per rule yang gagal.
// Request yang gagal validasi tidak pernah menyentuh database.
func validationErrorResponse(c *fiber.Ctx, err error) error {
	items := []fiber.Map{}
	if errs, ok := err.(validator.ValidationErrors); ok {
		for _, e := range errs {
			items = append(items, fiber.Map{
				"field":   strings.ToLower(e.Field()),
				"message": validationMessage(e),
			})
		}
	} else {
		items = append(items, fiber.Map{"field": "", "message": err.Error()})
	}
	return c.Status(400).JSON(fiber.Map{
		"message": "Validation error",
		"errors":  items,
		"success": false,
		"status":  400,
	})
}

package models

import (
	"time"

	"github.com/lib/pq"
)

// User merepresentasikan akun di tabel users.
// Password tidak pernah dikirim dalam response JSON.
// GoogleID terisi hanya untuk akun yang login lewat Google OAuth.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Password  *string   `json:"-"`
	GoogleID  *string   `json:"google_id,omitempty"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UserSummary adalah bentuk ringkas user yang di-embed
// pada task saat assignee di-expand.
type UserSummary struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// Task merepresentasikan baris di tabel tasks.
// Assignee adalah referensi lemah ke users.id (24-hex, tanpa foreign key).
type Task struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Description *string        `json:"description,omitempty"`
	Status      string         `json:"status"`
	Assignee    *string        `json:"assignee,omitempty"`
	Tags        pq.StringArray `json:"tags"`
	Color       string         `json:"color"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// TaskWithAssignee adalah bentuk response task dengan
// referensi assignee yang sudah di-expand menjadi UserSummary.
type TaskWithAssignee struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Description *string        `json:"description,omitempty"`
	Status      string         `json:"status"`
	Assignee    *UserSummary   `json:"assignee,omitempty"`
	Tags        pq.StringArray `json:"tags"`
	Color       string         `json:"color"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

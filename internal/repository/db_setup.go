package repository

import (
	"database/sql"
	"fmt"
	"log"

	"tugas-api/pkg/hash"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func CreateTableIfNotExists(db *sql.DB) {
	// id disimpan sebagai 24-hex (format ObjectID) yang digenerate aplikasi.
	// assignee adalah referensi lemah: tanpa foreign key, tanpa cascading delete.
	query := `
CREATE TABLE IF NOT EXISTS users (
    id CHAR(24) PRIMARY KEY,
    email VARCHAR(255) NOT NULL UNIQUE,
    password VARCHAR(255),
    google_id VARCHAR(255) UNIQUE,
    role VARCHAR(10) NOT NULL DEFAULT 'USER',
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS tasks (
    id CHAR(24) PRIMARY KEY,
    title VARCHAR(255) NOT NULL,
    description TEXT,
    status VARCHAR(20) NOT NULL DEFAULT 'PENDING',
    assignee CHAR(24),
    tags TEXT[] NOT NULL DEFAULT '{}',
    color VARCHAR(7) NOT NULL DEFAULT '#FFFFFF',
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
    `

	_, err := db.Exec(query)
	if err != nil {
		log.Fatalf("Error creating table: %v", err)
	} else {
		fmt.Println("Table 'users', 'tasks' are ready.")
	}
}

func CreateAdminUser(db *sql.DB) {
	hashedPassword, err := hash.HashPassword("admin")
	if err != nil {
		log.Fatalf("Error hashing password: %v", err)
	}

	// Insert admin user
	query := "INSERT INTO users (id, email, password, role) VALUES ($1, $2, $3, 'ADMIN')"
	_, err = db.Exec(query, primitive.NewObjectID().Hex(), "admin@mail.com", hashedPassword)
	if err != nil {
		log.Fatalf("Error inserting admin user: %v", err)
	} else {
		fmt.Println("Admin user 'admin@mail.com' is created.")
	}
}

func DeleteAllTable(db *sql.DB) {
	query := `
    DROP TABLE IF EXISTS tasks;
    DROP TABLE IF EXISTS users;
    `

	_, err := db.Exec(query)
	if err != nil {
		log.Fatalf("Error deleting table: %v", err)
	} else {
		fmt.Println("Table 'tasks', 'users' are deleted.")
	}
}

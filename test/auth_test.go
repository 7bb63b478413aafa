package test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
)

func postJSON(app *fiber.App, t *testing.T, path string, body map[string]interface{}) *http.Response {
	t.Helper()
	payload, _ := json.Marshal(body)
	req := httptest.NewRequest("POST", path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("Request to %s failed: %v", path, err)
	}
	return resp
}

func TestRegister(t *testing.T) {
	app := CreateTestApp()

	uniqueEmail := fmt.Sprintf("testuser_%d@example.com", time.Now().UnixNano())
	resp := postJSON(app, t, "/api/v1/auth/register", map[string]interface{}{
		"email":    uniqueEmail,
		"password": "secret123",
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Errorf("Expected status %d but got %d", http.StatusCreated, resp.StatusCode)
	}

	var result map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("Error decoding register response: %v", err)
	}
	data, ok := result["data"].(map[string]interface{})
	if !ok {
		t.Fatalf("Expected data field in response")
	}
	id, ok := data["id"].(string)
	if !ok || len(id) != 24 {
		t.Errorf("Expected generated 24-hex id, got %v", data["id"])
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	app := CreateTestApp()

	uniqueEmail := fmt.Sprintf("dup_%d@example.com", time.Now().UnixNano())
	body := map[string]interface{}{
		"email":    uniqueEmail,
		"password": "secret123",
	}
	resp := postJSON(app, t, "/api/v1/auth/register", body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("Expected first register to succeed, got %d", resp.StatusCode)
	}

	// Register kedua dengan email yang sama harus gagal 400
	resp = postJSON(app, t, "/api/v1/auth/register", body)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("Expected status %d but got %d", http.StatusBadRequest, resp.StatusCode)
	}

	var result map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("Error decoding response: %v", err)
	}
	if result["message"] != "User already exists" {
		t.Errorf("Expected duplicate email message, got %v", result["message"])
	}
}

func TestRegisterValidationErrors(t *testing.T) {
	app := CreateTestApp()

	// Password terlalu pendek dan email tidak valid
	resp := postJSON(app, t, "/api/v1/auth/register", map[string]interface{}{
		"email":    "not-an-email",
		"password": "abc",
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("Expected status %d but got %d", http.StatusBadRequest, resp.StatusCode)
	}

	var result map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("Error decoding response: %v", err)
	}
	items, ok := result["errors"].([]interface{})
	if !ok || len(items) == 0 {
		t.Fatalf("Expected itemized errors array, got %v", result["errors"])
	}

	fields := map[string]string{}
	for _, item := range items {
		entry := item.(map[string]interface{})
		fields[entry["field"].(string)] = entry["message"].(string)
	}
	if fields["email"] != "Invalid email format" {
		t.Errorf("Expected email format message, got %q", fields["email"])
	}
	if fields["password"] != "Password must be at least 6 characters long" {
		t.Errorf("Expected password length message, got %q", fields["password"])
	}
}

func TestLogin(t *testing.T) {
	app := CreateTestApp()

	uniqueEmail := fmt.Sprintf("testlogin_%d@example.com", time.Now().UnixNano())
	resp := postJSON(app, t, "/api/v1/auth/register", map[string]interface{}{
		"email":    uniqueEmail,
		"password": "password123",
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("Register failed with status %d", resp.StatusCode)
	}

	resp = postJSON(app, t, "/api/v1/auth/login", map[string]interface{}{
		"email":    uniqueEmail,
		"password": "password123",
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status %d but got %d", http.StatusOK, resp.StatusCode)
	}

	var result map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("Error decoding login response: %v", err)
	}
	data, ok := result["data"].(map[string]interface{})
	if !ok {
		t.Fatalf("Expected data field in login response")
	}
	if data["token"] == nil {
		t.Errorf("Expected token in login response")
	}
	if data["role"] != "USER" {
		t.Errorf("Expected default role USER, got %v", data["role"])
	}
}

// Kegagalan storage saat login bukan soal kredensial:
// harus 500, bukan 400 Invalid credentials.
func TestLoginStorageError(t *testing.T) {
	app := CreateTestApp()

	withBrokenDB(t)

	resp := postJSON(app, t, "/api/v1/auth/login", map[string]interface{}{
		"email":    "whoever@example.com",
		"password": "password123",
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("Expected status %d but got %d", http.StatusInternalServerError, resp.StatusCode)
	}

	var result map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("Error decoding response: %v", err)
	}
	if result["message"] == "Invalid credentials" {
		t.Errorf("Storage failure must not be reported as invalid credentials")
	}
}

// TestLoginFailureParity: email yang tidak terdaftar dan password yang salah
// harus menghasilkan status dan message yang identik, supaya response tidak
// membocorkan apakah sebuah email terdaftar.
func TestLoginFailureParity(t *testing.T) {
	app := CreateTestApp()

	uniqueEmail := fmt.Sprintf("parity_%d@example.com", time.Now().UnixNano())
	resp := postJSON(app, t, "/api/v1/auth/register", map[string]interface{}{
		"email":    uniqueEmail,
		"password": "password123",
	})
	resp.Body.Close()

	wrongPass := postJSON(app, t, "/api/v1/auth/login", map[string]interface{}{
		"email":    uniqueEmail,
		"password": "wrongpassword",
	})
	defer wrongPass.Body.Close()

	unknownEmail := postJSON(app, t, "/api/v1/auth/login", map[string]interface{}{
		"email":    fmt.Sprintf("nobody_%d@example.com", time.Now().UnixNano()),
		"password": "password123",
	})
	defer unknownEmail.Body.Close()

	if wrongPass.StatusCode != http.StatusBadRequest {
		t.Errorf("Expected status 400 for wrong password, got %d", wrongPass.StatusCode)
	}
	if unknownEmail.StatusCode != wrongPass.StatusCode {
		t.Errorf("Status mismatch: wrong password %d vs unknown email %d",
			wrongPass.StatusCode, unknownEmail.StatusCode)
	}

	var a, b map[string]interface{}
	if err := json.NewDecoder(wrongPass.Body).Decode(&a); err != nil {
		t.Fatalf("Error decoding response: %v", err)
	}
	if err := json.NewDecoder(unknownEmail.Body).Decode(&b); err != nil {
		t.Fatalf("Error decoding response: %v", err)
	}
	if a["message"] != b["message"] {
		t.Errorf("Message mismatch: %q vs %q", a["message"], b["message"])
	}
	if a["message"] != "Invalid credentials" {
		t.Errorf("Expected 'Invalid credentials', got %q", a["message"])
	}
}

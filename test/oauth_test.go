package test

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"tugas-api/internal/api/v1/handlers"
	"tugas-api/internal/config"
)

// Langkah pertama handshake: redirect ke Google dengan state nonce
// yang tersimpan di Redis.
func TestGoogleRedirect(t *testing.T) {
	app := CreateTestApp()

	req := httptest.NewRequest("GET", "/api/v1/oauth/google", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("Error in oauth redirect request: %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusFound {
		t.Fatalf("Expected status %d but got %d", http.StatusFound, resp.StatusCode)
	}

	location := resp.Header.Get("Location")
	if !strings.Contains(location, "accounts.google.com") {
		t.Errorf("Expected redirect to Google, got %s", location)
	}

	parsed, err := url.Parse(location)
	if err != nil {
		t.Fatalf("Error parsing redirect URL: %v", err)
	}
	query := parsed.Query()
	state := query.Get("state")
	if state == "" {
		t.Fatalf("Expected state parameter in redirect URL")
	}
	if scope := query.Get("scope"); !strings.Contains(scope, "userinfo.email") {
		t.Errorf("Expected email scope in redirect URL, got %q", scope)
	}

	// State harus tersimpan di Redis untuk divalidasi di callback
	exists, err := config.RedisClient.Exists(config.Ctx, "oauth_state:"+state).Result()
	if err != nil {
		t.Fatalf("Error checking state in Redis: %v", err)
	}
	if exists != 1 {
		t.Errorf("Expected state %s to be stored in Redis", state)
	}
}

// Callback dengan state yang tidak pernah kita terbitkan harus ditolak 401.
func TestGoogleCallbackUnknownState(t *testing.T) {
	app := CreateTestApp()

	req := httptest.NewRequest("GET", "/api/v1/oauth/google/callback?state=deadbeefdeadbeefdeadbeef&code=abc", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("Error in oauth callback request: %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("Expected status %d but got %d", http.StatusUnauthorized, resp.StatusCode)
	}
}

func TestGoogleCallbackMissingState(t *testing.T) {
	app := CreateTestApp()

	req := httptest.NewRequest("GET", "/api/v1/oauth/google/callback", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("Error in oauth callback request: %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("Expected status %d but got %d", http.StatusUnauthorized, resp.StatusCode)
	}
}

// State yang valid tapi tanpa authorization code -> federation gagal (401),
// dan state hangus setelah sekali dipakai.
func TestGoogleCallbackStateSingleUse(t *testing.T) {
	app := CreateTestApp()

	state := "aabbccddeeff00112233445566778899"
	if err := config.RedisClient.Set(config.Ctx, "oauth_state:"+state, "1", 0).Err(); err != nil {
		t.Fatalf("Error seeding state: %v", err)
	}

	req := httptest.NewRequest("GET", "/api/v1/oauth/google/callback?state="+state, nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("Error in oauth callback request: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("Expected status %d but got %d", http.StatusUnauthorized, resp.StatusCode)
	}

	// Pemakaian kedua dengan state yang sama juga ditolak
	req = httptest.NewRequest("GET", "/api/v1/oauth/google/callback?state="+state+"&code=abc", nil)
	resp, err = app.Test(req)
	if err != nil {
		t.Fatalf("Error in oauth callback request: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("Expected status %d on reused state but got %d", http.StatusUnauthorized, resp.StatusCode)
	}
}

// Linking akun Google ke user lama mengubah record di database,
// jadi cache user:<id> yang lama harus ikut terhapus.
func TestGoogleLinkInvalidatesUserCache(t *testing.T) {
	app := CreateTestApp()

	token, userID, email := RegisterTestUser(app, t)

	// GET dulu supaya cache user:<id> terisi
	req := httptest.NewRequest("GET", "/api/v1/users/"+userID, nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("Error in getUser request: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected status %d but got %d", http.StatusOK, resp.StatusCode)
	}

	cacheKey := "user:" + userID
	exists, err := config.RedisClient.Exists(config.Ctx, cacheKey).Result()
	if err != nil {
		t.Fatalf("Error checking cache: %v", err)
	}
	if exists != 1 {
		t.Fatalf("Expected user to be cached after GET")
	}

	// Profil Google dengan email yang sama harus link ke user lama
	user, err := handlers.ResolveGoogleUser(handlers.GoogleProfile{
		ID:    fmt.Sprintf("google_%d", time.Now().UnixNano()),
		Email: email,
	})
	if err != nil {
		t.Fatalf("Error resolving Google profile: %v", err)
	}
	if user.ID != userID {
		t.Fatalf("Expected existing user %s to be linked, got %s", userID, user.ID)
	}

	// Cache lama harus sudah dibuang setelah linking
	exists, err = config.RedisClient.Exists(config.Ctx, cacheKey).Result()
	if err != nil {
		t.Fatalf("Error checking cache: %v", err)
	}
	if exists != 0 {
		t.Errorf("Expected cache entry %s to be invalidated after linking", cacheKey)
	}
}

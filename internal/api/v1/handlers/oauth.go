package handlers

import (
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"time"

	"tugas-api/configs"
	"tugas-api/internal/config"
	"tugas-api/internal/models"
	"tugas-api/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// State nonce disimpan di Redis dan hangus setelah 10 menit
// atau setelah sekali dipakai di callback.
const oauthStateTTL = 10 * time.Minute

const googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

// OAuthHandler memegang konfigurasi OAuth Google.
// Dibuat sekali di main dan dioper ke RegisterRoutes, bukan
// didaftarkan sebagai singleton level package.
type OAuthHandler struct {
	Config *oauth2.Config
}

func NewGoogleOAuth(cfg configs.Config) *OAuthHandler {
	return &OAuthHandler{
		Config: &oauth2.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.GoogleCallbackURL,
			Scopes: []string{
				"https://www.googleapis.com/auth/userinfo.profile",
				"https://www.googleapis.com/auth/userinfo.email",
			},
			Endpoint: google.Endpoint,
		},
	}
}

// GoogleProfile adalah bagian dari response userinfo yang kita pakai.
type GoogleProfile struct {
	ID         string `json:"id"`
	Email      string `json:"email"`
	Name       string `json:"name"`
	GivenName  string `json:"given_name"`
	FamilyName string `json:"family_name"`
}

// GoogleRedirect memulai handshake: generate state nonce,
// simpan di Redis, lalu redirect ke halaman consent Google.
func (h *OAuthHandler) GoogleRedirect(c *fiber.Ctx) error {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		logger.ErrorLogger.Error("Error generating OAuth state", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{
			"message": "Error starting Google authentication",
			"success": false,
			"status":  500,
		})
	}
	state := hex.EncodeToString(buf)

	if err := config.RedisClient.Set(config.Ctx, "oauth_state:"+state, "1", oauthStateTTL).Err(); err != nil {
		logger.ErrorLogger.Error("Error storing OAuth state", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{
			"message": "Error starting Google authentication",
			"success": false,
			"status":  500,
		})
	}

	logger.AuditLogger.Info("Google OAuth redirect", zap.String("state", state))
	return c.Redirect(h.Config.AuthCodeURL(state), fiber.StatusFound)
}

// GoogleCallback menyelesaikan handshake: validasi state, tukar code
// dengan access token, ambil profil, lalu terbitkan bearer token lokal.
// Session memakai bearer token yang sama dengan /auth/login.
func (h *OAuthHandler) GoogleCallback(c *fiber.Ctx) error {
	state := c.Query("state")
	if state == "" {
		return c.Status(401).JSON(fiber.Map{
			"message": "Invalid OAuth state",
			"success": false,
			"status":  401,
		})
	}

	// Del mengembalikan jumlah key yang terhapus; 0 berarti state
	// tidak pernah kita terbitkan atau sudah kadaluarsa/terpakai.
	deleted, err := config.RedisClient.Del(config.Ctx, "oauth_state:"+state).Result()
	if err != nil {
		logger.ErrorLogger.Error("Error checking OAuth state", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{
			"message": "Error completing Google authentication",
			"success": false,
			"status":  500,
		})
	}
	if deleted == 0 {
		logger.SecurityLogger.Warn("Unknown OAuth state", zap.String("state", state))
		return c.Status(401).JSON(fiber.Map{
			"message": "Invalid OAuth state",
			"success": false,
			"status":  401,
		})
	}

	code := c.Query("code")
	if code == "" {
		logger.SecurityLogger.Warn("OAuth callback without code")
		return c.Status(401).JSON(fiber.Map{
			"message": "Google authentication failed",
			"success": false,
			"status":  401,
		})
	}

	// Tukar authorization code dengan access token
	token, err := h.Config.Exchange(config.Ctx, code)
	if err != nil {
		logger.SecurityLogger.Warn("OAuth code exchange failed", zap.Error(err))
		return c.Status(401).JSON(fiber.Map{
			"message": "Google authentication failed",
			"success": false,
			"status":  401,
		})
	}

	// Ambil profil dari endpoint userinfo
	client := h.Config.Client(config.Ctx, token)
	resp, err := client.Get(googleUserInfoURL)
	if err != nil {
		logger.ErrorLogger.Error("Error fetching Google profile", zap.Error(err))
		return c.Status(401).JSON(fiber.Map{
			"message": "Google authentication failed",
			"success": false,
			"status":  401,
		})
	}
	defer resp.Body.Close()

	var profile GoogleProfile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil || profile.Email == "" {
		logger.ErrorLogger.Error("Error decoding Google profile", zap.Error(err))
		return c.Status(401).JSON(fiber.Map{
			"message": "Google authentication failed",
			"success": false,
			"status":  401,
		})
	}

	user, err := ResolveGoogleUser(profile)
	if err != nil {
		logger.ErrorLogger.Error("Error resolving Google user", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{
			"message": "Error completing Google authentication",
			"success": false,
			"status":  500,
		})
	}

	tokenString, err := generateToken(user.ID, user.Role)
	if err != nil {
		logger.ErrorLogger.Error("Error generating token", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{
			"message": "Error generating token",
			"success": false,
			"status":  500,
		})
	}

	logger.AuditLogger.Info("Google authentication successful",
		zap.String("user_id", user.ID), zap.String("email", user.Email))
	return c.JSON(fiber.Map{
		"message": "Google authentication successful",
		"success": true,
		"status":  200,
		"data": fiber.Map{
			"user_id": user.ID,
			"role":    user.Role,
			"token":   tokenString,
		},
	})
}

// ResolveGoogleUser memetakan profil Google ke user lokal:
// 1. cari berdasarkan google_id
// 2. kalau tidak ada, cari berdasarkan email lalu link google_id-nya
// 3. kalau masih tidak ada, buat user baru dengan role USER tanpa password
func ResolveGoogleUser(profile GoogleProfile) (*models.User, error) {
	var user models.User

	err := config.DB.QueryRow(
		"SELECT id, email, role FROM users WHERE google_id = $1",
		profile.ID).Scan(&user.ID, &user.Email, &user.Role)
	if err == nil {
		return &user, nil
	}
	if err != sql.ErrNoRows {
		return nil, err
	}

	err = config.DB.QueryRow(
		"SELECT id, email, role FROM users WHERE email = $1",
		profile.Email).Scan(&user.ID, &user.Email, &user.Role)
	if err == nil {
		// User lama yang daftar via email/password: link akun Google-nya
		_, err = config.DB.Exec(
			"UPDATE users SET google_id = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2",
			profile.ID, user.ID)
		if err != nil {
			return nil, err
		}
		// Record di database berubah, cache lama harus dibuang
		config.RedisClient.Del(config.Ctx, "user:"+user.ID)
		logger.AuditLogger.Info("Linked Google account", zap.String("user_id", user.ID))
		return &user, nil
	}
	if err != sql.ErrNoRows {
		return nil, err
	}

	user = models.User{
		ID:    primitive.NewObjectID().Hex(),
		Email: profile.Email,
		Role:  "USER",
	}
	_, err = config.DB.Exec(
		"INSERT INTO users (id, email, google_id, role) VALUES ($1, $2, $3, $4)",
		user.ID, user.Email, profile.ID, user.Role)
	if err != nil {
		return nil, err
	}
	logger.AuditLogger.Info("Created user from Google profile", zap.String("user_id", user.ID))
	return &user, nil
}

// Package auth implements registration and login with bcrypt password
// hashing and HS256 bearer tokens.
package auth

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"tempora/middleware"
	"tempora/models"
	"tempora/setup"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var validate = validator.New()

// RegisterHandler handles POST /v0/auth/register
func RegisterHandler(db *gorm.DB, cfg *setup.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var req models.RegisterRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		if err := validate.Struct(req); err != nil {
			http.Error(w, "Invalid registration data: "+err.Error(), http.StatusBadRequest)
			return
		}

		email := strings.ToLower(strings.TrimSpace(req.Email))

		var existing models.User
		if result := db.Where("email = ?", email).First(&existing); result.Error == nil {
			http.Error(w, "Email already registered", http.StatusBadRequest)
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			http.Error(w, "Failed to hash password", http.StatusInternalServerError)
			return
		}

		user := models.User{
			ID:           uuid.New().String(),
			Email:        email,
			DisplayName:  strings.TrimSpace(req.DisplayName),
			PasswordHash: string(hash),
			JoinedAt:     time.Now().UTC(),
		}
		if result := db.Create(&user); result.Error != nil {
			http.Error(w, "Failed to create user", http.StatusInternalServerError)
			return
		}

		token, err := middleware.CreateToken(user.ID, cfg.JWTSecret)
		if err != nil {
			http.Error(w, "Failed to create token", http.StatusInternalServerError)
			return
		}

		log.Info().Str("userId", user.ID).Msg("user registered")

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(models.AuthResponse{
			User:        user,
			AccessToken: token,
			TokenType:   "bearer",
		})
	}
}

// LoginHandler handles POST /v0/auth/login
func LoginHandler(db *gorm.DB, cfg *setup.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var req models.LoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		if err := validate.Struct(req); err != nil {
			http.Error(w, "Invalid login data: "+err.Error(), http.StatusBadRequest)
			return
		}

		var user models.User
		if result := db.Where("email = ?", strings.ToLower(strings.TrimSpace(req.Email))).First(&user); result.Error != nil {
			http.Error(w, "Invalid credentials", http.StatusUnauthorized)
			return
		}
		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
			http.Error(w, "Invalid credentials", http.StatusUnauthorized)
			return
		}

		now := time.Now().UTC()
		user.LastSeenAt = &now
		db.Save(&user)

		token, err := middleware.CreateToken(user.ID, cfg.JWTSecret)
		if err != nil {
			http.Error(w, "Failed to create token", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(models.AuthResponse{
			User:        user,
			AccessToken: token,
			TokenType:   "bearer",
		})
	}
}

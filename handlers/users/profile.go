// Package users serves user profiles with trading stats derived from the
// ledger on each read.
package users

import (
	"encoding/json"
	"net/http"

	"tempora/middleware"
	"tempora/models"
	"tempora/setup"

	"github.com/gorilla/mux"
	"gorm.io/gorm"
)

// GetMyProfileHandler handles GET /v0/users/me/profile
func GetMyProfileHandler(db *gorm.DB, cfg *setup.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, httpErr := middleware.ValidateTokenAndGetUser(r, db, cfg.JWTSecret)
		if httpErr != nil {
			http.Error(w, httpErr.Message, httpErr.StatusCode)
			return
		}
		writeProfile(w, db, user)
	}
}

// GetUserProfileHandler handles GET /v0/users/{id}/profile
func GetUserProfileHandler(db *gorm.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vars := mux.Vars(r)

		var user models.User
		if result := db.Where("id = ?", vars["id"]).First(&user); result.Error != nil {
			if result.Error == gorm.ErrRecordNotFound {
				http.Error(w, "User not found", http.StatusNotFound)
				return
			}
			http.Error(w, "Database error", http.StatusInternalServerError)
			return
		}
		writeProfile(w, db, &user)
	}
}

func writeProfile(w http.ResponseWriter, db *gorm.DB, user *models.User) {
	var totalTrades int64
	if result := db.Model(&models.Trade{}).Where("user_id = ?", user.ID).Count(&totalTrades); result.Error != nil {
		http.Error(w, "Failed to fetch trade stats", http.StatusInternalServerError)
		return
	}

	var openPositions int64
	if result := db.Model(&models.Trade{}).Where("user_id = ?", user.ID).
		Distinct("market_id").Count(&openPositions); result.Error != nil {
		http.Error(w, "Failed to fetch trade stats", http.StatusInternalServerError)
		return
	}

	profile := models.UserProfile{
		ID:            user.ID,
		Email:         user.Email,
		DisplayName:   user.DisplayName,
		JoinedAt:      user.JoinedAt,
		LastSeenAt:    user.LastSeenAt,
		TotalTrades:   totalTrades,
		OpenPositions: openPositions,
		// Zero until settlement/payout logic exists.
		RealisedPnL: 0,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(profile)
}

package middleware

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"tempora/models"

	"github.com/golang-jwt/jwt/v4"
	"gorm.io/gorm"
)

// HTTPError carries a status code alongside the message so handlers can
// surface auth failures without inspecting error types.
type HTTPError struct {
	StatusCode int
	Message    string
}

const tokenLifetime = 72 * time.Hour

// CreateToken mints an HS256 bearer token for a user id.
func CreateToken(userID, secret string) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(tokenLifetime)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ValidateTokenAndGetUser validates the Authorization bearer token and loads
// the user it names. Returns the user or an HTTPError ready to surface.
func ValidateTokenAndGetUser(r *http.Request, db *gorm.DB, secret string) (*models.User, *HTTPError) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return nil, &HTTPError{
			StatusCode: http.StatusUnauthorized,
			Message:    "Authorization header required",
		}
	}
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return nil, &HTTPError{
			StatusCode: http.StatusUnauthorized,
			Message:    "Authorization header must use the Bearer scheme",
		}
	}
	tokenString := strings.TrimPrefix(authHeader, "Bearer ")

	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return nil, &HTTPError{
			StatusCode: http.StatusUnauthorized,
			Message:    "Invalid or expired token",
		}
	}

	var user models.User
	if result := db.Where("id = ?", claims.Subject).First(&user); result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return nil, &HTTPError{
				StatusCode: http.StatusUnauthorized,
				Message:    "User not found",
			}
		}
		return nil, &HTTPError{
			StatusCode: http.StatusInternalServerError,
			Message:    "Database error validating user",
		}
	}

	return &user, nil
}

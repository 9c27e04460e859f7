package utils

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/voyago/travel-booking/internal/apperr"
	"github.com/voyago/travel-booking/internal/models"
)

// Claims accepts both the current user_id claim and the older userid spelling.
type Claims struct {
	UserID       string `json:"user_id,omitempty"`
	LegacyUserID string `json:"userid,omitempty"`
	Email        string `json:"email,omitempty"`
	FName        string `json:"fname,omitempty"`
	LName        string `json:"lname,omitempty"`
	jwt.RegisteredClaims
}

// GenerateToken signs an HS256 token for the user that expires after ttl.
func GenerateToken(user *models.User, secret string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: user.UserID,
		Email:  user.Email,
		FName:  user.FName,
		LName:  user.LName,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ValidateToken verifies the signature and expiry of a bearer token and returns the caller.
// A missing fname falls back to the local part of the email, a missing lname to "".
func ValidateToken(tokenString, secret string) (*models.User, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperr.Auth("Token has expired")
		}
		return nil, apperr.Auth("Invalid token")
	}
	if !token.Valid {
		return nil, apperr.Auth("Invalid token")
	}

	user := &models.User{
		UserID: claims.UserID,
		Email:  claims.Email,
		FName:  claims.FName,
		LName:  claims.LName,
	}
	if user.UserID == "" {
		user.UserID = claims.LegacyUserID
	}
	if user.UserID == "" {
		return nil, apperr.Auth("Invalid token: missing user id")
	}
	if user.FName == "" {
		user.FName, _, _ = strings.Cut(user.Email, "@")
	}
	return user, nil
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, error) {
	if header == "" {
		return "", apperr.Auth("Authorization header missing")
	}
	parts := strings.Fields(header)
	if len(parts) != 2 {
		return "", apperr.Auth("Invalid authorization header format")
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return "", apperr.Auth("Invalid authentication scheme")
	}
	return parts[1], nil
}

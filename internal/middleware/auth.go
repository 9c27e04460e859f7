package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/voyago/travel-booking/internal/apperr"
	"github.com/voyago/travel-booking/internal/models"
	"github.com/voyago/travel-booking/pkg/utils"
)

const (
	userKey  = "user"
	tokenKey = "token"
)

// AuthMiddleware validates the bearer token and stores the caller and the raw token.
// The token may also come from the token query parameter, which browsers need for websockets.
func AuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, err := utils.BearerToken(c.GetHeader("Authorization"))
		if err != nil {
			tokenString = c.Query("token")
		}
		if tokenString == "" {
			c.AbortWithStatusJSON(apperr.HTTPStatus(err), gin.H{"error": apperr.PublicMessage(err)})
			return
		}

		user, err := utils.ValidateToken(tokenString, secret)
		if err != nil {
			c.AbortWithStatusJSON(apperr.HTTPStatus(err), gin.H{"error": apperr.PublicMessage(err)})
			return
		}

		c.Set(userKey, user)
		c.Set(tokenKey, tokenString)
		c.Next()
	}
}

// CurrentUser returns the caller stored by AuthMiddleware.
func CurrentUser(c *gin.Context) *models.User {
	user, _ := c.Get(userKey)
	u, _ := user.(*models.User)
	return u
}

// BearerToken returns the raw token of the request, for forwarding downstream.
func BearerToken(c *gin.Context) string {
	return c.GetString(tokenKey)
}

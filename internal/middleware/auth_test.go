package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voyago/travel-booking/internal/models"
	"github.com/voyago/travel-booking/pkg/utils"
)

const testSecret = "test-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

func authRouter() *gin.Engine {
	r := gin.New()
	r.GET("/me", AuthMiddleware(testSecret), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user": CurrentUser(c), "token": BearerToken(c)})
	})
	return r
}

func signedToken(t *testing.T, ttl time.Duration) string {
	t.Helper()
	token, err := utils.GenerateToken(&models.User{UserID: "user-1", Email: "jane@example.com", FName: "Jane"}, testSecret, ttl)
	require.NoError(t, err)
	return token
}

func TestAuthMiddleware_AcceptsBearerToken(t *testing.T) {
	token := signedToken(t, time.Hour)
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()

	authRouter().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		User  models.User `json:"user"`
		Token string      `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "user-1", body.User.UserID)
	assert.Equal(t, "Jane", body.User.FName)
	assert.Equal(t, token, body.Token)
}

func TestAuthMiddleware_AcceptsQueryToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/me?token="+signedToken(t, time.Hour), nil)
	w := httptest.NewRecorder()

	authRouter().ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuthMiddleware_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   string
	}{
		{"missing header", "", "Authorization header missing"},
		{"wrong scheme", "Basic abc", "Invalid authentication scheme"},
		{"expired", "Bearer " + signedToken(t, -time.Minute), "Token has expired"},
		{"garbage", "Bearer not-a-jwt", "Invalid token"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()

			authRouter().ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			var body map[string]string
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.want, body["error"])
		})
	}
}

package auth

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func TestCurrentUserIDReadsContextKey(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	userID := uuid.New()
	// Same key the JWT middleware sets on authenticated requests.
	c.Set("user_id", userID)

	if got := currentUserID(c); got != userID {
		t.Errorf("current user id: want %s, got %s", userID, got)
	}
}

package v1

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"multichat/internal/interfaces/httpserver/routes/v1/chat"
)

func TestV1Route_RegisterRouter(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	NewV1Route(chat.NewChatRoute(nil)).RegisterRouter(router)

	tests := []struct {
		name string
		path string
		want int
	}{
		{name: "version", path: "/v1/version", want: http.StatusOK},
		{name: "no model catalog", path: "/v1/models", want: http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

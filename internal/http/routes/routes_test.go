package routes

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/phambaophuc/shape-crop/internal/config"
	"github.com/phambaophuc/shape-crop/internal/http/handlers"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSetupRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := handlers.NewImageHandler(handlers.Dependencies{}, zap.NewNop(), &config.Config{})
	router := NewRouter(h, zap.NewNop()).SetupRoutes()

	registered := map[string]bool{}
	for _, route := range router.Routes() {
		registered[route.Method+" "+route.Path] = true
	}

	for _, want := range []string{
		"GET /api/v1/health",
		"GET /api/v1/stats",
		"POST /api/v1/captures",
		"POST /api/v1/captures/async",
		"GET /api/v1/captures/jobs/:id",
		"GET /api/v1/gallery",
		"GET /api/v1/gallery/:filename",
		"DELETE /api/v1/gallery/:filename",
	} {
		require.True(t, registered[want], "missing route %s", want)
	}
}

func TestCaptureRequiresMultipart(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := handlers.NewImageHandler(handlers.Dependencies{}, zap.NewNop(), &config.Config{})
	router := NewRouter(h, zap.NewNop()).SetupRoutes()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/captures", nil)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
	require.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
}

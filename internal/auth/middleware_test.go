package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go-avatar/internal/config"
	redisdb "go-avatar/internal/redis"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func setupTestRedis() *redis.Client {
	cfg := &config.Config{}
	cfg.Redis.Addr = "localhost:6379"
	cfg.Redis.DB = 15
	return redisdb.NewClient(cfg)
}

func setupProtectedRouter(cfg *config.Config, rdb *redis.Client, requireAdmin bool) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(AuthMiddleware(cfg, rdb, requireAdmin))
	r.GET("/test", func(c *gin.Context) {
		c.String(200, "OK")
	})
	return r
}

func TestAuthMiddleware_MissingHeader(t *testing.T) {
	cfg := &config.Config{}
	cfg.Server.JWTSecret = "secret"
	r := setupProtectedRouter(cfg, setupTestRedis(), false)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/test", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}

func TestAuthMiddleware_InvalidToken(t *testing.T) {
	cfg := &config.Config{}
	cfg.Server.JWTSecret = "secret"
	r := setupProtectedRouter(cfg, setupTestRedis(), false)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set("Authorization", "Bearer not.a.valid.jwt")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 for invalid JWT, got %d", w.Code)
	}
}

func TestAuthMiddleware_SessionInvalid(t *testing.T) {
	cfg := &config.Config{}
	cfg.Server.JWTSecret = "secret"
	r := setupProtectedRouter(cfg, setupTestRedis(), false)

	token, err := GenerateJWT(cfg.Server.JWTSecret, 123, "user", "user", time.Minute)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)
	// No session stored, so the session check must reject the request.
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 for session error, got %d", w.Code)
	}
}

package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"go-avatar/internal/agent"
	"go-avatar/internal/channel"
	"go-avatar/internal/config"
	"go-avatar/internal/goal"
	"go-avatar/internal/state"
	"go-avatar/internal/style"
)

func newTestDeps() *Deps {
	sink := channel.LogSink{}
	store := state.NewStore(state.EmotionNeutral, 0.5)
	goals := goal.NewManager()
	orch := agent.NewOrchestrator(
		store,
		nil,
		goals,
		nil,
		channel.NewHeartAdapter(sink),
		channel.NewFaceAdapter(sink),
		channel.NewPostureAdapter(sink),
		channel.NewStyleAdapter(sink, style.NewDescriptorGenerator()),
		channel.NewSpeechAdapter(sink, store),
	)
	return &Deps{
		Orchestrator: orch,
		Ingestor:     agent.NewIngestor(orch, goals),
		Goals:        goals,
		Hub:          channel.NewHub(),
	}
}

func TestSetupRouter_BasicRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{}
	r := SetupRouter(cfg, nil, newTestDeps())

	// Health route should exist and return 200
	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/health", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("GET /health should return 200, got %d", w.Code)
	}

	// Config route should exist and return 200
	w2 := httptest.NewRecorder()
	req2 := httptest.NewRequest("GET", "/config", nil)
	r.ServeHTTP(w2, req2)
	if w2.Code != http.StatusOK {
		t.Errorf("GET /config should return 200, got %d", w2.Code)
	}
}

func TestSetupRouter_Subpath(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{}
	cfg.Server.Subpath = "/avatar"
	r := SetupRouter(cfg, nil, newTestDeps())

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/avatar/health", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("GET /avatar/health should return 200, got %d", w.Code)
	}
}

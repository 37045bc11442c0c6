package api

import (
	"net/http"
	"path"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"go-avatar/internal/agent"
	"go-avatar/internal/auth"
	"go-avatar/internal/channel"
	"go-avatar/internal/config"
	"go-avatar/internal/db"
	"go-avatar/internal/goal"
	"go-avatar/internal/user"
)

// Deps carries the wired core the handlers operate on.
type Deps struct {
	Orchestrator *agent.Orchestrator
	Ingestor     *agent.Ingestor
	Goals        *goal.Manager
	Hub          *channel.Hub
}

func usersExist() bool {
	var count int64
	if db.DB == nil {
		return false
	}
	db.DB.Model(&user.User{}).Count(&count)
	return count > 0
}

func SetupRouter(cfg *config.Config, rdb *redis.Client, deps *Deps) *gin.Engine {
	r := gin.Default()
	subpath := cfg.Server.Subpath // e.g. "/go-avatar" or any custom path, always starts with '/'

	r.GET(path.Join(subpath, "favicon.ico"), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	// API routes
	group := r.Group(subpath)
	{
		group.GET("/health", healthHandler)
		group.GET("/config", configHandler(cfg))

		// Setup: only if no users
		group.POST("/setup", SetupHandler())

		// Auth
		group.POST("/auth/login", LoginHandler(cfg, rdb))
		group.POST("/auth/logout", auth.AuthMiddleware(cfg, rdb, false), LogoutHandler(rdb))
		group.GET("/auth/me", auth.AuthMiddleware(cfg, rdb, false), MeHandler())

		// Expressive state
		group.GET("/agent/state", auth.AuthMiddleware(cfg, rdb, false), GetStateHandler(deps))
		group.POST("/agent/state", auth.AuthMiddleware(cfg, rdb, false), UpdateStateHandler(deps))

		// Backend response ingestion
		group.POST("/agent/respond", auth.AuthMiddleware(cfg, rdb, false), RespondHandler(deps))
		group.POST("/agent/say", auth.AuthMiddleware(cfg, rdb, false), SayHandler(deps))

		// Goal tree
		group.GET("/goals", auth.AuthMiddleware(cfg, rdb, false), ListGoalsHandler(deps))
		group.POST("/goals", auth.AuthMiddleware(cfg, rdb, false), CreateGoalHandler(deps))
		group.GET("/goals/active", auth.AuthMiddleware(cfg, rdb, false), ActiveGoalHandler(deps))
		group.GET("/goals/:id", auth.AuthMiddleware(cfg, rdb, false), GetGoalHandler(deps))
		group.DELETE("/goals/:id", auth.AuthMiddleware(cfg, rdb, false), RemoveGoalHandler(deps))
		group.POST("/goals/:id/activate", auth.AuthMiddleware(cfg, rdb, false), GoalTransitionHandler(deps, "activate"))
		group.POST("/goals/:id/suspend", auth.AuthMiddleware(cfg, rdb, false), GoalTransitionHandler(deps, "suspend"))
		group.POST("/goals/:id/resume", auth.AuthMiddleware(cfg, rdb, false), GoalTransitionHandler(deps, "resume"))
		group.POST("/goals/:id/complete", auth.AuthMiddleware(cfg, rdb, false), GoalTransitionHandler(deps, "complete"))
		group.POST("/goals/:id/fail", auth.AuthMiddleware(cfg, rdb, false), FailGoalHandler(deps))
		group.POST("/goals/:id/interrupt", auth.AuthMiddleware(cfg, rdb, false), InterruptGoalHandler(deps))

		// Channel event stream for the rendering client
		group.GET("/ws/events", WSEventsHandler(deps))

		// Online users count
		group.GET("/users/online", OnlineUserCountHandler(rdb))
	}
	return r
}

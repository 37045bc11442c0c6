package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"go-avatar/internal/agent"
	"go-avatar/internal/state"
)

// GET /agent/state
func GetStateHandler(deps *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		snap := deps.Orchestrator.Snapshot()
		c.JSON(http.StatusOK, snap)
	}
}

// POST /agent/state
// Body is a partial state; absent fields keep their current values.
func UpdateStateHandler(deps *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var partial state.Partial
		if err := c.ShouldBindJSON(&partial); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"message": "Invalid request"}})
			return
		}

		resolved, report, err := deps.Orchestrator.UpdateState(c.Request.Context(), partial)
		if err != nil {
			var verr *agent.ValidationError
			if errors.As(err, &verr) {
				c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"message": verr.Error()}})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": gin.H{"message": "Update failed"}})
			return
		}

		// Channels are in-process; waiting here is cheap and lets the
		// caller see per-channel failures in the same response.
		failures := report.Wait()
		c.JSON(http.StatusOK, gin.H{
			"state":    resolved,
			"version":  report.Version,
			"channels": failures,
		})
	}
}

// POST /agent/respond
// Body is a full backend response: ordered instructions plus an
// optional terminal newState.
func RespondHandler(deps *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var resp agent.Response
		if err := c.ShouldBindJSON(&resp); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"message": "Invalid request"}})
			return
		}

		report := deps.Ingestor.Apply(c.Request.Context(), &resp)
		c.JSON(http.StatusOK, gin.H{
			"appliedInstructions": report.Applied,
			"errors":              report.Messages(),
			"state":               deps.Orchestrator.Snapshot(),
		})
	}
}

type SayRequest struct {
	Text string `json:"text"`
}

// POST /agent/say
func SayHandler(deps *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req SayRequest
		if err := c.ShouldBindJSON(&req); err != nil || req.Text == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"message": "Text required"}})
			return
		}
		if err := deps.Orchestrator.Say(c.Request.Context(), req.Text); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": gin.H{"message": err.Error()}})
			return
		}
		c.JSON(http.StatusOK, gin.H{"spoken": true})
	}
}

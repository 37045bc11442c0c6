package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"go-avatar/internal/goal"
	"go-avatar/internal/state"
)

type CreateGoalRequest struct {
	Name        string `json:"name"`
	ParentID    string `json:"parentId,omitempty"`
	Priority    int    `json:"priority,omitempty"`
	Independent bool   `json:"independent,omitempty"`
	Activate    bool   `json:"activate,omitempty"`
}

type FailGoalRequest struct {
	Reason string `json:"reason"`
}

type InterruptGoalRequest struct {
	Replacement *goal.Spec `json:"replacement,omitempty"`
}

func goalError(c *gin.Context, err error) {
	var serr *goal.GoalStateError
	switch {
	case errors.Is(err, goal.ErrGoalNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": gin.H{"message": "Goal not found"}})
	case errors.As(err, &serr):
		c.JSON(http.StatusConflict, gin.H{"error": gin.H{"message": serr.Error()}})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": gin.H{"message": err.Error()}})
	}
}

// refocus pushes the goal-derived task focus out to the channels after
// a tree change. Best-effort; goal operations already succeeded.
func refocus(c *gin.Context, deps *Deps) {
	_, _, _ = deps.Orchestrator.UpdateState(c.Request.Context(), state.Partial{})
}

// GET /goals
func ListGoalsHandler(deps *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"goals": deps.Goals.List()})
	}
}

// POST /goals
func CreateGoalHandler(deps *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateGoalRequest
		if err := c.ShouldBindJSON(&req); err != nil || req.Name == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"message": "Name required"}})
			return
		}
		id, err := deps.Goals.Add(goal.Spec{
			Name:        req.Name,
			Priority:    req.Priority,
			Independent: req.Independent,
		}, req.ParentID)
		if err != nil {
			goalError(c, err)
			return
		}
		if req.Activate {
			if err := deps.Goals.Activate(id); err != nil {
				goalError(c, err)
				return
			}
			refocus(c, deps)
		}
		g, _ := deps.Goals.Get(id)
		c.JSON(http.StatusCreated, g)
	}
}

// GET /goals/active
func ActiveGoalHandler(deps *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		g := deps.Goals.ActiveGoal()
		if g == nil {
			c.JSON(http.StatusOK, gin.H{"active": nil})
			return
		}
		c.JSON(http.StatusOK, gin.H{"active": g})
	}
}

// GET /goals/:id
func GetGoalHandler(deps *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		g, err := deps.Goals.Get(c.Param("id"))
		if err != nil {
			goalError(c, err)
			return
		}
		c.JSON(http.StatusOK, g)
	}
}

// DELETE /goals/:id
func RemoveGoalHandler(deps *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := deps.Goals.Remove(c.Param("id")); err != nil {
			goalError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"removed": true})
	}
}

// GoalTransitionHandler handles the argument-free lifecycle verbs.
func GoalTransitionHandler(deps *Deps, verb string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		var err error
		switch verb {
		case "activate":
			err = deps.Goals.Activate(id)
		case "suspend":
			err = deps.Goals.Suspend(id)
		case "resume":
			err = deps.Goals.Resume(id)
		case "complete":
			err = deps.Goals.Complete(id)
		}
		if err != nil {
			goalError(c, err)
			return
		}
		refocus(c, deps)
		g, _ := deps.Goals.Get(id)
		c.JSON(http.StatusOK, g)
	}
}

// POST /goals/:id/fail
func FailGoalHandler(deps *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req FailGoalRequest
		_ = c.ShouldBindJSON(&req)
		id := c.Param("id")
		if err := deps.Goals.Fail(id, req.Reason); err != nil {
			goalError(c, err)
			return
		}
		refocus(c, deps)
		g, _ := deps.Goals.Get(id)
		c.JSON(http.StatusOK, g)
	}
}

// POST /goals/:id/interrupt
func InterruptGoalHandler(deps *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req InterruptGoalRequest
		_ = c.ShouldBindJSON(&req)
		replacementID, err := deps.Goals.Interrupt(c.Param("id"), req.Replacement)
		if err != nil {
			goalError(c, err)
			return
		}
		refocus(c, deps)
		resp := gin.H{"interrupted": c.Param("id")}
		if replacementID != "" {
			g, _ := deps.Goals.Get(replacementID)
			resp["replacement"] = g
		}
		c.JSON(http.StatusOK, resp)
	}
}

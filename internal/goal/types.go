package goal

import (
	"errors"
	"fmt"
	"time"
)

// Status defines the lifecycle state of a goal
type Status string

const (
	StatusPending     Status = "pending"
	StatusActive      Status = "active"
	StatusSuspended   Status = "suspended"
	StatusCompleted   Status = "completed"
	StatusFailed      Status = "failed"
	StatusInterrupted Status = "interrupted"
)

// IsTerminal reports whether a status admits no further transitions.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusInterrupted
}

// validTransitions defines the map of allowed state changes
// Key: FromState -> Value: Set of allowed ToStates
var validTransitions = map[Status]map[Status]bool{
	StatusPending: {
		StatusActive:      true,
		StatusInterrupted: true, // interrupt / cascade-cancel
	},
	StatusActive: {
		StatusSuspended:   true,
		StatusCompleted:   true,
		StatusFailed:      true,
		StatusInterrupted: true,
	},
	StatusSuspended: {
		StatusActive:      true, // resume
		StatusInterrupted: true,
	},
	StatusCompleted:   {}, // Terminal
	StatusFailed:      {}, // Terminal
	StatusInterrupted: {}, // Terminal
}

// CanTransition checks if a transition is valid
func CanTransition(from, to Status) bool {
	if allowed, exists := validTransitions[from]; exists {
		return allowed[to]
	}
	return false
}

// Goal is a hierarchical unit of task/activity. Parent and children are
// held as id references into the manager's arena, never as object
// pointers, so traversal and removal stay cycle-free.
type Goal struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Status        Status    `json:"status"`
	Parent        string    `json:"parent,omitempty"`
	Children      []string  `json:"children"`
	Priority      int       `json:"priority"`
	Independent   bool      `json:"independent"`
	FailureReason string    `json:"failure_reason,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Clone returns a defensive copy safe to hand outside the manager.
func (g *Goal) Clone() Goal {
	cp := *g
	cp.Children = append([]string(nil), g.Children...)
	return cp
}

// Spec describes a goal to create.
type Spec struct {
	Name        string `json:"name"`
	Priority    int    `json:"priority"`
	Independent bool   `json:"independent"`
}

// ErrGoalNotFound is returned when an id resolves to no goal in the tree.
var ErrGoalNotFound = errors.New("goal not found")

// GoalStateError reports an illegal transition. The tree is unchanged
// whenever one is returned.
type GoalStateError struct {
	GoalID string
	From   Status
	To     Status
	Reason string
}

func (e *GoalStateError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("goal %s: invalid transition %s -> %s: %s", e.GoalID, e.From, e.To, e.Reason)
	}
	return fmt.Sprintf("goal %s: invalid transition %s -> %s", e.GoalID, e.From, e.To)
}

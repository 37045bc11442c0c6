package goal

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// TransitionListener is a callback function triggered on status changes
type TransitionListener func(goalID string, from, to Status, timestamp time.Time)

type transitionEvent struct {
	goalID string
	from   Status
	to     Status
	at     time.Time
}

// Manager owns the goal tree: an arena of goals indexed by id with
// parent/child stored as id references. Every exported operation,
// including its cascading side effects, runs as one critical section;
// no reader ever observes a half-applied mutation.
type Manager struct {
	mu        sync.Mutex
	goals     map[string]*Goal
	roots     []string
	listeners []TransitionListener
	logger    *Logger
	events    chan transitionEvent
}

// NewManager creates an empty goal manager
func NewManager() *Manager {
	m := &Manager{
		goals:  make(map[string]*Goal),
		logger: NewLogger(),
		events: make(chan transitionEvent, 256),
	}
	go m.notifyLoop()
	return m
}

// notifyLoop delivers transition events to listeners one at a time, in
// the order the transitions were applied, so listeners observe the
// tree's actual sequence.
func (m *Manager) notifyLoop() {
	for evt := range m.events {
		m.mu.Lock()
		listeners := append([]TransitionListener(nil), m.listeners...)
		m.mu.Unlock()
		for _, listener := range listeners {
			listener(evt.goalID, evt.from, evt.to, evt.at)
		}
	}
}

// AddListener registers a callback for status changes
func (m *Manager) AddListener(listener TransitionListener) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, listener)
}

// Add creates a pending goal, optionally under a parent, and returns its id.
func (m *Manager) Add(spec Spec, parentID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.addLocked(spec, parentID)
}

func (m *Manager) addLocked(spec Spec, parentID string) (string, error) {
	if parentID != "" {
		parent, ok := m.goals[parentID]
		if !ok {
			return "", ErrGoalNotFound
		}
		if parent.Status.IsTerminal() {
			return "", &GoalStateError{GoalID: parentID, From: parent.Status, To: parent.Status, Reason: "cannot add a child under a terminal goal"}
		}
	}

	now := time.Now()
	g := &Goal{
		ID:          uuid.New().String(),
		Name:        spec.Name,
		Status:      StatusPending,
		Parent:      parentID,
		Children:    []string{},
		Priority:    spec.Priority,
		Independent: spec.Independent,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	m.goals[g.ID] = g
	if parentID == "" {
		m.roots = append(m.roots, g.ID)
	} else {
		parent := m.goals[parentID]
		parent.Children = append(parent.Children, g.ID)
		parent.UpdatedAt = now
	}
	return g.ID, nil
}

// Activate makes a goal the active one in its sibling group. A pending
// ancestor chain is auto-activated root-down; an already-active sibling
// at any touched level is implicitly suspended first. A terminal
// ancestor rejects the whole operation with the tree unchanged.
func (m *Manager) Activate(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.activateChainLocked(id)
}

func (m *Manager) activateChainLocked(id string) error {
	g, ok := m.goals[id]
	if !ok {
		return ErrGoalNotFound
	}
	if g.Status == StatusActive {
		return nil
	}
	if !CanTransition(g.Status, StatusActive) {
		return &GoalStateError{GoalID: id, From: g.Status, To: StatusActive}
	}

	// Collect the ancestor chain and validate it before touching anything.
	chain := []*Goal{}
	for cur := g.Parent; cur != ""; {
		parent, ok := m.goals[cur]
		if !ok {
			return ErrGoalNotFound
		}
		if parent.Status.IsTerminal() {
			return &GoalStateError{GoalID: id, From: g.Status, To: StatusActive, Reason: "ancestor " + parent.ID + " is " + string(parent.Status)}
		}
		chain = append(chain, parent)
		cur = parent.Parent
	}

	// Activate root-down so the parent-active invariant holds at every step.
	for i := len(chain) - 1; i >= 0; i-- {
		if chain[i].Status != StatusActive {
			if err := m.activateSingleLocked(chain[i]); err != nil {
				return err
			}
		}
	}
	return m.activateSingleLocked(g)
}

// activateSingleLocked activates one goal, suspending whichever sibling
// currently holds the active slot at that level.
func (m *Manager) activateSingleLocked(g *Goal) error {
	for _, sibID := range m.siblingsLocked(g) {
		if sibID == g.ID {
			continue
		}
		sib := m.goals[sibID]
		if sib != nil && sib.Status == StatusActive {
			if err := m.transitionLocked(sib, StatusSuspended, "sibling activated"); err != nil {
				return err
			}
		}
	}
	return m.transitionLocked(g, StatusActive, "activated")
}

func (m *Manager) siblingsLocked(g *Goal) []string {
	if g.Parent == "" {
		return m.roots
	}
	if parent, ok := m.goals[g.Parent]; ok {
		return parent.Children
	}
	return nil
}

// Suspend parks an active goal without resolving it.
func (m *Manager) Suspend(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.goals[id]
	if !ok {
		return ErrGoalNotFound
	}
	if g.Status != StatusActive {
		return &GoalStateError{GoalID: id, From: g.Status, To: StatusSuspended}
	}
	return m.transitionLocked(g, StatusSuspended, "suspended")
}

// Resume reactivates a suspended goal.
func (m *Manager) Resume(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.goals[id]
	if !ok {
		return ErrGoalNotFound
	}
	if g.Status != StatusSuspended {
		return &GoalStateError{GoalID: id, From: g.Status, To: StatusActive, Reason: "resume is only valid for suspended goals"}
	}
	return m.activateChainLocked(id)
}

// Complete resolves an active goal. Pending and unresolved descendants
// are cascade-cancelled unless marked independent.
func (m *Manager) Complete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.goals[id]
	if !ok {
		return ErrGoalNotFound
	}
	if !CanTransition(g.Status, StatusCompleted) {
		return &GoalStateError{GoalID: id, From: g.Status, To: StatusCompleted}
	}
	if err := m.transitionLocked(g, StatusCompleted, "completed"); err != nil {
		return err
	}
	m.cascadeCancelLocked(g, "parent completed")
	return nil
}

// Fail resolves a goal as failed. Terminal and non-retryable at this
// layer; retry decisions belong to the caller.
func (m *Manager) Fail(id string, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.goals[id]
	if !ok {
		return ErrGoalNotFound
	}
	if !CanTransition(g.Status, StatusFailed) {
		return &GoalStateError{GoalID: id, From: g.Status, To: StatusFailed}
	}
	g.FailureReason = reason
	if err := m.transitionLocked(g, StatusFailed, reason); err != nil {
		return err
	}
	m.cascadeCancelLocked(g, "parent failed")
	return nil
}

// Interrupt forcibly resolves a goal regardless of its current status
// (terminal goals excepted), cascades to its unresolved descendants,
// and, when a replacement is given, adds and activates the replacement
// as a sibling in the same logical step. Used when the backend
// supersedes an in-flight task.
func (m *Manager) Interrupt(id string, replacement *Spec) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	g, ok := m.goals[id]
	if !ok {
		return "", ErrGoalNotFound
	}
	if g.Status.IsTerminal() {
		return "", &GoalStateError{GoalID: id, From: g.Status, To: StatusInterrupted, Reason: "goal already terminal"}
	}

	// Validate the replacement's insertion and activation chain before
	// touching the tree; a rejected replacement leaves it unchanged.
	if replacement != nil {
		for cur := g.Parent; cur != ""; {
			parent, ok := m.goals[cur]
			if !ok {
				return "", ErrGoalNotFound
			}
			if parent.Status.IsTerminal() {
				return "", &GoalStateError{GoalID: id, From: g.Status, To: StatusInterrupted, Reason: "replacement cannot activate under terminal ancestor " + parent.ID}
			}
			cur = parent.Parent
		}
	}

	m.cascadeCancelLocked(g, "interrupted")
	if err := m.transitionLocked(g, StatusInterrupted, "interrupted"); err != nil {
		return "", err
	}

	if replacement == nil {
		return "", nil
	}
	replacementID, err := m.addLocked(*replacement, g.Parent)
	if err != nil {
		return "", err
	}
	if err := m.activateChainLocked(replacementID); err != nil {
		return replacementID, err
	}
	return replacementID, nil
}

// cascadeCancelLocked interrupts every unresolved descendant of g,
// skipping subtrees rooted at goals marked independent.
func (m *Manager) cascadeCancelLocked(g *Goal, reason string) {
	for _, childID := range g.Children {
		child, ok := m.goals[childID]
		if !ok || child.Independent || child.Status.IsTerminal() {
			continue
		}
		m.cascadeCancelLocked(child, reason)
		_ = m.transitionLocked(child, StatusInterrupted, reason)
	}
}

// ActiveGoal performs a deterministic deepest-active lookup: from the
// first active root, walk down through children while an active child
// exists. Returns nil when nothing is active.
func (m *Manager) ActiveGoal() *Goal {
	m.mu.Lock()
	defer m.mu.Unlock()

	var current *Goal
	for _, rootID := range m.roots {
		if root := m.goals[rootID]; root != nil && root.Status == StatusActive {
			current = root
			break
		}
	}
	if current == nil {
		return nil
	}

	for {
		var next *Goal
		for _, childID := range current.Children {
			if child := m.goals[childID]; child != nil && child.Status == StatusActive {
				next = child
				break
			}
		}
		if next == nil {
			break
		}
		current = next
	}
	cp := current.Clone()
	return &cp
}

// ActiveGoalName returns the deepest active goal's name, or "".
func (m *Manager) ActiveGoalName() string {
	if g := m.ActiveGoal(); g != nil {
		return g.Name
	}
	return ""
}

// ActivateNext picks the highest-priority pending child of parentID
// (root level when empty) and activates it. Ties break on creation
// time, oldest first. Returns the activated id, or "" when no pending
// sibling exists.
func (m *Manager) ActivateNext(parentID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var siblings []string
	if parentID == "" {
		siblings = m.roots
	} else {
		parent, ok := m.goals[parentID]
		if !ok {
			return "", ErrGoalNotFound
		}
		siblings = parent.Children
	}

	pending := make([]*Goal, 0, len(siblings))
	for _, id := range siblings {
		if g := m.goals[id]; g != nil && g.Status == StatusPending {
			pending = append(pending, g)
		}
	}
	if len(pending) == 0 {
		return "", nil
	}
	sort.SliceStable(pending, func(i, j int) bool {
		if pending[i].Priority != pending[j].Priority {
			return pending[i].Priority > pending[j].Priority
		}
		return pending[i].CreatedAt.Before(pending[j].CreatedAt)
	})

	selected := pending[0]
	if err := m.activateChainLocked(selected.ID); err != nil {
		return "", err
	}
	return selected.ID, nil
}

// Get returns a copy of a goal by id.
func (m *Manager) Get(id string) (Goal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.goals[id]
	if !ok {
		return Goal{}, ErrGoalNotFound
	}
	return g.Clone(), nil
}

// List returns copies of all goals in the arena, roots first in
// insertion order, then each subtree depth-first.
func (m *Manager) List() []Goal {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Goal, 0, len(m.goals))
	var walk func(id string)
	walk = func(id string) {
		g, ok := m.goals[id]
		if !ok {
			return
		}
		out = append(out, g.Clone())
		for _, childID := range g.Children {
			walk(childID)
		}
	}
	for _, rootID := range m.roots {
		walk(rootID)
	}
	return out
}

// Remove deletes a terminal goal and its whole subtree from the arena.
// Children never outlive removal of the tree they belong to.
func (m *Manager) Remove(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	g, ok := m.goals[id]
	if !ok {
		return ErrGoalNotFound
	}
	if !g.Status.IsTerminal() {
		return &GoalStateError{GoalID: id, From: g.Status, To: g.Status, Reason: "only terminal goals can be removed"}
	}

	var drop func(id string)
	drop = func(id string) {
		g, ok := m.goals[id]
		if !ok {
			return
		}
		for _, childID := range g.Children {
			drop(childID)
		}
		delete(m.goals, id)
	}
	drop(id)

	if g.Parent == "" {
		m.roots = removeID(m.roots, id)
	} else if parent, ok := m.goals[g.Parent]; ok {
		parent.Children = removeID(parent.Children, id)
	}
	return nil
}

func removeID(ids []string, id string) []string {
	out := ids[:0]
	for _, cur := range ids {
		if cur != id {
			out = append(out, cur)
		}
	}
	return out
}

// transitionLocked applies one status change, stamps the goal, logs it
// and notifies listeners. Callers hold the manager lock.
func (m *Manager) transitionLocked(g *Goal, to Status, reason string) error {
	from := g.Status
	if !CanTransition(from, to) {
		return &GoalStateError{GoalID: g.ID, From: from, To: to}
	}
	g.Status = to
	now := time.Now()
	g.UpdatedAt = now

	m.logger.LogStateTransition(g.ID, from, to, reason)

	// Queue for the serialized notifier. A full queue drops the event
	// rather than deadlocking the critical section.
	select {
	case m.events <- transitionEvent{goalID: g.ID, from: from, to: to, at: now}:
	default:
		m.logger.LogError("notify", fmt.Errorf("event queue full, dropped transition for %s", g.ID))
	}
	return nil
}

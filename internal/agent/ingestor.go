package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"go-avatar/internal/goal"
	"go-avatar/internal/state"
)

// Response is the structured output of the backend model: an ordered
// list of instructions plus an optional terminal state override.
type Response struct {
	Instructions []Instruction `json:"instructions"`
	NewState     *NewState     `json:"newState,omitempty"`
}

// Instruction is a single tagged directive inside a response. Payload
// stays raw until the kind is known.
type Instruction struct {
	Kind    string          `json:"kind"`
	Payload json.RawMessage `json:"payload"`
}

// NewState is the terminal state block of a response. All fields are
// optional; absent fields keep their current values.
type NewState struct {
	Emotion          *string  `json:"emotion,omitempty"`
	EmotionIntensity *float64 `json:"emotionIntensity,omitempty"`
	TaskFocus        *string  `json:"taskFocus,omitempty"`
}

// Report summarizes one ingested response. Errors holds one entry per
// skipped or failed item, in encounter order.
type Report struct {
	Applied int
	Errors  []error
}

// Messages renders the collected errors for transport.
func (r *Report) Messages() []string {
	msgs := make([]string, 0, len(r.Errors))
	for _, err := range r.Errors {
		msgs = append(msgs, err.Error())
	}
	return msgs
}

type sayPayload struct {
	Text string `json:"text"`
}

type gesturePayload struct {
	Name string `json:"name"`
}

type setEmotionPayload struct {
	Emotion   string   `json:"emotion"`
	Intensity *float64 `json:"intensity,omitempty"`
}

type setGoalPayload struct {
	Name        string `json:"name"`
	ParentID    string `json:"parentId,omitempty"`
	Priority    int    `json:"priority,omitempty"`
	Independent bool   `json:"independent,omitempty"`
}

type interruptGoalPayload struct {
	GoalID      string     `json:"goalId,omitempty"`
	Replacement *goal.Spec `json:"replacement,omitempty"`
}

// Ingestor translates backend responses into orchestrator and goal
// operations. Instructions run strictly in order; a bad one is skipped
// with a recorded error and never aborts the batch.
type Ingestor struct {
	orch  *Orchestrator
	goals *goal.Manager
}

func NewIngestor(orch *Orchestrator, goals *goal.Manager) *Ingestor {
	return &Ingestor{orch: orch, goals: goals}
}

// Apply executes every instruction of the response in order, then
// applies the terminal newState exactly once. The report carries the
// count of applied instructions and every error encountered.
func (in *Ingestor) Apply(ctx context.Context, resp *Response) *Report {
	report := &Report{}
	if resp == nil {
		report.Errors = append(report.Errors, &ValidationError{Field: "response", Reason: "empty response"})
		return report
	}

	for i, instr := range resp.Instructions {
		if err := in.applyInstruction(ctx, instr); err != nil {
			log.Printf("[Ingestor] instruction %d (%s) skipped: %v", i, instr.Kind, err)
			report.Errors = append(report.Errors, err)
			continue
		}
		report.Applied++
	}

	if resp.NewState != nil {
		partial := state.Partial{
			Emotion:   resp.NewState.Emotion,
			Intensity: resp.NewState.EmotionIntensity,
			TaskFocus: resp.NewState.TaskFocus,
		}
		if _, _, err := in.orch.UpdateState(ctx, partial); err != nil {
			log.Printf("[Ingestor] terminal state rejected: %v", err)
			report.Errors = append(report.Errors, err)
		}
	}
	return report
}

func (in *Ingestor) applyInstruction(ctx context.Context, instr Instruction) error {
	switch instr.Kind {
	case "say":
		var p sayPayload
		if err := decodePayload(instr, &p); err != nil {
			return err
		}
		if p.Text == "" {
			return &ValidationError{Field: "say.text", Reason: "text must not be empty"}
		}
		return in.orch.Say(ctx, p.Text)

	case "gesture":
		var p gesturePayload
		if err := decodePayload(instr, &p); err != nil {
			return err
		}
		if p.Name == "" {
			return &ValidationError{Field: "gesture.name", Reason: "name must not be empty"}
		}
		return in.orch.Gesture(ctx, p.Name)

	case "setEmotion":
		var p setEmotionPayload
		if err := decodePayload(instr, &p); err != nil {
			return err
		}
		partial := state.Partial{Emotion: &p.Emotion, Intensity: p.Intensity}
		_, _, err := in.orch.UpdateState(ctx, partial)
		return err

	case "setGoal":
		var p setGoalPayload
		if err := decodePayload(instr, &p); err != nil {
			return err
		}
		if p.Name == "" {
			return &ValidationError{Field: "setGoal.name", Reason: "name must not be empty"}
		}
		id, err := in.goals.Add(goal.Spec{Name: p.Name, Priority: p.Priority, Independent: p.Independent}, p.ParentID)
		if err != nil {
			return err
		}
		if err := in.goals.Activate(id); err != nil {
			return err
		}
		// Activation changed the focus; refresh the channels.
		_, _, err = in.orch.UpdateState(ctx, state.Partial{})
		return err

	case "interruptGoal":
		var p interruptGoalPayload
		if err := decodePayload(instr, &p); err != nil {
			return err
		}
		targetID := p.GoalID
		if targetID == "" {
			active := in.goals.ActiveGoal()
			if active == nil {
				return &ValidationError{Field: "interruptGoal.goalId", Reason: "no active goal to interrupt"}
			}
			targetID = active.ID
		}
		if _, err := in.goals.Interrupt(targetID, p.Replacement); err != nil {
			return err
		}
		_, _, err := in.orch.UpdateState(ctx, state.Partial{})
		return err

	case "setStyle":
		if len(instr.Payload) == 0 {
			return &ValidationError{Field: "setStyle.payload", Reason: "descriptor must not be empty"}
		}
		return in.orch.SetStyle(ctx, instr.Payload)

	default:
		return &ValidationError{
			Field:  "instruction.kind",
			Reason: fmt.Sprintf("unknown kind %q", instr.Kind),
		}
	}
}

func decodePayload(instr Instruction, dst interface{}) error {
	if len(instr.Payload) == 0 {
		return &ValidationError{Field: instr.Kind + ".payload", Reason: "payload missing"}
	}
	if err := json.Unmarshal(instr.Payload, dst); err != nil {
		return &ValidationError{Field: instr.Kind + ".payload", Reason: err.Error()}
	}
	return nil
}

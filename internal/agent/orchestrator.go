package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"

	"go-avatar/internal/channel"
	"go-avatar/internal/goal"
	"go-avatar/internal/memory"
	"go-avatar/internal/state"
)

// DispatchReport collects per-channel outcomes of one update cycle.
// The orchestrator never blocks on it; callers that care call Wait.
type DispatchReport struct {
	Version uint64

	wg   sync.WaitGroup
	mu   sync.Mutex
	errs []*channel.Error
}

// Wait blocks until every channel of the cycle has resolved and returns
// the collected failures. An empty slice means all channels applied.
func (r *DispatchReport) Wait() []*channel.Error {
	r.wg.Wait()
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*channel.Error(nil), r.errs...)
}

func (r *DispatchReport) record(err *channel.Error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errs = append(r.errs, err)
}

// Orchestrator is the single state-resolution choke point. Every state
// change flows through UpdateState; channels are stateless renderers
// fed the same resolved snapshot, so no two channels can disagree about
// what they saw.
type Orchestrator struct {
	store    *state.Store
	persist  *state.Manager
	goals    *goal.Manager
	memories memory.Sink

	heart   *channel.HeartAdapter
	face    *channel.FaceAdapter
	posture *channel.PostureAdapter
	style   *channel.StyleAdapter
	speech  *channel.SpeechAdapter
}

// NewOrchestrator wires the orchestrator to its collaborators. persist
// may be nil when the state is not backed by a database.
func NewOrchestrator(
	store *state.Store,
	persist *state.Manager,
	goals *goal.Manager,
	memories memory.Sink,
	heart *channel.HeartAdapter,
	face *channel.FaceAdapter,
	posture *channel.PostureAdapter,
	styleAdapter *channel.StyleAdapter,
	speech *channel.SpeechAdapter,
) *Orchestrator {
	return &Orchestrator{
		store:    store,
		persist:  persist,
		goals:    goals,
		memories: memories,
		heart:    heart,
		face:     face,
		posture:  posture,
		style:    styleAdapter,
		speech:   speech,
	}
}

// Snapshot returns the current versioned state.
func (o *Orchestrator) Snapshot() state.Snapshot {
	return o.store.Snapshot()
}

// UpdateState resolves a partial against the current state, writes the
// result atomically, then dispatches it to the channels in fixed order:
// heart, face, posture, style. Speech parameters are read lazily at
// speech time and are never pushed here.
//
// A failing channel never prevents the others from receiving the
// update; failures accumulate in the returned report. An empty partial
// re-dispatches the unchanged snapshot.
func (o *Orchestrator) UpdateState(ctx context.Context, partial state.Partial) (state.ExpressiveState, *DispatchReport, error) {
	if partial.Emotion != nil {
		if err := state.ValidateEmotion(*partial.Emotion); err != nil {
			return o.store.Snapshot().ExpressiveState, nil, &ValidationError{Field: "emotion", Reason: err.Error()}
		}
	}

	focus := state.TaskFocusIdle
	if partial.TaskFocus != nil {
		focus = *partial.TaskFocus
	} else if name := o.goals.ActiveGoalName(); name != "" {
		focus = name
	}

	// Resolve against the current state inside the store's write lock,
	// so concurrent partials with disjoint fields both land.
	snap := o.store.Update(func(cur state.ExpressiveState) state.ExpressiveState {
		if partial.Emotion != nil {
			cur.Emotion = state.Emotion(*partial.Emotion)
		}
		if partial.Intensity != nil {
			cur.Intensity = state.ClampIntensity(*partial.Intensity)
		}
		cur.TaskFocus = focus
		return cur
	})

	if o.persist != nil {
		if err := o.persist.Save(ctx, snap, nil); err != nil {
			log.Printf("[Orchestrator] state persistence failed: %v", err)
		}
	}

	// The state-change record is emitted for every accepted update,
	// even when channels fail afterwards.
	o.remember(ctx, &memory.Record{
		Type:      memory.RecordStateChange,
		Emotion:   string(snap.Emotion),
		Intensity: snap.Intensity,
		TaskFocus: snap.TaskFocus,
		Timestamp: snap.At,
	})

	report := o.dispatch(ctx, channel.Snapshot{Snapshot: snap})
	return snap.ExpressiveState, report, nil
}

// dispatch fans the snapshot out without blocking the caller. Adapters
// are invoked sequentially inside one goroutine, so the channel order
// is deterministic per update while completion remains asynchronous.
func (o *Orchestrator) dispatch(ctx context.Context, snap channel.Snapshot) *DispatchReport {
	report := &DispatchReport{Version: snap.Version}
	adapters := []channel.Adapter{o.heart, o.face, o.posture, o.style}

	report.wg.Add(1)
	go func() {
		defer report.wg.Done()
		for _, a := range adapters {
			o.applyOne(ctx, a, snap, report)
		}
	}()
	return report
}

func (o *Orchestrator) applyOne(ctx context.Context, a channel.Adapter, snap channel.Snapshot, report *DispatchReport) {
	defer func() {
		if r := recover(); r != nil {
			cerr := channel.NewError(a.Name(), fmt.Errorf("adapter panic: %v", r))
			log.Printf("[Orchestrator] %v", cerr)
			report.record(cerr)
		}
	}()
	if err := a.Apply(ctx, snap); err != nil {
		cerr := channel.NewError(a.Name(), err)
		log.Printf("[Orchestrator] %v", cerr)
		report.record(cerr)
	}
}

// Say speaks a text with lazily read prosody and logs the utterance.
func (o *Orchestrator) Say(ctx context.Context, text string) error {
	if err := o.speech.Say(ctx, text); err != nil {
		return channel.NewError(o.speech.Name(), err)
	}
	snap := o.store.Snapshot()
	o.remember(ctx, &memory.Record{
		Type:      memory.RecordUtterance,
		Emotion:   string(snap.Emotion),
		Intensity: snap.Intensity,
		TaskFocus: snap.TaskFocus,
		Timestamp: snap.At,
	})
	return nil
}

// Gesture plays a one-shot gesture scaled by the current state.
func (o *Orchestrator) Gesture(ctx context.Context, name string) error {
	snap := channel.Snapshot{Snapshot: o.store.Snapshot()}
	if err := o.posture.PerformGesture(ctx, snap, name); err != nil {
		return channel.NewError(o.posture.Name(), err)
	}
	return nil
}

// SetStyle pushes an externally supplied style descriptor as a one-shot.
func (o *Orchestrator) SetStyle(ctx context.Context, descriptor json.RawMessage) error {
	snap := channel.Snapshot{Snapshot: o.store.Snapshot()}
	if err := o.style.ApplyDescriptor(ctx, snap, descriptor); err != nil {
		return channel.NewError(o.style.Name(), err)
	}
	return nil
}

func (o *Orchestrator) remember(ctx context.Context, record *memory.Record) {
	if o.memories == nil {
		return
	}
	if err := o.memories.Remember(ctx, record); err != nil {
		log.Printf("[Orchestrator] memory append failed: %v", err)
	}
}

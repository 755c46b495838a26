// Package flow is the turn-based dialogue state machine: one handler per
// step, an exhaustive switch over the closed step enum, and a per-message
// orchestrator that executes exactly one handler per inbound utterance.
package flow

import (
	"context"
	"errors"
	"fmt"
	"time"

	contractx "github.com/voxcal/voxcal/agent/contract"
	statex "github.com/voxcal/voxcal/agent/state"
)

// SlotExtractor runs one extraction pass over an utterance, merging any newly
// discovered slot values into the state. Implementations never fail outward.
type SlotExtractor interface {
	Extract(ctx context.Context, st *statex.ConversationState, utterance string)
}

type Config struct {
	// EventDuration is the booked length of a meeting.
	EventDuration time.Duration
	// OfferNewLoop keeps the session alive after a successful booking and
	// offers to schedule another meeting.
	OfferNewLoop bool
}

// Router maps the current step to its handler and executes it. Handlers both
// compute the next step and compose the outgoing message; there is no static
// transition table.
type Router struct {
	extractor SlotExtractor
	responder contractx.Responder
	calendar  contractx.EventCreator

	eventDuration time.Duration
	offerNewLoop  bool

	now func() time.Time
}

func NewRouter(extractor SlotExtractor, responder contractx.Responder, calendar contractx.EventCreator, cfg Config) (*Router, error) {
	if extractor == nil {
		return nil, errors.New("slot extractor is required")
	}
	if responder == nil {
		responder = staticResponder{}
	}

	duration := cfg.EventDuration
	if duration <= 0 {
		duration = 30 * time.Minute
	}

	return &Router{
		extractor:     extractor,
		responder:     responder,
		calendar:      calendar,
		eventDuration: duration,
		offerNewLoop:  cfg.OfferNewLoop,
		now:           time.Now,
	}, nil
}

// WithClock overrides the wall clock. Test hook.
func (r *Router) WithClock(now func() time.Time) *Router {
	if now != nil {
		r.now = now
	}
	return r
}

// RunStep executes the handler for the state's current step. The switch is
// exhaustive over the step enum; st.Step must already be resolved through
// state.Resume, so terminal and unknown values cannot reach here.
func (r *Router) RunStep(ctx context.Context, st *statex.ConversationState) error {
	if st == nil {
		return fmt.Errorf("%w: conversation state is nil", contractx.ErrValidation)
	}

	switch st.Step {
	case statex.StepStart:
		return r.handleStart(ctx, st)
	case statex.StepAskName:
		return r.handleAskName(ctx, st)
	case statex.StepAskDatetime:
		return r.handleAskDatetime(ctx, st)
	case statex.StepAskTitle:
		return r.handleAskTitle(ctx, st)
	case statex.StepConfirmDetails:
		return r.handleConfirmDetails(ctx, st)
	case statex.StepAwaitConfirmation:
		return r.handleAwaitConfirmation(ctx, st)
	case statex.StepHandleNewLoop:
		return r.handleNewLoop(ctx, st)
	case statex.StepEnd:
		return fmt.Errorf("%w: terminal step must be resumed before dispatch", contractx.ErrValidation)
	}
	return fmt.Errorf("%w: unhandled step %q", contractx.ErrValidation, st.Step)
}

func (r *Router) compose(ctx context.Context, st *statex.ConversationState, goal, note, fallback string) string {
	return r.responder.Compose(ctx, contractx.ComposeRequest{
		Goal:            goal,
		ContextNote:     note,
		Fallback:        fallback,
		Name:            st.Name,
		MeetingTitle:    st.MeetingTitle,
		MeetingDatetime: st.MeetingDatetime,
		LastUserMessage: st.LastUserMessage,
	})
}

type staticResponder struct{}

func (staticResponder) Compose(_ context.Context, req contractx.ComposeRequest) string {
	return req.Fallback
}

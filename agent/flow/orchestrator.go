package flow

import (
	"context"

	"github.com/rs/zerolog/log"

	statex "github.com/voxcal/voxcal/agent/state"
)

const recoveryMessage = "Oops! Something went wrong. Let's start over."

// Orchestrator drives one turn: record the inbound message, resolve the
// resumption step, run exactly one handler. Any unexpected failure, panics
// included, resets the session to the initial step with a generic apology
// instead of propagating, so the conversation stays usable at the cost of one
// turn's context.
type Orchestrator struct {
	router *Router
}

func NewOrchestrator(router *Router) *Orchestrator {
	return &Orchestrator{router: router}
}

// Turn processes one inbound user message against st. The state is mutated in
// place; after Turn returns, st.SystemMessage holds the text to relay and
// st.Step the resulting step.
func (o *Orchestrator) Turn(ctx context.Context, st *statex.ConversationState, userMessage string) {
	if st == nil {
		return
	}

	defer func() {
		if rec := recover(); rec != nil {
			log.Error().Interface("panic", rec).Str("session_id", st.SessionID).Msg("step execution panicked")
			recoverState(st)
		}
	}()

	st.LastUserMessage = userMessage
	st.Step = statex.Resume(st.Step)

	if err := o.router.RunStep(ctx, st); err != nil {
		log.Error().Err(err).Str("session_id", st.SessionID).Str("step", string(st.Step)).Msg("step execution failed")
		recoverState(st)
	}
}

func recoverState(st *statex.ConversationState) {
	st.Step = statex.StepStart
	st.SystemMessage = recoveryMessage
}

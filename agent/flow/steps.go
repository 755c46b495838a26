package flow

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	contractx "github.com/voxcal/voxcal/agent/contract"
	statex "github.com/voxcal/voxcal/agent/state"
)

const defaultMeetingTitle = "Meeting"

// skipVocabulary lets the user decline the optional title slot outright.
var skipVocabulary = map[string]struct{}{
	"no":         {},
	"nope":       {},
	"skip":       {},
	"none":       {},
	"not needed": {},
}

func (r *Router) handleStart(ctx context.Context, st *statex.ConversationState) error {
	if st.Name != "" {
		st.SystemMessage = r.compose(ctx, st,
			"Greet the returning user by name and ask when they want the meeting",
			"",
			fmt.Sprintf("Welcome back, %s! When would you like to schedule the meeting?", st.Name),
		)
		st.Step = statex.StepAskDatetime
		return nil
	}

	st.SystemMessage = r.compose(ctx, st,
		"Greet the user and ask for their name",
		"",
		"Hi! I can help you schedule a meeting. Let's start with your name.",
	)
	st.Step = statex.StepAskName
	return nil
}

func (r *Router) handleAskName(ctx context.Context, st *statex.ConversationState) error {
	r.extractor.Extract(ctx, st, st.LastUserMessage)

	if st.Name == "" {
		st.SystemMessage = r.compose(ctx, st,
			"Ask the user for their name again",
			"No valid name was understood from the last message",
			"Sorry, I didn't catch that. Could you please tell me your name?",
		)
		st.Step = statex.StepAskName
		return nil
	}

	st.SystemMessage = r.compose(ctx, st,
		"Acknowledge the user's name and ask for the meeting date and time",
		"",
		fmt.Sprintf("Nice to meet you, %s. When would you like to schedule the meeting?", st.Name),
	)
	st.Step = statex.StepAskDatetime
	return nil
}

func (r *Router) handleAskDatetime(ctx context.Context, st *statex.ConversationState) error {
	r.extractor.Extract(ctx, st, st.LastUserMessage)

	if st.MeetingDatetime == nil {
		st.SystemMessage = r.compose(ctx, st,
			"Ask the user for the meeting date and time again",
			"No valid future date and time was understood from the last message",
			"Sorry, I didn't catch a date and time. When should the meeting be? You can say something like tomorrow at 5pm.",
		)
		st.Step = statex.StepAskDatetime
		return nil
	}

	st.SystemMessage = r.compose(ctx, st,
		"Ask whether the user wants to add a meeting title, mentioning they can skip it",
		"",
		"Got it. Would you like to add a title for the meeting? You can say no to skip.",
	)
	st.Step = statex.StepAskTitle
	return nil
}

func (r *Router) handleAskTitle(ctx context.Context, st *statex.ConversationState) error {
	if wantsToSkip(st.LastUserMessage) {
		st.SystemMessage = r.compose(ctx, st,
			"Tell the user you will confirm the meeting details next",
			"The user skipped the optional title",
			"No problem. Let me confirm the details with you.",
		)
		st.Step = statex.StepConfirmDetails
		return nil
	}

	r.extractor.Extract(ctx, st, st.LastUserMessage)

	if st.MeetingTitle == "" {
		st.SystemMessage = r.compose(ctx, st,
			"Ask the user for an optional meeting title again",
			"No valid title was understood from the last message",
			"Do you want to add a title for the meeting? You can say no.",
		)
		st.Step = statex.StepAskTitle
		return nil
	}

	st.SystemMessage = r.compose(ctx, st,
		"Tell the user you will confirm the meeting details next",
		"",
		"Alright. Let me confirm the details with you.",
	)
	st.Step = statex.StepConfirmDetails
	return nil
}

// handleConfirmDetails composes a deterministic summary so repeated runs on
// unchanged state produce the same text. No extraction happens here.
func (r *Router) handleConfirmDetails(_ context.Context, st *statex.ConversationState) error {
	name := st.Name
	if name == "" {
		name = "<name missing>"
	}

	datePart := "an unspecified time"
	if st.MeetingDatetime != nil {
		datePart = st.MeetingDatetime.Format(contractx.SpokenTimeLayout)
	}

	titlePart := ""
	if st.MeetingTitle != "" {
		titlePart = fmt.Sprintf(" titled '%s'", st.MeetingTitle)
	}

	st.SystemMessage = fmt.Sprintf(
		"Please confirm: a meeting for %s on %s%s. Should I go ahead and create it?",
		name, datePart, titlePart,
	)
	st.Step = statex.StepAwaitConfirmation
	return nil
}

func (r *Router) handleAwaitConfirmation(ctx context.Context, st *statex.ConversationState) error {
	switch r.classifyConfirmation(ctx, st) {
	case statex.ConfirmationYes:
		return r.createMeeting(ctx, st)

	case statex.ConfirmationNo:
		st.IsConfirmed = false
		st.SystemMessage = r.compose(ctx, st,
			"Acknowledge that the meeting was not created",
			"The user declined the confirmation",
			"Okay, the meeting was not created. You can start over if you like.",
		)
		st.Step = statex.StepEnd
		return nil
	}

	st.SystemMessage = r.compose(ctx, st,
		"Ask the user to answer with yes or no",
		"The confirmation answer was not understood",
		"I didn't understand that. Please reply with yes or no.",
	)
	st.Step = statex.StepAwaitConfirmation
	return nil
}

func (r *Router) handleNewLoop(ctx context.Context, st *statex.ConversationState) error {
	switch r.classifyConfirmation(ctx, st) {
	case statex.ConfirmationYes:
		st.ResetSlots()
		st.SystemMessage = r.compose(ctx, st,
			"Start a new booking by asking for the user's name",
			"The previous booking finished and the user wants another one",
			"Great, let's set up another meeting. What's your name?",
		)
		st.Step = statex.StepAskName
		return nil

	case statex.ConfirmationNo:
		st.SystemMessage = r.compose(ctx, st,
			"Say goodbye",
			"",
			"Okay! Have a great day.",
		)
		st.Step = statex.StepEnd
		return nil
	}

	st.SystemMessage = r.compose(ctx, st,
		"Ask whether the user wants to schedule another meeting, yes or no",
		"The answer was not understood",
		"Would you like to schedule another meeting? Please say yes or no.",
	)
	st.Step = statex.StepHandleNewLoop
	return nil
}

// classifyConfirmation re-derives the confirmation status fresh: the stored
// status is cleared, extraction runs, and when the provider yields nothing a
// small lexical vocabulary decides. Unclassifiable input reads as uncertain.
func (r *Router) classifyConfirmation(ctx context.Context, st *statex.ConversationState) statex.ConfirmationStatus {
	st.ConfirmationStatus = statex.ConfirmationUnset
	r.extractor.Extract(ctx, st, st.LastUserMessage)

	if st.ConfirmationStatus == statex.ConfirmationUnset {
		st.ConfirmationStatus = lexicalConfirmation(st.LastUserMessage)
	}
	return st.ConfirmationStatus
}

var (
	affirmations = map[string]struct{}{
		"yes": {}, "yeah": {}, "yep": {}, "sure": {}, "go ahead": {}, "ok": {}, "okay": {},
	}
	negations = map[string]struct{}{
		"no": {}, "nah": {}, "nope": {}, "cancel": {},
	}
)

func lexicalConfirmation(utterance string) statex.ConfirmationStatus {
	normalized := normalizeUtterance(utterance)
	if _, ok := affirmations[normalized]; ok {
		return statex.ConfirmationYes
	}
	if _, ok := negations[normalized]; ok {
		return statex.ConfirmationNo
	}
	return statex.ConfirmationUncertain
}

func (r *Router) createMeeting(ctx context.Context, st *statex.ConversationState) error {
	title := st.MeetingTitle
	if title == "" {
		title = defaultMeetingTitle
	}

	var err error
	switch {
	case r.calendar == nil:
		err = fmt.Errorf("%w: no calendar configured", contractx.ErrCalendarCreate)
	case st.MeetingDatetime == nil:
		err = fmt.Errorf("%w: no meeting time collected", contractx.ErrCalendarCreate)
	default:
		_, err = r.calendar.CreateEvent(ctx, contractx.CalendarEvent{
			Title:       title,
			Start:       *st.MeetingDatetime,
			Duration:    r.eventDuration,
			Description: fmt.Sprintf("Scheduled by voice assistant for %s.", st.Name),
			Timezone:    st.Timezone,
		})
	}

	if err != nil {
		log.Error().Err(err).Str("session_id", st.SessionID).Msg("calendar event creation failed")
		st.IsConfirmed = false
		st.SystemMessage = r.compose(ctx, st,
			"Apologize that the meeting could not be created",
			"Calendar event creation failed",
			"Sorry, I couldn't create the meeting. Please try again later.",
		)
		st.Step = statex.StepEnd
		return nil
	}

	st.IsConfirmed = true
	if r.offerNewLoop {
		st.SystemMessage = r.compose(ctx, st,
			"Confirm the meeting was created and offer to schedule another one",
			"",
			"Your meeting has been created! Would you like to schedule another one?",
		)
		st.Step = statex.StepHandleNewLoop
		return nil
	}

	st.SystemMessage = r.compose(ctx, st,
		"Confirm the meeting was created",
		"",
		"Your meeting has been created!",
	)
	st.Step = statex.StepEnd
	return nil
}

func wantsToSkip(utterance string) bool {
	_, ok := skipVocabulary[normalizeUtterance(utterance)]
	return ok
}

func normalizeUtterance(utterance string) string {
	return strings.Trim(strings.ToLower(strings.TrimSpace(utterance)), ".!?,")
}

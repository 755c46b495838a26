package state

import (
	"strings"
	"time"
)

// Step is the closed set of positions in the scheduling conversation. The
// router dispatches on this enum with an exhaustive switch; there is no
// runtime handler lookup.
type Step string

const (
	StepStart             Step = "START"
	StepAskName           Step = "ASK_NAME"
	StepAskDatetime       Step = "ASK_DATETIME"
	StepAskTitle          Step = "ASK_TITLE"
	StepConfirmDetails    Step = "CONFIRM_DETAILS"
	StepAwaitConfirmation Step = "AWAIT_CONFIRMATION"
	StepHandleNewLoop     Step = "HANDLE_NEW_LOOP"
	StepEnd               Step = "END"
)

// Steps lists every member of the enumeration, in flow order.
func Steps() []Step {
	return []Step{
		StepStart,
		StepAskName,
		StepAskDatetime,
		StepAskTitle,
		StepConfirmDetails,
		StepAwaitConfirmation,
		StepHandleNewLoop,
		StepEnd,
	}
}

func (s Step) Known() bool {
	switch s {
	case StepStart, StepAskName, StepAskDatetime, StepAskTitle,
		StepConfirmDetails, StepAwaitConfirmation, StepHandleNewLoop, StepEnd:
		return true
	}
	return false
}

func (s Step) Terminal() bool {
	return s == StepEnd
}

// Resume maps a stored step to the step a turn starts at. A recognized
// in-flight step resumes in place; anything unrecognized or terminal restarts
// the flow. Kept separate from the per-step transition logic so resumption
// policy is testable on its own.
func Resume(s Step) Step {
	if !s.Known() || s.Terminal() {
		return StepStart
	}
	return s
}

// ConfirmationStatus is the classified yes/no intent of a confirmation
// utterance. Unlike the slot fields it is re-derived fresh each time the
// confirmation handlers run.
type ConfirmationStatus string

const (
	ConfirmationUnset     ConfirmationStatus = ""
	ConfirmationYes       ConfirmationStatus = "yes"
	ConfirmationNo        ConfirmationStatus = "no"
	ConfirmationUncertain ConfirmationStatus = "uncertain"
)

// ParseConfirmation normalizes a provider confirmation token. Unknown tokens
// report false and must leave the session status untouched.
func ParseConfirmation(raw string) (ConfirmationStatus, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "yes":
		return ConfirmationYes, true
	case "no":
		return ConfirmationNo, true
	case "uncertain":
		return ConfirmationUncertain, true
	}
	return ConfirmationUnset, false
}

// ConversationState is the authoritative source of truth for one session.
// It drives the workflow, not the LLM. Owned exclusively by the session's
// connection; created on connect, discarded on disconnect.
type ConversationState struct {
	SessionID string `json:"session_id"`
	Step      Step   `json:"step"`
	Timezone  string `json:"timezone"`

	// Collected slots. Empty/nil means unset; once set they are only
	// cleared together by ResetSlots.
	Name            string     `json:"name,omitempty"`
	MeetingTitle    string     `json:"meeting_title,omitempty"`
	MeetingDatetime *time.Time `json:"meeting_datetime,omitempty"`

	// IO fields, overwritten every turn.
	LastUserMessage string `json:"last_user_message,omitempty"`
	SystemMessage   string `json:"system_message,omitempty"`

	IsConfirmed        bool               `json:"is_confirmed"`
	ConfirmationStatus ConfirmationStatus `json:"confirmation_status,omitempty"`

	UpdatedAt time.Time `json:"updated_at"`
}

func New(sessionID, timezone string, now time.Time) *ConversationState {
	return &ConversationState{
		SessionID: sessionID,
		Step:      StepStart,
		Timezone:  timezone,
		UpdatedAt: now.UTC(),
	}
}

func (s *ConversationState) Touch(now time.Time) {
	s.UpdatedAt = now.UTC()
}

// Location resolves the session timezone, falling back to UTC when the stored
// name does not load.
func (s *ConversationState) Location() *time.Location {
	if s == nil || strings.TrimSpace(s.Timezone) == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Extraction is the validated outcome of one extraction pass. Zero values
// mean "nothing new for that field".
type Extraction struct {
	Name            string
	MeetingTitle    string
	MeetingDatetime *time.Time
	Confirmation    ConfirmationStatus
}

// Merge applies one extraction to the session. Slot fields are
// first-write-wins: a value already present is never overwritten. The
// confirmation status is not a slot and is replaced whenever the extraction
// classified one. This is the single enforcement point of the slot
// monotonicity invariant.
func (s *ConversationState) Merge(ext Extraction, now time.Time) {
	if s == nil {
		return
	}

	if ext.Name != "" && s.Name == "" {
		s.Name = ext.Name
	}
	if ext.MeetingTitle != "" && s.MeetingTitle == "" {
		s.MeetingTitle = ext.MeetingTitle
	}
	if ext.MeetingDatetime != nil && s.MeetingDatetime == nil {
		dt := *ext.MeetingDatetime
		s.MeetingDatetime = &dt
	}
	if ext.Confirmation != ConfirmationUnset {
		s.ConfirmationStatus = ext.Confirmation
	}

	s.Touch(now)
}

// ResetSlots clears all three slot fields and the confirmation status
// together, starting a fresh booking attempt within the same session.
func (s *ConversationState) ResetSlots() {
	if s == nil {
		return
	}
	s.Name = ""
	s.MeetingTitle = ""
	s.MeetingDatetime = nil
	s.ConfirmationStatus = ConfirmationUnset
	s.IsConfirmed = false
}

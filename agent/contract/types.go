package contract

import "time"

// SpokenTimeLayout renders instants the way replies speak them, shared by the
// confirmation summary and the generator context.
const SpokenTimeLayout = "Monday, 02 January 2006 at 03:04 PM"

// ExtractionFields is the fixed schema the understanding provider must return.
// A payload carrying anything outside these keys is discarded whole; there is
// no partial merge.
type ExtractionFields struct {
	Name                string `json:"name,omitempty"`
	MeetingTitle        string `json:"meeting_title,omitempty"`
	MeetingDatetimeText string `json:"meeting_datetime_text,omitempty"`
	ConfirmationStatus  string `json:"confirmation_status,omitempty"`
}

// CalendarEvent describes one event to create.
type CalendarEvent struct {
	Title       string
	Start       time.Time
	Duration    time.Duration
	Description string
	Timezone    string

	// AccessToken optionally scopes the creation to the caller's own
	// calendar instead of the configured service account.
	AccessToken string
}

// CreatedEvent is the opaque result of a successful creation.
type CreatedEvent struct {
	EventID  string
	HTMLLink string
	Status   string
}

// ComposeRequest carries what a responder needs to phrase one outgoing reply.
// Fallback is the static phrasing used when dynamic generation is unavailable.
type ComposeRequest struct {
	Goal        string
	ContextNote string
	Fallback    string

	Name            string
	MeetingTitle    string
	MeetingDatetime *time.Time
	LastUserMessage string
}

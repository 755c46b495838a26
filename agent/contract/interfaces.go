package contract

import "context"

// UnderstandingProvider turns one raw utterance into the provider's textual
// response, expected (but not trusted) to be an ExtractionFields JSON object.
type UnderstandingProvider interface {
	Understand(ctx context.Context, utterance string) (string, error)
}

// Responder phrases one outgoing reply. Implementations must not fail: when
// generation is unavailable they return the request's fallback text.
type Responder interface {
	Compose(ctx context.Context, req ComposeRequest) string
}

// EventCreator creates calendar events. Failure is reported as a single
// distinguishable error kind (ErrCalendarCreate), never partial success.
type EventCreator interface {
	CreateEvent(ctx context.Context, ev CalendarEvent) (CreatedEvent, error)
}

// Transcriber converts one utterance of audio into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte) (string, error)
}

// Synthesizer renders one reply as audio.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

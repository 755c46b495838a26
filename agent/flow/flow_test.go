package flow

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	contractx "github.com/voxcal/voxcal/agent/contract"
	statex "github.com/voxcal/voxcal/agent/state"
)

var fixedNow = time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)

// scriptedExtractor merges a fixed extraction per exact utterance. Utterances
// without a script entry yield nothing, like a provider that understood
// nothing.
type scriptedExtractor struct {
	script map[string]statex.Extraction
	calls  int
}

func (s *scriptedExtractor) Extract(_ context.Context, st *statex.ConversationState, utterance string) {
	s.calls++
	if ext, ok := s.script[utterance]; ok {
		st.Merge(ext, fixedNow)
	}
}

type panickingExtractor struct{}

func (panickingExtractor) Extract(context.Context, *statex.ConversationState, string) {
	panic("extractor exploded")
}

type fakeCalendar struct {
	err    error
	calls  int
	events []contractx.CalendarEvent
}

func (f *fakeCalendar) CreateEvent(_ context.Context, ev contractx.CalendarEvent) (contractx.CreatedEvent, error) {
	f.calls++
	f.events = append(f.events, ev)
	if f.err != nil {
		return contractx.CreatedEvent{}, f.err
	}
	return contractx.CreatedEvent{EventID: "evt-1", Status: "confirmed"}, nil
}

func newTestRouter(t *testing.T, extractor SlotExtractor, calendar contractx.EventCreator, cfg Config) *Router {
	t.Helper()
	router, err := NewRouter(extractor, nil, calendar, cfg)
	if err != nil {
		t.Fatalf("NewRouter() error = %v", err)
	}
	return router.WithClock(func() time.Time { return fixedNow })
}

func meetingTime() *time.Time {
	dt := time.Date(2026, 1, 11, 17, 0, 0, 0, time.UTC)
	return &dt
}

func TestHappyPathBooking(t *testing.T) {
	t.Parallel()

	extractor := &scriptedExtractor{script: map[string]statex.Extraction{
		"I'm Alice":         {Name: "Alice"},
		"tomorrow at 5pm":   {MeetingDatetime: meetingTime()},
		"call it Team Sync": {MeetingTitle: "Team Sync"},
		"yes":               {Confirmation: statex.ConfirmationYes},
	}}
	calendar := &fakeCalendar{}
	orch := NewOrchestrator(newTestRouter(t, extractor, calendar, Config{EventDuration: 45 * time.Minute}))

	st := statex.New("s1", "UTC", fixedNow)
	ctx := context.Background()

	turns := []struct {
		message  string
		wantStep statex.Step
	}{
		{"", statex.StepAskName},
		{"I'm Alice", statex.StepAskDatetime},
		{"tomorrow at 5pm", statex.StepAskTitle},
		{"call it Team Sync", statex.StepConfirmDetails},
		{"ok", statex.StepAwaitConfirmation},
		{"yes", statex.StepEnd},
	}

	for _, turn := range turns {
		orch.Turn(ctx, st, turn.message)
		if st.Step != turn.wantStep {
			t.Fatalf("after %q: step = %q, want %q", turn.message, st.Step, turn.wantStep)
		}
		if st.SystemMessage == "" {
			t.Fatalf("after %q: no system message composed", turn.message)
		}
	}

	if !st.IsConfirmed {
		t.Fatal("booking not marked confirmed")
	}
	if calendar.calls != 1 {
		t.Fatalf("calendar calls = %d, want 1", calendar.calls)
	}

	ev := calendar.events[0]
	if ev.Title != "Team Sync" {
		t.Fatalf("event title = %q, want Team Sync", ev.Title)
	}
	if !ev.Start.Equal(*meetingTime()) {
		t.Fatalf("event start = %v, want %v", ev.Start, *meetingTime())
	}
	if ev.Duration != 45*time.Minute {
		t.Fatalf("event duration = %v, want 45m", ev.Duration)
	}
	if ev.Timezone != "UTC" {
		t.Fatalf("event timezone = %q, want UTC", ev.Timezone)
	}
}

func TestDeclineAtConfirmationSkipsCalendar(t *testing.T) {
	t.Parallel()

	// No script entries at all: the provider understands nothing and the
	// lexical fallback alone must carry the decline.
	extractor := &scriptedExtractor{}
	calendar := &fakeCalendar{}
	orch := NewOrchestrator(newTestRouter(t, extractor, calendar, Config{}))

	st := statex.New("s1", "UTC", fixedNow)
	st.Step = statex.StepAwaitConfirmation
	st.Name = "Alice"
	st.MeetingDatetime = meetingTime()

	orch.Turn(context.Background(), st, "No.")

	if st.Step != statex.StepEnd {
		t.Fatalf("step = %q, want END", st.Step)
	}
	if st.IsConfirmed {
		t.Fatal("declined booking marked confirmed")
	}
	if calendar.calls != 0 {
		t.Fatalf("calendar called %d times on decline", calendar.calls)
	}
	if !strings.Contains(st.SystemMessage, "not created") {
		t.Fatalf("message = %q, want a not-created acknowledgement", st.SystemMessage)
	}
}

func TestInvalidDatetimeReprompts(t *testing.T) {
	t.Parallel()

	extractor := &scriptedExtractor{}
	orch := NewOrchestrator(newTestRouter(t, extractor, &fakeCalendar{}, Config{}))

	st := statex.New("s1", "UTC", fixedNow)
	st.Step = statex.StepAskDatetime
	st.Name = "Alice"

	orch.Turn(context.Background(), st, "yesterday at noon")

	if st.Step != statex.StepAskDatetime {
		t.Fatalf("step = %q, want to stay at ASK_DATETIME", st.Step)
	}
	if st.MeetingDatetime != nil {
		t.Fatalf("datetime slot set to %v from an invalid phrase", st.MeetingDatetime)
	}
}

func TestSkipTitleBypassesExtraction(t *testing.T) {
	t.Parallel()

	extractor := &scriptedExtractor{}
	router := newTestRouter(t, extractor, &fakeCalendar{}, Config{})

	st := statex.New("s1", "UTC", fixedNow)
	st.Step = statex.StepAskTitle
	st.Name = "Alice"
	st.MeetingDatetime = meetingTime()
	st.LastUserMessage = "Nope."

	if err := router.RunStep(context.Background(), st); err != nil {
		t.Fatalf("RunStep() error = %v", err)
	}

	if st.Step != statex.StepConfirmDetails {
		t.Fatalf("step = %q, want CONFIRM_DETAILS after skipping", st.Step)
	}
	if extractor.calls != 0 {
		t.Fatalf("extractor called %d times for a skip answer", extractor.calls)
	}
	if st.MeetingTitle != "" {
		t.Fatalf("title slot = %q after skip, want empty", st.MeetingTitle)
	}
}

func TestConfirmDetailsIsDeterministic(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t, &scriptedExtractor{}, &fakeCalendar{}, Config{})

	st := statex.New("s1", "UTC", fixedNow)
	st.Name = "Alice"
	st.MeetingTitle = "Team Sync"
	st.MeetingDatetime = meetingTime()

	st.Step = statex.StepConfirmDetails
	if err := router.RunStep(context.Background(), st); err != nil {
		t.Fatalf("RunStep() error = %v", err)
	}
	first := st.SystemMessage

	st.Step = statex.StepConfirmDetails
	if err := router.RunStep(context.Background(), st); err != nil {
		t.Fatalf("RunStep() error = %v", err)
	}

	if st.SystemMessage != first {
		t.Fatalf("summary changed between runs:\n%q\n%q", first, st.SystemMessage)
	}
	if st.Step != statex.StepAwaitConfirmation {
		t.Fatalf("step = %q, want AWAIT_CONFIRMATION", st.Step)
	}
	for _, part := range []string{"Alice", "Team Sync", "Sunday, 11 January 2026 at 05:00 PM"} {
		if !strings.Contains(st.SystemMessage, part) {
			t.Fatalf("summary %q missing %q", st.SystemMessage, part)
		}
	}
}

func TestUncertainConfirmationStaysPut(t *testing.T) {
	t.Parallel()

	extractor := &scriptedExtractor{}
	calendar := &fakeCalendar{}
	router := newTestRouter(t, extractor, calendar, Config{})

	st := statex.New("s1", "UTC", fixedNow)
	st.Step = statex.StepAwaitConfirmation
	st.MeetingDatetime = meetingTime()
	// A stale classification from an earlier turn must not leak into this one.
	st.ConfirmationStatus = statex.ConfirmationYes
	st.LastUserMessage = "hmm let me think"

	if err := router.RunStep(context.Background(), st); err != nil {
		t.Fatalf("RunStep() error = %v", err)
	}

	if st.Step != statex.StepAwaitConfirmation {
		t.Fatalf("step = %q, want to stay at AWAIT_CONFIRMATION", st.Step)
	}
	if calendar.calls != 0 {
		t.Fatalf("calendar called %d times on an uncertain answer", calendar.calls)
	}
	if st.ConfirmationStatus != statex.ConfirmationUncertain {
		t.Fatalf("status = %q, want a fresh uncertain classification", st.ConfirmationStatus)
	}
}

func TestCalendarFailureEndsWithoutConfirming(t *testing.T) {
	t.Parallel()

	extractor := &scriptedExtractor{script: map[string]statex.Extraction{
		"yes": {Confirmation: statex.ConfirmationYes},
	}}
	calendar := &fakeCalendar{err: errors.New("api unavailable")}
	router := newTestRouter(t, extractor, calendar, Config{})

	st := statex.New("s1", "UTC", fixedNow)
	st.Step = statex.StepAwaitConfirmation
	st.Name = "Alice"
	st.MeetingDatetime = meetingTime()
	st.LastUserMessage = "yes"

	if err := router.RunStep(context.Background(), st); err != nil {
		t.Fatalf("RunStep() error = %v", err)
	}

	if st.Step != statex.StepEnd {
		t.Fatalf("step = %q, want END", st.Step)
	}
	if st.IsConfirmed {
		t.Fatal("failed booking marked confirmed")
	}
	if !strings.Contains(st.SystemMessage, "couldn't create") {
		t.Fatalf("message = %q, want a creation-failure apology", st.SystemMessage)
	}
}

func TestMissingDatetimeAtConfirmationFailsSafely(t *testing.T) {
	t.Parallel()

	extractor := &scriptedExtractor{}
	calendar := &fakeCalendar{}
	router := newTestRouter(t, extractor, calendar, Config{})

	st := statex.New("s1", "UTC", fixedNow)
	st.Step = statex.StepAwaitConfirmation
	st.Name = "Alice"
	st.LastUserMessage = "yes"

	if err := router.RunStep(context.Background(), st); err != nil {
		t.Fatalf("RunStep() error = %v", err)
	}

	if calendar.calls != 0 {
		t.Fatalf("calendar called %d times without a meeting time", calendar.calls)
	}
	if st.Step != statex.StepEnd || st.IsConfirmed {
		t.Fatalf("step = %q confirmed = %v, want failed END", st.Step, st.IsConfirmed)
	}
}

func TestNewLoopRestartsWithFreshSlots(t *testing.T) {
	t.Parallel()

	extractor := &scriptedExtractor{script: map[string]statex.Extraction{
		"yes please": {Confirmation: statex.ConfirmationYes},
	}}
	calendar := &fakeCalendar{}
	orch := NewOrchestrator(newTestRouter(t, extractor, calendar, Config{OfferNewLoop: true}))

	st := statex.New("s1", "UTC", fixedNow)
	st.Step = statex.StepAwaitConfirmation
	st.Name = "Alice"
	st.MeetingTitle = "Team Sync"
	st.MeetingDatetime = meetingTime()

	orch.Turn(context.Background(), st, "yes please")
	if st.Step != statex.StepHandleNewLoop {
		t.Fatalf("step = %q, want HANDLE_NEW_LOOP after successful booking", st.Step)
	}
	if !st.IsConfirmed {
		t.Fatal("booking not marked confirmed")
	}

	orch.Turn(context.Background(), st, "yes please")
	if st.Step != statex.StepAskName {
		t.Fatalf("step = %q, want ASK_NAME for the new booking", st.Step)
	}
	if st.Name != "" || st.MeetingTitle != "" || st.MeetingDatetime != nil {
		t.Fatalf("slots survived the new loop: %q %q %v", st.Name, st.MeetingTitle, st.MeetingDatetime)
	}
	if st.IsConfirmed {
		t.Fatal("confirmation flag survived the new loop")
	}
}

func TestNewLoopGoodbye(t *testing.T) {
	t.Parallel()

	orch := NewOrchestrator(newTestRouter(t, &scriptedExtractor{}, &fakeCalendar{}, Config{OfferNewLoop: true}))

	st := statex.New("s1", "UTC", fixedNow)
	st.Step = statex.StepHandleNewLoop

	orch.Turn(context.Background(), st, "no")

	if st.Step != statex.StepEnd {
		t.Fatalf("step = %q, want END", st.Step)
	}
}

func TestTurnAfterTerminalStepRestarts(t *testing.T) {
	t.Parallel()

	orch := NewOrchestrator(newTestRouter(t, &scriptedExtractor{}, &fakeCalendar{}, Config{}))

	st := statex.New("s1", "UTC", fixedNow)
	st.Step = statex.StepEnd

	orch.Turn(context.Background(), st, "hello again")

	if st.Step != statex.StepAskName {
		t.Fatalf("step = %q, want ASK_NAME after restart", st.Step)
	}
}

func TestTurnRecoversFromPanic(t *testing.T) {
	t.Parallel()

	orch := NewOrchestrator(newTestRouter(t, panickingExtractor{}, &fakeCalendar{}, Config{}))

	st := statex.New("s1", "UTC", fixedNow)
	st.Step = statex.StepAskName

	orch.Turn(context.Background(), st, "I'm Alice")

	if st.Step != statex.StepStart {
		t.Fatalf("step = %q, want START after recovery", st.Step)
	}
	if st.SystemMessage != recoveryMessage {
		t.Fatalf("message = %q, want the recovery apology", st.SystemMessage)
	}
}

func TestRunStepRejectsTerminalAndNilState(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t, &scriptedExtractor{}, &fakeCalendar{}, Config{})

	st := statex.New("s1", "UTC", fixedNow)
	st.Step = statex.StepEnd
	if err := router.RunStep(context.Background(), st); !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("RunStep(END) error = %v, want ErrValidation", err)
	}

	if err := router.RunStep(context.Background(), nil); !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("RunStep(nil) error = %v, want ErrValidation", err)
	}
}

func TestNewRouterRequiresExtractor(t *testing.T) {
	t.Parallel()

	if _, err := NewRouter(nil, nil, nil, Config{}); err == nil {
		t.Fatal("expected error but got nil")
	}
}

func TestStartGreetsReturningUserByName(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t, &scriptedExtractor{}, &fakeCalendar{}, Config{})

	st := statex.New("s1", "UTC", fixedNow)
	st.Name = "Alice"
	if err := router.RunStep(context.Background(), st); err != nil {
		t.Fatalf("RunStep() error = %v", err)
	}

	if st.Step != statex.StepAskDatetime {
		t.Fatalf("step = %q, want ASK_DATETIME for a known name", st.Step)
	}
	if !strings.Contains(st.SystemMessage, "Alice") {
		t.Fatalf("greeting %q does not mention the known name", st.SystemMessage)
	}
}

package nlu

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	contractx "github.com/voxcal/voxcal/agent/contract"
	statex "github.com/voxcal/voxcal/agent/state"
	timeparsex "github.com/voxcal/voxcal/agent/timeparse"
	validatex "github.com/voxcal/voxcal/agent/validate"
	"github.com/voxcal/voxcal/pkg/jsonx"
)

type ExtractorConfig struct {
	// RequestTimeout bounds each individual provider attempt.
	RequestTimeout time.Duration `envconfig:"REQUEST_TIMEOUT" split_words:"true" default:"8s"`
	// MaxAttempts is the total number of provider attempts per turn.
	MaxAttempts int `envconfig:"MAX_ATTEMPTS" split_words:"true" default:"2"`
}

// Extractor wraps the understanding provider with timeout, bounded retries,
// defensive parsing, schema enforcement, and first-write-wins merging. Every
// internal failure degrades to "no new information this turn"; Extract never
// returns an error and never panics.
type Extractor struct {
	provider contractx.UnderstandingProvider
	parser   *timeparsex.Parser

	timeout     time.Duration
	maxAttempts int

	now func() time.Time
}

func NewExtractor(provider contractx.UnderstandingProvider, parser *timeparsex.Parser, cfg ExtractorConfig) *Extractor {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	attempts := cfg.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	return &Extractor{
		provider:    provider,
		parser:      parser,
		timeout:     timeout,
		maxAttempts: attempts,
		now:         time.Now,
	}
}

// WithClock overrides the wall clock. Test hook.
func (e *Extractor) WithClock(now func() time.Time) *Extractor {
	if now != nil {
		e.now = now
	}
	return e
}

// Extract runs one extraction pass over the utterance and merges newly
// discovered values into st. Slots already set are left untouched.
func (e *Extractor) Extract(ctx context.Context, st *statex.ConversationState, utterance string) {
	if e == nil || e.provider == nil || st == nil || strings.TrimSpace(utterance) == "" {
		return
	}

	raw, ok := e.callWithRetries(ctx, utterance)
	if !ok {
		return
	}

	fields, ok := decodeFields(raw)
	if !ok {
		log.Warn().Str("raw", raw).Msg("understanding provider returned a malformed payload")
		return
	}

	loc := st.Location()
	now := e.now().In(loc)

	var ext statex.Extraction

	if v, ok := validatex.Name(fields.Name); ok {
		ext.Name = v
	}
	if v, ok := validatex.MeetingTitle(fields.MeetingTitle); ok {
		ext.MeetingTitle = v
	}
	if c, ok := statex.ParseConfirmation(fields.ConfirmationStatus); ok {
		ext.Confirmation = c
	}

	if text := strings.TrimSpace(fields.MeetingDatetimeText); text != "" {
		if parsed, ok := e.parser.Normalize(text, now, loc); ok {
			if v, ok := validatex.MeetingDatetime(parsed, now); ok {
				ext.MeetingDatetime = &v
			} else {
				log.Debug().Time("parsed", parsed).Msg("parsed datetime failed validation")
			}
		} else {
			log.Debug().Str("text", text).Msg("datetime phrase did not parse")
		}
	}

	st.Merge(ext, e.now())
}

func (e *Extractor) callWithRetries(ctx context.Context, utterance string) (string, bool) {
	for attempt := 1; attempt <= e.maxAttempts; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, e.timeout)
		raw, err := e.provider.Understand(attemptCtx, utterance)
		cancel()

		if err == nil {
			return raw, true
		}
		log.Warn().Err(err).Int("attempt", attempt).Msg("understanding provider call failed")
	}
	return "", false
}

// decodeFields enforces the fixed extraction schema. Direct parse first, then
// the first balanced object substring; unknown keys fail the whole record so
// a partially matching payload is never merged.
func decodeFields(raw string) (contractx.ExtractionFields, bool) {
	if fields, ok := decodeStrict(raw); ok {
		return fields, true
	}

	obj, ok := jsonx.FirstObject(raw)
	if !ok {
		return contractx.ExtractionFields{}, false
	}
	return decodeStrict(obj)
}

func decodeStrict(text string) (contractx.ExtractionFields, bool) {
	dec := json.NewDecoder(strings.NewReader(text))
	dec.DisallowUnknownFields()

	var fields contractx.ExtractionFields
	if err := dec.Decode(&fields); err != nil {
		return contractx.ExtractionFields{}, false
	}
	return fields, true
}

package contract

import "errors"

var (
	ErrModelInvoke     = errors.New("model invoke failed")
	ErrSchemaViolation = errors.New("model response violates schema")
	ErrValidation      = errors.New("validation failed")
	ErrCalendarCreate  = errors.New("calendar event creation failed")
	ErrTranscription   = errors.New("audio transcription failed")
	ErrSynthesis       = errors.New("speech synthesis failed")
)

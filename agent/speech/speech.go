// Package speech holds the thin Deepgram adapters: one-shot transcription of
// a recorded utterance and one-shot synthesis of a reply. Both are external
// collaborators of the dialogue core, not part of it.
package speech

import "errors"

type Config struct {
	APIKey   string `envconfig:"API_KEY" split_words:"true"`
	Model    string `envconfig:"MODEL" split_words:"true" default:"nova-2"`
	Language string `envconfig:"LANGUAGE" split_words:"true" default:"en"`
	Voice    string `envconfig:"VOICE" split_words:"true" default:"aura-asteria-en"`
}

var errMissingAPIKey = errors.New("deepgram api key is required")

package speech

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	listenapi "github.com/deepgram/deepgram-go-sdk/pkg/api/listen/v1/rest"
	interfaces "github.com/deepgram/deepgram-go-sdk/pkg/client/interfaces"
	listenclient "github.com/deepgram/deepgram-go-sdk/pkg/client/listen"

	contractx "github.com/voxcal/voxcal/agent/contract"
)

// Transcriber converts one recorded utterance into text via Deepgram's
// prerecorded REST API.
type Transcriber struct {
	client *listenapi.Client
	cfg    Config
}

var _ contractx.Transcriber = (*Transcriber)(nil)

func NewTranscriber(cfg Config) (*Transcriber, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errMissingAPIKey
	}

	rest := listenclient.NewREST(cfg.APIKey, &interfaces.ClientOptions{})
	return &Transcriber{
		client: listenapi.New(rest),
		cfg:    cfg,
	}, nil
}

func (t *Transcriber) Transcribe(ctx context.Context, audio []byte) (string, error) {
	if len(audio) == 0 {
		return "", fmt.Errorf("%w: empty audio payload", contractx.ErrTranscription)
	}

	res, err := t.client.FromStream(ctx, bytes.NewReader(audio), &interfaces.PreRecordedTranscriptionOptions{
		Model:       t.cfg.Model,
		Language:    t.cfg.Language,
		SmartFormat: true,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", contractx.ErrTranscription, err)
	}
	if res == nil || len(res.Results.Channels) == 0 || len(res.Results.Channels[0].Alternatives) == 0 {
		return "", fmt.Errorf("%w: no transcript in response", contractx.ErrTranscription)
	}

	return strings.TrimSpace(res.Results.Channels[0].Alternatives[0].Transcript), nil
}

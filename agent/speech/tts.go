package speech

import (
	"context"
	"fmt"
	"strings"

	speakapi "github.com/deepgram/deepgram-go-sdk/pkg/api/speak/v1/rest"
	interfaces "github.com/deepgram/deepgram-go-sdk/pkg/client/interfaces"
	speakclient "github.com/deepgram/deepgram-go-sdk/pkg/client/speak"

	contractx "github.com/voxcal/voxcal/agent/contract"
)

// Synthesizer renders one reply as audio via Deepgram's speak REST API.
type Synthesizer struct {
	client *speakapi.Client
	cfg    Config
}

var _ contractx.Synthesizer = (*Synthesizer)(nil)

func NewSynthesizer(cfg Config) (*Synthesizer, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errMissingAPIKey
	}

	rest := speakclient.NewREST(cfg.APIKey, &interfaces.ClientOptions{})
	return &Synthesizer{
		client: speakapi.New(rest),
		cfg:    cfg,
	}, nil
}

func (s *Synthesizer) Synthesize(ctx context.Context, text string) ([]byte, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: empty text", contractx.ErrSynthesis)
	}

	var buf interfaces.RawResponse
	if _, err := s.client.ToStream(ctx, text, &interfaces.SpeakOptions{
		Model: s.cfg.Voice,
	}, &buf); err != nil {
		return nil, fmt.Errorf("%w: %v", contractx.ErrSynthesis, err)
	}

	return buf.Bytes(), nil
}

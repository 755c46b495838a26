package nlu

import (
	"context"
	"fmt"
	"strings"

	openaisdk "github.com/openai/openai-go"
	"github.com/rs/zerolog/log"

	contractx "github.com/voxcal/voxcal/agent/contract"
	promptx "github.com/voxcal/voxcal/agent/nlu/prompt"
)

const (
	generatorTemperature = 0.7
	generatorMaxTokens   = 60
)

// Generator phrases outgoing replies with the LLM. It implements the
// Responder contract: generation failures fall back to the caller's static
// phrasing, so composing a reply can never fail a turn.
type Generator struct {
	client       *openaisdk.Client
	model        string
	systemPrompt string
}

var _ contractx.Responder = (*Generator)(nil)

func NewGenerator(client *openaisdk.Client, model string) *Generator {
	return &Generator{
		client:       client,
		model:        strings.TrimSpace(model),
		systemPrompt: promptx.LoadPromptSet().Generator,
	}
}

func (g *Generator) Compose(ctx context.Context, req contractx.ComposeRequest) string {
	if g == nil || g.client == nil || g.model == "" {
		return req.Fallback
	}

	completion, err := g.client.Chat.Completions.New(ctx, openaisdk.ChatCompletionNewParams{
		Model: openaisdk.ChatModel(g.model),
		Messages: []openaisdk.ChatCompletionMessageParamUnion{
			openaisdk.SystemMessage(g.systemPrompt),
			openaisdk.UserMessage(buildGeneratorInput(req)),
		},
		Temperature: openaisdk.Float(generatorTemperature),
		MaxTokens:   openaisdk.Int(generatorMaxTokens),
	})
	if err != nil {
		log.Warn().Err(err).Str("goal", req.Goal).Msg("reply generation failed, using fallback")
		return req.Fallback
	}
	if len(completion.Choices) == 0 {
		return req.Fallback
	}

	text := strings.TrimSpace(completion.Choices[0].Message.Content)
	if text == "" {
		return req.Fallback
	}
	if strings.HasPrefix(text, `"`) && strings.HasSuffix(text, `"`) && len(text) > 1 {
		text = text[1 : len(text)-1]
	}
	return text
}

func buildGeneratorInput(req contractx.ComposeRequest) string {
	note := req.ContextNote
	if note == "" {
		note = "None"
	}
	name := req.Name
	if name == "" {
		name = "Unknown"
	}
	title := req.MeetingTitle
	if title == "" {
		title = "Not set"
	}
	when := "Not set"
	if req.MeetingDatetime != nil {
		when = req.MeetingDatetime.Format(contractx.SpokenTimeLayout)
	}
	userMsg := req.LastUserMessage
	if userMsg == "" {
		userMsg = "(No message yet)"
	}

	return fmt.Sprintf(`Current Goal: %s
Context Note: %s

User's Name: %s
Meeting Title: %s
Meeting Time: %s

Last User Message: %q

Generate the response now:`, req.Goal, note, name, title, when, userMsg)
}

// StaticResponder always answers with the fallback phrasing. Used when no
// generation model is configured and throughout the tests.
type StaticResponder struct{}

var _ contractx.Responder = StaticResponder{}

func (StaticResponder) Compose(_ context.Context, req contractx.ComposeRequest) string {
	return req.Fallback
}

package nlu

import (
	"context"
	"fmt"

	einomodel "github.com/cloudwego/eino/components/model"
	einoprompt "github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	contractx "github.com/voxcal/voxcal/agent/contract"
	promptx "github.com/voxcal/voxcal/agent/nlu/prompt"
)

// Provider is the LLM-backed understanding provider. It invokes the
// extraction model through a compiled prompt->model graph and returns the raw
// response text; parsing the text is deliberately left to the extraction
// pipeline, which must survive malformed output.
type Provider struct {
	runner compose.Runnable[map[string]any, *schema.Message]
}

var _ contractx.UnderstandingProvider = (*Provider)(nil)

func NewProvider(ctx context.Context, chatModel einomodel.BaseChatModel) (*Provider, error) {
	runner, err := compileExtractionGraph(ctx, chatModel, promptx.LoadPromptSet().Extraction)
	if err != nil {
		return nil, fmt.Errorf("%w: compile extraction graph: %v", contractx.ErrModelInvoke, err)
	}
	return &Provider{runner: runner}, nil
}

func (p *Provider) Understand(ctx context.Context, utterance string) (string, error) {
	msg, err := p.runner.Invoke(ctx, map[string]any{
		"input": utterance,
	})
	if err != nil {
		return "", fmt.Errorf("%w: extraction invoke: %v", contractx.ErrModelInvoke, err)
	}
	if msg == nil {
		return "", fmt.Errorf("%w: empty extraction response", contractx.ErrModelInvoke)
	}
	return msg.Content, nil
}

func compileExtractionGraph(
	ctx context.Context,
	chatModel einomodel.BaseChatModel,
	systemPrompt string,
) (compose.Runnable[map[string]any, *schema.Message], error) {
	template := einoprompt.FromMessages(
		schema.FString,
		schema.SystemMessage(systemPrompt),
		schema.UserMessage("{input}"),
	)

	graph := compose.NewGraph[map[string]any, *schema.Message]()
	if err := graph.AddChatTemplateNode("prompt", template); err != nil {
		return nil, fmt.Errorf("add extraction prompt node: %w", err)
	}
	if err := graph.AddChatModelNode("model", chatModel); err != nil {
		return nil, fmt.Errorf("add extraction model node: %w", err)
	}
	if err := graph.AddEdge(compose.START, "prompt"); err != nil {
		return nil, fmt.Errorf("add extraction edge start->prompt: %w", err)
	}
	if err := graph.AddEdge("prompt", "model"); err != nil {
		return nil, fmt.Errorf("add extraction edge prompt->model: %w", err)
	}
	if err := graph.AddEdge("model", compose.END); err != nil {
		return nil, fmt.Errorf("add extraction edge model->end: %w", err)
	}

	runner, err := graph.Compile(ctx, compose.WithGraphName("nlu.extraction_graph"))
	if err != nil {
		return nil, fmt.Errorf("compile extraction graph: %w", err)
	}
	return runner, nil
}

package tavily

import (
	"context"
	"fmt"
	"slices"

	"github.com/aretw0/lookout/pkg/domain"
	"github.com/aretw0/lookout/pkg/registry"
	"github.com/mitchellh/mapstructure"
)

// ToolName is the name the model uses to call the search.
const ToolName = "tavily_search"

// Args are the arguments the model may pass.
type Args struct {
	Query string `mapstructure:"query"`
	Topic string `mapstructure:"topic"`
}

// Definition declares the search tool to the model.
func Definition() domain.Tool {
	return domain.Tool{
		Name: ToolName,
		Description: "A search engine optimized for comprehensive, accurate, and trusted results. " +
			"Useful for when you need to answer questions about current events. " +
			"Input should be a search query.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"query": map[string]any{
					"type":        "string",
					"description": "Search query to look up",
				},
				"topic": map[string]any{
					"type":        "string",
					"enum":        Topics,
					"description": "The category of the search.",
				},
			},
			"required": []string{"query"},
		},
	}
}

// DecodeArgs maps the model's raw arguments onto Args.
func DecodeArgs(raw map[string]any) (Args, error) {
	var args Args
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &args,
		WeaklyTypedInput: true,
		ErrorUnused:      false,
	})
	if err != nil {
		return Args{}, err
	}
	if err := dec.Decode(raw); err != nil {
		return Args{}, fmt.Errorf("invalid %s arguments: %w", ToolName, err)
	}
	if args.Query == "" {
		return Args{}, fmt.Errorf("invalid %s arguments: query is required", ToolName)
	}
	if args.Topic != "" && !slices.Contains(Topics, args.Topic) {
		return Args{}, fmt.Errorf("invalid %s arguments: unknown topic %q", ToolName, args.Topic)
	}
	return args, nil
}

// Function adapts the client to a registry.ToolFunction.
func (c *Client) Function() registry.ToolFunction {
	return func(ctx context.Context, raw map[string]any) (any, error) {
		args, err := DecodeArgs(raw)
		if err != nil {
			return nil, err
		}
		return c.Search(ctx, args.Query, args.Topic)
	}
}

// Register adds the search tool to reg.
func (c *Client) Register(reg *registry.Registry) {
	reg.Register(Definition(), c.Function())
}

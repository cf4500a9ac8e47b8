// Package agents implements the agent pool: ingestion, analysis,
// extraction, pedagogy, and synthesis capabilities dispatched to by the
// task gateway. Most of the work here is prompt construction plus parsing
// of free-text model output.
package agents

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/bedrock"
	"github.com/anthropics/anthropic-sdk-go/option"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
)

// LLMConfig contains configuration for creating an LLM client.
type LLMConfig struct {
	// Model is the Claude model to use. Empty picks the default.
	Model string
	// APIKey is the Anthropic API key. If empty, uses ANTHROPIC_API_KEY.
	APIKey string
	// UseAWSBedrock routes requests through AWS Bedrock instead of the
	// direct API.
	UseAWSBedrock bool
	// AWSRegion is the AWS region for Bedrock.
	AWSRegion string
	// AWSProfile is the optional AWS profile name.
	AWSProfile string
}

// LLMClient wraps the Anthropic SDK with token accounting.
type LLMClient struct {
	inner anthropic.Client
	model anthropic.Model

	mu        sync.Mutex
	inputTok  int64
	outputTok int64
}

// NewLLMClient creates an LLM client from the given configuration.
func NewLLMClient(cfg LLMConfig) (*LLMClient, error) {
	var opts []option.RequestOption

	if cfg.UseAWSBedrock {
		ctx := context.Background()
		var loadOpts []func(*awsconfig.LoadOptions) error
		if cfg.AWSRegion != "" {
			loadOpts = append(loadOpts, awsconfig.WithRegion(cfg.AWSRegion))
		}
		if cfg.AWSProfile != "" {
			loadOpts = append(loadOpts, awsconfig.WithSharedConfigProfile(cfg.AWSProfile))
		}
		opts = append(opts, bedrock.WithLoadDefaultConfig(ctx, loadOpts...))
	} else {
		apiKey := cfg.APIKey
		if apiKey == "" {
			apiKey = os.Getenv("ANTHROPIC_API_KEY")
		}
		if apiKey == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY is not set")
		}
		opts = append(opts, option.WithAPIKey(apiKey))
	}

	model := anthropic.Model(cfg.Model)
	if model == "" {
		model = anthropic.ModelClaudeSonnet4_20250514
	}

	return &LLMClient{
		inner: anthropic.NewClient(opts...),
		model: model,
	}, nil
}

// Complete runs a single system+user prompt and returns the text response.
func (c *LLMClient) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	params := anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: 4096,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userPrompt)),
		},
	}
	if systemPrompt != "" {
		params.System = []anthropic.TextBlockParam{{Text: systemPrompt}}
	}

	resp, err := c.inner.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("API call failed: %w", err)
	}

	c.mu.Lock()
	c.inputTok += resp.Usage.InputTokens
	c.outputTok += resp.Usage.OutputTokens
	c.mu.Unlock()

	var result strings.Builder
	for _, block := range resp.Content {
		if variant, ok := block.AsAny().(anthropic.TextBlock); ok {
			result.WriteString(variant.Text)
		}
	}
	return result.String(), nil
}

// TokensUsed returns the total input and output tokens consumed so far.
func (c *LLMClient) TokensUsed() (input, output int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inputTok, c.outputTok
}

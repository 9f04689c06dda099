package llm

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"

	"github.com/buzzboard/internal/retry"
)

// ImagePart is an inline image attached to a generation request, used when a
// landing page carries more signal in its preview banner than in its text.
type ImagePart struct {
	MIMEType string
	Data     []byte
}

// Request is a single completion request.
type Request struct {
	Prompt            string
	SystemInstruction string
	Image             *ImagePart
}

// Client is the generative completion API consumed by the extractor and the
// conversation generator. Two modes: free text and JSON-biased. JSON mode
// nudges the model toward syntactically valid JSON; it does not guarantee
// schema adherence, which is why every caller goes through ParseModelJSON.
type Client interface {
	Generate(ctx context.Context, req Request) (string, error)
	GenerateJSON(ctx context.Context, req Request) (string, error)
}

// GoogleClient implements Client on top of langchaingo's googleai provider.
type GoogleClient struct {
	model       llms.Model
	modelName   string
	retryConfig retry.Config
}

// NewGoogleClient initializes the Gemini-backed client. Safety thresholds are
// relaxed to avoid spurious blocks on marketing copy.
func NewGoogleClient(ctx context.Context, apiKey, modelName string) (*GoogleClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if modelName == "" {
		modelName = "gemini-2.5-flash"
	}

	model, err := googleai.New(ctx,
		googleai.WithAPIKey(apiKey),
		googleai.WithDefaultModel(modelName),
		googleai.WithHarmThreshold(googleai.HarmBlockNone),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize LLM: %w", err)
	}

	return &GoogleClient{
		model:       model,
		modelName:   modelName,
		retryConfig: retry.LLMConfig(),
	}, nil
}

// Generate performs a free-text completion.
func (c *GoogleClient) Generate(ctx context.Context, req Request) (string, error) {
	return c.generate(ctx, req, false)
}

// GenerateJSON performs a JSON-mode completion.
func (c *GoogleClient) GenerateJSON(ctx context.Context, req Request) (string, error) {
	return c.generate(ctx, req, true)
}

func (c *GoogleClient) generate(ctx context.Context, req Request, jsonMode bool) (string, error) {
	messages := buildMessages(req)

	var opts []llms.CallOption
	if jsonMode {
		opts = append(opts, llms.WithJSONMode())
	}

	var response string
	result := retry.Do(ctx, c.retryConfig, func() error {
		resp, err := c.model.GenerateContent(ctx, messages, opts...)
		if err != nil {
			if retry.IsRateLimitError(err) {
				log.Warn().Err(err).Str("model", c.modelName).Msg("LLM rate limited, backing off")
			}
			return err
		}
		if len(resp.Choices) == 0 {
			return fmt.Errorf("LLM returned no choices")
		}
		response = resp.Choices[0].Content
		return nil
	})

	if !result.Success {
		return "", fmt.Errorf("LLM call failed after %d attempts: %w", result.Attempts, result.LastError)
	}

	return response, nil
}

func buildMessages(req Request) []llms.MessageContent {
	var messages []llms.MessageContent

	if req.SystemInstruction != "" {
		messages = append(messages, llms.TextParts(llms.ChatMessageTypeSystem, req.SystemInstruction))
	}

	userParts := []llms.ContentPart{llms.TextPart(req.Prompt)}
	if req.Image != nil {
		userParts = append(userParts, llms.BinaryPart(req.Image.MIMEType, req.Image.Data))
	}
	messages = append(messages, llms.MessageContent{
		Role:  llms.ChatMessageTypeHuman,
		Parts: userParts,
	})

	return messages
}

package providers

import (
	"context"
	"fmt"
	"time"

	"github.com/dcs-research/simengine/logger"
	"github.com/dcs-research/simengine/types"
)

func init() {
	RegisterFactory("openrouter", func(spec Spec) (Provider, error) {
		return NewOpenRouterProvider(spec), nil
	})
}

// OpenRouterProvider calls the OpenRouter chat completions API, which fronts
// many hosted models behind an OpenAI-compatible wire format.
type OpenRouterProvider struct {
	BaseProvider
	apiKey   string
	model    string
	baseURL  string
	defaults Defaults
}

// NewOpenRouterProvider creates an OpenRouter provider from a spec.
// The API key is read from OPENROUTER_API_KEY (or OPENAI_API_KEY).
func NewOpenRouterProvider(spec Spec) *OpenRouterProvider {
	base, apiKey := NewBaseProviderWithAPIKey(spec.ID, "OPENROUTER_API_KEY", "OPENAI_API_KEY")
	return &OpenRouterProvider{
		BaseProvider: base,
		apiKey:       apiKey,
		model:        spec.Model,
		baseURL:      spec.BaseURL,
		defaults:     spec.Defaults,
	}
}

type openRouterMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openRouterRequest struct {
	Model       string              `json:"model"`
	Messages    []openRouterMessage `json:"messages"`
	Temperature float32             `json:"temperature,omitempty"`
	MaxTokens   int                 `json:"max_tokens,omitempty"`
}

type openRouterResponse struct {
	Choices []struct {
		Message openRouterMessage `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

// Invoke performs a chat completion call and normalizes the response.
func (p *OpenRouterProvider) Invoke(ctx context.Context, req InvokeRequest) (InvokeResponse, error) {
	if p.apiKey == "" {
		return InvokeResponse{}, &ProviderError{
			Provider:  p.ID(),
			Retryable: false,
			Err:       fmt.Errorf("OPENROUTER_API_KEY not set"),
		}
	}

	messages := make([]openRouterMessage, 0, len(req.Messages)+1)
	if req.System != "" {
		messages = append(messages, openRouterMessage{Role: "system", Content: req.System})
	}
	for _, m := range req.Messages {
		role, ok := wireRole(m.Type)
		if !ok {
			continue // info/error messages are engine-internal
		}
		messages = append(messages, openRouterMessage{Role: role, Content: m.Content})
	}

	temperature := req.Temperature
	if temperature == 0 {
		temperature = p.defaults.Temperature
	}
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = p.defaults.MaxTokens
	}

	apiReq := openRouterRequest{
		Model:       p.model,
		Messages:    messages,
		Temperature: temperature,
		MaxTokens:   maxTokens,
	}
	headers := RequestHeaders{
		"Content-Type":  "application/json",
		"Authorization": "Bearer " + p.apiKey,
	}

	logger.ModelCall(p.ID(), p.model, len(messages))

	start := time.Now()
	body, err := p.MakeJSONRequest(ctx, p.baseURL+"/chat/completions", apiReq, headers)
	if err != nil {
		return InvokeResponse{}, err
	}
	latency := time.Since(start)

	var apiResp openRouterResponse
	if err := unmarshalResponse(p.ID(), body, &apiResp); err != nil {
		return InvokeResponse{}, err
	}
	if len(apiResp.Choices) == 0 {
		return InvokeResponse{}, &ProviderError{
			Provider:  p.ID(),
			Retryable: false,
			Err:       fmt.Errorf("response contained no choices"),
		}
	}

	logger.ModelResponse(p.ID(), p.model, latency,
		apiResp.Usage.PromptTokens, apiResp.Usage.CompletionTokens)

	return InvokeResponse{
		Text: apiResp.Choices[0].Message.Content,
		Usage: types.Usage{
			InputTokens:  apiResp.Usage.PromptTokens,
			OutputTokens: apiResp.Usage.CompletionTokens,
		},
		Latency: latency,
		Raw:     body,
	}, nil
}

// wireRole maps an engine message type onto the wire role, reporting false
// for engine-internal types that never reach a backend.
func wireRole(t types.MessageType) (string, bool) {
	switch t {
	case types.MessageUser:
		return "user", true
	case types.MessageAssistant:
		return "assistant", true
	case types.MessageSystem:
		return "system", true
	default:
		return "", false
	}
}

package utils

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/valyala/fasthttp"
)

const defaultCompletionTimeout = 60 * time.Second

// CompletionRequest is a single-turn chat completion.
type CompletionRequest struct {
	System      string
	User        string
	Temperature float64
	MaxTokens   int
}

// CompletionClient talks to an OpenAI-compatible chat completions endpoint.
type CompletionClient struct {
	client  *fasthttp.Client
	apiURL  string
	apiKey  string
	model   string
	timeout time.Duration
}

func NewCompletionClient(apiURL, apiKey, model string) *CompletionClient {
	apiURL = strings.TrimRight(apiURL, "/")
	if apiURL == "" {
		apiURL = "https://api.openai.com/v1"
	}
	return &CompletionClient{
		client:  &fasthttp.Client{Name: "leadengine"},
		apiURL:  apiURL,
		apiKey:  apiKey,
		model:   model,
		timeout: defaultCompletionTimeout,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Complete returns the first choice's content. The request deadline is the
// earlier of ctx's deadline and the client timeout.
func (c *CompletionClient) Complete(ctx context.Context, in CompletionRequest) (string, error) {
	if c.model == "" {
		return "", errors.New("completion: model is required")
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	messages := make([]chatMessage, 0, 2)
	if in.System != "" {
		messages = append(messages, chatMessage{Role: "system", Content: in.System})
	}
	messages = append(messages, chatMessage{Role: "user", Content: in.User})

	payload, err := json.Marshal(chatRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: in.Temperature,
		MaxTokens:   in.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("completion: marshal request: %w", err)
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.apiURL + "/chat/completions")
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	req.SetBody(payload)

	deadline := time.Now().Add(c.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := c.client.DoDeadline(req, resp, deadline); err != nil {
		return "", fmt.Errorf("completion: request failed: %w", err)
	}

	status := resp.StatusCode()
	if status < fasthttp.StatusOK || status >= fasthttp.StatusMultipleChoices {
		return "", fmt.Errorf("completion: unexpected status %d: %s", status, strings.TrimSpace(string(resp.Body())))
	}

	var out chatResponse
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return "", fmt.Errorf("completion: decode response: %w", err)
	}
	if out.Error != nil {
		return "", fmt.Errorf("completion: %s", out.Error.Message)
	}
	if len(out.Choices) == 0 {
		return "", errors.New("completion: empty response")
	}
	return strings.TrimSpace(out.Choices[0].Message.Content), nil
}

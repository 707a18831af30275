package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/jpollock/multi-agent-resolution-synthesis/internal/errors"
)

const (
	anthropicBaseURL    = "https://api.anthropic.com/v1"
	anthropicAPIVersion = "2023-06-01"
)

// AnthropicProvider speaks the Anthropic messages API.
type AnthropicProvider struct {
	client  *http.Client
	apiKey  string
	model   string
	baseURL string
}

// NewAnthropicProvider creates an Anthropic-backed provider.
func NewAnthropicProvider(apiKey, defaultModel string) (*AnthropicProvider, error) {
	if apiKey == "" {
		return nil, errors.NewConfigError("anthropic provider", errors.ErrMissingCredentials)
	}
	return &AnthropicProvider{
		client:  &http.Client{},
		apiKey:  apiKey,
		model:   defaultModel,
		baseURL: anthropicBaseURL,
	}, nil
}

func (p *AnthropicProvider) Name() string { return "anthropic" }

func (p *AnthropicProvider) DefaultModel() string { return p.model }

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicRequest struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	Messages    []anthropicMessage `json:"messages"`
	System      string             `json:"system,omitempty"`
	Temperature *float64           `json:"temperature,omitempty"`
	Stream      bool               `json:"stream,omitempty"`
}

type anthropicUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Usage anthropicUsage `json:"usage"`
}

// anthropicEvent covers the subset of stream events carrying text or
// usage: message_start, content_block_delta, and message_delta.
type anthropicEvent struct {
	Type    string `json:"type"`
	Message *struct {
		Usage anthropicUsage `json:"usage"`
	} `json:"message"`
	Delta *struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"delta"`
	Usage *anthropicUsage `json:"usage"`
}

func (p *AnthropicProvider) buildBody(req Request, stream bool) ([]byte, error) {
	// The messages API takes system text as a top-level field.
	var system []string
	messages := make([]anthropicMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		if m.Role == RoleSystem {
			system = append(system, m.Content)
			continue
		}
		messages = append(messages, anthropicMessage{Role: m.Role, Content: m.Content})
	}
	body := anthropicRequest{
		Model:       resolveModel(req, p.model),
		MaxTokens:   req.MaxTokens,
		Messages:    messages,
		System:      strings.Join(system, "\n\n"),
		Temperature: req.Temperature,
		Stream:      stream,
	}
	return json.Marshal(body)
}

func (p *AnthropicProvider) post(ctx context.Context, body []byte) (*http.Response, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/messages", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("anthropic: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", p.apiKey)
	httpReq.Header.Set("anthropic-version", anthropicAPIVersion)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("anthropic: http: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		return nil, httpStatusError("anthropic", resp)
	}
	return resp, nil
}

// Generate sends a non-streaming messages request.
func (p *AnthropicProvider) Generate(ctx context.Context, req Request) (string, TokenUsage, error) {
	body, err := p.buildBody(req, false)
	if err != nil {
		return "", TokenUsage{}, fmt.Errorf("anthropic: marshal: %w", err)
	}

	resp, err := p.post(ctx, body)
	if err != nil {
		return "", TokenUsage{}, err
	}
	defer resp.Body.Close()

	var parsed anthropicResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", TokenUsage{}, fmt.Errorf("anthropic: decode: %w", err)
	}

	var content strings.Builder
	for _, block := range parsed.Content {
		if block.Type == "text" {
			content.WriteString(block.Text)
		}
	}
	usage := TokenUsage{
		InputTokens:  parsed.Usage.InputTokens,
		OutputTokens: parsed.Usage.OutputTokens,
	}
	return content.String(), usage, nil
}

// Stream opens a streaming messages call.
func (p *AnthropicProvider) Stream(ctx context.Context, req Request) (Stream, error) {
	body, err := p.buildBody(req, true)
	if err != nil {
		return nil, fmt.Errorf("anthropic: marshal: %w", err)
	}
	resp, err := p.post(ctx, body)
	if err != nil {
		return nil, err
	}
	return &anthropicStream{sse: newSSEReader(resp.Body)}, nil
}

type anthropicStream struct {
	sse   *sseReader
	usage TokenUsage
	done  bool
}

func (s *anthropicStream) Recv() (string, error) {
	if s.done {
		return "", io.EOF
	}
	for {
		payload, err := s.sse.next()
		if err != nil {
			if err == io.EOF {
				s.done = true
			}
			return "", err
		}

		var event anthropicEvent
		if err := json.Unmarshal([]byte(payload), &event); err != nil {
			return "", fmt.Errorf("anthropic: decode event: %w", err)
		}
		switch event.Type {
		case "message_start":
			if event.Message != nil {
				s.usage.InputTokens = event.Message.Usage.InputTokens
			}
		case "content_block_delta":
			if event.Delta != nil && event.Delta.Text != "" {
				return event.Delta.Text, nil
			}
		case "message_delta":
			if event.Usage != nil {
				s.usage.OutputTokens = event.Usage.OutputTokens
			}
		case "message_stop":
			s.done = true
			return "", io.EOF
		}
	}
}

func (s *anthropicStream) Usage() (TokenUsage, error) {
	if !s.done {
		return TokenUsage{}, errors.ErrStreamNotDrained
	}
	return s.usage, nil
}

func (s *anthropicStream) Close() error { return s.sse.close() }

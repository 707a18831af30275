package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/jpollock/multi-agent-resolution-synthesis/internal/errors"
)

const openAIDefaultBaseURL = "https://api.openai.com/v1"

// OpenAIProvider speaks the OpenAI chat completions API.
type OpenAIProvider struct {
	client  *http.Client
	apiKey  string
	model   string
	baseURL string
}

// NewOpenAIProvider creates an OpenAI-backed provider.
func NewOpenAIProvider(apiKey, defaultModel string) (*OpenAIProvider, error) {
	if apiKey == "" {
		return nil, errors.NewConfigError("openai provider", errors.ErrMissingCredentials)
	}
	return &OpenAIProvider{
		client:  &http.Client{},
		apiKey:  apiKey,
		model:   defaultModel,
		baseURL: openAIDefaultBaseURL,
	}, nil
}

func (p *OpenAIProvider) Name() string { return "openai" }

func (p *OpenAIProvider) DefaultModel() string { return p.model }

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIRequest struct {
	Model               string              `json:"model"`
	Messages            []openAIMessage     `json:"messages"`
	MaxCompletionTokens int                 `json:"max_completion_tokens,omitempty"`
	Temperature         *float64            `json:"temperature,omitempty"`
	Stream              bool                `json:"stream,omitempty"`
	StreamOptions       *openAIStreamOption `json:"stream_options,omitempty"`
}

type openAIStreamOption struct {
	IncludeUsage bool `json:"include_usage"`
}

type openAIUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
}

type openAIResponse struct {
	Choices []struct {
		Message openAIMessage `json:"message"`
	} `json:"choices"`
	Usage *openAIUsage `json:"usage"`
}

type openAIChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
	Usage *openAIUsage `json:"usage"`
}

func (p *OpenAIProvider) buildBody(req Request, stream bool) ([]byte, error) {
	messages := make([]openAIMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		messages = append(messages, openAIMessage{Role: m.Role, Content: m.Content})
	}
	body := openAIRequest{
		Model:               resolveModel(req, p.model),
		Messages:            messages,
		MaxCompletionTokens: req.MaxTokens,
		Temperature:         req.Temperature,
		Stream:              stream,
	}
	if stream {
		body.StreamOptions = &openAIStreamOption{IncludeUsage: true}
	}
	return json.Marshal(body)
}

func (p *OpenAIProvider) post(ctx context.Context, body []byte) (*http.Response, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("openai: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("openai: http: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		return nil, httpStatusError("openai", resp)
	}
	return resp, nil
}

// Generate sends a non-streaming chat completion request.
func (p *OpenAIProvider) Generate(ctx context.Context, req Request) (string, TokenUsage, error) {
	body, err := p.buildBody(req, false)
	if err != nil {
		return "", TokenUsage{}, fmt.Errorf("openai: marshal: %w", err)
	}

	resp, err := p.post(ctx, body)
	if err != nil {
		return "", TokenUsage{}, err
	}
	defer resp.Body.Close()

	var parsed openAIResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", TokenUsage{}, fmt.Errorf("openai: decode: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", TokenUsage{}, fmt.Errorf("openai: no choices in response")
	}

	var usage TokenUsage
	if parsed.Usage != nil {
		usage = TokenUsage{
			InputTokens:  parsed.Usage.PromptTokens,
			OutputTokens: parsed.Usage.CompletionTokens,
		}
	}
	return parsed.Choices[0].Message.Content, usage, nil
}

// Stream opens a streaming chat completion call.
func (p *OpenAIProvider) Stream(ctx context.Context, req Request) (Stream, error) {
	body, err := p.buildBody(req, true)
	if err != nil {
		return nil, fmt.Errorf("openai: marshal: %w", err)
	}
	resp, err := p.post(ctx, body)
	if err != nil {
		return nil, err
	}
	return &openAIStream{sse: newSSEReader(resp.Body)}, nil
}

type openAIStream struct {
	sse   *sseReader
	usage TokenUsage
	done  bool
}

func (s *openAIStream) Recv() (string, error) {
	if s.done {
		return "", io.EOF
	}
	for {
		payload, err := s.sse.next()
		if err != nil {
			if err == io.EOF {
				// Stream ended without the [DONE] sentinel; treat what we
				// have as complete.
				s.done = true
			}
			return "", err
		}
		if payload == sseDoneSentinel {
			s.done = true
			return "", io.EOF
		}

		var chunk openAIChunk
		if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
			return "", fmt.Errorf("openai: decode chunk: %w", err)
		}
		if chunk.Usage != nil {
			s.usage = TokenUsage{
				InputTokens:  chunk.Usage.PromptTokens,
				OutputTokens: chunk.Usage.CompletionTokens,
			}
		}
		if len(chunk.Choices) > 0 && chunk.Choices[0].Delta.Content != "" {
			return chunk.Choices[0].Delta.Content, nil
		}
	}
}

func (s *openAIStream) Usage() (TokenUsage, error) {
	if !s.done {
		return TokenUsage{}, errors.ErrStreamNotDrained
	}
	return s.usage, nil
}

func (s *openAIStream) Close() error { return s.sse.close() }

// httpStatusError builds an error carrying the HTTP status and a body
// snippet so the transient classifier can match on status codes and
// vendor error types.
func httpStatusError(provider string, resp *http.Response) error {
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return fmt.Errorf("%s: status %d %s: %s",
		provider, resp.StatusCode, http.StatusText(resp.StatusCode), bytes.TrimSpace(snippet))
}

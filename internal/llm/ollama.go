package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/jpollock/multi-agent-resolution-synthesis/internal/errors"
)

// OllamaProvider speaks the local Ollama chat API. It needs no
// credentials; usage counts come from the model's eval statistics.
type OllamaProvider struct {
	client  *http.Client
	model   string
	baseURL string
}

// NewOllamaProvider creates a provider for a local Ollama server.
func NewOllamaProvider(baseURL, defaultModel string) (*OllamaProvider, error) {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	return &OllamaProvider{
		client:  &http.Client{},
		model:   defaultModel,
		baseURL: strings.TrimRight(baseURL, "/"),
	}, nil
}

func (p *OllamaProvider) Name() string { return "ollama" }

func (p *OllamaProvider) DefaultModel() string { return p.model }

type ollamaMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaOptions struct {
	NumPredict  int      `json:"num_predict,omitempty"`
	Temperature *float64 `json:"temperature,omitempty"`
}

type ollamaRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
	Options  ollamaOptions   `json:"options"`
}

type ollamaResponse struct {
	Message struct {
		Content string `json:"content"`
	} `json:"message"`
	Done            bool `json:"done"`
	PromptEvalCount int  `json:"prompt_eval_count"`
	EvalCount       int  `json:"eval_count"`
}

func (p *OllamaProvider) post(ctx context.Context, req Request, stream bool) (*http.Response, error) {
	messages := make([]ollamaMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		messages = append(messages, ollamaMessage{Role: m.Role, Content: m.Content})
	}
	body, err := json.Marshal(ollamaRequest{
		Model:    resolveModel(req, p.model),
		Messages: messages,
		Stream:   stream,
		Options: ollamaOptions{
			NumPredict:  req.MaxTokens,
			Temperature: req.Temperature,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("ollama: marshal: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("ollama: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("ollama: http: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		return nil, httpStatusError("ollama", resp)
	}
	return resp, nil
}

// Generate sends a non-streaming chat request.
func (p *OllamaProvider) Generate(ctx context.Context, req Request) (string, TokenUsage, error) {
	resp, err := p.post(ctx, req, false)
	if err != nil {
		return "", TokenUsage{}, err
	}
	defer resp.Body.Close()

	var parsed ollamaResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", TokenUsage{}, fmt.Errorf("ollama: decode: %w", err)
	}
	usage := TokenUsage{
		InputTokens:  parsed.PromptEvalCount,
		OutputTokens: parsed.EvalCount,
	}
	return parsed.Message.Content, usage, nil
}

// Stream opens a streaming chat call. Ollama streams newline-delimited
// JSON objects rather than SSE.
func (p *OllamaProvider) Stream(ctx context.Context, req Request) (Stream, error) {
	resp, err := p.post(ctx, req, true)
	if err != nil {
		return nil, err
	}
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	return &ollamaStream{scanner: scanner, body: resp.Body}, nil
}

type ollamaStream struct {
	scanner *bufio.Scanner
	body    io.ReadCloser
	usage   TokenUsage
	done    bool
}

func (s *ollamaStream) Recv() (string, error) {
	if s.done {
		return "", io.EOF
	}
	for s.scanner.Scan() {
		line := bytes.TrimSpace(s.scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var chunk ollamaResponse
		if err := json.Unmarshal(line, &chunk); err != nil {
			return "", fmt.Errorf("ollama: decode chunk: %w", err)
		}
		if chunk.Done {
			s.usage = TokenUsage{
				InputTokens:  chunk.PromptEvalCount,
				OutputTokens: chunk.EvalCount,
			}
			s.done = true
			if chunk.Message.Content != "" {
				return chunk.Message.Content, nil
			}
			return "", io.EOF
		}
		if chunk.Message.Content != "" {
			return chunk.Message.Content, nil
		}
	}
	if err := s.scanner.Err(); err != nil {
		return "", err
	}
	s.done = true
	return "", io.EOF
}

func (s *ollamaStream) Usage() (TokenUsage, error) {
	if !s.done {
		return TokenUsage{}, errors.ErrStreamNotDrained
	}
	return s.usage, nil
}

func (s *ollamaStream) Close() error { return s.body.Close() }

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

const googleBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// GoogleProvider speaks the Gemini generateContent API.
type GoogleProvider struct {
	client  *http.Client
	apiKey  string
	model   string
	baseURL string
}

// NewGoogleProvider creates a Gemini-backed provider.
func NewGoogleProvider(apiKey, defaultModel string) (*GoogleProvider, error) {
	if apiKey == "" {
		return nil, errors.NewConfigError("google provider", errors.ErrMissingCredentials)
	}
	return &GoogleProvider{
		client:  &http.Client{},
		apiKey:  apiKey,
		model:   defaultModel,
		baseURL: googleBaseURL,
	}, nil
}

func (p *GoogleProvider) Name() string { return "google" }

func (p *GoogleProvider) DefaultModel() string { return p.model }

type googlePart struct {
	Text string `json:"text"`
}

type googleContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []googlePart `json:"parts"`
}

type googleGenerationConfig struct {
	MaxOutputTokens int      `json:"maxOutputTokens,omitempty"`
	Temperature     *float64 `json:"temperature,omitempty"`
}

type googleRequest struct {
	Contents          []googleContent         `json:"contents"`
	SystemInstruction *googleContent          `json:"systemInstruction,omitempty"`
	GenerationConfig  *googleGenerationConfig `json:"generationConfig,omitempty"`
}

type googleResponse struct {
	Candidates []struct {
		Content googleContent `json:"content"`
	} `json:"candidates"`
	UsageMetadata *struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
	} `json:"usageMetadata"`
}

func (p *GoogleProvider) buildBody(req Request) ([]byte, error) {
	var system []string
	contents := make([]googleContent, 0, len(req.Messages))
	for _, m := range req.Messages {
		switch m.Role {
		case RoleSystem:
			system = append(system, m.Content)
		case RoleAssistant:
			contents = append(contents, googleContent{Role: "model", Parts: []googlePart{{Text: m.Content}}})
		default:
			contents = append(contents, googleContent{Role: "user", Parts: []googlePart{{Text: m.Content}}})
		}
	}

	body := googleRequest{
		Contents: contents,
		GenerationConfig: &googleGenerationConfig{
			MaxOutputTokens: req.MaxTokens,
			Temperature:     req.Temperature,
		},
	}
	if len(system) > 0 {
		body.SystemInstruction = &googleContent{Parts: []googlePart{{Text: strings.Join(system, "\n\n")}}}
	}
	return json.Marshal(body)
}

func (p *GoogleProvider) post(ctx context.Context, model, method, query string, body []byte) (*http.Response, error) {
	url := fmt.Sprintf("%s/models/%s:%s?key=%s%s", p.baseURL, model, method, p.apiKey, query)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("google: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("google: http: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		return nil, httpStatusError("google", resp)
	}
	return resp, nil
}

// Generate sends a non-streaming generateContent request.
func (p *GoogleProvider) Generate(ctx context.Context, req Request) (string, TokenUsage, error) {
	body, err := p.buildBody(req)
	if err != nil {
		return "", TokenUsage{}, fmt.Errorf("google: marshal: %w", err)
	}

	resp, err := p.post(ctx, resolveModel(req, p.model), "generateContent", "", body)
	if err != nil {
		return "", TokenUsage{}, err
	}
	defer resp.Body.Close()

	var parsed googleResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", TokenUsage{}, fmt.Errorf("google: decode: %w", err)
	}
	if len(parsed.Candidates) == 0 {
		return "", TokenUsage{}, fmt.Errorf("google: no candidates in response")
	}

	var content strings.Builder
	for _, part := range parsed.Candidates[0].Content.Parts {
		content.WriteString(part.Text)
	}
	var usage TokenUsage
	if parsed.UsageMetadata != nil {
		usage = TokenUsage{
			InputTokens:  parsed.UsageMetadata.PromptTokenCount,
			OutputTokens: parsed.UsageMetadata.CandidatesTokenCount,
		}
	}
	return content.String(), usage, nil
}

// Stream opens a streaming generateContent call using SSE framing.
func (p *GoogleProvider) Stream(ctx context.Context, req Request) (Stream, error) {
	body, err := p.buildBody(req)
	if err != nil {
		return nil, fmt.Errorf("google: marshal: %w", err)
	}
	resp, err := p.post(ctx, resolveModel(req, p.model), "streamGenerateContent", "&alt=sse", body)
	if err != nil {
		return nil, err
	}
	return &googleStream{sse: newSSEReader(resp.Body)}, nil
}

type googleStream struct {
	sse   *sseReader
	usage TokenUsage
	done  bool
}

func (s *googleStream) Recv() (string, error) {
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

		var chunk googleResponse
		if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
			return "", fmt.Errorf("google: decode chunk: %w", err)
		}
		if chunk.UsageMetadata != nil {
			s.usage = TokenUsage{
				InputTokens:  chunk.UsageMetadata.PromptTokenCount,
				OutputTokens: chunk.UsageMetadata.CandidatesTokenCount,
			}
		}
		if len(chunk.Candidates) > 0 {
			var text strings.Builder
			for _, part := range chunk.Candidates[0].Content.Parts {
				text.WriteString(part.Text)
			}
			if text.Len() > 0 {
				return text.String(), nil
			}
		}
	}
}

func (s *googleStream) Usage() (TokenUsage, error) {
	if !s.done {
		return TokenUsage{}, errors.ErrStreamNotDrained
	}
	return s.usage, nil
}

func (s *googleStream) Close() error { return s.sse.close() }

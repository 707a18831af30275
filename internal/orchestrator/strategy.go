package orchestrator

import (
	"context"
	"io"

	"github.com/sourcegraph/conc/pool"

	"github.com/jpollock/multi-agent-resolution-synthesis/internal/debate"
	"github.com/jpollock/multi-agent-resolution-synthesis/internal/llm"
	"github.com/jpollock/multi-agent-resolution-synthesis/internal/logging"
	"github.com/jpollock/multi-agent-resolution-synthesis/internal/output"
	"github.com/jpollock/multi-agent-resolution-synthesis/internal/render"
)

// Strategy runs one debate to completion.
type Strategy interface {
	Run(ctx context.Context) (*debate.Result, error)
}

// participant pairs a participant ID with its provider. The ID carries
// any :model suffix; the provider is already wrapped with retry.
type participant struct {
	id       string
	provider llm.Provider
}

// base holds the state shared by all strategies.
type base struct {
	participants []participant // registration order
	cfg          *debate.Config
	renderer     *render.Renderer
	writer       *output.Writer
	log          *logging.Logger
}

func newBase(participants []participant, cfg *debate.Config, renderer *render.Renderer, writer *output.Writer, log *logging.Logger) base {
	if log == nil {
		log = logging.Discard()
	}
	return base{
		participants: participants,
		cfg:          cfg,
		renderer:     renderer,
		writer:       writer,
		log:          log,
	}
}

func (b *base) find(id string) (participant, bool) {
	for _, p := range b.participants {
		if p.id == id {
			return p, true
		}
	}
	return participant{}, false
}

// request builds the provider request for one participant.
func (b *base) request(p participant, messages []llm.Message) llm.Request {
	return llm.Request{
		Messages:    messages,
		Model:       b.cfg.Model(p.id),
		MaxTokens:   b.cfg.MaxTokens,
		Temperature: b.cfg.Temperature,
	}
}

// resolvedModel is the model recorded on responses for a participant.
func (b *base) resolvedModel(p participant) string {
	if model := b.cfg.Model(p.id); model != "" {
		return model
	}
	return p.provider.DefaultModel()
}

// generate runs one non-streaming call and labels the response with the
// participant ID.
func (b *base) generate(ctx context.Context, p participant, messages []llm.Message) (llm.Response, error) {
	content, usage, err := p.provider.Generate(ctx, b.request(p, messages))
	if err != nil {
		return llm.Response{}, err
	}
	return llm.Response{
		Provider: p.id,
		Model:    b.resolvedModel(p),
		Content:  content,
		Usage:    usage,
	}, nil
}

// stream runs one streaming call, forwarding chunks to the renderer as
// they arrive. Usage is read after the stream drains.
func (b *base) stream(ctx context.Context, p participant, messages []llm.Message) (llm.Response, error) {
	stream, err := p.provider.Stream(ctx, b.request(p, messages))
	if err != nil {
		return llm.Response{}, err
	}
	defer stream.Close()

	b.renderer.StartProviderStream(p.id)
	var content []byte
	for {
		chunk, err := stream.Recv()
		if err == io.EOF {
			break
		}
		if err != nil {
			b.renderer.EndProviderStream()
			return llm.Response{}, err
		}
		b.renderer.StreamChunk(chunk)
		content = append(content, chunk...)
	}
	b.renderer.EndProviderStream()

	usage, err := stream.Usage()
	if err != nil {
		// A fully drained stream must expose usage; treat a refusal as a
		// zero count rather than failing the completed response.
		usage = llm.TokenUsage{}
	}
	return llm.Response{
		Provider: p.id,
		Model:    b.resolvedModel(p),
		Content:  string(content),
		Usage:    usage,
	}, nil
}

// dispatch is one planned provider call within a round.
type dispatch struct {
	p        participant
	messages []llm.Message
}

// gather runs the dispatches for one round. In verbose mode they run
// sequentially with streaming; in quiet mode they run in parallel and
// renderer output is emitted after the barrier, in registration order.
// Failed providers are reported and omitted; the first failure is
// returned alongside the successes for round-failure diagnostics.
func (b *base) gather(ctx context.Context, dispatches []dispatch, phase string) ([]llm.Response, error) {
	if b.cfg.Verbose {
		return b.gatherSequential(ctx, dispatches)
	}
	return b.gatherParallel(ctx, dispatches, phase)
}

func (b *base) gatherSequential(ctx context.Context, dispatches []dispatch) ([]llm.Response, error) {
	var responses []llm.Response
	var firstErr error
	for _, d := range dispatches {
		resp, err := b.stream(ctx, d.p, d.messages)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			b.log.WithProvider(d.p.id).Error("provider failed", "error", err.Error())
			b.renderer.ShowError(d.p.id, llm.SanitizeMessage(err.Error()))
			continue
		}
		responses = append(responses, resp)
	}
	return responses, firstErr
}

func (b *base) gatherParallel(ctx context.Context, dispatches []dispatch, phase string) ([]llm.Response, error) {
	names := make([]string, len(dispatches))
	for i, d := range dispatches {
		names[i] = d.p.id
	}
	b.renderer.StartWork(names, phase)

	results := make([]llm.Response, len(dispatches))
	errs := make([]error, len(dispatches))
	p := pool.New()
	for i, d := range dispatches {
		p.Go(func() {
			results[i], errs[i] = b.generate(ctx, d.p, d.messages)
		})
	}
	p.Wait()
	b.renderer.StopWork()

	var responses []llm.Response
	var firstErr error
	for i, d := range dispatches {
		if errs[i] != nil {
			if firstErr == nil {
				firstErr = errs[i]
			}
			b.log.WithProvider(d.p.id).Error("provider failed", "error", errs[i].Error())
			b.renderer.ShowError(d.p.id, llm.SanitizeMessage(errs[i].Error()))
			continue
		}
		b.renderer.ShowResponse(d.p.id, results[i].Content)
		responses = append(responses, results[i])
	}
	return responses, firstErr
}

// initialRound dispatches the opening prompt to every participant.
func (b *base) initialRound(ctx context.Context, phase string) ([]llm.Response, error) {
	messages := b.cfg.InitialMessages()
	dispatches := make([]dispatch, len(b.participants))
	for i, p := range b.participants {
		dispatches[i] = dispatch{p: p, messages: messages}
	}
	return b.gather(ctx, dispatches, phase)
}

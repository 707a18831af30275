package debate

import (
	"fmt"
	"strings"

	"github.com/jpollock/multi-agent-resolution-synthesis/internal/llm"
)

// FinalAnswerHeading is the sole in-band separator between resolution
// reasoning and the synthesised reply. It is matched case-sensitively on
// a line boundary.
const FinalAnswerHeading = "## Final Answer"

const systemContextTemplate = "You are participating in a structured debate. The user's prompt " +
	"includes context that is essential to the task. Treat the context " +
	"as primary source material - reference it directly, address its " +
	"specifics, and ensure your answer covers every requirement stated " +
	"in both the context and prompt.\n\n" +
	"CONTEXT:\n%s"

const critiqueInstructions = "\nIMPORTANT: Re-read the original prompt and context above carefully. " +
	"For each specific question or requirement in the original prompt, " +
	"evaluate whether the other models addressed it adequately.\n\n" +
	"1. Identify specific points where other answers are wrong, incomplete, " +
	"or miss requirements from the original prompt.\n" +
	"2. Identify what they got right that your answer missed.\n" +
	"3. Call out where any answer (including yours) replaced concrete data " +
	"from the original prompt with vague generalities.\n" +
	"4. Provide your COMPLETE improved answer that addresses ALL " +
	"requirements from the original prompt, incorporating valid points " +
	"from others while correcting errors.\n\n" +
	"When the prompt asks for examples, give CONCRETE examples using " +
	"real data from the context - not generic placeholders. When it asks " +
	"for code, prompts, or schemas, provide complete, usable output. " +
	"Do not summarize or shorten - give a full, detailed answer."

const evaluationRules = "CRITICAL RULES:\n" +
	"- Address EVERY numbered question or requirement in the original prompt.\n" +
	"- When the prompt asks for examples, provide CONCRETE examples with " +
	"real data, names, numbers, and specifics - not generic placeholders.\n" +
	"- When the prompt or context mentions specific data (names, numbers, " +
	"scores, versions), use that exact data in your answer.\n" +
	"- When the prompt asks for code, prompts, schemas, or configs, " +
	"provide complete, copy-pasteable output - not descriptions of what " +
	"it would look like.\n" +
	"- Prefer the most specific and detailed version of any point across " +
	"the models. Never abstract a concrete example into a vague summary.\n" +
	"- If models disagree, pick the version with the strongest reasoning " +
	"and most specificity.\n\n" +
	"Structure your response in two sections:\n\n" +
	"## Resolution Analysis\n" +
	"For each model, list which specific points you accepted and which " +
	"you rejected, with reasoning tied to the original requirements.\n\n" +
	"## Final Answer\n" +
	"Provide the complete synthesized answer. Match the level of detail " +
	"and specificity the original prompt demands."

const synthesisPreamble = "\nSynthesize the best possible answer from all models' responses. " +
	"Re-read the original prompt and context above carefully.\n\n"

const judgePreamble = "\nYou are the judge. Re-read the original prompt and context above " +
	"carefully. Evaluate each response against EVERY specific requirement " +
	"in the original prompt.\n\n"

// SystemMessage builds the context-bearing system message, or returns
// false when the debate has no context blocks.
func (c *Config) SystemMessage() (llm.Message, bool) {
	if len(c.Context) == 0 {
		return llm.Message{}, false
	}
	joined := strings.Join(c.Context, "\n\n---\n\n")
	return llm.Message{
		Role:    llm.RoleSystem,
		Content: fmt.Sprintf(systemContextTemplate, joined),
	}, true
}

// FullPrompt builds the complete original prompt including any labelled
// context blocks.
func (c *Config) FullPrompt() string {
	var parts []string
	if len(c.Context) > 0 {
		parts = append(parts, "=== CONTEXT ===")
		for i, ctx := range c.Context {
			if len(c.Context) > 1 {
				parts = append(parts, fmt.Sprintf("\n--- Context %d ---", i+1))
			}
			parts = append(parts, ctx)
		}
		parts = append(parts, "\n=== END CONTEXT ===\n")
	}
	parts = append(parts, "ORIGINAL PROMPT: "+c.Prompt)
	return strings.Join(parts, "\n")
}

// InitialMessages builds the round-one messages: the raw prompt with
// context, preceded by the system message when context exists.
func (c *Config) InitialMessages() []llm.Message {
	var messages []llm.Message
	if system, ok := c.SystemMessage(); ok {
		messages = append(messages, system)
	}
	messages = append(messages, llm.Message{Role: llm.RoleUser, Content: c.FullPrompt()})
	return messages
}

// CritiqueMessages builds a round-two-or-later prompt for one
// participant: its own previous answer plus every other participant's
// previous answer, labelled by name, with critique instructions.
func (c *Config) CritiqueMessages(participant string, own llm.Response, others []llm.Response) []llm.Message {
	parts := []string{c.FullPrompt()}
	parts = append(parts, fmt.Sprintf("\n---\n\nYour previous answer:\n%s\n", own.Content))
	parts = append(parts, "\nOther models' answers:\n")
	for _, other := range others {
		parts = append(parts, fmt.Sprintf("--- %s ---\n%s\n", other.Provider, other.Content))
	}
	parts = append(parts, critiqueInstructions)

	var messages []llm.Message
	if system, ok := c.SystemMessage(); ok {
		messages = append(messages, system)
	}
	messages = append(messages, llm.Message{Role: llm.RoleUser, Content: strings.Join(parts, "\n")})
	return messages
}

// SynthesisMessages builds the synthesis prompt over every
// participant's latest answer.
func (c *Config) SynthesisMessages(latest []llm.Response) []llm.Message {
	return c.terminalMessages(latest, "Final answers from each model after debate:", synthesisPreamble)
}

// JudgeMessages builds the judge prompt over every participant's
// initial answer.
func (c *Config) JudgeMessages(responses []llm.Response) []llm.Message {
	return c.terminalMessages(responses, "Responses from each model:", judgePreamble)
}

func (c *Config) terminalMessages(responses []llm.Response, label, preamble string) []llm.Message {
	parts := []string{c.FullPrompt()}
	parts = append(parts, "\n---\n\n"+label+"\n")
	for _, r := range responses {
		parts = append(parts, fmt.Sprintf("--- %s (%s) ---\n%s\n", r.Provider, r.Model, r.Content))
	}
	parts = append(parts, preamble+evaluationRules)

	var messages []llm.Message
	if system, ok := c.SystemMessage(); ok {
		messages = append(messages, system)
	}
	messages = append(messages, llm.Message{Role: llm.RoleUser, Content: strings.Join(parts, "\n")})
	return messages
}

// ParseFinalAnswer splits content on the first FinalAnswerHeading line:
// the text before is the resolution reasoning, the text after is the
// final answer. When the heading is absent the entire content is the
// final answer and the resolution is empty.
func ParseFinalAnswer(content string) (finalAnswer, resolution string) {
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		if strings.TrimRight(line, " \t\r") == FinalAnswerHeading {
			before := strings.Join(lines[:i], "\n")
			after := strings.Join(lines[i+1:], "\n")
			return strings.TrimSpace(after), strings.TrimSpace(before)
		}
	}
	return strings.TrimSpace(content), ""
}

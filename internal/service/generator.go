package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"coursechat/internal/domain"
	"coursechat/internal/llm"
	"coursechat/internal/tools"
)

// ErrUpstream marks failures of the hosted LLM API (auth, network,
// rate limits) so handlers can map them to a gateway error
var ErrUpstream = errors.New("llm request failed")

// maxToolRounds bounds how many tool-execution rounds a single query may
// trigger before the model is forced to answer
const maxToolRounds = 2

const systemPrompt = `You are an AI assistant specialized in course materials and educational content with access to a comprehensive knowledge base of course information.

Available tools:
- search_course_content: searches inside course materials for relevant content
- get_course_outline: returns a course's title, link and complete lesson list

Tool usage:
- Use search_course_content for questions about specific course content or detailed educational materials
- Use get_course_outline for questions about a course's structure, lesson list or overview
- You may use tools more than once when a question requires information from multiple searches
- Synthesize tool results into accurate, fact-based responses
- If a tool yields no results, state so briefly without offering alternatives

Response requirements:
- Brief, concise and focused
- Educational and clear
- No meta-commentary about your search process or reasoning

For general knowledge questions, answer from your own knowledge without using tools.`

// Generator drives model invocations for one query, executing requested
// tools and feeding their results back until the model produces text
type Generator struct {
	router *llm.Router
	tools  *tools.Manager
	maxTok int
}

// NewGenerator creates a response generator
func NewGenerator(router *llm.Router, toolManager *tools.Manager, maxTokens int) *Generator {
	return &Generator{
		router: router,
		tools:  toolManager,
		maxTok: maxTokens,
	}
}

// Generate answers a query, optionally using conversation history for
// context. It returns the answer text and the sources consulted by any
// tools the model invoked.
func (g *Generator) Generate(ctx context.Context, query, history, providerName, model string) (string, []domain.Source, error) {
	provider, err := g.router.GetProvider(providerName)
	if err != nil {
		return "", nil, fmt.Errorf("failed to select provider: %w", err)
	}

	system := systemPrompt
	if history != "" {
		system += "\n\nPrevious conversation:\n" + history
	}

	messages := []llm.Message{
		{Role: llm.RoleUser, Content: []llm.ContentBlock{llm.TextBlock(query)}},
	}
	req := llm.Request{
		System:    system,
		Messages:  messages,
		Tools:     g.tools.Definitions(),
		MaxTokens: g.maxTok,
	}

	resp, err := provider.Generate(ctx, req, model)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	var sources []domain.Source
	for round := 0; round < maxToolRounds && resp.StopReason == llm.StopToolUse; round++ {
		results, roundSources, execErr := g.executeTools(ctx, resp)
		sources = append(sources, roundSources...)

		req.Messages = append(req.Messages,
			llm.Message{Role: llm.RoleAssistant, Content: resp.Content},
			llm.Message{Role: llm.RoleUser, Content: results},
		)

		if execErr != nil {
			// Let the model explain the failure rather than surfacing it raw
			log.Warn().Err(execErr).Msg("tool execution failed, finalizing without tools")
			break
		}

		// The call after the last tool round omits tool schemas so the
		// model must produce text
		if round == maxToolRounds-1 {
			req.Tools = nil
		}

		resp, err = provider.Generate(ctx, req, model)
		if err != nil {
			return "", nil, fmt.Errorf("%w: %v", ErrUpstream, err)
		}
	}

	// A tool failed mid-round: one terminating call without tool schemas
	if resp.StopReason == llm.StopToolUse {
		req.Tools = nil
		resp, err = provider.Generate(ctx, req, model)
		if err != nil {
			return "", nil, fmt.Errorf("%w: %v", ErrUpstream, err)
		}
	}

	return resp.Text(), sources, nil
}

// executeTools runs every tool use in the response and returns the
// matching tool_result blocks. A non-nil error means at least one tool
// invocation panicked internally or could not be dispatched; partial
// results are still returned so the model sees what happened.
func (g *Generator) executeTools(ctx context.Context, resp *llm.Response) ([]llm.ContentBlock, []domain.Source, error) {
	var (
		blocks   []llm.ContentBlock
		sources  []domain.Source
		firstErr error
	)
	for _, use := range resp.ToolUses() {
		result, err := g.runTool(ctx, use)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			blocks = append(blocks, llm.ToolResultBlock(use.ID, fmt.Sprintf("Tool execution failed: %v", err), true))
			continue
		}
		sources = append(sources, result.Sources...)
		blocks = append(blocks, llm.ToolResultBlock(use.ID, result.Output, false))
	}
	return blocks, sources, firstErr
}

func (g *Generator) runTool(ctx context.Context, use llm.ContentBlock) (result tools.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("tool %q panicked: %v", use.Name, r)
		}
	}()

	log.Debug().Str("tool", use.Name).Interface("input", use.ToolInput).Msg("executing tool")
	return g.tools.Execute(ctx, use.Name, use.ToolInput), nil
}

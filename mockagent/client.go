// Package mockagent provides a reference core.Agent implementation and a
// scriptable core.AIClient for exercising the orchestrator without calling
// out to a real LLM provider.
package mockagent

import (
	"context"
	"errors"

	"github.com/vikramwani/agentalign/core"
)

// Client is a scriptable core.AIClient: it returns a queued response per
// call, or the configured error, grounded on the teacher's ai/providers/mock
// test double.
type Client struct {
	Responses     []string
	ResponseIndex int
	Err           error
	CallCount     int
	LastPrompt    string
	LastOptions   *core.AIOptions
}

// NewClient constructs a Client with a single default response.
func NewClient() *Client {
	return &Client{Responses: []string{`{"decision": true, "confidence": 0.8, "rationale": "default mock rationale", "evidence": []}`}}
}

// GenerateResponse returns the next queued response, or c.Err if set.
func (c *Client) GenerateResponse(ctx context.Context, prompt string, options *core.AIOptions) (*core.AIResponse, error) {
	c.CallCount++
	c.LastPrompt = prompt
	c.LastOptions = options

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	if c.Err != nil {
		return nil, c.Err
	}

	if c.ResponseIndex >= len(c.Responses) {
		return nil, errors.New("mockagent: no more responses queued")
	}

	response := c.Responses[c.ResponseIndex]
	c.ResponseIndex++

	model := "mock-model"
	if options != nil && options.Model != "" {
		model = options.Model
	}

	return &core.AIResponse{
		Content: response,
		Model:   model,
		Usage: core.TokenUsage{
			PromptTokens:     len(prompt) / 4,
			CompletionTokens: len(response) / 4,
			TotalTokens:      (len(prompt) + len(response)) / 4,
		},
	}, nil
}

// SetResponses replaces the response queue and resets the read cursor.
func (c *Client) SetResponses(responses ...string) {
	c.Responses = responses
	c.ResponseIndex = 0
}

// SetError configures the error GenerateResponse returns on every call.
func (c *Client) SetError(err error) {
	c.Err = err
}

// Reset clears call history, the configured error, and the read cursor. The
// response queue itself is kept, so queued responses are replayed from the
// start.
func (c *Client) Reset() {
	c.ResponseIndex = 0
	c.CallCount = 0
	c.LastPrompt = ""
	c.LastOptions = nil
	c.Err = nil
}

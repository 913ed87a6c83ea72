// Package llm wraps the chat-completion providers behind one small interface
// so the recommendation engine never cares which backend is configured.
package llm

import "context"

// Request is one completion call. Temperature and MaxTokens are set per call
// because the prompts differ: recommendations want variety, email drafts less.
type Request struct {
	System      string
	Prompt      string
	Temperature float64
	MaxTokens   int
}

// Client is a chat-completion provider.
type Client interface {
	Complete(ctx context.Context, req Request) (string, error)
}

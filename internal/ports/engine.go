package ports

import "context"

// ReasoningEngine is the black-box text interface behind decisions and
// distillations. One request, one response, no conversation state.
type ReasoningEngine interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

package domain

import "context"

type ctxKey int

const (
	runIDKey ctxKey = iota
	conversationKey
)

// WithRunID attaches the run identifier used to key audit records.
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey, runID)
}

// RunIDFromContext returns the run identifier, or "" when none is set.
func RunIDFromContext(ctx context.Context) string {
	v, _ := ctx.Value(runIDKey).(string)
	return v
}

// WithConversation attaches the name of the conversation currently executing.
func WithConversation(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, conversationKey, name)
}

// ConversationFromContext returns the executing conversation name, or "".
func ConversationFromContext(ctx context.Context) string {
	v, _ := ctx.Value(conversationKey).(string)
	return v
}

package llm

import "context"

// purposeKey carries the purpose label for request logging.
type purposeKey struct{}

// WithPurpose labels ctx with what the upcoming request is for
// ("unit-gen", "outline"). The label ends up in the llm_events log.
func WithPurpose(ctx context.Context, purpose string) context.Context {
	return context.WithValue(ctx, purposeKey{}, purpose)
}

// PurposeFrom returns the purpose label on ctx, or "unknown".
func PurposeFrom(ctx context.Context) string {
	if p, ok := ctx.Value(purposeKey{}).(string); ok {
		return p
	}
	return "unknown"
}

package llm

import (
	"context"
	"testing"
)

func TestPurposeRoundTrip(t *testing.T) {
	ctx := WithPurpose(context.Background(), "unit-gen")
	if got := PurposeFrom(ctx); got != "unit-gen" {
		t.Errorf("purpose = %q, want unit-gen", got)
	}
}

func TestPurposeDefault(t *testing.T) {
	if got := PurposeFrom(context.Background()); got != "unknown" {
		t.Errorf("purpose = %q, want unknown", got)
	}
}

package unitgen

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/cramblehq/cramble/internal/llm"
	"github.com/cramblehq/cramble/internal/pacing"
)

func outlineJSON() json.RawMessage {
	return json.RawMessage(`{
		"sections": ["Light Reactions", "Calvin Cycle", "Chloroplast Structure", "Limiting Factors"]
	}`)
}

func batchJSON() json.RawMessage {
	return json.RawMessage(`{
		"units": [
			{"context": "Plants convert light into chemical energy.", "question": "What do plants need for photosynthesis?", "answer": "Water and sunlight"},
			{"context": "", "question": "Where does the Calvin cycle take place?", "answer": "In the stroma of the chloroplast"},
			{"context": "Pigments absorb specific wavelengths.", "question": "Which pigment drives photosynthesis?", "answer": "Chlorophyll"}
		]
	}`)
}

func TestGenerate_Batch(t *testing.T) {
	mock := llm.NewMockProvider(
		llm.MockResponse{Content: outlineJSON()},
		llm.MockResponse{Content: batchJSON()},
	)
	gen := New(mock, DefaultConfig())

	units, err := gen.Generate(context.Background(), GenerateInput{
		Topic:      "photosynthesis",
		Difficulty: pacing.DifficultyMedium,
		StartIndex: 0,
		Count:      3,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(units) != 3 {
		t.Fatalf("expected 3 units, got %d", len(units))
	}
	if units[0].Index != 0 || units[2].Index != 2 {
		t.Errorf("indices not assigned from StartIndex: %d..%d", units[0].Index, units[2].Index)
	}
	if units[0].Question != "What do plants need for photosynthesis?" {
		t.Errorf("unexpected question: %q", units[0].Question)
	}
	if units[0].Answer != "Water and sunlight" {
		t.Errorf("unexpected answer: %q", units[0].Answer)
	}
	if units[1].Difficulty != pacing.DifficultyMedium {
		t.Errorf("difficulty not propagated: %q", units[1].Difficulty)
	}

	// Two provider calls: outline then batch.
	if mock.CallCount() != 2 {
		t.Fatalf("expected 2 provider calls, got %d", mock.CallCount())
	}
}

func TestGenerate_StartIndexOffset(t *testing.T) {
	mock := llm.NewMockProvider(
		llm.MockResponse{Content: outlineJSON()},
		llm.MockResponse{Content: batchJSON()},
	)
	gen := New(mock, DefaultConfig())

	units, err := gen.Generate(context.Background(), GenerateInput{
		Topic:      "photosynthesis",
		Difficulty: pacing.DifficultyEasy,
		StartIndex: 5,
		Count:      3,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if units[0].Index != 5 {
		t.Errorf("expected first index 5, got %d", units[0].Index)
	}

	// The batch prompt should name the absolute unit indices.
	batchReq := mock.Calls[1]
	if !strings.Contains(batchReq.Messages[0].Content, "unit 5 covers") {
		t.Errorf("batch prompt missing absolute index assignment:\n%s", batchReq.Messages[0].Content)
	}
}

func TestGenerate_OutlineMemoized(t *testing.T) {
	mock := llm.NewMockProvider(
		llm.MockResponse{Content: outlineJSON()},
		llm.MockResponse{Content: batchJSON()},
		llm.MockResponse{Content: batchJSON()},
	)
	gen := New(mock, DefaultConfig())

	input := GenerateInput{Topic: "photosynthesis", Difficulty: pacing.DifficultyMedium, StartIndex: 0, Count: 3}
	if _, err := gen.Generate(context.Background(), input); err != nil {
		t.Fatalf("first batch: %v", err)
	}

	input.StartIndex = 3
	if _, err := gen.Generate(context.Background(), input); err != nil {
		t.Fatalf("second batch: %v", err)
	}

	// Outline generated once, then two batch calls.
	if mock.CallCount() != 3 {
		t.Fatalf("expected 3 provider calls (1 outline + 2 batches), got %d", mock.CallCount())
	}
}

func TestGenerate_OutlineFallbackOnFailure(t *testing.T) {
	mock := llm.NewMockProvider(
		llm.MockResponse{Err: &llm.ErrProviderUnavailable{Err: errors.New("down")}},
		llm.MockResponse{Content: batchJSON()},
	)
	gen := New(mock, DefaultConfig())

	units, err := gen.Generate(context.Background(), GenerateInput{
		Topic:      "photosynthesis",
		Difficulty: pacing.DifficultyMedium,
		StartIndex: 0,
		Count:      3,
	})
	if err != nil {
		t.Fatalf("outline failure should fall back, got error: %v", err)
	}
	if len(units) != 3 {
		t.Fatalf("expected 3 units, got %d", len(units))
	}

	// The batch prompt should use the generic fallback sections.
	batchReq := mock.Calls[1]
	if !strings.Contains(batchReq.Messages[0].Content, "photosynthesis Basics") {
		t.Errorf("expected fallback outline in prompt:\n%s", batchReq.Messages[0].Content)
	}
}

func TestGenerate_EmptyBatchRejected(t *testing.T) {
	mock := llm.NewMockProvider(
		llm.MockResponse{Content: outlineJSON()},
		llm.MockResponse{Content: json.RawMessage(`{"units": []}`)},
	)
	gen := New(mock, DefaultConfig())

	_, err := gen.Generate(context.Background(), GenerateInput{
		Topic:      "photosynthesis",
		Difficulty: pacing.DifficultyMedium,
		Count:      3,
	})
	if err == nil {
		t.Fatal("expected error for empty batch")
	}
	var invResp *llm.ErrInvalidResponse
	if !errors.As(err, &invResp) {
		t.Fatalf("expected ErrInvalidResponse, got %T", err)
	}
}

func TestGenerate_StructuralFailure(t *testing.T) {
	bad := json.RawMessage(`{
		"units": [
			{"context": "", "question": "", "answer": "Water and sunlight"}
		]
	}`)
	mock := llm.NewMockProvider(
		llm.MockResponse{Content: outlineJSON()},
		llm.MockResponse{Content: bad},
	)
	gen := New(mock, DefaultConfig())

	_, err := gen.Generate(context.Background(), GenerateInput{
		Topic:      "photosynthesis",
		Difficulty: pacing.DifficultyMedium,
		Count:      1,
	})
	if err == nil {
		t.Fatal("expected validation error")
	}
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %T", err)
	}
	if verr.Validator != "structural" {
		t.Errorf("expected structural validator, got %q", verr.Validator)
	}
}

func TestGenerate_DuplicateQuestionsRejected(t *testing.T) {
	dup := json.RawMessage(`{
		"units": [
			{"context": "", "question": "What is chlorophyll?", "answer": "A green pigment"},
			{"context": "", "question": "what is  chlorophyll?", "answer": "The pigment in leaves"}
		]
	}`)
	mock := llm.NewMockProvider(
		llm.MockResponse{Content: outlineJSON()},
		llm.MockResponse{Content: dup},
	)
	gen := New(mock, DefaultConfig())

	_, err := gen.Generate(context.Background(), GenerateInput{
		Topic:      "photosynthesis",
		Difficulty: pacing.DifficultyMedium,
		Count:      2,
	})
	if err == nil {
		t.Fatal("expected dedup error")
	}
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %T", err)
	}
	if verr.Validator != "dedup" {
		t.Errorf("expected dedup validator, got %q", verr.Validator)
	}
}

func TestGenerate_ProviderErrorPropagates(t *testing.T) {
	mock := llm.NewMockProvider(
		llm.MockResponse{Content: outlineJSON()},
		llm.MockResponse{Err: &llm.ErrProviderUnavailable{Err: errors.New("down")}},
	)
	gen := New(mock, DefaultConfig())

	_, err := gen.Generate(context.Background(), GenerateInput{
		Topic:      "photosynthesis",
		Difficulty: pacing.DifficultyMedium,
		Count:      3,
	})
	if err == nil {
		t.Fatal("expected error")
	}
	var unavail *llm.ErrProviderUnavailable
	if !errors.As(err, &unavail) {
		t.Fatalf("expected ErrProviderUnavailable, got %T", err)
	}
}

func TestGenerate_ZeroCountNoCalls(t *testing.T) {
	mock := llm.NewMockProvider()
	gen := New(mock, DefaultConfig())

	units, err := gen.Generate(context.Background(), GenerateInput{
		Topic: "photosynthesis",
		Count: 0,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if units != nil {
		t.Fatalf("expected nil units, got %d", len(units))
	}
	if mock.CallCount() != 0 {
		t.Fatalf("expected no provider calls, got %d", mock.CallCount())
	}
}

func TestNarration(t *testing.T) {
	u := &ReviewUnit{
		Context:  "Plants convert light into chemical energy.",
		Question: "What do plants need?",
		Answer:   "Water and sunlight",
	}
	got := Narration(u)
	want := "Plants convert light into chemical energy. ... What do plants need? ... The answer is: Water and sunlight"
	if got != want {
		t.Fatalf("unexpected narration:\n got %q\nwant %q", got, want)
	}

	// Empty context is skipped.
	u2 := &ReviewUnit{Question: "Q?", Answer: "A"}
	if got := Narration(u2); got != "Q? ... The answer is: A" {
		t.Fatalf("unexpected narration without context: %q", got)
	}
}

func TestSectionFor(t *testing.T) {
	sections := []string{"one", "two", "three"}

	tests := []struct {
		index int
		want  string
	}{
		{0, "one"},
		{2, "one"},
		{3, "two"},
		{8, "three"},
		{9, "one"}, // wraps
	}
	for _, tt := range tests {
		if got := sectionFor(sections, tt.index, 3); got != tt.want {
			t.Errorf("sectionFor(%d) = %q, want %q", tt.index, got, tt.want)
		}
	}

	if got := sectionFor(nil, 0, 3); got != "" {
		t.Errorf("empty sections should yield empty string, got %q", got)
	}
}

func TestStaticGenerator(t *testing.T) {
	gen := NewStaticGenerator(
		&ReviewUnit{Question: "Q0", Answer: "A0"},
		&ReviewUnit{Question: "Q1", Answer: "A1"},
		&ReviewUnit{Question: "Q2", Answer: "A2"},
	)

	units, err := gen.Generate(context.Background(), GenerateInput{StartIndex: 1, Count: 5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(units) != 2 {
		t.Fatalf("expected remainder of 2 units, got %d", len(units))
	}
	if units[0].Index != 1 {
		t.Errorf("expected index 1, got %d", units[0].Index)
	}

	// Past the end yields nothing.
	units, err = gen.Generate(context.Background(), GenerateInput{StartIndex: 10, Count: 5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(units) != 0 {
		t.Fatalf("expected no units past the end, got %d", len(units))
	}

	if gen.CallCount() != 2 {
		t.Fatalf("expected 2 recorded calls, got %d", gen.CallCount())
	}
}

package unitgen

import (
	"fmt"
	"strings"
)

const unitSystemPrompt = `You are a study coach building rapid-review material for a learner cramming a topic.

Rules:
- Generate the exact number of review units requested, in order.
- Each unit is a (context, question, answer) triple about the assigned section of the topic.
- The context is at most two sentences of background. Leave it empty when the question stands alone.
- The question must be answerable with a short phrase, not an essay.
- The answer is the correct phrase, stated plainly. It doubles as the explanation, so make it self-contained.
- Use plain ASCII text. No markdown, no LaTeX, no numbered prefixes.
- Match the requested difficulty: "easy" checks recall of basic facts, "medium" checks understanding, "hard" checks application and edge cases.
- Do not repeat a question within the batch.`

const outlineSystemPrompt = `You are a study coach decomposing a topic into a learning outline.

Rules:
- Produce between 4 and 6 section titles covering the topic from fundamentals to applications.
- Titles are short noun phrases in plain ASCII text, e.g. "Light-Dependent Reactions".
- Order sections from foundational to advanced.`

// buildUnitMessage constructs the user message for a batch request.
// Each unit index carries its section assignment so regeneration of the
// same batch lines up with the same outline slots.
func buildUnitMessage(input GenerateInput, sections []string, unitsPerSection int) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Topic: %s\n", input.Topic)
	fmt.Fprintf(&b, "Difficulty: %s\n", input.Difficulty)
	fmt.Fprintf(&b, "Units requested: %d\n", input.Count)

	b.WriteString("\nSection assignments:\n")
	for i := 0; i < input.Count; i++ {
		idx := input.StartIndex + i
		fmt.Fprintf(&b, "%d. unit %d covers: %s\n", i+1, idx, sectionFor(sections, idx, unitsPerSection))
	}

	b.WriteString("\nReturn the units in the listed order.")
	return b.String()
}

// buildOutlineMessage constructs the user message for the outline stage.
func buildOutlineMessage(topic string) string {
	return fmt.Sprintf("Topic: %s", topic)
}

// sectionFor assigns a unit index to an outline section. Consecutive
// indices stay in one section for unitsPerSection units, then move on,
// wrapping so the sequence never runs out of sections.
func sectionFor(sections []string, index, unitsPerSection int) string {
	if len(sections) == 0 {
		return ""
	}
	if unitsPerSection < 1 {
		unitsPerSection = 1
	}
	return sections[(index/unitsPerSection)%len(sections)]
}

package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cramblehq/cramble/internal/grading"
	"github.com/cramblehq/cramble/internal/llm"
	"github.com/cramblehq/cramble/internal/pacing"
	"github.com/cramblehq/cramble/internal/unitgen"
)

var previewCmd = &cobra.Command{
	Use:   "preview <topic>",
	Short: "Preview generated units for a topic (no database)",
	Long: `Generate and interactively answer units for a topic.

This is a stateless developer tool: no database, no session, no events.
Useful for evaluating unit quality before studying a topic for real.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runPreview,
}

func init() {
	previewCmd.Flags().StringP("difficulty", "d", "medium", "Difficulty: easy, medium, or hard")
	previewCmd.Flags().IntP("count", "n", 5, "Number of units to generate")
}

func runPreview(cmd *cobra.Command, args []string) error {
	topic := grading.Normalize(strings.Join(args, " "))
	difficultyVal, _ := cmd.Flags().GetString("difficulty")
	count, _ := cmd.Flags().GetInt("count")

	if topic == "" {
		return fmt.Errorf("empty topic")
	}
	difficulty, ok := pacing.ParseDifficulty(difficultyVal)
	if !ok {
		return fmt.Errorf("invalid difficulty %q: must be easy, medium, or hard", difficultyVal)
	}

	// No event repo here: preview traffic stays out of the history.
	ctx := cmd.Context()
	provider, err := llm.NewProviderFromEnv(ctx, nil)
	if err != nil {
		return fmt.Errorf("LLM provider: %w", err)
	}

	gen := unitgen.New(provider, unitgen.DefaultConfig())
	grader := grading.ContainsGrader{}
	scanner := bufio.NewScanner(os.Stdin)

	fmt.Printf("Topic: %s (%s)\n", topic, difficulty)
	fmt.Printf("Generating %d units...\n\n", count)

	units, err := gen.Generate(ctx, unitgen.GenerateInput{
		Topic:      topic,
		Difficulty: difficulty,
		StartIndex: 0,
		Count:      count,
	})
	if err != nil {
		return fmt.Errorf("generate units: %w", err)
	}

	var correct, answered int
	for i, u := range units {
		fmt.Printf("── Unit %d/%d ──\n", i+1, len(units))
		if u.Context != "" {
			fmt.Println(u.Context)
		}
		fmt.Println(u.Question)

		fmt.Print("\nYour answer: ")
		if !scanner.Scan() {
			fmt.Println("\n(input closed)")
			break
		}
		answer := strings.TrimSpace(scanner.Text())
		if answer == "" {
			fmt.Printf("(skipped) Answer: %s\n\n", u.Answer)
			continue
		}

		answered++
		if grader.Grade(u.Answer, answer) {
			correct++
			fmt.Println("\033[32m✓ Correct!\033[0m")
		} else {
			fmt.Printf("\033[31m✗ Wrong.\033[0m Answer: %s\n", u.Answer)
		}
		fmt.Println()
	}

	fmt.Printf("── Summary: %d/%d correct ──\n", correct, answered)
	return nil
}

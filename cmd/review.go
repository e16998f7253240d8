package cmd

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cramblehq/cramble/internal/engine"
	"github.com/cramblehq/cramble/internal/pacing"
)

var reviewCmd = &cobra.Command{
	Use:   "review <topic>",
	Short: "Review a topic at your own pace, with optional narration",
	Long: `Start a review-mode session: no timers, no score. Each unit is
shown with its context, and when a TTS provider is configured the
narration can be saved as mp3 files with --audio-dir.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runReview,
}

func init() {
	reviewCmd.Flags().StringP("difficulty", "d", "medium", "Difficulty: easy, medium, or hard")
	reviewCmd.Flags().IntP("length", "n", 0, "Units per session (default 10)")
	reviewCmd.Flags().String("audio-dir", "", "Directory to write narration mp3 files into")
}

func runReview(cmd *cobra.Command, args []string) error {
	topic := strings.Join(args, " ")
	difficultyVal, _ := cmd.Flags().GetString("difficulty")
	length, _ := cmd.Flags().GetInt("length")
	audioDir, _ := cmd.Flags().GetString("audio-dir")

	difficulty, ok := pacing.ParseDifficulty(difficultyVal)
	if !ok {
		return fmt.Errorf("invalid difficulty %q: must be easy, medium, or hard", difficultyVal)
	}

	if audioDir != "" {
		if err := os.MkdirAll(audioDir, 0755); err != nil {
			return fmt.Errorf("create audio dir: %w", err)
		}
	}

	deps, err := buildSessionDeps(cmd, length, true)
	if err != nil {
		return err
	}
	defer deps.Close()

	ctx := cmd.Context()

	fmt.Printf("Preparing %q (%s)...\n", topic, difficulty)
	s, err := deps.Engine.Start(ctx, topic, pacing.ModeReview, difficulty)
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}

	fmt.Println("Answer to check yourself, Enter to reveal, q to quit.")
	fmt.Println()

	scanner := bufio.NewScanner(os.Stdin)
	eng := deps.Engine

	for {
		p, err := eng.Current(ctx, s.ID)
		if err != nil {
			return fmt.Errorf("next unit: %w", err)
		}

		fmt.Printf("── Unit %d ──\n", p.Cursor+1)
		if p.Unit.Context != "" {
			fmt.Println(p.Unit.Context)
		}
		fmt.Println(p.Unit.Question)

		if audioDir != "" && p.Unit.AudioRef != "" {
			if path, err := saveNarration(eng, audioDir, p.Unit.Index, p.Unit.AudioRef); err != nil {
				fmt.Fprintln(os.Stderr, "write narration:", err)
			} else if path != "" {
				fmt.Printf("(narration: %s)\n", path)
			}
		}

		fmt.Print("\n> ")
		if !scanner.Scan() {
			fmt.Println("\n(input closed)")
			_ = eng.Abandon(s.ID)
			return nil
		}
		answer := strings.TrimSpace(scanner.Text())

		if answer == "q" || answer == "quit" {
			_ = eng.Abandon(s.ID)
			fmt.Println("Review abandoned.")
			return nil
		}

		if answer == "" {
			fmt.Printf("Answer: %s\n", p.Unit.Answer)
		} else {
			fb, err := eng.SubmitAnswer(ctx, s.ID, answer)
			if err != nil {
				return fmt.Errorf("submit answer: %w", err)
			}
			if fb.Correct {
				fmt.Println("\033[32m✓ Correct!\033[0m")
			} else {
				fmt.Printf("\033[31m✗ Not quite.\033[0m Answer: %s\n", fb.Expected)
			}
		}
		fmt.Println()

		done, err := eng.Advance(ctx, s.ID)
		if err != nil {
			return fmt.Errorf("advance: %w", err)
		}
		if done {
			break
		}
	}

	fmt.Println("── Review complete ──")
	return nil
}

// saveNarration writes cached narration audio to disk. Returns the
// written path, or "" when the audio is not in the cache.
func saveNarration(eng *engine.Engine, dir string, index int, ref string) (string, error) {
	data, ok := eng.AudioData(ref)
	if !ok {
		return "", nil
	}
	path := filepath.Join(dir, fmt.Sprintf("unit-%02d.mp3", index))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", err
	}
	return path, nil
}

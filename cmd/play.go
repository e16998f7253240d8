package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/cramblehq/cramble/internal/engine"
	"github.com/cramblehq/cramble/internal/pacing"
)

var playCmd = &cobra.Command{
	Use:   "play <topic>",
	Short: "Play a timed cram session on a topic",
	Long: `Start a game-mode session: answer each unit before its timer runs
out. Fast answers earn a speed bonus, streaks shrink your time budget,
and the whole session runs against a fixed clock.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runPlay,
}

func init() {
	playCmd.Flags().StringP("difficulty", "d", "medium", "Difficulty: easy, medium, or hard")
	playCmd.Flags().IntP("length", "n", 0, "Units per session (default 10)")
}

func runPlay(cmd *cobra.Command, args []string) error {
	topic := strings.Join(args, " ")
	difficultyVal, _ := cmd.Flags().GetString("difficulty")
	length, _ := cmd.Flags().GetInt("length")

	difficulty, ok := pacing.ParseDifficulty(difficultyVal)
	if !ok {
		return fmt.Errorf("invalid difficulty %q: must be easy, medium, or hard", difficultyVal)
	}

	deps, err := buildSessionDeps(cmd, length, false)
	if err != nil {
		return err
	}
	defer deps.Close()

	ctx := cmd.Context()

	fmt.Printf("Preparing %q (%s)...\n", topic, difficulty)
	s, err := deps.Engine.Start(ctx, topic, pacing.ModeGame, difficulty)
	if err != nil {
		if errors.Is(err, engine.ErrTopicRejected) {
			return fmt.Errorf("cannot study %q: %w", topic, err)
		}
		return fmt.Errorf("start session: %w", err)
	}

	fmt.Println("Answer before the timer runs out. Enter to skip, q to quit.")
	fmt.Println()

	scanner := bufio.NewScanner(os.Stdin)
	eng := deps.Engine

	for {
		p, err := eng.Current(ctx, s.ID)
		if err != nil {
			return fmt.Errorf("next unit: %w", err)
		}

		fmt.Printf("── Unit %d ── score %d · streak %d · %s on the clock\n",
			p.Cursor+1, p.Score, p.Streak, p.Remaining.Round(time.Second))
		if p.Unit.Context != "" {
			fmt.Println(p.Unit.Context)
		}
		fmt.Println(p.Unit.Question)
		fmt.Printf("(%.0fs to answer)\n", p.Budget.Seconds())

		fmt.Print("\n> ")
		if !scanner.Scan() {
			fmt.Println("\n(input closed)")
			_ = eng.Abandon(s.ID)
			return nil
		}
		answer := strings.TrimSpace(scanner.Text())

		if answer == "q" || answer == "quit" {
			_ = eng.Abandon(s.ID)
			fmt.Println("Session abandoned.")
			return nil
		}

		if answer == "" {
			fmt.Println("(skipped)")
		} else {
			fb, err := eng.SubmitAnswer(ctx, s.ID, answer)
			if err != nil {
				return fmt.Errorf("submit answer: %w", err)
			}
			switch {
			case fb.Expired:
				fmt.Printf("\033[33mToo slow.\033[0m Answer: %s\n", fb.Expected)
			case fb.Correct:
				fmt.Printf("\033[32m✓ Correct!\033[0m +%d\n", fb.ScoreDelta)
			default:
				fmt.Printf("\033[31m✗ Wrong.\033[0m Answer: %s\n", fb.Expected)
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

	prog, err := eng.Snapshot(s.ID)
	if err != nil {
		return err
	}
	fmt.Printf("── Session complete: score %d · %d/%d correct ──\n",
		prog.Score, prog.Correct, prog.Answered)
	return nil
}

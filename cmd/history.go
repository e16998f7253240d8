package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cramblehq/cramble/internal/history"
	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect past sessions",
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		summaries, err := s.EventRepo().SessionSummaries(context.Background(), history.QueryOpts{Limit: limit})
		if err != nil {
			return fmt.Errorf("query sessions: %w", err)
		}

		if len(summaries) == 0 {
			fmt.Println("No sessions recorded yet. Try: cramble play <topic>")
			return nil
		}

		fmt.Printf("%-8s  %-19s  %-24s  %-7s  %-9s  %6s  %7s  %8s\n",
			"ID", "When", "Topic", "Mode", "State", "Score", "Correct", "Duration")
		fmt.Println(strings.Repeat("─", 102))

		for _, sum := range summaries {
			fmt.Printf("%-8s  %-19s  %-24s  %-7s  %-9s  %6d  %7d  %8s\n",
				truncate(sum.SessionID, 8),
				sum.Timestamp.Local().Format("2006-01-02 15:04:05"),
				truncate(sum.Topic, 24),
				sum.Mode,
				sum.Action,
				sum.Score,
				sum.CorrectAnswers,
				(time.Duration(sum.DurationSecs) * time.Second).String(),
			)
		}

		fmt.Printf("\n%d sessions · cramble history view <id> for details\n", len(summaries))
		return nil
	},
}

var historyViewCmd = &cobra.Command{
	Use:   "view <session-id>",
	Short: "Show a session's answers one by one",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		ctx := context.Background()
		repo := s.EventRepo()

		sum, err := resolveSession(ctx, repo, args[0])
		if err != nil {
			return err
		}

		fmt.Printf("Session:   %s\n", sum.SessionID)
		fmt.Printf("Topic:     %s\n", sum.Topic)
		fmt.Printf("Mode:      %s (%s)\n", sum.Mode, sum.Difficulty)
		fmt.Printf("State:     %s\n", sum.Action)
		fmt.Printf("Score:     %d\n", sum.Score)
		fmt.Printf("Correct:   %d/%d\n", sum.CorrectAnswers, sum.UnitsServed)
		fmt.Printf("Duration:  %s\n", (time.Duration(sum.DurationSecs) * time.Second).String())
		fmt.Printf("When:      %s\n", sum.Timestamp.Local().Format("2006-01-02 15:04:05"))

		answers, err := repo.SessionAnswers(ctx, sum.SessionID)
		if err != nil {
			return fmt.Errorf("query answers: %w", err)
		}
		if len(answers) == 0 {
			fmt.Println("\nNo answers recorded.")
			return nil
		}

		fmt.Println()
		fmt.Println(strings.Repeat("─", 72))
		for _, a := range answers {
			note := ""
			if a.Expired {
				note = "  (too slow)"
			}
			fmt.Printf("%2d. %s  +%-4d %6.1fs  %s%s\n",
				a.UnitIndex+1, mark(a.Correct), a.ScoreDelta,
				float64(a.TimeMs)/1000, truncate(a.Question, 44), note)
			if !a.Correct {
				fmt.Printf("        answered %q, expected %q\n", a.GivenAnswer, a.ExpectedAnswer)
			}
		}
		return nil
	},
}

// resolveSession looks a session up by full ID first, then by unique
// prefix across recent sessions.
func resolveSession(ctx context.Context, repo history.EventRepo, idArg string) (*history.SessionSummary, error) {
	sum, err := repo.GetSessionSummary(ctx, idArg)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	if sum != nil {
		return sum, nil
	}

	summaries, err := repo.SessionSummaries(ctx, history.QueryOpts{Limit: 500})
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	var match *history.SessionSummary
	for _, s := range summaries {
		if strings.HasPrefix(s.SessionID, idArg) {
			if match != nil {
				return nil, fmt.Errorf("session ID prefix %q is ambiguous", idArg)
			}
			match = s
		}
	}
	if match == nil {
		return nil, fmt.Errorf("session %q not found", idArg)
	}
	return match, nil
}

func init() {
	historyListCmd.Flags().IntP("limit", "n", 20, "Number of sessions to show")

	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyViewCmd)
}

package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show study statistics by topic",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		stats, err := s.EventRepo().AllTopicStats(context.Background())
		if err != nil {
			return fmt.Errorf("query topic stats: %w", err)
		}

		if len(stats) == 0 {
			fmt.Println("No sessions recorded yet. Try: cramble play <topic>")
			return nil
		}

		fmt.Printf("%-36s  %8s  %8s  %9s  %10s\n",
			"Topic", "Sessions", "Answers", "Accuracy", "Best Score")
		fmt.Println(strings.Repeat("─", 80))

		for _, ts := range stats {
			fmt.Printf("%-36s  %8d  %8d  %8.0f%%  %10d\n",
				truncate(ts.Topic, 36), ts.Sessions, ts.Answers,
				ts.Accuracy()*100, ts.BestScore)
		}

		fmt.Printf("\n%d topics\n", len(stats))
		return nil
	},
}

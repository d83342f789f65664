package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent question/answer exchanges",
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 10, "number of exchanges to show")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	turns, err := a.store.RecentTurns(ctx, historyLimit)
	if err != nil {
		return fmt.Errorf("loading history: %w", err)
	}
	if len(turns) == 0 {
		fmt.Println("No recorded exchanges yet.")
		return nil
	}

	for _, turn := range turns {
		fmt.Printf("%s", turn.CreatedAt.Local().Format("2006-01-02 15:04"))
		if turn.Course != "" {
			fmt.Printf("  [%s", turn.Course)
			if turn.Lesson != "" {
				fmt.Printf(" › %s", turn.Lesson)
			}
			fmt.Print("]")
		}
		fmt.Println()
		fmt.Printf("  Q: %s\n", oneLine(turn.Question))
		fmt.Printf("  A: %s\n\n", oneLine(turn.Answer))
	}
	return nil
}

// oneLine flattens text for compact listing.
func oneLine(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) > 120 {
		return string(runes[:119]) + "…"
	}
	return s
}

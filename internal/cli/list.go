package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/wildhash/agentpay/internal/app/escrow"
	"github.com/wildhash/agentpay/internal/daemon"
	"github.com/wildhash/agentpay/internal/domain"
)

func init() {
	listCmd.Flags().StringVar(&listStatus, "status", "", "Filter by status (created, submitted, resolved, cancelled, timed_out)")
	listCmd.Flags().StringVar(&listAgent, "for", "", "Filter by agent (payer or payee)")
	rootCmd.AddCommand(listCmd)
}

var (
	listStatus string
	listAgent  string
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List escrow tasks",
	RunE:    runList,
}

func runList(cmd *cobra.Command, args []string) error {
	d, err := daemon.New()
	if err != nil {
		return err
	}
	defer d.Close()

	filter := escrow.TaskFilter{
		Status: domain.TaskStatus(strings.ToUpper(listStatus)),
		Agent:  listAgent,
	}
	tasks := d.Ledger.ListTasks(filter)

	if len(tasks) == 0 {
		fmt.Println("No tasks found. Run 'agentpay create' to open an escrow.")
		return nil
	}

	w := newTable()
	fmt.Fprintln(w, "ID\tPAYER\tPAYEE\tAMOUNT\tSTATUS\tSCORE\tDESCRIPTION")
	for _, t := range tasks {
		score := "-"
		if t.Score != domain.ScoreUnset {
			score = fmt.Sprintf("%d", t.Score)
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			t.ID,
			t.Payer,
			t.Payee,
			domain.FormatAmount(t.Amount),
			t.Status,
			score,
			truncate(t.Description, 40),
		)
	}
	return w.Flush()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/wildhash/agentpay/internal/daemon"
	"github.com/wildhash/agentpay/internal/domain"
)

func init() {
	rootCmd.AddCommand(resolveCmd)
}

var resolveCmd = &cobra.Command{
	Use:   "resolve TASK_ID SCORE",
	Short: "Score a submitted task and settle its escrow (verifiers only)",
	Long: `Score a submitted deliverable from 0 to 100. The payee receives
amount*score/100 and the payer is refunded the remainder.`,
	Args: cobra.ExactArgs(2),
	RunE: runResolve,
}

func runResolve(cmd *cobra.Command, args []string) error {
	verifier, err := requireAgent()
	if err != nil {
		return err
	}
	id, err := parseTaskID(args[0])
	if err != nil {
		return err
	}
	score, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("invalid score %q: expected 0-100", args[1])
	}

	d, err := daemon.New()
	if err != nil {
		return err
	}
	defer d.Close()

	task, err := d.Ledger.ScoreAndResolve(verifier, id, score)
	if err != nil {
		return err
	}

	fmt.Printf("Task %d resolved at %d/100\n", task.ID, task.Score)
	fmt.Printf("  Paid %s to %s\n", domain.FormatAmount(task.PayeeAmount), task.Payee)
	fmt.Printf("  Refunded %s to %s\n", domain.FormatAmount(task.RefundAmount), task.Payer)
	return nil
}

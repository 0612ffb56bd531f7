package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/wildhash/agentpay/internal/daemon"
	"github.com/wildhash/agentpay/internal/domain"
)

func init() {
	rootCmd.AddCommand(claimCmd)
}

var claimCmd = &cobra.Command{
	Use:   "claim TASK_ID",
	Short: "Reclaim the escrow of a task whose deadline has passed",
	Long: `Reclaim funds from a task that never received a deliverable.
Only the payer can claim, and only after the deadline. The serve
daemon's sweeper does this automatically for overdue tasks.`,
	Args: cobra.ExactArgs(1),
	RunE: runClaim,
}

func runClaim(cmd *cobra.Command, args []string) error {
	payer, err := requireAgent()
	if err != nil {
		return err
	}
	id, err := parseTaskID(args[0])
	if err != nil {
		return err
	}

	d, err := daemon.New()
	if err != nil {
		return err
	}
	defer d.Close()

	task, err := d.Ledger.ClaimTimeout(payer, id)
	if err != nil {
		return err
	}

	fmt.Printf("Task %d timed out, refunded %s to %s\n",
		task.ID, domain.FormatAmount(task.RefundAmount), task.Payer)
	return nil
}

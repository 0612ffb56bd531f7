package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/wildhash/agentpay/internal/daemon"
	"github.com/wildhash/agentpay/internal/domain"
)

func init() {
	rootCmd.AddCommand(cancelCmd)
}

var cancelCmd = &cobra.Command{
	Use:   "cancel TASK_ID [REASON...]",
	Short: "Cancel a task you opened, before any deliverable lands",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runCancel,
}

func runCancel(cmd *cobra.Command, args []string) error {
	payer, err := requireAgent()
	if err != nil {
		return err
	}
	id, err := parseTaskID(args[0])
	if err != nil {
		return err
	}
	reason := strings.Join(args[1:], " ")

	d, err := daemon.New()
	if err != nil {
		return err
	}
	defer d.Close()

	task, err := d.Ledger.CancelTask(payer, id, reason)
	if err != nil {
		return err
	}

	fmt.Printf("Cancelled task %d, refunded %s to %s\n",
		task.ID, domain.FormatAmount(task.RefundAmount), task.Payer)
	return nil
}
